package persistence

import (
	"fmt"
	"log/slog"

	"github.com/quayside/fishmarket/internal/market"
)

// defaultCatalog is the shipped 20-fish catalog, four per rarity.
var defaultCatalog = []market.Fish{
	{Name: "Sardine", Rarity: market.RarityCommon, MinWeight: 0.1, MaxWeight: 0.3},
	{Name: "Herring", Rarity: market.RarityCommon, MinWeight: 0.2, MaxWeight: 0.6},
	{Name: "Mackerel", Rarity: market.RarityCommon, MinWeight: 0.5, MaxWeight: 2.0},
	{Name: "Anchovy", Rarity: market.RarityCommon, MinWeight: 0.05, MaxWeight: 0.2},

	{Name: "Sea Bream", Rarity: market.RarityUncommon, MinWeight: 1.0, MaxWeight: 4.0},
	{Name: "Flounder", Rarity: market.RarityUncommon, MinWeight: 0.8, MaxWeight: 3.5},
	{Name: "Bonito", Rarity: market.RarityUncommon, MinWeight: 2.0, MaxWeight: 6.0},
	{Name: "Rockfish", Rarity: market.RarityUncommon, MinWeight: 1.0, MaxWeight: 5.0},

	{Name: "Mahi-Mahi", Rarity: market.RarityRare, MinWeight: 7.0, MaxWeight: 18.0},
	{Name: "Swordfish", Rarity: market.RarityRare, MinWeight: 50.0, MaxWeight: 200.0},
	{Name: "Yellowfin Tuna", Rarity: market.RarityRare, MinWeight: 30.0, MaxWeight: 180.0},
	{Name: "Monkfish", Rarity: market.RarityRare, MinWeight: 5.0, MaxWeight: 20.0},

	{Name: "Bluefin Tuna", Rarity: market.RarityEpic, MinWeight: 150.0, MaxWeight: 450.0},
	{Name: "Giant Grouper", Rarity: market.RarityEpic, MinWeight: 100.0, MaxWeight: 400.0},
	{Name: "Opah", Rarity: market.RarityEpic, MinWeight: 40.0, MaxWeight: 120.0},
	{Name: "Sailfish", Rarity: market.RarityEpic, MinWeight: 30.0, MaxWeight: 90.0},

	{Name: "Oarfish", Rarity: market.RarityLegendary, MinWeight: 100.0, MaxWeight: 270.0},
	{Name: "Coelacanth", Rarity: market.RarityLegendary, MinWeight: 40.0, MaxWeight: 90.0},
	{Name: "Black Marlin", Rarity: market.RarityLegendary, MinWeight: 200.0, MaxWeight: 700.0},
	{Name: "Ghost Koi", Rarity: market.RarityLegendary, MinWeight: 2.0, MaxWeight: 9.0},
}

// SeedCatalog inserts the default catalog and day-0 prices (band midpoint
// per rarity) into an empty store. A store that already has fish is left
// untouched.
func (db *DB) SeedCatalog() error {
	existing, err := db.FishCatalog()
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range defaultCatalog {
		_, err := tx.Exec(
			"INSERT INTO fish (name, rarity, min_weight, max_weight) VALUES (?, ?, ?, ?)",
			f.Name, f.Rarity, f.MinWeight, f.MaxWeight)
		if err != nil {
			return fmt.Errorf("seed fish %q: %w", f.Name, err)
		}

		band := f.Rarity.Band()
		price := (band.Min + band.Max) / 2
		_, err = tx.Exec(
			"INSERT INTO prices (fish_name, day, price) VALUES (?, 0, ?)",
			f.Name, price)
		if err != nil {
			return fmt.Errorf("seed price for %q: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("catalog seeded", "fish", len(defaultCatalog))
	return nil
}
