package market

import (
	"fmt"
	"log/slog"
	"math"
)

// neutralScore is used when a demand signal has no data behind it.
const neutralScore = 0.5

// FishDemandMetrics is the ephemeral per-fish demand snapshot the price
// adjuster computes once per day. Not persisted.
type FishDemandMetrics struct {
	FishName         string
	Rarity           Rarity
	PreferenceScore  float64
	SalesScore       float64
	TotalListings    int
	SuccessfulSales  int
	AvgSellingPrice  float64
	CurrentBasePrice int
}

// PriceAdjuster recomputes each fish's published price for the next day
// from the day's outcomes.
type PriceAdjuster struct {
	store Store
}

// NewPriceAdjuster creates the end-of-day price pass.
func NewPriceAdjuster(store Store) *PriceAdjuster {
	return &PriceAdjuster{store: store}
}

// CalculateDemandMetrics blends customer preference data with the day's
// sales performance for one fish. dayListings is the full listing set for
// the day being closed.
func (a *PriceAdjuster) CalculateDemandMetrics(fish Fish, customers []*Customer, dayListings []Listing) FishDemandMetrics {
	m := FishDemandMetrics{FishName: fish.Name, Rarity: fish.Rarity}

	// Preference score: type-weighted average of every customer's stored
	// score for this fish, neutral 0.5 when nobody has one.
	weightSum, scoreSum := 0.0, 0.0
	for _, c := range customers {
		for _, p := range c.Preferences {
			if p.FishName != fish.Name {
				continue
			}
			w := c.Type.DemandWeight()
			weightSum += w
			scoreSum += w * p.Score
			break
		}
	}
	if weightSum > 0 {
		m.PreferenceScore = scoreSum / weightSum
	} else {
		m.PreferenceScore = neutralScore
	}

	basePrice, err := a.store.CurrentPrice(fish.Name)
	if err != nil {
		slog.Warn("base price lookup failed", "fish", fish.Name, "error", err)
		basePrice = fish.Rarity.Band().Min
	}
	m.CurrentBasePrice = basePrice

	soldValue := 0
	for _, l := range dayListings {
		if l.FishName != fish.Name {
			continue
		}
		m.TotalListings++
		if l.IsSold {
			m.SuccessfulSales++
			soldValue += l.Price
		}
	}
	if m.SuccessfulSales > 0 {
		m.AvgSellingPrice = float64(soldValue) / float64(m.SuccessfulSales)
	}

	// Sales score: sell-through scaled by realized price vs base. Neutral
	// when the fish was never listed today.
	if m.TotalListings > 0 && basePrice > 0 {
		sellThrough := float64(m.SuccessfulSales) / float64(m.TotalListings)
		m.SalesScore = sellThrough * (m.AvgSellingPrice / float64(basePrice))
	} else {
		m.SalesScore = neutralScore
	}

	return m
}

// CalculateNextDayPrice turns demand metrics into tomorrow's base price,
// clamped to the rarity band. Degenerate results collapse to the band
// minimum instead of being written as-is.
func (a *PriceAdjuster) CalculateNextDayPrice(m FishDemandMetrics) int {
	band := m.Rarity.Band()

	demandScore := 0.6*m.PreferenceScore + 0.4*m.SalesScore
	adjustment := (demandScore - 1.0) * m.Rarity.MaxPriceAdjustment()
	newPrice := float64(m.CurrentBasePrice) * (1 + adjustment)

	if math.IsNaN(newPrice) || newPrice <= 0 {
		return band.Min
	}
	price := int(math.Round(newPrice))
	if price < band.Min {
		price = band.Min
	}
	if price > band.Max {
		price = band.Max
	}
	return price
}

// AdjustPrices runs the full end-of-day pass: one new price row per catalog
// fish, all written for the same next day index.
func (a *PriceAdjuster) AdjustPrices(day int, customers []*Customer) error {
	catalog, err := a.store.FishCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	dayListings, err := a.store.ListingsForDay(day)
	if err != nil {
		slog.Warn("day listings unavailable, sales scores neutral", "day", day, "error", err)
		dayListings = nil
	}

	currentDay, err := a.store.CurrentDay()
	if err != nil {
		return fmt.Errorf("resolve current day: %w", err)
	}
	nextDay := currentDay + 1

	for _, fish := range catalog {
		m := a.CalculateDemandMetrics(fish, customers, dayListings)
		price := a.CalculateNextDayPrice(m)
		if err := a.store.InsertPrice(fish.Name, nextDay, price); err != nil {
			slog.Warn("price write failed", "fish", fish.Name, "day", nextDay, "error", err)
			continue
		}
		slog.Debug("price adjusted",
			"fish", fish.Name,
			"rarity", fish.Rarity.String(),
			"pref_score", fmt.Sprintf("%.3f", m.PreferenceScore),
			"sales_score", fmt.Sprintf("%.3f", m.SalesScore),
			"old", m.CurrentBasePrice,
			"new", price,
		)
	}

	return nil
}
