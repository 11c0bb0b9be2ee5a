package market

import (
	"log/slog"
	"math"

	"github.com/quayside/fishmarket/internal/entropy"
	"github.com/quayside/fishmarket/internal/tide"
)

// PriceStrategy is how a seller positions its listings against base price.
type PriceStrategy uint8

const (
	StrategyAggressive PriceStrategy = iota
	StrategyConservative
	StrategyMarketValue
)

func (s PriceStrategy) String() string {
	switch s {
	case StrategyAggressive:
		return "Aggressive"
	case StrategyConservative:
		return "Conservative"
	case StrategyMarketValue:
		return "MarketValue"
	default:
		return "Unknown"
	}
}

// Seller is a fisher AI. Stateless across days except for identity; it
// generates a fresh catch every morning.
type Seller struct {
	ID       int
	Name     string
	Strategy PriceStrategy

	// RarityWeights is the catch distribution; weights should sum to 1.
	RarityWeights map[Rarity]float64

	MinCatch int
	MaxCatch int

	store Store
	src   entropy.Source
	tides *tide.Field
}

// NewSeller wires a seller to its collaborators. tides may be nil for
// neutral fishing conditions.
func NewSeller(id int, name string, strategy PriceStrategy, weights map[Rarity]float64, minCatch, maxCatch int, store Store, src entropy.Source, tides *tide.Field) *Seller {
	return &Seller{
		ID:            id,
		Name:          name,
		Strategy:      strategy,
		RarityWeights: weights,
		MinCatch:      minCatch,
		MaxCatch:      maxCatch,
		store:         store,
		src:           src,
		tides:         tides,
	}
}

// DefaultSellers builds the four shipped fisher archetypes.
func DefaultSellers(store Store, src entropy.Source, tides *tide.Field) []*Seller {
	return []*Seller{
		NewSeller(0, "Old Pier Tom", StrategyAggressive, map[Rarity]float64{
			RarityCommon: 0.80, RarityUncommon: 0.15, RarityRare: 0.05,
		}, 15, 20, store, src, tides),
		NewSeller(1, "Deepwater Mira", StrategyConservative, map[Rarity]float64{
			RarityCommon: 0.20, RarityUncommon: 0.45, RarityRare: 0.30, RarityLegendary: 0.05,
		}, 1, 3, store, src, tides),
		NewSeller(2, "Harbor Jun", StrategyMarketValue, map[Rarity]float64{
			RarityCommon: 0.50, RarityUncommon: 0.30, RarityRare: 0.15, RarityLegendary: 0.05,
		}, 8, 12, store, src, tides),
		NewSeller(3, "Captain Essa", StrategyMarketValue, map[Rarity]float64{
			RarityCommon: 0.35, RarityUncommon: 0.35, RarityRare: 0.20, RarityLegendary: 0.10,
		}, 10, 15, store, src, tides),
	}
}

// GenerateCatch produces the day's catch as fish names. Catch size is
// uniform in [MinCatch, MaxCatch], scaled by the day's fishing conditions;
// each unit rolls a rarity by cumulative weight and then a uniform fish of
// that rarity from the catalog.
func (s *Seller) GenerateCatch(day int) []string {
	size := entropy.IntBetween(s.src, s.MinCatch, s.MaxCatch)
	size = int(math.Round(float64(size) * s.conditionsFactor(day)))
	if size < 1 {
		size = 1
	}

	catch := make([]string, 0, size)
	for i := 0; i < size; i++ {
		r, ok := s.rollRarity()
		if !ok {
			continue
		}
		fishes, err := s.store.FishByRarity(r)
		if err != nil || len(fishes) == 0 {
			// Empty catalog for a rarity is a setup problem, not a day-killer.
			continue
		}
		catch = append(catch, fishes[s.src.IntN(len(fishes))].Name)
	}
	return catch
}

// conditionsFactor averages the tide factor over the seller's rarity mix.
func (s *Seller) conditionsFactor(day int) float64 {
	if s.tides == nil {
		return 1.0
	}
	total, weighted := 0.0, 0.0
	for r, w := range s.RarityWeights {
		total += w
		weighted += w * s.tides.Factor(day, uint8(r))
	}
	if total <= 0 {
		return 1.0
	}
	return weighted / total
}

// rollRarity draws a rarity by cumulative weight, false when no weight is
// configured.
func (s *Seller) rollRarity() (Rarity, bool) {
	total := 0.0
	for _, r := range AllRarities {
		total += s.RarityWeights[r]
	}
	if total <= 0 {
		return RarityCommon, false
	}

	roll := s.src.Float64() * total
	cumulative := 0.0
	for _, r := range AllRarities {
		cumulative += s.RarityWeights[r]
		if roll <= cumulative && s.RarityWeights[r] > 0 {
			return r, true
		}
	}
	// Floating point slack: land on the last weighted rarity.
	for i := len(AllRarities) - 1; i >= 0; i-- {
		if s.RarityWeights[AllRarities[i]] > 0 {
			return AllRarities[i], true
		}
	}
	return RarityCommon, false
}

// DetermineSellPrice applies the seller's strategy to a base price, then
// clamps to the bracket floor and ceiling derived from the base price.
func (s *Seller) DetermineSellPrice(basePrice int) int {
	base := float64(basePrice)
	floor := priceFloor(basePrice)
	ceiling := priceCeiling(basePrice)

	var raw float64
	switch s.Strategy {
	case StrategyAggressive:
		raw = math.Max(float64(floor), 0.80*base)
	case StrategyConservative:
		raw = 1.01 * base
	default: // MarketValue
		raw = 0.90 * base
	}

	price := int(math.Round(raw))
	if price < floor {
		price = floor
	}
	if price > ceiling {
		price = ceiling
	}
	return price
}

func priceFloor(basePrice int) int {
	switch {
	case basePrice < 20:
		return 5
	case basePrice < 40:
		return 20
	case basePrice < 60:
		return 40
	case basePrice < 100:
		return 60
	default:
		return 100
	}
}

func priceCeiling(basePrice int) int {
	switch {
	case basePrice < 60:
		return 60
	case basePrice < 120:
		return 120
	case basePrice < 300:
		return 300
	case basePrice < 600:
		return 600
	default:
		return 1200
	}
}

// CreateListings prices each caught fish and appends a listing to the
// store. Lookup or insert failures skip the fish and the day goes on.
func (s *Seller) CreateListings(day int, fishNames []string) int {
	created := 0
	for _, name := range fishNames {
		fish, err := s.store.FishByName(name)
		if err != nil || fish == nil {
			slog.Warn("catch references unknown fish", "seller", s.Name, "fish", name, "error", err)
			continue
		}
		basePrice, err := s.store.CurrentPrice(name)
		if err != nil {
			slog.Warn("price lookup failed", "seller", s.Name, "fish", name, "error", err)
			continue
		}
		price := s.DetermineSellPrice(basePrice)
		if _, err := s.store.InsertListing(day, name, fish.Rarity, price, s.ID); err != nil {
			slog.Warn("listing insert failed", "seller", s.Name, "fish", name, "error", err)
			continue
		}
		created++
	}
	return created
}
