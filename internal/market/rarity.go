// Package market implements the daily fish market simulation: the customer
// population, fisher sellers, the purchase decision loop, and the end-of-day
// price adjustment.
package market

// Rarity is the ordinal fish tier driving price bands and preference weighting.
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

// AllRarities lists every rarity in ascending order.
var AllRarities = [5]Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

// String returns the rarity name.
func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityUncommon:
		return "Uncommon"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityLegendary:
		return "Legendary"
	default:
		return "Unknown"
	}
}

// PriceBand is the allowed base-price range for a rarity.
type PriceBand struct {
	Min int
	Max int
}

// priceBands fixes the per-rarity base-price ranges.
var priceBands = map[Rarity]PriceBand{
	RarityCommon:    {Min: 40, Max: 60},
	RarityUncommon:  {Min: 80, Max: 120},
	RarityRare:      {Min: 200, Max: 300},
	RarityEpic:      {Min: 400, Max: 600},
	RarityLegendary: {Min: 800, Max: 1200},
}

// Band returns the base-price band for a rarity.
func (r Rarity) Band() PriceBand {
	if b, ok := priceBands[r]; ok {
		return b
	}
	return priceBands[RarityCommon]
}

// WTPMultiplier returns the willingness-to-pay boost a rarity grants.
func (r Rarity) WTPMultiplier() float64 {
	switch r {
	case RarityLegendary:
		return 1.5
	case RarityEpic:
		return 1.3
	case RarityRare:
		return 1.2
	case RarityUncommon:
		return 1.1
	default:
		return 1.0
	}
}

// MaxPriceAdjustment returns the largest fractional day-over-day price move
// allowed for a rarity.
func (r Rarity) MaxPriceAdjustment() float64 {
	switch r {
	case RarityLegendary:
		return 0.30
	case RarityEpic:
		return 0.25
	case RarityRare:
		return 0.20
	case RarityUncommon:
		return 0.15
	default:
		return 0.10
	}
}
