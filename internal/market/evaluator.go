package market

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/quayside/fishmarket/internal/entropy"
)

// averagePriceWindow is how many days of listings feed the market-average
// price used for willingness-to-pay ratios.
const averagePriceWindow = 7

// lowPreferenceCutoff is the score below which a rejection is classified
// as LowPreference.
const lowPreferenceCutoff = 0.3

// Decision is the evaluator's verdict for one shopping attempt.
type Decision struct {
	Listing *Listing
	Reason  RejectionReason
	Detail  string
}

// Bought reports whether the decision accepted a listing.
func (d Decision) Bought() bool {
	return d.Listing != nil && d.Reason == ReasonAccepted
}

// Evaluator decides whether a customer buys from a set of candidate
// listings, applying budget, preference, and willingness-to-pay rules.
type Evaluator struct {
	store Store
	src   entropy.Source
}

// NewEvaluator creates a purchase evaluator.
func NewEvaluator(store Store, src entropy.Source) *Evaluator {
	return &Evaluator{store: store, src: src}
}

// Evaluate picks at most one listing for the customer from candidates. The
// caller supplies listings already filtered to unsold stock from the seller
// being visited. Preferences are scanned best score first; within one fish,
// listings are tried cheapest first with seller bias breaking ties.
func (e *Evaluator) Evaluate(c *Customer, candidates []Listing) Decision {
	if len(candidates) == 0 {
		return Decision{Reason: ReasonNoMatchingListing, Detail: "no stock to consider"}
	}

	prefs := c.UnpurchasedPreferences()
	if !c.CanPurchase() || len(prefs) == 0 {
		for _, l := range candidates {
			e.recordRejection(l.ID, c.ID, ReasonReachedPurchaseLimit)
		}
		return Decision{Reason: ReasonReachedPurchaseLimit, Detail: "shopping list exhausted"}
	}

	for _, pref := range prefs {
		matching := e.listingsForPreference(c, pref, candidates)
		for _, l := range matching {
			accepted, reason := e.consider(c, pref, l)
			if accepted {
				return Decision{
					Listing: &l,
					Reason:  ReasonAccepted,
					Detail:  fmt.Sprintf("%s at %dg from seller %d", l.FishName, l.Price, l.SellerID),
				}
			}
			if reason != "" {
				e.recordRejection(l.ID, c.ID, reason)
			}
		}
	}

	return Decision{Reason: ReasonNoMatchingListing, Detail: "no listing cleared the buying rules"}
}

// listingsForPreference filters candidates to one fish and orders them by
// (price ascending, seller bias descending).
func (e *Evaluator) listingsForPreference(c *Customer, pref FishPreference, candidates []Listing) []Listing {
	var matching []Listing
	for _, l := range candidates {
		if !l.IsSold && l.FishName == pref.FishName {
			matching = append(matching, l)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].Price != matching[j].Price {
			return matching[i].Price < matching[j].Price
		}
		return c.Bias(matching[i].SellerID, matching[i].Rarity) > c.Bias(matching[j].SellerID, matching[j].Rarity)
	})
	return matching
}

// consider applies the buying rules for one (preference, listing) pair.
// A non-empty reason classifies the rejection; empty means unclassified.
func (e *Evaluator) consider(c *Customer, pref FishPreference, l Listing) (bool, RejectionReason) {
	// Wealthy customers skip ratio math: anything affordable that is either
	// liked or high-tier gets bought.
	if c.Type == TypeWealthy {
		if l.Price <= c.Budget && (pref.Score >= 0.4 || l.Rarity >= RarityEpic) {
			return true, ""
		}
		return false, ReasonOutOfBudget
	}

	profile := c.Type.Profile()
	bias := c.Bias(l.SellerID, l.Rarity)

	adjustedMax := profile.MaxWTP * (1 + pref.Score) * (1 + bias*0.2) * l.Rarity.WTPMultiplier()
	adjustedMin := profile.MinWTP * (1 - (1-pref.Score)*0.2)

	avg := e.marketAveragePrice(l.FishName, l.Price)
	ratio := float64(l.Price) / avg

	if adjustedMin <= ratio && ratio <= adjustedMax && l.Price <= c.Budget {
		return true, ""
	}

	switch {
	case l.Price > c.Budget:
		return false, ReasonOutOfBudget
	case ratio > adjustedMax:
		return false, ReasonTooExpensive
	case pref.Score < lowPreferenceCutoff:
		return false, ReasonLowPreference
	default:
		return false, ""
	}
}

// marketAveragePrice returns the recent average listed price for a fish,
// falling back to the listing's own price when no history exists.
func (e *Evaluator) marketAveragePrice(fishName string, listedPrice int) float64 {
	avg, err := e.store.AverageListedPrice(fishName, averagePriceWindow)
	if err != nil {
		slog.Warn("average price lookup failed", "fish", fishName, "error", err)
		return float64(listedPrice)
	}
	if avg <= 0 {
		return float64(listedPrice)
	}
	return avg
}

// RollForSeller draws one seller from sellerIDs weighted by the customer's
// bias for the given rarity. Zero total bias falls back to the first
// seller. Returns false when sellerIDs is empty.
func (e *Evaluator) RollForSeller(c *Customer, r Rarity, sellerIDs []int) (int, bool) {
	if len(sellerIDs) == 0 {
		return 0, false
	}

	total := 0.0
	for _, id := range sellerIDs {
		total += c.Bias(id, r)
	}
	if total <= 0 {
		return sellerIDs[0], true
	}

	roll := e.src.Float64() * total
	cumulative := 0.0
	for _, id := range sellerIDs {
		cumulative += c.Bias(id, r)
		if roll <= cumulative {
			return id, true
		}
	}
	return sellerIDs[len(sellerIDs)-1], true
}

func (e *Evaluator) recordRejection(listingID int64, customerID int, reason RejectionReason) {
	if err := e.store.RecordRejection(listingID, customerID, reason); err != nil {
		slog.Debug("rejection record failed", "listing", listingID, "customer", customerID, "error", err)
	}
}
