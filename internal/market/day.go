package market

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// MetaLastRunID is the metadata key holding the most recent run identifier.
const MetaLastRunID = "last_run_id"

// DayResult summarizes one processed day for the caller.
type DayResult struct {
	RunID           uuid.UUID
	Day             int
	ListingsCreated int
	Purchases       int
	Revenue         int
	Rejections      map[RejectionReason]int
	// SellThrough is sold/listed per rarity; rarities with no listings
	// are omitted.
	SellThrough map[Rarity]float64
	Log         []string
}

// Simulation wires the market components together and runs whole days.
type Simulation struct {
	store        Store
	sellers      []*Seller
	orchestrator *Orchestrator
	adjuster     *PriceAdjuster
	population   *PopulationManager

	// Customers is the active population, reset (not replaced) at rollover.
	Customers []*Customer
}

// NewSimulation assembles a simulation over an existing store, seller set,
// and customer population.
func NewSimulation(store Store, sellers []*Seller, evaluator *Evaluator, population *PopulationManager, customers []*Customer) *Simulation {
	ids := make([]int, 0, len(sellers))
	for _, s := range sellers {
		ids = append(ids, s.ID)
	}
	return &Simulation{
		store:        store,
		sellers:      sellers,
		orchestrator: NewOrchestrator(store, evaluator, ids),
		adjuster:     NewPriceAdjuster(store),
		population:   population,
		Customers:    customers,
	}
}

// ProcessDay runs one full day synchronously: catch generation, the
// shopping pass, then price adjustment. Phase failures degrade rather than
// abort; the result reflects whatever the day managed to do.
func (s *Simulation) ProcessDay() (*DayResult, error) {
	day, err := s.store.CurrentDay()
	if err != nil {
		return nil, fmt.Errorf("resolve current day: %w", err)
	}

	// Morning: every fisher lands and lists a catch.
	listed := 0
	for _, seller := range s.sellers {
		catch := seller.GenerateCatch(day)
		n := seller.CreateListings(day, catch)
		listed += n
		slog.Debug("catch listed", "seller", seller.Name, "caught", len(catch), "listed", n)
	}

	// Daytime: the waiting queue shops with fresh day budgets.
	s.population.RefreshDay(s.Customers)
	state := s.orchestrator.RunDay(day, s.Customers)

	// Evening: next-day prices from today's outcomes.
	if err := s.adjuster.AdjustPrices(day, s.Customers); err != nil {
		slog.Error("price adjustment failed, prices carry over", "day", day, "error", err)
	}

	if err := s.store.SaveMeta(MetaLastRunID, state.RunID.String()); err != nil {
		slog.Warn("run id not persisted", "run_id", state.RunID.String(), "error", err)
	}

	result := &DayResult{
		RunID:           state.RunID,
		Day:             day,
		ListingsCreated: listed,
		Purchases:       state.Purchases,
		Revenue:         state.Revenue,
		Rejections:      state.Rejections,
		SellThrough:     s.sellThroughByRarity(day),
		Log:             state.Log,
	}

	slog.Info("daily report",
		"day", day,
		"run_id", state.RunID.String(),
		"listings", listed,
		"purchases", state.Purchases,
		"revenue", state.Revenue,
		"sell_through", sellThroughSummary(result.SellThrough),
		"rejected_budget", state.Rejections[ReasonOutOfBudget],
		"rejected_expensive", state.Rejections[ReasonTooExpensive],
		"rejected_preference", state.Rejections[ReasonLowPreference],
		"rejected_limit", state.Rejections[ReasonReachedPurchaseLimit],
		"no_match", state.Rejections[ReasonNoMatchingListing],
	)

	return result, nil
}

// sellThroughByRarity computes sold/listed per rarity from the day's
// listings. Returns nil when the listings cannot be read.
func (s *Simulation) sellThroughByRarity(day int) map[Rarity]float64 {
	listings, err := s.store.ListingsForDay(day)
	if err != nil {
		slog.Warn("sell-through unavailable", "day", day, "error", err)
		return nil
	}
	listed := make(map[Rarity]int)
	sold := make(map[Rarity]int)
	for _, l := range listings {
		listed[l.Rarity]++
		if l.IsSold {
			sold[l.Rarity]++
		}
	}
	out := make(map[Rarity]float64, len(listed))
	for r, n := range listed {
		out[r] = float64(sold[r]) / float64(n)
	}
	return out
}

// sellThroughSummary renders per-rarity sell-through for the daily report,
// ordered common to legendary.
func sellThroughSummary(st map[Rarity]float64) string {
	parts := make([]string, 0, len(st))
	for _, r := range AllRarities {
		if v, ok := st[r]; ok {
			parts = append(parts, fmt.Sprintf("%s %.2f", r, v))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
