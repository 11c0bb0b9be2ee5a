package market

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DayState carries everything one shopping day produced: a run identity,
// counters, and the textual purchase/rejection trail. It is built fresh
// each day and returned to the caller instead of living in a global.
type DayState struct {
	RunID uuid.UUID
	Day   int

	Purchases  int
	Revenue    int
	Rejections map[RejectionReason]int

	// Log is the per-customer diagnostic trail, cleared every day.
	Log []string
}

// NewDayState starts a day's state with a fresh run ID.
func NewDayState(day int) *DayState {
	return &DayState{
		RunID:      uuid.New(),
		Day:        day,
		Rejections: make(map[RejectionReason]int),
	}
}

func (d *DayState) logf(format string, args ...any) {
	d.Log = append(d.Log, fmt.Sprintf(format, args...))
}

// Orchestrator drives one full day of shopping for the waiting-customer
// queue, one customer at a time, one seller visit at a time.
type Orchestrator struct {
	store     Store
	evaluator *Evaluator
	sellerIDs []int
}

// NewOrchestrator creates the daily shopping driver. sellerIDs is the set
// of known sellers a customer may visit, in stable order.
func NewOrchestrator(store Store, evaluator *Evaluator, sellerIDs []int) *Orchestrator {
	ids := make([]int, len(sellerIDs))
	copy(ids, sellerIDs)
	return &Orchestrator{store: store, evaluator: evaluator, sellerIDs: ids}
}

// RunDay processes the whole waiting queue for one day. Every customer
// leaves after one full pass whether or not it bought anything.
func (o *Orchestrator) RunDay(day int, waiting []*Customer) *DayState {
	state := NewDayState(day)

	for _, c := range waiting {
		o.shopCustomer(c, day, state)
	}

	return state
}

// shopCustomer walks one customer through its seller visits. Terminal when
// either every known seller has been visited or the shopping list is empty.
func (o *Orchestrator) shopCustomer(c *Customer, day int, state *DayState) {
	state.logf("customer %d (%s) enters with %dg and %d list items",
		c.ID, c.Type, c.Budget, len(c.ShoppingList))

	for {
		if len(c.ShoppingList) == 0 {
			state.logf("customer %d done: shopping list empty", c.ID)
			break
		}

		unvisited := o.unvisitedSellers(c)
		if len(unvisited) == 0 {
			state.logf("customer %d done: all sellers visited", c.ID)
			break
		}

		// Seller roll is biased by the first remaining list item's rarity.
		sellerID, ok := o.evaluator.RollForSeller(c, c.ShoppingList[0].Rarity, unvisited)
		if !ok {
			break
		}

		o.visitSeller(c, sellerID, day, state)
		c.VisitedSellers[sellerID] = true
	}
}

// visitSeller keeps scanning the seller's stock until no shopping-list item
// yields a purchase. A successful buy restarts the scan, since freed budget
// or list progress may unlock more buys from the same stall.
func (o *Orchestrator) visitSeller(c *Customer, sellerID, day int, state *DayState) {
	for {
		bought := false

		items := make([]ShoppingItem, len(c.ShoppingList))
		copy(items, c.ShoppingList)
		for _, item := range items {
			listings, err := o.store.UnsoldListingsBySeller(day, sellerID, item.Rarity)
			if err != nil {
				slog.Warn("listing fetch failed", "seller", sellerID, "rarity", item.Rarity.String(), "error", err)
				continue
			}

			decision := o.evaluator.Evaluate(c, listings)
			if !decision.Bought() {
				state.Rejections[decision.Reason]++
				state.logf("customer %d at seller %d (%s): %s, %s",
					c.ID, sellerID, item.Rarity, decision.Reason, decision.Detail)
				continue
			}

			if o.applyPurchase(c, *decision.Listing, state) {
				bought = true
				break
			}
		}

		if !bought {
			return
		}
	}
}

// applyPurchase finalizes an accepted listing: the atomic sold transition
// first, then customer mutation and store writeback. A failed MarkSold is
// a silent no-op for this scan, not an error.
func (o *Orchestrator) applyPurchase(c *Customer, l Listing, state *DayState) bool {
	sold, err := o.store.MarkSold(l.ID, c.ID)
	if err != nil {
		slog.Warn("mark sold failed", "listing", l.ID, "error", err)
		return false
	}
	if !sold {
		// Lost the race (or a stale read); treat the attempt as unsuccessful.
		return false
	}

	if !c.ApplyPurchase(l) {
		// Invariant guard tripped after the listing was claimed. The listing
		// stays sold to this buyer; record the trail and move on.
		state.logf("customer %d claimed listing %d but could not complete", c.ID, l.ID)
		return false
	}

	state.Purchases++
	state.Revenue += l.Price
	state.logf("customer %d bought %s for %dg from seller %d (budget left %dg)",
		c.ID, l.FishName, l.Price, l.SellerID, c.Budget)

	o.writeback(c, l)
	return true
}

// writeback persists the post-purchase customer state. Failures are logged
// and the day continues.
func (o *Orchestrator) writeback(c *Customer, l Listing) {
	if err := o.store.UpdatePreferencePurchased(c.ID, l.FishName, true); err != nil {
		slog.Warn("preference writeback failed", "customer", c.ID, "fish", l.FishName, "error", err)
	}
	if err := o.store.SetBias(c.ID, l.SellerID, l.Rarity, c.Bias(l.SellerID, l.Rarity)); err != nil {
		slog.Warn("bias writeback failed", "customer", c.ID, "seller", l.SellerID, "error", err)
	}
	if err := o.store.UpsertCustomer(CustomerRow{ID: c.ID, Type: c.Type, Budget: c.Budget}); err != nil {
		slog.Warn("budget writeback failed", "customer", c.ID, "error", err)
	}
}

func (o *Orchestrator) unvisitedSellers(c *Customer) []int {
	var out []int
	for _, id := range o.sellerIDs {
		if !c.VisitedSellers[id] {
			out = append(out, id)
		}
	}
	return out
}
