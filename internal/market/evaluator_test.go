package market

import (
	"testing"

	"github.com/quayside/fishmarket/internal/entropy"
)

func testEvaluator(store *fakeStore) *Evaluator {
	return NewEvaluator(store, entropy.NewSeeded(1))
}

func budgetShopper(budget int, prefScore float64) *Customer {
	c := NewCustomer(1, TypeBudget, budget)
	c.Preferences = []FishPreference{
		{FishName: "Sardine", Rarity: RarityCommon, Score: prefScore},
	}
	c.BuildShoppingList()
	return c
}

func TestEvaluateAcceptsFairPrice(t *testing.T) {
	store := newFakeStore()
	store.addFish("Sardine", RarityCommon, 50)
	store.avgPrice["Sardine"] = 20

	c := budgetShopper(220, 0.7)
	listing := Listing{ID: 1, FishName: "Sardine", Rarity: RarityCommon, Price: 15, SellerID: 0}

	d := testEvaluator(store).Evaluate(c, []Listing{listing})
	if !d.Bought() {
		t.Fatalf("expected purchase at ratio 0.75, got %s (%s)", d.Reason, d.Detail)
	}

	if !c.ApplyPurchase(*d.Listing) {
		t.Fatalf("ApplyPurchase refused a valid listing")
	}
	if c.Budget != 205 {
		t.Errorf("expected budget 205 after 15g purchase, got %d", c.Budget)
	}
}

func TestEvaluateRejectsOverpricedListing(t *testing.T) {
	store := newFakeStore()
	store.addFish("Sardine", RarityCommon, 50)
	store.avgPrice["Sardine"] = 20

	// Low preference keeps the adjusted WTP ceiling below ratio 1.25.
	c := budgetShopper(220, 0.2)
	listing := Listing{ID: 1, FishName: "Sardine", Rarity: RarityCommon, Price: 25, SellerID: 0}

	d := testEvaluator(store).Evaluate(c, []Listing{listing})
	if d.Bought() {
		t.Fatalf("expected rejection at ratio 1.25")
	}
	if store.rejections[ReasonTooExpensive] != 1 {
		t.Errorf("expected one TooExpensive rejection, got %+v", store.rejections)
	}
	if c.Budget != 220 {
		t.Errorf("budget must be untouched on rejection, got %d", c.Budget)
	}
}

func TestEvaluateWealthyFastPathHighRarity(t *testing.T) {
	store := newFakeStore()
	store.addFish("Oarfish", RarityLegendary, 1000)

	c := NewCustomer(2, TypeWealthy, 2000)
	c.Preferences = []FishPreference{
		{FishName: "Oarfish", Rarity: RarityLegendary, Score: 0.2},
	}
	c.BuildShoppingList()

	listing := Listing{ID: 1, FishName: "Oarfish", Rarity: RarityLegendary, Price: 1000, SellerID: 0}
	d := testEvaluator(store).Evaluate(c, []Listing{listing})
	if !d.Bought() {
		t.Fatalf("rarity >= Epic must override low preference on the fast path, got %s", d.Reason)
	}
}

func TestEvaluateWealthyRejectsUnaffordable(t *testing.T) {
	store := newFakeStore()
	c := NewCustomer(2, TypeWealthy, 500)
	c.Preferences = []FishPreference{
		{FishName: "Oarfish", Rarity: RarityLegendary, Score: 0.9},
	}
	c.BuildShoppingList()

	listing := Listing{ID: 1, FishName: "Oarfish", Rarity: RarityLegendary, Price: 1000, SellerID: 0}
	d := testEvaluator(store).Evaluate(c, []Listing{listing})
	if d.Bought() {
		t.Fatalf("expected OutOfBudget rejection")
	}
	if store.rejections[ReasonOutOfBudget] != 1 {
		t.Errorf("expected one OutOfBudget rejection, got %+v", store.rejections)
	}
}

func TestEvaluateOutOfBudgetClassification(t *testing.T) {
	store := newFakeStore()
	store.avgPrice["Sardine"] = 200

	c := budgetShopper(100, 0.9)
	listing := Listing{ID: 1, FishName: "Sardine", Rarity: RarityCommon, Price: 150, SellerID: 0}

	d := testEvaluator(store).Evaluate(c, []Listing{listing})
	if d.Bought() {
		t.Fatalf("expected rejection above budget")
	}
	if store.rejections[ReasonOutOfBudget] != 1 {
		t.Errorf("expected OutOfBudget, got %+v", store.rejections)
	}
}

func TestEvaluateExhaustedPreferences(t *testing.T) {
	store := newFakeStore()
	c := budgetShopper(220, 0.7)
	c.Preferences[0].Purchased = true

	listing := Listing{ID: 7, FishName: "Sardine", Rarity: RarityCommon, Price: 15, SellerID: 0}
	d := testEvaluator(store).Evaluate(c, []Listing{listing})
	if d.Reason != ReasonReachedPurchaseLimit {
		t.Fatalf("expected ReachedPurchaseLimit, got %s", d.Reason)
	}
	if store.rejections[ReasonReachedPurchaseLimit] != 1 {
		t.Errorf("every candidate should be logged ReachedPurchaseLimit, got %+v", store.rejections)
	}
}

func TestEvaluateFallsBackToListedPriceWithoutHistory(t *testing.T) {
	store := newFakeStore()
	// No average recorded: ratio becomes 1.0 against the listing itself.
	c := budgetShopper(220, 0.7)
	listing := Listing{ID: 1, FishName: "Sardine", Rarity: RarityCommon, Price: 30, SellerID: 0}

	d := testEvaluator(store).Evaluate(c, []Listing{listing})
	if !d.Bought() {
		t.Fatalf("ratio 1.0 must sit inside the adjusted WTP window, got %s", d.Reason)
	}
}

func TestEvaluateOrdersListingsByPriceThenBias(t *testing.T) {
	store := newFakeStore()
	store.avgPrice["Sardine"] = 20

	c := budgetShopper(220, 0.7)
	c.SellerBias[BiasKey{SellerID: 2, Rarity: RarityCommon}] = 0.8

	listings := []Listing{
		{ID: 1, FishName: "Sardine", Rarity: RarityCommon, Price: 18, SellerID: 1},
		{ID: 2, FishName: "Sardine", Rarity: RarityCommon, Price: 15, SellerID: 2},
		{ID: 3, FishName: "Sardine", Rarity: RarityCommon, Price: 15, SellerID: 3},
	}

	d := testEvaluator(store).Evaluate(c, listings)
	if !d.Bought() {
		t.Fatalf("expected a purchase, got %s", d.Reason)
	}
	if d.Listing.ID != 2 {
		t.Errorf("expected cheapest-with-best-bias listing 2, got %d", d.Listing.ID)
	}
}

func TestRollForSellerFullBiasOnOne(t *testing.T) {
	store := newFakeStore()
	e := testEvaluator(store)

	c := NewCustomer(1, TypeCasual, 400)
	c.SellerBias[BiasKey{SellerID: 0, Rarity: RarityCommon}] = 1.0

	for i := 0; i < 50; i++ {
		id, ok := e.RollForSeller(c, RarityCommon, []int{0, 1, 2, 3})
		if !ok || id != 0 {
			t.Fatalf("roll %d: expected seller 0 with full bias, got %d (ok=%v)", i, id, ok)
		}
	}
}

func TestRollForSellerZeroBiasFallsBackToFirst(t *testing.T) {
	store := newFakeStore()
	e := testEvaluator(store)
	c := NewCustomer(1, TypeCasual, 400)

	id, ok := e.RollForSeller(c, RarityRare, []int{3, 1, 2})
	if !ok || id != 3 {
		t.Fatalf("expected first listed seller on zero total bias, got %d (ok=%v)", id, ok)
	}

	if _, ok := e.RollForSeller(c, RarityRare, nil); ok {
		t.Errorf("expected no seller from an empty set")
	}
}
