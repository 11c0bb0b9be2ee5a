package market

import (
	"testing"

	"github.com/quayside/fishmarket/internal/entropy"
)

func catalogStore() *fakeStore {
	store := newFakeStore()
	store.addFish("Sardine", RarityCommon, 50)
	store.addFish("Herring", RarityCommon, 50)
	store.addFish("Bonito", RarityUncommon, 100)
	store.addFish("Swordfish", RarityRare, 250)
	store.addFish("Bluefin Tuna", RarityEpic, 500)
	store.addFish("Oarfish", RarityLegendary, 1000)
	return store
}

func TestDetermineCustomerTypeDegenerate(t *testing.T) {
	m := NewPopulationManager(catalogStore(), entropy.NewSeeded(7))

	for i := 0; i < 100; i++ {
		if got := m.DetermineCustomerType([4]float64{1, 0, 0, 0}); got != TypeBudget {
			t.Fatalf("[1,0,0,0] must always yield Budget, got %s", got)
		}
		if got := m.DetermineCustomerType([4]float64{0, 0, 0, 1}); got != TypeWealthy {
			t.Fatalf("[0,0,0,1] must always yield Wealthy, got %s", got)
		}
	}
}

func TestDetermineCustomerTypeUndersummedVector(t *testing.T) {
	m := NewPopulationManager(catalogStore(), entropy.NewSeeded(3))

	// A vector summing to ~0 cannot cover any roll; first type wins.
	for i := 0; i < 50; i++ {
		if got := m.DetermineCustomerType([4]float64{}); got != TypeBudget {
			t.Fatalf("degenerate vector must fall back to Budget, got %s", got)
		}
	}
}

func TestCreateCustomerBudgetAndPreferences(t *testing.T) {
	m := NewPopulationManager(catalogStore(), entropy.NewSeeded(11))

	c := m.CreateCustomer(TypeCollector, 5, nil)
	if c.Budget < 800 || c.Budget > 1500 {
		t.Errorf("Collector budget %d outside 800–1500", c.Budget)
	}
	if c.MaxPurchases != 2 {
		t.Errorf("Collector max purchases should be 2, got %d", c.MaxPurchases)
	}

	ranges := TypeCollector.Profile().PreferenceRanges
	if len(c.Preferences) == 0 {
		t.Fatalf("expected preferences from the catalog")
	}
	for _, p := range c.Preferences {
		rng, ok := ranges[p.Rarity]
		if !ok {
			t.Errorf("preference %s has rarity %s outside the Collector table", p.FishName, p.Rarity)
			continue
		}
		if p.Score < rng.Min || p.Score > rng.Max {
			t.Errorf("%s score %.3f outside [%.2f, %.2f]", p.FishName, p.Score, rng.Min, rng.Max)
		}
	}
}

func TestCreateCustomerPredefinedBudget(t *testing.T) {
	m := NewPopulationManager(catalogStore(), entropy.NewSeeded(11))
	budget := 220
	c := m.CreateCustomer(TypeBudget, 1, &budget)
	if c.Budget != 220 {
		t.Errorf("predefined budget ignored: got %d", c.Budget)
	}
}

func TestSeedPopulationGuaranteesArchetypes(t *testing.T) {
	store := catalogStore()
	m := NewPopulationManager(store, entropy.NewSeeded(19))

	customers := m.SeedPopulation(8, [4]float64{1, 0, 0, 0})
	if len(customers) != 8 {
		t.Fatalf("expected 8 customers, got %d", len(customers))
	}
	if customers[0].Type != TypeWealthy {
		t.Errorf("first seeded customer must be Wealthy, got %s", customers[0].Type)
	}
	if customers[1].Type != TypeCollector {
		t.Errorf("second seeded customer must be Collector, got %s", customers[1].Type)
	}
	for _, c := range customers[2:] {
		if c.Type != TypeBudget {
			t.Errorf("remainder should follow the distribution, got %s", c.Type)
		}
	}

	rows, _ := store.ActiveCustomers()
	if len(rows) != 8 {
		t.Errorf("seeding must persist customers, store has %d", len(rows))
	}
}

func TestLoadPopulationRestoresState(t *testing.T) {
	store := catalogStore()
	m := NewPopulationManager(store, entropy.NewSeeded(23))
	seeded := m.SeedPopulation(3, [4]float64{0.5, 0.5, 0, 0})

	// Learned bias should come back on load.
	store.SetBias(seeded[0].ID, 2, RarityRare, 0.4)

	loaded, err := m.LoadPopulation()
	if err != nil {
		t.Fatalf("LoadPopulation: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 customers, got %d", len(loaded))
	}
	if got := loaded[0].Bias(2, RarityRare); got != 0.4 {
		t.Errorf("expected restored bias 0.4, got %f", got)
	}
	if len(loaded[0].Preferences) != len(seeded[0].Preferences) {
		t.Errorf("preferences not restored: %d vs %d", len(loaded[0].Preferences), len(seeded[0].Preferences))
	}
}
