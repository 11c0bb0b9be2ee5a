package market

import (
	"fmt"
	"log/slog"

	"github.com/quayside/fishmarket/internal/entropy"
)

// PopulationManager materializes the day's active customer set with
// type-appropriate budgets and fish preferences.
type PopulationManager struct {
	store  Store
	src    entropy.Source
	nextID int
}

// NewPopulationManager creates a population manager drawing randomness from
// src and the fish catalog from store.
func NewPopulationManager(store Store, src entropy.Source) *PopulationManager {
	return &PopulationManager{store: store, src: src, nextID: 1}
}

// SetNextID sets the next customer ID to issue (used when restoring).
func (m *PopulationManager) SetNextID(id int) {
	m.nextID = id
}

// CreateCustomer builds one customer of the given type. When
// predefinedBudget is nil the budget is drawn uniformly from the type's
// range. Preferences are drawn per rarity from the type's range table; a
// rarity with no catalog fish simply generates none.
func (m *PopulationManager) CreateCustomer(t CustomerType, id int, predefinedBudget *int) *Customer {
	profile := t.Profile()

	budget := 0
	if predefinedBudget != nil {
		budget = *predefinedBudget
	} else {
		budget = entropy.IntBetween(m.src, int(profile.BudgetRange.Min), int(profile.BudgetRange.Max))
	}

	c := NewCustomer(id, t, budget)

	for _, r := range AllRarities {
		rng, ok := profile.PreferenceRanges[r]
		if !ok {
			continue
		}
		fishes, err := m.store.FishByRarity(r)
		if err != nil {
			slog.Warn("catalog lookup failed, skipping rarity",
				"customer", id, "rarity", r.String(), "error", err)
			continue
		}
		for _, f := range fishes {
			c.Preferences = append(c.Preferences, FishPreference{
				FishName: f.Name,
				Rarity:   f.Rarity,
				Score:    entropy.FloatBetween(m.src, rng.Min, rng.Max),
			})
		}
	}

	c.BuildShoppingList()
	return c
}

// DetermineCustomerType rolls a type from a probability vector ordered
// Budget, Casual, Collector, Wealthy. The first bucket whose cumulative sum
// reaches the roll wins; a vector summing below the roll falls back to the
// first type.
func (m *PopulationManager) DetermineCustomerType(distribution [4]float64) CustomerType {
	roll := m.src.Float64()
	cumulative := 0.0
	for i, t := range AllCustomerTypes {
		cumulative += distribution[i]
		if distribution[i] > 0 && roll <= cumulative {
			return t
		}
	}
	return AllCustomerTypes[0]
}

// SeedPopulation creates n customers. One Wealthy and one Collector are
// always generated first so the high-value archetypes are represented; the
// remainder roll against the distribution. Customers and their preferences
// are persisted through the store.
func (m *PopulationManager) SeedPopulation(n int, distribution [4]float64) []*Customer {
	customers := make([]*Customer, 0, n)

	for i := 0; i < n; i++ {
		var t CustomerType
		switch i {
		case 0:
			t = TypeWealthy
		case 1:
			t = TypeCollector
		default:
			t = m.DetermineCustomerType(distribution)
		}

		c := m.CreateCustomer(t, m.nextID, nil)
		m.nextID++
		m.persist(c)
		customers = append(customers, c)
	}

	return customers
}

// LoadPopulation reconstitutes all active customers from the store,
// including persisted preferences and biases, with day-scoped state fresh.
func (m *PopulationManager) LoadPopulation() ([]*Customer, error) {
	rows, err := m.store.ActiveCustomers()
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	customers := make([]*Customer, 0, len(rows))
	maxID := 0
	for _, row := range rows {
		c := NewCustomer(row.ID, row.Type, row.Budget)

		prefs, err := m.store.Preferences(row.ID)
		if err != nil {
			slog.Warn("preference load failed", "customer", row.ID, "error", err)
		}
		for _, p := range prefs {
			c.Preferences = append(c.Preferences, FishPreference{
				FishName:  p.FishName,
				Rarity:    p.Rarity,
				Score:     p.Score,
				Purchased: p.Purchased,
			})
		}

		biases, err := m.store.BiasesFor(row.ID)
		if err != nil {
			slog.Warn("bias load failed", "customer", row.ID, "error", err)
		}
		for _, b := range biases {
			c.SellerBias[BiasKey{SellerID: b.SellerID, Rarity: b.Rarity}] = b.Bias
		}

		c.BuildShoppingList()
		customers = append(customers, c)
		if row.ID > maxID {
			maxID = row.ID
		}
	}

	if maxID >= m.nextID {
		m.nextID = maxID + 1
	}
	return customers, nil
}

// RefreshDay rolls the population over to a new day: budgets are re-drawn
// from each type's range, day-scoped state resets, and the new budgets are
// persisted. Preferences and biases carry over.
func (m *PopulationManager) RefreshDay(customers []*Customer) {
	for _, c := range customers {
		profile := c.Type.Profile()
		c.Budget = entropy.IntBetween(m.src, int(profile.BudgetRange.Min), int(profile.BudgetRange.Max))
		c.ResetForDay()
		if err := m.store.UpsertCustomer(CustomerRow{ID: c.ID, Type: c.Type, Budget: c.Budget}); err != nil {
			slog.Warn("budget refresh persist failed", "customer", c.ID, "error", err)
		}
	}
}

func (m *PopulationManager) persist(c *Customer) {
	if err := m.store.UpsertCustomer(CustomerRow{ID: c.ID, Type: c.Type, Budget: c.Budget}); err != nil {
		slog.Warn("customer persist failed", "customer", c.ID, "error", err)
		return
	}
	for _, p := range c.Preferences {
		err := m.store.InsertPreference(PreferenceRow{
			CustomerID: c.ID,
			FishName:   p.FishName,
			Rarity:     p.Rarity,
			Score:      p.Score,
			Purchased:  p.Purchased,
		})
		if err != nil {
			slog.Warn("preference persist failed",
				"customer", c.ID, "fish", p.FishName, "error", err)
		}
	}
}
