package market

import "sort"

// CustomerType is one of the four shopper archetypes.
type CustomerType uint8

const (
	TypeBudget CustomerType = iota
	TypeCasual
	TypeCollector
	TypeWealthy
)

// AllCustomerTypes lists the archetypes in roll order.
var AllCustomerTypes = [4]CustomerType{TypeBudget, TypeCasual, TypeCollector, TypeWealthy}

func (t CustomerType) String() string {
	switch t {
	case TypeBudget:
		return "Budget"
	case TypeCasual:
		return "Casual"
	case TypeCollector:
		return "Collector"
	case TypeWealthy:
		return "Wealthy"
	default:
		return "Unknown"
	}
}

// ScoreRange bounds a uniform draw.
type ScoreRange struct {
	Min float64
	Max float64
}

// typeProfile is the behavioral template for one customer archetype.
type typeProfile struct {
	BudgetRange  ScoreRange
	MaxPurchases int

	// WTP ratio window relative to market average price.
	MinWTP float64
	MaxWTP float64

	// Preference-score draw ranges per rarity. A rarity absent from the map
	// generates no preferences of that rarity.
	PreferenceRanges map[Rarity]ScoreRange

	// DemandWeight scales this type's vote in the price adjuster.
	DemandWeight float64
}

// typeProfiles fixes the four shipped archetypes.
var typeProfiles = map[CustomerType]typeProfile{
	TypeBudget: {
		BudgetRange:  ScoreRange{200, 250},
		MaxPurchases: 2,
		MinWTP:       0.6,
		MaxWTP:       1.0,
		PreferenceRanges: map[Rarity]ScoreRange{
			RarityCommon:   {0.5, 0.9},
			RarityUncommon: {0.3, 0.7},
		},
		DemandWeight: 1.0,
	},
	TypeCasual: {
		BudgetRange:  ScoreRange{300, 500},
		MaxPurchases: 3,
		MinWTP:       0.8,
		MaxWTP:       1.2,
		PreferenceRanges: map[Rarity]ScoreRange{
			RarityCommon:   {0.4, 0.8},
			RarityUncommon: {0.4, 0.8},
			RarityRare:     {0.2, 0.6},
		},
		DemandWeight: 1.2,
	},
	TypeCollector: {
		BudgetRange:  ScoreRange{800, 1500},
		MaxPurchases: 2,
		MinWTP:       0.8,
		MaxWTP:       2.0,
		PreferenceRanges: map[Rarity]ScoreRange{
			RarityUncommon:  {0.3, 0.6},
			RarityRare:      {0.5, 0.9},
			RarityEpic:      {0.6, 1.0},
			RarityLegendary: {0.7, 1.0},
		},
		DemandWeight: 1.8,
	},
	TypeWealthy: {
		BudgetRange:  ScoreRange{1500, 3000},
		MaxPurchases: 3,
		MinWTP:       0.9,
		MaxWTP:       2.5,
		PreferenceRanges: map[Rarity]ScoreRange{
			RarityUncommon:  {0.2, 0.5},
			RarityRare:      {0.4, 0.8},
			RarityEpic:      {0.6, 1.0},
			RarityLegendary: {0.7, 1.0},
		},
		DemandWeight: 2.0,
	},
}

// Profile returns the archetype table entry for a customer type.
func (t CustomerType) Profile() typeProfile {
	if p, ok := typeProfiles[t]; ok {
		return p
	}
	return typeProfiles[TypeBudget]
}

// DemandWeight returns the price-adjuster vote weight for a customer type.
func (t CustomerType) DemandWeight() float64 {
	return t.Profile().DemandWeight
}

// FishPreference is one fish a customer wants, with its drawn score.
type FishPreference struct {
	FishName  string
	Rarity    Rarity
	Score     float64 // [0,1]
	Purchased bool    // flips true at first successful purchase of this fish
}

// Purchase is one completed buy.
type Purchase struct {
	FishName string
	Price    int
	SellerID int
}

// BiasKey identifies a (seller, rarity) bias entry.
type BiasKey struct {
	SellerID int
	Rarity   Rarity
}

// ShoppingItem is one rarity line on a customer's daily shopping list.
type ShoppingItem struct {
	Rarity Rarity
	Amount int
}

// Customer is a shopper's full in-memory state for one simulated day.
type Customer struct {
	ID           int
	Type         CustomerType
	Budget       int // gold, never negative
	MaxPurchases int

	Preferences []FishPreference
	SellerBias  map[BiasKey]float64

	ShoppingList    []ShoppingItem
	VisitedSellers  map[int]bool
	PurchaseHistory []Purchase
}

// NewCustomer creates an empty customer shell with day-scoped state
// initialized. Preferences and budget are filled by the population manager.
func NewCustomer(id int, t CustomerType, budget int) *Customer {
	return &Customer{
		ID:             id,
		Type:           t,
		Budget:         budget,
		MaxPurchases:   t.Profile().MaxPurchases,
		SellerBias:     make(map[BiasKey]float64),
		VisitedSellers: make(map[int]bool),
	}
}

// Bias returns the learned bias toward a (seller, rarity) pair, zero when
// nothing has been learned.
func (c *Customer) Bias(sellerID int, r Rarity) float64 {
	return c.SellerBias[BiasKey{SellerID: sellerID, Rarity: r}]
}

// ReinforceBias raises the (seller, rarity) bias after a successful
// purchase. The increment shrinks as bias approaches 1, keeping it in [0,1].
func (c *Customer) ReinforceBias(sellerID int, r Rarity) float64 {
	key := BiasKey{SellerID: sellerID, Rarity: r}
	b := c.SellerBias[key]
	b += 0.1 * (1 - b)
	if b > 1 {
		b = 1
	}
	c.SellerBias[key] = b
	return b
}

// CanPurchase reports whether the customer may buy anything at all.
func (c *Customer) CanPurchase() bool {
	return len(c.PurchaseHistory) < c.MaxPurchases
}

// UnpurchasedPreferences returns preferences not yet bought, best score
// first. The slice is freshly allocated each call.
func (c *Customer) UnpurchasedPreferences() []FishPreference {
	out := make([]FishPreference, 0, len(c.Preferences))
	for _, p := range c.Preferences {
		if !p.Purchased {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// preferenceFor finds the customer's preference entry for a fish.
func (c *Customer) preferenceFor(fishName string) *FishPreference {
	for i := range c.Preferences {
		if c.Preferences[i].FishName == fishName {
			return &c.Preferences[i]
		}
	}
	return nil
}

// ApplyPurchase mutates customer state for a completed buy: debits the
// budget, appends history, flags the preference, reinforces bias, and
// decrements the shopping list line for the listing's rarity. Returns false
// without mutating anything when the purchase would break an invariant.
func (c *Customer) ApplyPurchase(l Listing) bool {
	if l.Price > c.Budget || !c.CanPurchase() {
		return false
	}
	c.Budget -= l.Price
	c.PurchaseHistory = append(c.PurchaseHistory, Purchase{
		FishName: l.FishName,
		Price:    l.Price,
		SellerID: l.SellerID,
	})
	if p := c.preferenceFor(l.FishName); p != nil && !p.Purchased {
		p.Purchased = true
	}
	c.ReinforceBias(l.SellerID, l.Rarity)
	c.decrementShoppingList(l.Rarity)
	return true
}

func (c *Customer) decrementShoppingList(r Rarity) {
	for i := range c.ShoppingList {
		if c.ShoppingList[i].Rarity != r {
			continue
		}
		c.ShoppingList[i].Amount--
		if c.ShoppingList[i].Amount <= 0 {
			c.ShoppingList = append(c.ShoppingList[:i], c.ShoppingList[i+1:]...)
		}
		return
	}
}

// BuildShoppingList derives the day's shopping list from unpurchased
// preferences: one line per distinct rarity, best-scored rarity first,
// total amount capped by the remaining purchase allowance.
func (c *Customer) BuildShoppingList() {
	c.ShoppingList = c.ShoppingList[:0]
	allowance := c.MaxPurchases - len(c.PurchaseHistory)
	if allowance <= 0 {
		return
	}
	counts := make(map[Rarity]int)
	var order []Rarity
	for _, p := range c.UnpurchasedPreferences() {
		if counts[p.Rarity] == 0 {
			order = append(order, p.Rarity)
		}
		counts[p.Rarity]++
	}
	remaining := allowance
	for _, r := range order {
		if remaining <= 0 {
			break
		}
		amount := counts[r]
		if amount > remaining {
			amount = remaining
		}
		c.ShoppingList = append(c.ShoppingList, ShoppingItem{Rarity: r, Amount: amount})
		remaining -= amount
	}
}

// ResetForDay clears day-scoped state at rollover. Preferences and bias
// persist; history and the visited set do not.
func (c *Customer) ResetForDay() {
	c.PurchaseHistory = c.PurchaseHistory[:0]
	c.VisitedSellers = make(map[int]bool)
	c.BuildShoppingList()
}
