package market

// Fish is one catalog entry.
type Fish struct {
	Name      string  `db:"name" json:"name"`
	Rarity    Rarity  `db:"rarity" json:"rarity"`
	MinWeight float64 `db:"min_weight" json:"min_weight"`
	MaxWeight float64 `db:"max_weight" json:"max_weight"`
}

// Listing is one sellable unit of a specific fish from a specific seller,
// sold at most once.
type Listing struct {
	ID       int64  `db:"id" json:"id"`
	Day      int    `db:"day" json:"day"`
	FishName string `db:"fish_name" json:"fish_name"`
	Rarity   Rarity `db:"rarity" json:"rarity"`
	Price    int    `db:"price" json:"price"`
	SellerID int    `db:"seller_id" json:"seller_id"`
	IsSold   bool   `db:"is_sold" json:"is_sold"`
	BuyerID  *int   `db:"buyer_id" json:"buyer_id,omitempty"`
}

// PricePoint is one day's published base price for a fish.
type PricePoint struct {
	Day   int `db:"day" json:"day"`
	Price int `db:"price" json:"price"`
}

// CustomerRow is the persisted identity of a customer.
type CustomerRow struct {
	ID     int          `db:"id" json:"id"`
	Type   CustomerType `db:"type" json:"type"`
	Budget int          `db:"budget" json:"budget"`
}

// PreferenceRow is a persisted fish preference for one customer.
type PreferenceRow struct {
	CustomerID int     `db:"customer_id" json:"customer_id"`
	FishName   string  `db:"fish_name" json:"fish_name"`
	Rarity     Rarity  `db:"rarity" json:"rarity"`
	Score      float64 `db:"score" json:"score"`
	Purchased  bool    `db:"purchased" json:"purchased"`
}

// BiasRow is a persisted (seller, rarity) bias entry for one customer.
type BiasRow struct {
	CustomerID int     `db:"customer_id" json:"customer_id"`
	SellerID   int     `db:"seller_id" json:"seller_id"`
	Rarity     Rarity  `db:"rarity" json:"rarity"`
	Bias       float64 `db:"bias" json:"bias"`
}

// RejectionReason classifies why a customer declined a listing.
type RejectionReason string

const (
	ReasonOutOfBudget          RejectionReason = "OutOfBudget"
	ReasonTooExpensive         RejectionReason = "TooExpensive"
	ReasonLowPreference        RejectionReason = "LowPreference"
	ReasonReachedPurchaseLimit RejectionReason = "ReachedPurchaseLimit"
	ReasonNoMatchingListing    RejectionReason = "NoMatchingListing"
	ReasonAccepted             RejectionReason = "Accepted"
)

// Store is the market's durable state. The simulation core only depends on
// these operations; how they are backed is up to the implementation.
// MarkSold must be an atomic conditional transition (false→true exactly
// once); everything else runs under single-writer semantics.
type Store interface {
	// Catalog.
	FishCatalog() ([]Fish, error)
	FishByRarity(r Rarity) ([]Fish, error)
	FishByName(name string) (*Fish, error)

	// Prices.
	CurrentPrice(fishName string) (int, error)
	CurrentDay() (int, error)
	PriceHistory(fishName string, lastNDays int) ([]PricePoint, error)
	InsertPrice(fishName string, day, price int) error

	// Listings.
	InsertListing(day int, fishName string, r Rarity, price, sellerID int) (int64, error)
	UnsoldListings(day int, r Rarity) ([]Listing, error)
	UnsoldListingsBySeller(day int, sellerID int, r Rarity) ([]Listing, error)
	ListingsForDay(day int) ([]Listing, error)
	// AverageListedPrice averages every listing of a fish over the last N
	// days, sold or not. Returns 0 with no error when no history exists.
	AverageListedPrice(fishName string, lastNDays int) (float64, error)
	MarkSold(listingID int64, buyerID int) (bool, error)

	// Customers.
	ActiveCustomers() ([]CustomerRow, error)
	UpsertCustomer(row CustomerRow) error
	Preferences(customerID int) ([]PreferenceRow, error)
	InsertPreference(row PreferenceRow) error
	UpdatePreferencePurchased(customerID int, fishName string, purchased bool) error
	Bias(customerID, sellerID int, r Rarity) (float64, error)
	BiasesFor(customerID int) ([]BiasRow, error)
	SetBias(customerID, sellerID int, r Rarity, bias float64) error

	// Diagnostics. Failures here are non-critical.
	RecordRejection(listingID int64, customerID int, reason RejectionReason) error

	// Run metadata, small key-value pairs such as the last run identifier.
	SaveMeta(key, value string) error
}
