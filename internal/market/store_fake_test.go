package market

import (
	"errors"
	"sort"
)

// fakeStore is a map-backed Store for exercising the simulation logic
// without SQLite.
type fakeStore struct {
	fish     map[string]Fish
	prices   map[string]map[int]int // fish → day → price
	listings []*Listing
	nextID   int64

	customers  map[int]CustomerRow
	prefs      map[int]map[string]PreferenceRow
	biases     map[int]map[BiasKey]float64
	rejections map[RejectionReason]int
	meta       map[string]string

	// avgPrice overrides AverageListedPrice per fish; 0 means no history.
	avgPrice map[string]float64

	// markSoldFails forces MarkSold to report an already-sold listing.
	markSoldFails bool
	failAll       bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fish:       make(map[string]Fish),
		prices:     make(map[string]map[int]int),
		customers:  make(map[int]CustomerRow),
		prefs:      make(map[int]map[string]PreferenceRow),
		biases:     make(map[int]map[BiasKey]float64),
		rejections: make(map[RejectionReason]int),
		meta:       make(map[string]string),
		avgPrice:   make(map[string]float64),
		nextID:     1,
	}
}

var errFakeDown = errors.New("store down")

func (f *fakeStore) addFish(name string, r Rarity, price int) {
	f.fish[name] = Fish{Name: name, Rarity: r, MinWeight: 1, MaxWeight: 5}
	f.prices[name] = map[int]int{0: price}
}

func (f *fakeStore) FishCatalog() ([]Fish, error) {
	if f.failAll {
		return nil, errFakeDown
	}
	names := make([]string, 0, len(f.fish))
	for n := range f.fish {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Fish, 0, len(names))
	for _, n := range names {
		out = append(out, f.fish[n])
	}
	return out, nil
}

func (f *fakeStore) FishByRarity(r Rarity) ([]Fish, error) {
	if f.failAll {
		return nil, errFakeDown
	}
	all, _ := f.FishCatalog()
	var out []Fish
	for _, fish := range all {
		if fish.Rarity == r {
			out = append(out, fish)
		}
	}
	return out, nil
}

func (f *fakeStore) FishByName(name string) (*Fish, error) {
	if fish, ok := f.fish[name]; ok {
		return &fish, nil
	}
	return nil, nil
}

func (f *fakeStore) CurrentDay() (int, error) {
	day := 0
	for _, byDay := range f.prices {
		for d := range byDay {
			if d > day {
				day = d
			}
		}
	}
	return day, nil
}

func (f *fakeStore) CurrentPrice(fishName string) (int, error) {
	byDay, ok := f.prices[fishName]
	if !ok {
		return 0, errors.New("no price")
	}
	best, price := -1, 0
	for d, p := range byDay {
		if d > best {
			best, price = d, p
		}
	}
	return price, nil
}

func (f *fakeStore) PriceHistory(fishName string, lastNDays int) ([]PricePoint, error) {
	byDay := f.prices[fishName]
	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)
	if len(days) > lastNDays {
		days = days[len(days)-lastNDays:]
	}
	out := make([]PricePoint, 0, len(days))
	for _, d := range days {
		out = append(out, PricePoint{Day: d, Price: byDay[d]})
	}
	return out, nil
}

func (f *fakeStore) InsertPrice(fishName string, day, price int) error {
	if f.prices[fishName] == nil {
		f.prices[fishName] = make(map[int]int)
	}
	f.prices[fishName][day] = price
	return nil
}

func (f *fakeStore) InsertListing(day int, fishName string, r Rarity, price, sellerID int) (int64, error) {
	id := f.nextID
	f.nextID++
	f.listings = append(f.listings, &Listing{
		ID: id, Day: day, FishName: fishName, Rarity: r, Price: price, SellerID: sellerID,
	})
	return id, nil
}

func (f *fakeStore) UnsoldListings(day int, r Rarity) ([]Listing, error) {
	var out []Listing
	for _, l := range f.listings {
		if l.Day == day && l.Rarity == r && !l.IsSold {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) UnsoldListingsBySeller(day int, sellerID int, r Rarity) ([]Listing, error) {
	var out []Listing
	for _, l := range f.listings {
		if l.Day == day && l.SellerID == sellerID && l.Rarity == r && !l.IsSold {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListingsForDay(day int) ([]Listing, error) {
	var out []Listing
	for _, l := range f.listings {
		if l.Day == day {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) AverageListedPrice(fishName string, lastNDays int) (float64, error) {
	return f.avgPrice[fishName], nil
}

func (f *fakeStore) MarkSold(listingID int64, buyerID int) (bool, error) {
	if f.markSoldFails {
		return false, nil
	}
	for _, l := range f.listings {
		if l.ID == listingID {
			if l.IsSold {
				return false, nil
			}
			l.IsSold = true
			b := buyerID
			l.BuyerID = &b
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ActiveCustomers() ([]CustomerRow, error) {
	ids := make([]int, 0, len(f.customers))
	for id := range f.customers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]CustomerRow, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.customers[id])
	}
	return out, nil
}

func (f *fakeStore) UpsertCustomer(row CustomerRow) error {
	f.customers[row.ID] = row
	return nil
}

func (f *fakeStore) Preferences(customerID int) ([]PreferenceRow, error) {
	byFish := f.prefs[customerID]
	names := make([]string, 0, len(byFish))
	for n := range byFish {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]PreferenceRow, 0, len(names))
	for _, n := range names {
		out = append(out, byFish[n])
	}
	return out, nil
}

func (f *fakeStore) InsertPreference(row PreferenceRow) error {
	if f.prefs[row.CustomerID] == nil {
		f.prefs[row.CustomerID] = make(map[string]PreferenceRow)
	}
	f.prefs[row.CustomerID][row.FishName] = row
	return nil
}

func (f *fakeStore) UpdatePreferencePurchased(customerID int, fishName string, purchased bool) error {
	if row, ok := f.prefs[customerID][fishName]; ok {
		row.Purchased = purchased
		f.prefs[customerID][fishName] = row
	}
	return nil
}

func (f *fakeStore) Bias(customerID, sellerID int, r Rarity) (float64, error) {
	return f.biases[customerID][BiasKey{SellerID: sellerID, Rarity: r}], nil
}

func (f *fakeStore) BiasesFor(customerID int) ([]BiasRow, error) {
	var out []BiasRow
	for key, b := range f.biases[customerID] {
		out = append(out, BiasRow{CustomerID: customerID, SellerID: key.SellerID, Rarity: key.Rarity, Bias: b})
	}
	return out, nil
}

func (f *fakeStore) SetBias(customerID, sellerID int, r Rarity, bias float64) error {
	if f.biases[customerID] == nil {
		f.biases[customerID] = make(map[BiasKey]float64)
	}
	f.biases[customerID][BiasKey{SellerID: sellerID, Rarity: r}] = bias
	return nil
}

func (f *fakeStore) RecordRejection(listingID int64, customerID int, reason RejectionReason) error {
	f.rejections[reason]++
	return nil
}

func (f *fakeStore) SaveMeta(key, value string) error {
	if f.failAll {
		return errFakeDown
	}
	f.meta[key] = value
	return nil
}
