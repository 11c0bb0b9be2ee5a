// Package persistence provides the SQLite-backed market store.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/quayside/fishmarket/internal/market"
)

// DB is the SQLite implementation of market.Store.
type DB struct {
	conn *sqlx.DB
}

// compile-time interface check
var _ market.Store = (*DB)(nil)

// Open opens or creates a SQLite database at the given path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fish (
		name TEXT PRIMARY KEY,
		rarity INTEGER NOT NULL,
		min_weight REAL NOT NULL,
		max_weight REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS prices (
		fish_name TEXT NOT NULL,
		day INTEGER NOT NULL,
		price INTEGER NOT NULL,
		PRIMARY KEY (fish_name, day)
	);

	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		fish_name TEXT NOT NULL,
		rarity INTEGER NOT NULL,
		price INTEGER NOT NULL,
		seller_id INTEGER NOT NULL,
		is_sold INTEGER NOT NULL DEFAULT 0,
		buyer_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY,
		type INTEGER NOT NULL,
		budget INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preferences (
		customer_id INTEGER NOT NULL,
		fish_name TEXT NOT NULL,
		rarity INTEGER NOT NULL,
		score REAL NOT NULL,
		purchased INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (customer_id, fish_name)
	);

	CREATE TABLE IF NOT EXISTS biases (
		customer_id INTEGER NOT NULL,
		seller_id INTEGER NOT NULL,
		rarity INTEGER NOT NULL,
		bias REAL NOT NULL,
		PRIMARY KEY (customer_id, seller_id, rarity)
	);

	CREATE TABLE IF NOT EXISTS rejections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id INTEGER NOT NULL,
		customer_id INTEGER NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS market_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_listings_day ON listings(day, rarity, is_sold);
	CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(day, seller_id, rarity, is_sold);
	CREATE INDEX IF NOT EXISTS idx_prices_day ON prices(day);
	CREATE INDEX IF NOT EXISTS idx_preferences_customer ON preferences(customer_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// FishCatalog returns every catalog fish.
func (db *DB) FishCatalog() ([]market.Fish, error) {
	var out []market.Fish
	err := db.conn.Select(&out, "SELECT name, rarity, min_weight, max_weight FROM fish ORDER BY rarity, name")
	return out, err
}

// FishByRarity returns catalog fish of one rarity.
func (db *DB) FishByRarity(r market.Rarity) ([]market.Fish, error) {
	var out []market.Fish
	err := db.conn.Select(&out,
		"SELECT name, rarity, min_weight, max_weight FROM fish WHERE rarity = ? ORDER BY name", r)
	return out, err
}

// FishByName looks up one catalog fish, nil when absent.
func (db *DB) FishByName(name string) (*market.Fish, error) {
	var f market.Fish
	err := db.conn.Get(&f, "SELECT name, rarity, min_weight, max_weight FROM fish WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CurrentDay returns the highest day with a published price, 0 for a
// fresh database.
func (db *DB) CurrentDay() (int, error) {
	var day int
	err := db.conn.Get(&day, "SELECT COALESCE(MAX(day), 0) FROM prices")
	return day, err
}

// CurrentPrice returns the most recent published price for a fish.
func (db *DB) CurrentPrice(fishName string) (int, error) {
	var price int
	err := db.conn.Get(&price,
		"SELECT price FROM prices WHERE fish_name = ? ORDER BY day DESC LIMIT 1", fishName)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no price for fish %q", fishName)
	}
	return price, err
}

// PriceHistory returns up to lastNDays most recent price points, oldest
// first.
func (db *DB) PriceHistory(fishName string, lastNDays int) ([]market.PricePoint, error) {
	var out []market.PricePoint
	err := db.conn.Select(&out, `
		SELECT day, price FROM (
			SELECT day, price FROM prices WHERE fish_name = ? ORDER BY day DESC LIMIT ?
		) ORDER BY day ASC`, fishName, lastNDays)
	return out, err
}

// InsertPrice publishes a fish's price for a day.
func (db *DB) InsertPrice(fishName string, day, price int) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO prices (fish_name, day, price) VALUES (?, ?, ?)",
		fishName, day, price)
	return err
}

// InsertListing appends one unsold listing and returns its ID.
func (db *DB) InsertListing(day int, fishName string, r market.Rarity, price, sellerID int) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO listings (day, fish_name, rarity, price, seller_id, is_sold)
		VALUES (?, ?, ?, ?, ?, 0)`,
		day, fishName, r, price, sellerID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listingColumns = "id, day, fish_name, rarity, price, seller_id, is_sold, buyer_id"

// UnsoldListings returns a day's unsold listings of one rarity.
func (db *DB) UnsoldListings(day int, r market.Rarity) ([]market.Listing, error) {
	var out []market.Listing
	err := db.conn.Select(&out,
		"SELECT "+listingColumns+" FROM listings WHERE day = ? AND rarity = ? AND is_sold = 0 ORDER BY id",
		day, r)
	return out, err
}

// UnsoldListingsBySeller narrows UnsoldListings to one seller.
func (db *DB) UnsoldListingsBySeller(day int, sellerID int, r market.Rarity) ([]market.Listing, error) {
	var out []market.Listing
	err := db.conn.Select(&out,
		"SELECT "+listingColumns+" FROM listings WHERE day = ? AND seller_id = ? AND rarity = ? AND is_sold = 0 ORDER BY id",
		day, sellerID, r)
	return out, err
}

// ListingsForDay returns every listing created for a day, sold or not.
func (db *DB) ListingsForDay(day int) ([]market.Listing, error) {
	var out []market.Listing
	err := db.conn.Select(&out,
		"SELECT "+listingColumns+" FROM listings WHERE day = ? ORDER BY id", day)
	return out, err
}

// AverageListedPrice averages listing prices for a fish over the trailing
// window, 0 when no listings exist.
func (db *DB) AverageListedPrice(fishName string, lastNDays int) (float64, error) {
	var avg sql.NullFloat64
	err := db.conn.Get(&avg, `
		SELECT AVG(price) FROM listings
		WHERE fish_name = ?
		  AND day > (SELECT COALESCE(MAX(day), 0) FROM listings) - ?`,
		fishName, lastNDays)
	if err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// MarkSold transitions a listing to sold exactly once. Returns false when
// the listing is already sold or missing.
func (db *DB) MarkSold(listingID int64, buyerID int) (bool, error) {
	res, err := db.conn.Exec(
		"UPDATE listings SET is_sold = 1, buyer_id = ? WHERE id = ? AND is_sold = 0",
		buyerID, listingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ActiveCustomers returns every stored customer.
func (db *DB) ActiveCustomers() ([]market.CustomerRow, error) {
	var out []market.CustomerRow
	err := db.conn.Select(&out, "SELECT id, type, budget FROM customers ORDER BY id")
	return out, err
}

// UpsertCustomer writes a customer's identity and budget.
func (db *DB) UpsertCustomer(row market.CustomerRow) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO customers (id, type, budget) VALUES (?, ?, ?)",
		row.ID, row.Type, row.Budget)
	return err
}

// Preferences returns a customer's stored fish preferences.
func (db *DB) Preferences(customerID int) ([]market.PreferenceRow, error) {
	var out []market.PreferenceRow
	err := db.conn.Select(&out,
		"SELECT customer_id, fish_name, rarity, score, purchased FROM preferences WHERE customer_id = ? ORDER BY fish_name",
		customerID)
	return out, err
}

// InsertPreference writes one preference row, replacing any prior draw for
// the same (customer, fish).
func (db *DB) InsertPreference(row market.PreferenceRow) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO preferences (customer_id, fish_name, rarity, score, purchased)
		VALUES (?, ?, ?, ?, ?)`,
		row.CustomerID, row.FishName, row.Rarity, row.Score, row.Purchased)
	return err
}

// UpdatePreferencePurchased flips a preference's purchased flag.
func (db *DB) UpdatePreferencePurchased(customerID int, fishName string, purchased bool) error {
	_, err := db.conn.Exec(
		"UPDATE preferences SET purchased = ? WHERE customer_id = ? AND fish_name = ?",
		purchased, customerID, fishName)
	return err
}

// Bias returns the stored (seller, rarity) bias, 0 when never learned.
func (db *DB) Bias(customerID, sellerID int, r market.Rarity) (float64, error) {
	var bias float64
	err := db.conn.Get(&bias,
		"SELECT bias FROM biases WHERE customer_id = ? AND seller_id = ? AND rarity = ?",
		customerID, sellerID, r)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return bias, err
}

// BiasesFor returns all stored biases for one customer.
func (db *DB) BiasesFor(customerID int) ([]market.BiasRow, error) {
	var out []market.BiasRow
	err := db.conn.Select(&out,
		"SELECT customer_id, seller_id, rarity, bias FROM biases WHERE customer_id = ?",
		customerID)
	return out, err
}

// SetBias writes a (seller, rarity) bias value.
func (db *DB) SetBias(customerID, sellerID int, r market.Rarity, bias float64) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO biases (customer_id, seller_id, rarity, bias)
		VALUES (?, ?, ?, ?)`,
		customerID, sellerID, r, bias)
	return err
}

// RecordRejection logs a declined listing for diagnostics.
func (db *DB) RecordRejection(listingID int64, customerID int, reason market.RejectionReason) error {
	_, err := db.conn.Exec(
		"INSERT INTO rejections (listing_id, customer_id, reason) VALUES (?, ?, ?)",
		listingID, customerID, string(reason))
	return err
}

// SaveMeta stores a key-value pair in market metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO market_meta (key, value) VALUES (?, ?)",
		key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM market_meta WHERE key = ?", key)
	return value, err
}

// RejectionCounts aggregates the rejection log by reason.
func (db *DB) RejectionCounts() (map[market.RejectionReason]int, error) {
	rows := []struct {
		Reason string `db:"reason"`
		N      int    `db:"n"`
	}{}
	err := db.conn.Select(&rows, "SELECT reason, COUNT(*) AS n FROM rejections GROUP BY reason")
	if err != nil {
		return nil, err
	}
	out := make(map[market.RejectionReason]int, len(rows))
	for _, r := range rows {
		out[market.RejectionReason(r.Reason)] = r.N
	}
	return out, nil
}
