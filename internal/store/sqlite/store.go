// Package sqlite implements the coffee shop record store on an embedded SQLite
// file using the pure-Go modernc.org/sqlite driver.
//
// Every write transaction starts with BEGIN IMMEDIATE and the pool holds a single
// connection, so order transactions are serialised and readers never see a
// half-committed order.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coffee-shop/internal/core"
	"coffee-shop/migrations"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DefaultPath is used when no location is configured.
const DefaultPath = "coffee_shop.db"

// timeLayout is fixed width and always UTC so stored timestamps sort lexically.
const timeLayout = "2006-01-02 15:04:05.000000000"

var _ core.Store = (*Store)(nil)

// Store implements core.Store over database/sql.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the SQLite database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: create dirs: %v", core.ErrStoreUnavailable, err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", core.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping sqlite %s: %v", core.ErrStoreUnavailable, path, err)
	}
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying handle for test setup.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() { s.db.Close() }

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is reported.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// ── Transactions ──────────────────────────────────────────────────────────────

func (s *Store) InTx(ctx context.Context, fn func(tx core.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) GetCoffee(ctx context.Context, id int) (*core.Coffee, error) {
	return getCoffee(ctx, t.tx, id)
}

// LockStock reads the requested rows. The write lock was already taken by BEGIN IMMEDIATE.
func (t *txStore) LockStock(ctx context.Context, ingredientIDs []int) (map[int]decimal.Decimal, error) {
	onHand := make(map[int]decimal.Decimal, len(ingredientIDs))
	if len(ingredientIDs) == 0 {
		return onHand, nil
	}
	args := make([]any, len(ingredientIDs))
	for i, id := range ingredientIDs {
		args[i] = id
	}
	rows, err := t.tx.QueryContext(ctx,
		"SELECT ingredient_id, quantity FROM inventory WHERE ingredient_id IN ("+placeholders(len(args))+") ORDER BY ingredient_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var qty decimal.Decimal
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		onHand[id] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory rows: %w", err)
	}
	return onHand, nil
}

func (t *txStore) InsertOrder(ctx context.Context, total decimal.Decimal, at time.Time) (int, error) {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO orders (total_price, created_at) VALUES (?, ?)",
		total.String(), formatTime(at),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (t *txStore) InsertOrderLine(ctx context.Context, line core.OrderLine) (int, error) {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO order_items (order_id, coffee_id, quantity, price) VALUES (?, ?, ?, ?)",
		line.OrderID, line.CoffeeID, line.Quantity, line.Price.String(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// DecrementStock computes the new quantity in decimal arithmetic; SQLite would
// otherwise coerce the TEXT column to a float.
func (t *txStore) DecrementStock(ctx context.Context, ingredientID int, qty decimal.Decimal, at time.Time) error {
	var current decimal.Decimal
	err := t.tx.QueryRowContext(ctx,
		"SELECT quantity FROM inventory WHERE ingredient_id = ?", ingredientID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no inventory row for ingredient %d", ingredientID)
		}
		return err
	}
	next := current.Sub(qty)
	if next.IsNegative() {
		return fmt.Errorf("stock for ingredient %d would become negative (%s)", ingredientID, next)
	}
	_, err = t.tx.ExecContext(ctx,
		"UPDATE inventory SET quantity = ?, last_updated = ? WHERE ingredient_id = ?",
		next.String(), formatTime(at), ingredientID,
	)
	return err
}

func (t *txStore) Clear(ctx context.Context) error {
	for _, table := range []string{"inventory", "coffee_ingredients", "order_items", "orders", "coffees", "ingredients"} {
		if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (t *txStore) InsertIngredient(ctx context.Context, name, unit string, at time.Time) (int, error) {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO ingredients (name, unit, created_at) VALUES (?, ?, ?)",
		name, unit, formatTime(at),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &core.DuplicateNameError{Entity: "ingredient", Name: name}
		}
		return 0, fmt.Errorf("failed to insert ingredient %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (t *txStore) SetStock(ctx context.Context, ingredientID int, qty decimal.Decimal, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO inventory (ingredient_id, quantity, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT (ingredient_id) DO UPDATE
		  SET quantity = excluded.quantity,
		      last_updated = excluded.last_updated
	`, ingredientID, qty.String(), formatTime(at))
	return err
}

func (t *txStore) InsertCoffee(ctx context.Context, name, description string, price decimal.Decimal, at time.Time) (int, error) {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO coffees (name, description, price, created_at) VALUES (?, ?, ?, ?)",
		name, description, price.String(), formatTime(at),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &core.DuplicateNameError{Entity: "coffee", Name: name}
		}
		return 0, fmt.Errorf("failed to insert coffee %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (t *txStore) InsertRecipeLine(ctx context.Context, coffeeID, ingredientID int, qty decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO coffee_ingredients (coffee_id, ingredient_id, quantity) VALUES (?, ?, ?)",
		coffeeID, ingredientID, qty.String(),
	)
	return err
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *Store) ListCoffees(ctx context.Context) ([]core.Coffee, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description, price, created_at FROM coffees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query coffees: %w", err)
	}
	defer rows.Close()

	var coffees []core.Coffee
	for rows.Next() {
		var c core.Coffee
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan coffee: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		coffees = append(coffees, c)
	}
	return coffees, rows.Err()
}

func (s *Store) GetCoffee(ctx context.Context, id int) (*core.Coffee, error) {
	return getCoffee(ctx, s.db, id)
}

func getCoffee(ctx context.Context, q querier, id int) (*core.Coffee, error) {
	var c core.Coffee
	var createdAt string
	err := q.QueryRowContext(ctx,
		"SELECT id, name, description, price, created_at FROM coffees WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Price, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "coffee", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch coffee %d: %w", id, err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT ci.coffee_id, ci.ingredient_id, i.name, i.unit, ci.quantity
		FROM coffee_ingredients ci
		JOIN ingredients i ON i.id = ci.ingredient_id
		WHERE ci.coffee_id = ?
		ORDER BY ci.ingredient_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe for coffee %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rl core.RecipeLine
		if err := rows.Scan(&rl.CoffeeID, &rl.IngredientID, &rl.IngredientName, &rl.Unit, &rl.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w", err)
		}
		c.Recipe = append(c.Recipe, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe rows: %w", err)
	}
	return &c, nil
}

func (s *Store) GetIngredient(ctx context.Context, id int) (*core.Ingredient, error) {
	var ing core.Ingredient
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, unit, created_at FROM ingredients WHERE id = ?", id,
	).Scan(&ing.ID, &ing.Name, &ing.Unit, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "ingredient", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch ingredient %d: %w", id, err)
	}
	if ing.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &ing, nil
}

func (s *Store) StockLevels(ctx context.Context) ([]core.StockLevel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.name, i.unit, COALESCE(inv.quantity, '0'), inv.last_updated
		FROM ingredients i
		LEFT JOIN inventory inv ON inv.ingredient_id = i.id
		ORDER BY i.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []core.StockLevel
	for rows.Next() {
		var sl core.StockLevel
		var lastUpdated sql.NullString
		if err := rows.Scan(&sl.IngredientID, &sl.Name, &sl.Unit, &sl.Quantity, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		if lastUpdated.Valid {
			t, err := parseTime(lastUpdated.String)
			if err != nil {
				return nil, err
			}
			sl.LastUpdated = &t
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

func (s *Store) ListOrders(ctx context.Context, limit int) ([]core.Order, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.total_price, o.created_at,
		       oi.id, oi.coffee_id, c.name, oi.quantity, oi.price
		FROM (
			SELECT id, total_price, created_at
			FROM orders
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN coffees c      ON c.id = oi.coffee_id
		ORDER BY o.created_at DESC, o.id DESC, oi.id
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []core.Order
	for rows.Next() {
		var o core.Order
		var createdAt string
		var lineID, coffeeID, quantity sql.NullInt64
		var coffeeName sql.NullString
		var price decimal.NullDecimal
		if err := rows.Scan(&o.ID, &o.TotalPrice, &createdAt, &lineID, &coffeeID, &coffeeName, &quantity, &price); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		if n := len(orders); n == 0 || orders[n-1].ID != o.ID {
			if o.CreatedAt, err = parseTime(createdAt); err != nil {
				return nil, err
			}
			o.Lines = []core.OrderLine{}
			orders = append(orders, o)
		}
		if !lineID.Valid {
			continue
		}
		last := &orders[len(orders)-1]
		last.Lines = append(last.Lines, core.OrderLine{
			ID:         int(lineID.Int64),
			OrderID:    o.ID,
			CoffeeID:   int(coffeeID.Int64),
			CoffeeName: coffeeName.String,
			Quantity:   int(quantity.Int64),
			Price:      price.Decimal,
		})
	}
	return orders, rows.Err()
}

func (s *Store) SalesSince(ctx context.Context, since time.Time) ([]core.SaleRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.total_price, o.created_at,
		       COALESCE(oi.coffee_id, 0), COALESCE(c.name, ''),
		       COALESCE(oi.quantity, 0), COALESCE(oi.price, '0')
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN coffees c      ON c.id = oi.coffee_id
		WHERE o.created_at >= ?
		ORDER BY o.id, oi.id
	`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var out []core.SaleRow
	for rows.Next() {
		var r core.SaleRow
		var orderedAt string
		if err := rows.Scan(&r.OrderID, &r.OrderTotal, &orderedAt, &r.CoffeeID, &r.CoffeeName, &r.Quantity, &r.Price); err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		if r.OrderedAt, err = parseTime(orderedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ── Schema ────────────────────────────────────────────────────────────────────

// Migrate applies the embedded SQLite migrations not yet recorded in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("%w: failed to create schema_migrations table: %v", core.ErrStoreUnavailable, err)
	}

	files, err := migrations.Load(migrations.SQLite)
	if err != nil {
		return err
	}
	for _, m := range files {
		if err := s.applyMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, m migrations.Migration) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", m.Filename, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var existing string
	err = tx.QueryRowContext(ctx, "SELECT checksum FROM schema_migrations WHERE version = ?", m.Version).Scan(&existing)
	switch {
	case err == nil:
		if existing != m.Checksum {
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", m.Filename, existing, m.Checksum)
		}
		return tx.Commit()
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("failed to query schema_migrations for %s: %w", m.Filename, err)
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.Filename, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum, applied_at) VALUES (?, ?, ?, ?)",
		m.Version, m.Filename, m.Checksum, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("failed to insert migration record for %s: %w", m.Filename, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.Filename, err)
	}
	log.Printf("[APPLY] %s", m.Filename)
	return nil
}

func (s *Store) Drop(ctx context.Context) error {
	for _, table := range []string{"order_items", "orders", "inventory", "coffee_ingredients", "coffees", "ingredients", "schema_migrations"} {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}
