// Package postgres implements the coffee shop record store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"coffee-shop/internal/core"
	"coffee-shop/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// migrationLockID is the advisory lock key held while migrations run.
const migrationLockID = 7462839

var _ core.Store = (*Store)(nil)

// Store implements core.Store over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for integration test setup.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Close() { s.pool.Close() }

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ── Transactions ──────────────────────────────────────────────────────────────

func (s *Store) InTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) GetCoffee(ctx context.Context, id int) (*core.Coffee, error) {
	return getCoffee(ctx, t.tx, id)
}

func (t *txStore) LockStock(ctx context.Context, ingredientIDs []int) (map[int]decimal.Decimal, error) {
	onHand := make(map[int]decimal.Decimal, len(ingredientIDs))
	if len(ingredientIDs) == 0 {
		return onHand, nil
	}
	// Ordered locking keeps concurrent orders sharing ingredients from deadlocking.
	rows, err := t.tx.Query(ctx, `
		SELECT ingredient_id, quantity
		FROM inventory
		WHERE ingredient_id = ANY($1)
		ORDER BY ingredient_id
		FOR UPDATE
	`, ingredientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory rows: %w", err)
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
	var id int
	err := t.tx.QueryRow(ctx,
		"INSERT INTO orders (total_price, created_at) VALUES ($1, $2) RETURNING id",
		total, at,
	).Scan(&id)
	return id, err
}

func (t *txStore) InsertOrderLine(ctx context.Context, line core.OrderLine) (int, error) {
	var id int
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, coffee_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, line.OrderID, line.CoffeeID, line.Quantity, line.Price).Scan(&id)
	return id, err
}

func (t *txStore) DecrementStock(ctx context.Context, ingredientID int, qty decimal.Decimal, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE inventory
		SET quantity = quantity - $1, last_updated = $2
		WHERE ingredient_id = $3
	`, qty, at, ingredientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("no inventory row for ingredient %d", ingredientID)
	}
	return nil
}

func (t *txStore) Clear(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `
		TRUNCATE TABLE inventory, coffee_ingredients, order_items, orders, coffees, ingredients
		RESTART IDENTITY
	`)
	return err
}

func (t *txStore) InsertIngredient(ctx context.Context, name, unit string, at time.Time) (int, error) {
	var id int
	err := t.tx.QueryRow(ctx,
		"INSERT INTO ingredients (name, unit, created_at) VALUES ($1, $2, $3) RETURNING id",
		name, unit, at,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &core.DuplicateNameError{Entity: "ingredient", Name: name}
		}
		return 0, fmt.Errorf("failed to insert ingredient %s: %w", name, err)
	}
	return id, nil
}

func (t *txStore) SetStock(ctx context.Context, ingredientID int, qty decimal.Decimal, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO inventory (ingredient_id, quantity, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (ingredient_id) DO UPDATE
		  SET quantity = EXCLUDED.quantity,
		      last_updated = EXCLUDED.last_updated
	`, ingredientID, qty, at)
	return err
}

func (t *txStore) InsertCoffee(ctx context.Context, name, description string, price decimal.Decimal, at time.Time) (int, error) {
	var id int
	err := t.tx.QueryRow(ctx, `
		INSERT INTO coffees (name, description, price, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, name, description, price, at).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &core.DuplicateNameError{Entity: "coffee", Name: name}
		}
		return 0, fmt.Errorf("failed to insert coffee %s: %w", name, err)
	}
	return id, nil
}

func (t *txStore) InsertRecipeLine(ctx context.Context, coffeeID, ingredientID int, qty decimal.Decimal) error {
	_, err := t.tx.Exec(ctx,
		"INSERT INTO coffee_ingredients (coffee_id, ingredient_id, quantity) VALUES ($1, $2, $3)",
		coffeeID, ingredientID, qty,
	)
	return err
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *Store) ListCoffees(ctx context.Context) ([]core.Coffee, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, price, created_at
		FROM coffees
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query coffees: %w", err)
	}
	defer rows.Close()

	var coffees []core.Coffee
	for rows.Next() {
		var c core.Coffee
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coffee: %w", err)
		}
		coffees = append(coffees, c)
	}
	return coffees, rows.Err()
}

func (s *Store) GetCoffee(ctx context.Context, id int) (*core.Coffee, error) {
	return getCoffee(ctx, s.pool, id)
}

func getCoffee(ctx context.Context, q querier, id int) (*core.Coffee, error) {
	var c core.Coffee
	err := q.QueryRow(ctx, `
		SELECT id, name, description, price, created_at
		FROM coffees
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "coffee", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch coffee %d: %w", id, err)
	}

	rows, err := q.Query(ctx, `
		SELECT ci.coffee_id, ci.ingredient_id, i.name, i.unit, ci.quantity
		FROM coffee_ingredients ci
		JOIN ingredients i ON i.id = ci.ingredient_id
		WHERE ci.coffee_id = $1
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
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, unit, created_at FROM ingredients WHERE id = $1", id,
	).Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "ingredient", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch ingredient %d: %w", id, err)
	}
	return &ing, nil
}

func (s *Store) StockLevels(ctx context.Context) ([]core.StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.name, i.unit, COALESCE(inv.quantity, 0), inv.last_updated
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
		if err := rows.Scan(&sl.IngredientID, &sl.Name, &sl.Unit, &sl.Quantity, &sl.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

func (s *Store) ListOrders(ctx context.Context, limit int) ([]core.Order, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.total_price, o.created_at,
		       oi.id, oi.coffee_id, c.name, oi.quantity, oi.price
		FROM (
			SELECT id, total_price, created_at
			FROM orders
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		) o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN coffees c      ON c.id = oi.coffee_id
		ORDER BY o.created_at DESC, o.id DESC, oi.id
	`, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []core.Order
	for rows.Next() {
		var o core.Order
		var lineID, coffeeID, quantity *int
		var coffeeName *string
		var price decimal.NullDecimal
		if err := rows.Scan(&o.ID, &o.TotalPrice, &o.CreatedAt, &lineID, &coffeeID, &coffeeName, &quantity, &price); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		if n := len(orders); n == 0 || orders[n-1].ID != o.ID {
			o.Lines = []core.OrderLine{}
			orders = append(orders, o)
		}
		if lineID == nil {
			continue
		}
		line := core.OrderLine{ID: *lineID, OrderID: o.ID, CoffeeID: *coffeeID, Quantity: *quantity, Price: price.Decimal}
		if coffeeName != nil {
			line.CoffeeName = *coffeeName
		}
		last := &orders[len(orders)-1]
		last.Lines = append(last.Lines, line)
	}
	return orders, rows.Err()
}

func (s *Store) SalesSince(ctx context.Context, since time.Time) ([]core.SaleRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.total_price, o.created_at,
		       COALESCE(oi.coffee_id, 0), COALESCE(c.name, ''),
		       COALESCE(oi.quantity, 0), COALESCE(oi.price, 0)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN coffees c      ON c.id = oi.coffee_id
		WHERE o.created_at >= $1
		ORDER BY o.id, oi.id
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var out []core.SaleRow
	for rows.Next() {
		var r core.SaleRow
		if err := rows.Scan(&r.OrderID, &r.OrderTotal, &r.OrderedAt, &r.CoffeeID, &r.CoffeeName, &r.Quantity, &r.Price); err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ── Schema ────────────────────────────────────────────────────────────────────

// Migrate applies the embedded Postgres migrations not yet recorded in
// schema_migrations. A recorded migration whose checksum changed is an error.
func (s *Store) Migrate(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to acquire connection for migration lock: %v", core.ErrStoreUnavailable, err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockID).Scan(&locked); err != nil {
		return fmt.Errorf("failed to query advisory lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another migrator is currently running")
	}
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockID)

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	files, err := migrations.Load(migrations.Postgres)
	if err != nil {
		return err
	}
	for _, m := range files {
		if err := applyMigration(ctx, conn.Conn(), m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, m migrations.Migration) error {
	var existing string
	err := conn.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", m.Version).Scan(&existing)
	switch {
	case err == nil:
		if existing != m.Checksum {
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", m.Filename, existing, m.Checksum)
		}
		return nil
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return fmt.Errorf("failed to query schema_migrations for %s: %w", m.Filename, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", m.Filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.Filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		m.Version, m.Filename, m.Checksum,
	); err != nil {
		return fmt.Errorf("failed to insert migration record for %s: %w", m.Filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.Filename, err)
	}
	log.Printf("[APPLY] %s", m.Filename)
	return nil
}

func (s *Store) Drop(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		DROP TABLE IF EXISTS order_items, orders, inventory, coffee_ingredients, coffees, ingredients, schema_migrations CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}
