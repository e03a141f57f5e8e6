package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/pharmacare-bot/internal/catalog"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore persists orders in the orders table. Totals are stored in paise.
type PostgresStore struct {
	db pgExecutor
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	if db == nil {
		panic("orders: pgx pool cannot be nil")
	}
	return &PostgresStore{db: db}
}

func newPostgresStoreWithExec(db pgExecutor) *PostgresStore {
	if db == nil {
		panic("orders: executor cannot be nil")
	}
	return &PostgresStore{db: db}
}

// Save inserts the order. A key that is already stored returns ErrDuplicate.
func (s *PostgresStore) Save(ctx context.Context, o Order) error {
	if o.ID == "" {
		return errors.New("orders: order id required")
	}
	if o.Key == "" {
		return errors.New("orders: order key required")
	}
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("orders: marshal lines: %w", err)
	}
	placedAt := o.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now()
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			order_key, order_id, customer_phone, customer_name, lines,
			total_paise, payment_method, status, placed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (order_key) DO NOTHING
	`, o.Key, o.ID, o.CustomerPhone, o.CustomerName, lines, int64(o.Total), o.PaymentMethod, o.Status, placedAt.UTC())
	if err != nil {
		return fmt.Errorf("orders: save %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orders: save %s: %w", o.ID, ErrDuplicate)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id string) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT order_key, order_id, customer_phone, customer_name, lines,
		       total_paise, payment_method, status, placed_at
		FROM orders
		WHERE order_id = $1
		ORDER BY placed_at DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("orders: find %s: %w", id, err)
	}
	defer rows.Close()

	var found []Order
	for rows.Next() {
		var (
			o        Order
			lines    []byte
			total    int64
			placedAt time.Time
		)
		if err := rows.Scan(&o.Key, &o.ID, &o.CustomerPhone, &o.CustomerName, &lines, &total, &o.PaymentMethod, &o.Status, &placedAt); err != nil {
			return nil, fmt.Errorf("orders: scan %s: %w", id, err)
		}
		if len(lines) > 0 {
			if err := json.Unmarshal(lines, &o.Lines); err != nil {
				return nil, fmt.Errorf("orders: decode lines for %s: %w", id, err)
			}
		}
		o.Total = catalog.Money(total)
		o.PlacedAt = placedAt.UTC()
		found = append(found, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders: find %s: %w", id, err)
	}
	return found, nil
}

var _ Store = (*PostgresStore)(nil)
