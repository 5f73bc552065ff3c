package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/repository"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the journal tables when they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// FieldSealer encrypts a value for one chat. See security.Sealer.
type FieldSealer interface {
	Seal(chatID int64, plaintext string) (string, error)
	Open(chatID int64, sealed string) (string, error)
}

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct {
	pool   *pgxpool.Pool
	tx     *TxManager
	sealer FieldSealer // nil stores phones in clear
}

func NewOrderRepo(pool *pgxpool.Pool, sealer FieldSealer) *orderRepo {
	return &orderRepo{pool: pool, tx: NewTxManager(pool), sealer: sealer}
}

const orderColumns = `id, chat_id, customer_id, name, email, phone_sealed, total::text, status, created_at, contacted_at`

// Save upserts the order and rewrites its lines in one transaction.
func (r *orderRepo) Save(ctx context.Context, o *model.Order) error {
	if o == nil || o.ID == "" {
		return domain.ErrInvalidArgument
	}
	phone, err := r.seal(o.ChatID, o.Phone)
	if err != nil {
		return err
	}

	return r.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		const upsert = `
INSERT INTO orders (id, chat_id, customer_id, name, email, phone_sealed, total, status, created_at, contacted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  customer_id=$3, name=$4, email=$5, phone_sealed=$6, total=$7::numeric, status=$8, contacted_at=$10;`
		if _, err := tx.Exec(ctx, upsert, o.ID, o.ChatID, o.CustomerID, o.Name, o.Email, phone,
			o.Total.StringFixed(2), string(o.Status), o.CreatedAt, o.ContactedAt); err != nil {
			return fmt.Errorf("upsert order %s: %w", o.ID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1;`, o.ID); err != nil {
			return fmt.Errorf("clear order lines: %w", err)
		}
		const insertLine = `
INSERT INTO order_lines (order_id, position, product_id, name, quantity, line_price)
VALUES ($1,$2,$3,$4,$5,$6::numeric);`
		for i, l := range o.Lines {
			if _, err := tx.Exec(ctx, insertLine, o.ID, i, l.ProductID, l.Name, l.Quantity, l.LinePrice.StringFixed(2)); err != nil {
				return fmt.Errorf("insert order line %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	var o *model.Order
	err := r.tx.Snapshot(ctx, func(ctx context.Context, q executor) error {
		var err error
		o, err = r.scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1;`, id))
		if err != nil {
			return err
		}
		return r.attachLines(ctx, q, []*model.Order{o})
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListByStatus returns the oldest orders first.
func (r *orderRepo) ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*model.Order
	err := r.tx.Snapshot(ctx, func(ctx context.Context, q executor) error {
		rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at ASC LIMIT $2;`, string(status), limit)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		for rows.Next() {
			o, err := r.scanOrder(rows)
			if err != nil {
				rows.Close()
				return err
			}
			out = append(out, o)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return r.attachLines(ctx, q, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) CountByStatus(ctx context.Context, status model.OrderStatus) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status=$1;`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *orderRepo) scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o         model.Order
		phone     string
		total     string
		status    string
		contacted *time.Time
	)
	err := row.Scan(&o.ID, &o.ChatID, &o.CustomerID, &o.Name, &o.Email, &phone, &total, &status, &o.CreatedAt, &contacted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s total: %w", o.ID, err)
	}
	if o.Phone, err = r.open(o.ChatID, phone); err != nil {
		return nil, fmt.Errorf("order %s phone: %w", o.ID, err)
	}
	o.Status = model.OrderStatus(status)
	o.ContactedAt = contacted
	return &o, nil
}

func (r *orderRepo) attachLines(ctx context.Context, q executor, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*model.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
		o.Lines = []model.OrderLine{}
	}

	rows, err := q.Query(ctx, `
SELECT order_id, product_id, name, quantity, line_price::text
FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, position;`, ids)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			price   string
			l       model.OrderLine
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Name, &l.Quantity, &price); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if l.LinePrice, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("order %s line price: %w", orderID, err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

func (r *orderRepo) seal(chatID int64, v string) (string, error) {
	if r.sealer == nil {
		return v, nil
	}
	return r.sealer.Seal(chatID, v)
}

func (r *orderRepo) open(chatID int64, v string) (string, error) {
	if r.sealer == nil {
		return v, nil
	}
	return r.sealer.Open(chatID, v)
}
