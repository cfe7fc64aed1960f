package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/database"
)

const orderColumns = `id,order_number,order_type,table_number,customer_name,customer_phone,status,
payment_method,payment_status,subtotal,tax_amount,discount_amount,total_amount,notes,created_by,
confirmed_at,preparing_at,ready_at,completed_at,cancelled_at,created_at,updated_at`

const itemColumns = `id,order_id,menu_item_id,menu_item_name,quantity,unit_price,item_total,notes,created_at`

const insertItem = `
INSERT INTO order_items (` + itemColumns + `)
VALUES (:id,:order_id,:menu_item_id,:menu_item_name,:quantity,:unit_price,:item_total,:notes,:created_at)`

const insertHistory = `
INSERT INTO order_status_history (id,order_id,from_status,to_status,changed_by,notes,changed_at)
VALUES (:id,:order_id,:from_status,:to_status,:changed_by,:notes,:changed_at)`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

// CreateOrder inserts the order, its items and the first history row inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order, initial *StatusChange) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
INSERT INTO orders (`+orderColumns+`)
VALUES (:id,:order_number,:order_type,:table_number,:customer_name,:customer_phone,:status,
:payment_method,:payment_status,:subtotal,:tax_amount,:discount_amount,:total_amount,:notes,:created_by,
:confirmed_at,:preparing_at,:ready_at,:completed_at,:cancelled_at,:created_at,:updated_at)`, o)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := insertItems(ctx, tx, o.Items); err != nil {
			return err
		}
		if initial != nil {
			if _, err := tx.NamedExecContext(ctx, insertHistory, initial); err != nil {
				return fmt.Errorf("insert order_status_history: %w", err)
			}
		}
		return nil
	})
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("order %s: %w", o.OrderNumber, apperr.ErrConflict)
	}
	if database.IsForeignKeyViolation(err) {
		return apperr.Invalid("items", "reference a menu item that does not exist")
	}
	return apperr.Persistence("create order", err)
}

func (r *postgresRepo) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id.String(), id)
}

func (r *postgresRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber, orderNumber)
}

func (r *postgresRepo) getOrder(ctx context.Context, query, key string, arg interface{}) (*Order, error) {
	o := &Order{}
	err := r.db.GetContext(ctx, o, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order", key)
	}
	if err != nil {
		return nil, apperr.Persistence("get order", err)
	}
	err = r.db.SelectContext(ctx, &o.Items,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id=$1 ORDER BY created_at, id`, o.ID)
	if err != nil {
		return nil, apperr.Persistence("list order items", err)
	}
	return o, nil
}

func (r *postgresRepo) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	var conditions []string
	args := map[string]interface{}{}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Type != "" {
		conditions = append(conditions, "order_type = :order_type")
		args["order_type"] = f.Type
	}
	if !f.From.IsZero() {
		conditions = append(conditions, "created_at >= :from")
		args["from"] = f.From
	}
	if !f.To.IsZero() {
		conditions = append(conditions, "created_at < :to")
		args["to"] = f.To
	}
	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	named, qargs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}
	var orders []*Order
	if err := r.db.SelectContext(ctx, &orders, r.db.Rebind(named), qargs...); err != nil {
		return nil, apperr.Persistence("list orders", err)
	}
	return orders, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, o *Order, change *StatusChange) error {
	set := "status=$1, updated_at=$2"
	args := []interface{}{o.Status, o.UpdatedAt}
	if tf := statusTimestamps[o.Status]; tf.field != nil {
		set += ", " + tf.column + "=$3"
		args = append(args, *tf.field(o))
	}
	args = append(args, o.ID, change.FromStatus)
	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id=$%d AND status=$%d`, set, len(args)-1, len(args))

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("order %s is no longer %s: %w", o.ID, *change.FromStatus, apperr.ErrConflict)
		}
		_, err = tx.NamedExecContext(ctx, insertHistory, change)
		return err
	})
	if errors.Is(err, apperr.ErrConflict) {
		return err
	}
	return apperr.Persistence("update order status", err)
}

func (r *postgresRepo) ReplaceItems(ctx context.Context, o *Order) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
UPDATE orders SET subtotal=:subtotal, tax_amount=:tax_amount, discount_amount=:discount_amount,
    total_amount=:total_amount, updated_at=:updated_at
WHERE id=:id AND status IN ('pending','confirmed')`, o)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("order %s can no longer be edited: %w", o.ID, apperr.ErrConflict)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, o.Items)
	})
	if errors.Is(err, apperr.ErrConflict) {
		return err
	}
	if database.IsForeignKeyViolation(err) {
		return apperr.Invalid("items", "reference a menu item that does not exist")
	}
	return apperr.Persistence("replace order items", err)
}

func (r *postgresRepo) History(ctx context.Context, orderID uuid.UUID) ([]*StatusChange, error) {
	var out []*StatusChange
	err := r.db.SelectContext(ctx, &out, `
SELECT id,order_id,from_status,to_status,changed_by,notes,changed_at
FROM order_status_history WHERE order_id=$1 ORDER BY changed_at DESC, id DESC`, orderID)
	if err != nil {
		return nil, apperr.Persistence("list order status history", err)
	}
	return out, nil
}

func (r *postgresRepo) Sales(ctx context.Context, start, end time.Time) (SalesSummary, error) {
	var s SalesSummary
	err := r.db.GetContext(ctx, &s, `
SELECT COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS orders
FROM orders
WHERE created_at >= $1 AND created_at < $2 AND status <> 'cancelled'`, start, end)
	return s, apperr.Persistence("sum sales", err)
}

func (r *postgresRepo) TopSellers(ctx context.Context, start, end time.Time, limit int) ([]TopSeller, error) {
	var out []TopSeller
	err := r.db.SelectContext(ctx, &out, `
SELECT oi.menu_item_id, MAX(oi.menu_item_name) AS menu_item_name,
       SUM(oi.quantity) AS quantity, SUM(oi.item_total) AS revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.created_at >= $1 AND o.created_at < $2 AND o.status <> 'cancelled'
GROUP BY oi.menu_item_id
ORDER BY quantity DESC, menu_item_name, oi.menu_item_id
LIMIT NULLIF($3, 0)`, start, end, limit)
	if err != nil {
		return nil, apperr.Persistence("top sellers", err)
	}
	return out, nil
}

func insertItems(ctx context.Context, tx *sqlx.Tx, items []*Item) error {
	for _, item := range items {
		if _, err := tx.NamedExecContext(ctx, insertItem, item); err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}
	return nil
}
