package pos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/database"
)

const txColumns = `id,order_id,cashier_id,amount,order_total,change_given,currency,payment_method,
provider,reference,status,notes,refund_reason,transacted_at,refunded_at,created_at,updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Settle(ctx context.Context, tx *Transaction) error {
	err := database.WithTx(ctx, r.db, func(dbtx *sqlx.Tx) error {
		if _, err := dbtx.NamedExecContext(ctx, `
		INSERT INTO pos_transactions (`+txColumns+`)
		VALUES (:id,:order_id,:cashier_id,:amount,:order_total,:change_given,:currency,:payment_method,
		        :provider,:reference,:status,:notes,:refund_reason,:transacted_at,:refunded_at,:created_at,:updated_at)`, tx); err != nil {
			return err
		}
		return setOrderPayment(ctx, dbtx, tx.OrderID, tx.PaymentMethod, order.PaymentPaid, order.PaymentUnpaid, tx.TransactedAt)
	})
	switch {
	case err == nil:
		return nil
	case database.IsDuplicateKey(err):
		return fmt.Errorf("order %s already has a completed payment: %w", tx.OrderID, apperr.ErrConflict)
	case database.IsForeignKeyViolation(err):
		return apperr.NotFound("order", tx.OrderID.String())
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrNotFound):
		return err
	}
	return apperr.Persistence("settle pos transaction", err)
}

// setOrderPayment moves the order's payment status from one value to another
// inside dbtx. A row in any other state is a conflict.
func setOrderPayment(ctx context.Context, dbtx *sqlx.Tx, orderID uuid.UUID, method order.PaymentMethod, to, from order.PaymentStatus, at time.Time) error {
	res, err := dbtx.ExecContext(ctx, `
		UPDATE orders SET payment_method=$1, payment_status=$2, updated_at=$3
		WHERE id=$4 AND payment_status=$5`,
		method, to, at, orderID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var status order.PaymentStatus
		err := dbtx.GetContext(ctx, &status, `SELECT payment_status FROM orders WHERE id=$1`, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("order", orderID.String())
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("order %s payment is %s: %w", orderID, status, apperr.ErrConflict)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	tx := &Transaction{}
	err := r.db.GetContext(ctx, tx, `SELECT `+txColumns+` FROM pos_transactions WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transaction", id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get pos transaction", err)
	}
	return tx, nil
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Transaction, error) {
	var out []*Transaction
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+txColumns+` FROM pos_transactions WHERE order_id=$1 ORDER BY transacted_at DESC`, orderID)
	if err != nil {
		return nil, apperr.Persistence("list pos transactions", err)
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context, from, to time.Time) ([]*Transaction, error) {
	var out []*Transaction
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+txColumns+` FROM pos_transactions
		WHERE transacted_at >= $1 AND transacted_at < $2
		ORDER BY transacted_at DESC`, from, to)
	if err != nil {
		return nil, apperr.Persistence("list pos transactions", err)
	}
	return out, nil
}

func (r *postgresRepo) Refund(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	err := database.WithTx(ctx, r.db, func(dbtx *sqlx.Tx) error {
		var tx Transaction
		err := dbtx.GetContext(ctx, &tx, `
		UPDATE pos_transactions
		SET status=$1, refund_reason=$2, refunded_at=$3, updated_at=$3
		WHERE id=$4 AND status=$5
		RETURNING `+txColumns,
			TxRefunded, reason, at, id, TxCompleted)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := dbtx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM pos_transactions WHERE id=$1)`, id); err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("transaction", id.String())
			}
			return fmt.Errorf("transaction %s is not completed: %w", id, apperr.ErrConflict)
		}
		if err != nil {
			return err
		}
		return setOrderPayment(ctx, dbtx, tx.OrderID, tx.PaymentMethod, order.PaymentRefunded, order.PaymentPaid, at)
	})
	if err == nil || errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return apperr.Persistence("refund pos transaction", err)
}
