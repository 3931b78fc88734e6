package postgres

import (
	"context"

	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	"github.com/academypay/academypay/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

type invoiceRow struct {
	invoice.Invoice
	CouponIDsJSON []byte `db:"coupon_ids"`
}

func newInvoiceRow(inv *invoice.Invoice) (*invoiceRow, error) {
	row := &invoiceRow{Invoice: *inv}
	var err error
	if row.CouponIDsJSON, err = mustJSON(inv.CouponIDs); err != nil {
		return nil, err
	}
	return row, nil
}

func (row *invoiceRow) toInvoice() (*invoice.Invoice, error) {
	inv := row.Invoice
	if err := fromJSON(row.CouponIDsJSON, &inv.CouponIDs); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	row, err := newInvoiceRow(inv)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO invoices (
			id, number, bag_id, user_id, amount, currency_code, paid_at, status,
			gateway_reference, coupon_ids,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :number, :bag_id, :user_id, :amount, :currency_code, :paid_at, :status,
			:gateway_reference, :coupon_ids,
			:created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to create invoice")
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var row invoiceRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM invoices WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("invoice", id)
		}
		return nil, dbError(err, "Failed to get invoice")
	}
	return row.toInvoice()
}

func (r *invoiceRepository) ListByBag(ctx context.Context, bagID string) ([]*invoice.Invoice, error) {
	var rows []invoiceRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows,
		`SELECT * FROM invoices WHERE bag_id = $1 ORDER BY paid_at ASC`, bagID)
	if err != nil {
		return nil, dbError(err, "Failed to list invoices")
	}
	invoices := make([]*invoice.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].toInvoice()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (r *invoiceRepository) HasPaidInvoice(ctx context.Context, bagID string) (bool, error) {
	var exists bool
	err := r.db.GetQuerier(ctx).GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE bag_id = $1 AND status = $2 AND amount > 0
		)
	`, bagID, types.InvoiceStatusFulfilled)
	if err != nil {
		return false, dbError(err, "Failed to check paid invoices")
	}
	return exists, nil
}

func (r *invoiceRepository) CountRedemptions(ctx context.Context, couponID string) (int, error) {
	var count int
	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, `
		SELECT count(*) FROM invoices
		WHERE status = $1 AND coupon_ids @> to_jsonb(ARRAY[$2]::text[])
	`, types.InvoiceStatusFulfilled, couponID)
	if err != nil {
		return 0, dbError(err, "Failed to count coupon redemptions")
	}
	return count, nil
}
