package postgres

import (
	"context"

	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	"github.com/academypay/academypay/internal/types"
)

type bagRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBagRepository(db *postgres.DB, logger *logger.Logger) bag.Repository {
	return &bagRepository{db: db, logger: logger}
}

type bagRow struct {
	bag.Bag
	PlanIDsJSON     []byte             `db:"plan_ids"`
	LineItemsJSON   []byte             `db:"line_items"`
	CouponIDsJSON   []byte             `db:"coupon_ids"`
	ResourceKindCol types.ResourceKind `db:"resource_kind"`
	ResourceIDCol   string             `db:"resource_id"`
}

func newBagRow(b *bag.Bag) (*bagRow, error) {
	row := &bagRow{
		Bag:             *b,
		ResourceKindCol: b.Resource.Kind,
		ResourceIDCol:   b.Resource.ID,
	}
	if row.ResourceKindCol == "" {
		row.ResourceKindCol = types.ResourceKindNone
	}
	var err error
	if row.PlanIDsJSON, err = mustJSON(b.PlanIDs); err != nil {
		return nil, err
	}
	if row.LineItemsJSON, err = mustJSON(b.LineItems); err != nil {
		return nil, err
	}
	if row.CouponIDsJSON, err = mustJSON(b.CouponIDs); err != nil {
		return nil, err
	}
	return row, nil
}

func (row *bagRow) toBag() (*bag.Bag, error) {
	b := row.Bag
	if err := fromJSON(row.PlanIDsJSON, &b.PlanIDs); err != nil {
		return nil, err
	}
	if err := fromJSON(row.LineItemsJSON, &b.LineItems); err != nil {
		return nil, err
	}
	if err := fromJSON(row.CouponIDsJSON, &b.CouponIDs); err != nil {
		return nil, err
	}
	if row.ResourceKindCol != types.ResourceKindNone && row.ResourceKindCol != "" {
		b.Resource = types.ResourceSelection{Kind: row.ResourceKindCol, ID: row.ResourceIDCol}
	} else {
		b.Resource = types.NoResource()
	}
	return &b, nil
}

func (r *bagRepository) Create(ctx context.Context, b *bag.Bag) error {
	row, err := newBagRow(b)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO bags (
			id, user_id, status, chosen_period, how_many_installments,
			country_code, currency_code,
			plan_ids, line_items, seats, coupon_ids,
			resource_kind, resource_id,
			amount_per_month, amount_per_quarter, amount_per_half, amount_per_year,
			charge_now, was_delivered,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :user_id, :status, :chosen_period, :how_many_installments,
			:country_code, :currency_code,
			:plan_ids, :line_items, :seats, :coupon_ids,
			:resource_kind, :resource_id,
			:amount_per_month, :amount_per_quarter, :amount_per_half, :amount_per_year,
			:charge_now, :was_delivered,
			:created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to create bag")
	}
	return nil
}

func (r *bagRepository) Get(ctx context.Context, id string) (*bag.Bag, error) {
	var row bagRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM bags WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("bag", id)
		}
		return nil, dbError(err, "Failed to get bag")
	}
	return row.toBag()
}

func (r *bagRepository) GetChecking(ctx context.Context, userID string) (*bag.Bag, error) {
	var row bagRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, `
		SELECT * FROM bags
		WHERE user_id = $1 AND status = $2 AND was_delivered = false
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, types.BagStatusChecking)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("bag", userID)
		}
		return nil, dbError(err, "Failed to get checking bag")
	}
	return row.toBag()
}

func (r *bagRepository) Update(ctx context.Context, b *bag.Bag) error {
	row, err := newBagRow(b)
	if err != nil {
		return err
	}
	query := `
		UPDATE bags SET
			status = :status,
			chosen_period = :chosen_period,
			how_many_installments = :how_many_installments,
			country_code = :country_code,
			currency_code = :currency_code,
			plan_ids = :plan_ids,
			line_items = :line_items,
			seats = :seats,
			coupon_ids = :coupon_ids,
			resource_kind = :resource_kind,
			resource_id = :resource_id,
			amount_per_month = :amount_per_month,
			amount_per_quarter = :amount_per_quarter,
			amount_per_half = :amount_per_half,
			amount_per_year = :amount_per_year,
			charge_now = :charge_now,
			was_delivered = :was_delivered,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to update bag")
	}
	return nil
}
