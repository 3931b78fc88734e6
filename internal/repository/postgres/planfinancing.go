package postgres

import (
	"context"
	"time"

	"github.com/academypay/academypay/internal/domain/planfinancing"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	"github.com/academypay/academypay/internal/types"
)

type planFinancingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPlanFinancingRepository(db *postgres.DB, logger *logger.Logger) planfinancing.Repository {
	return &planFinancingRepository{db: db, logger: logger}
}

type planFinancingRow struct {
	planfinancing.PlanFinancing
	CouponIDsJSON   []byte             `db:"coupon_ids"`
	ResourceKindCol types.ResourceKind `db:"resource_kind"`
	ResourceIDCol   string             `db:"resource_id"`
}

func newPlanFinancingRow(pf *planfinancing.PlanFinancing) (*planFinancingRow, error) {
	row := &planFinancingRow{
		PlanFinancing:   *pf,
		ResourceKindCol: pf.Resource.Kind,
		ResourceIDCol:   pf.Resource.ID,
	}
	if row.ResourceKindCol == "" {
		row.ResourceKindCol = types.ResourceKindNone
	}
	var err error
	if row.CouponIDsJSON, err = mustJSON(pf.CouponIDs); err != nil {
		return nil, err
	}
	return row, nil
}

func (row *planFinancingRow) toPlanFinancing() (*planfinancing.PlanFinancing, error) {
	pf := row.PlanFinancing
	if err := fromJSON(row.CouponIDsJSON, &pf.CouponIDs); err != nil {
		return nil, err
	}
	if row.ResourceKindCol != types.ResourceKindNone && row.ResourceKindCol != "" {
		pf.Resource = types.ResourceSelection{Kind: row.ResourceKindCol, ID: row.ResourceIDCol}
	} else {
		pf.Resource = types.NoResource()
	}
	return &pf, nil
}

func (r *planFinancingRepository) rowsToPlanFinancings(rows []planFinancingRow) ([]*planfinancing.PlanFinancing, error) {
	pfs := make([]*planfinancing.PlanFinancing, 0, len(rows))
	for i := range rows {
		pf, err := rows[i].toPlanFinancing()
		if err != nil {
			return nil, err
		}
		pfs = append(pfs, pf)
	}
	return pfs, nil
}

func (r *planFinancingRepository) Create(ctx context.Context, pf *planfinancing.PlanFinancing) error {
	row, err := newPlanFinancingRow(pf)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO plan_financings (
			id, user_id, plan_id, bag_id, status,
			plan_expires_at, valid_until, next_payment_at,
			monthly_price, installments_total, installments_paid,
			country_code, currency_code,
			coupon_ids, resource_kind, resource_id,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :user_id, :plan_id, :bag_id, :status,
			:plan_expires_at, :valid_until, :next_payment_at,
			:monthly_price, :installments_total, :installments_paid,
			:country_code, :currency_code,
			:coupon_ids, :resource_kind, :resource_id,
			:created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to create plan financing")
	}
	return nil
}

func (r *planFinancingRepository) Get(ctx context.Context, id string) (*planfinancing.PlanFinancing, error) {
	var row planFinancingRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM plan_financings WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("plan_financing", id)
		}
		return nil, dbError(err, "Failed to get plan financing")
	}
	return row.toPlanFinancing()
}

func (r *planFinancingRepository) Update(ctx context.Context, pf *planfinancing.PlanFinancing) error {
	row, err := newPlanFinancingRow(pf)
	if err != nil {
		return err
	}
	query := `
		UPDATE plan_financings SET
			status = :status,
			plan_expires_at = :plan_expires_at,
			valid_until = :valid_until,
			next_payment_at = :next_payment_at,
			monthly_price = :monthly_price,
			installments_total = :installments_total,
			installments_paid = :installments_paid,
			coupon_ids = :coupon_ids,
			resource_kind = :resource_kind,
			resource_id = :resource_id,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to update plan financing")
	}
	return nil
}

func (r *planFinancingRepository) ExistsForUserPlan(ctx context.Context, userID, planID string) (bool, error) {
	var exists bool
	err := r.db.GetQuerier(ctx).GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM plan_financings
			WHERE user_id = $1 AND plan_id = $2 AND status != $3
		)
	`, userID, planID, types.PlanFinancingStatusCancelled)
	if err != nil {
		return false, dbError(err, "Failed to check financing history")
	}
	return exists, nil
}

func (r *planFinancingRepository) GetByBag(ctx context.Context, bagID string) (*planfinancing.PlanFinancing, error) {
	var row planFinancingRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM plan_financings WHERE bag_id = $1`, bagID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("plan_financing", bagID)
		}
		return nil, dbError(err, "Failed to get plan financing by bag")
	}
	return row.toPlanFinancing()
}

func (r *planFinancingRepository) ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*planfinancing.PlanFinancing, error) {
	var rows []planFinancingRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, `
		SELECT * FROM plan_financings
		WHERE status IN ($1, $2)
		AND installments_paid < installments_total
		AND next_payment_at <= $3
		AND plan_expires_at >= $4
		ORDER BY next_payment_at ASC
		LIMIT $5 OFFSET $6
	`, types.PlanFinancingStatusActive,
		types.PlanFinancingStatusPaymentIssue,
		now.Add(lookahead), now, limit, offset)
	if err != nil {
		return nil, dbError(err, "Failed to list due plan financings")
	}
	return r.rowsToPlanFinancings(rows)
}

func (r *planFinancingRepository) ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*planfinancing.PlanFinancing, error) {
	var rows []planFinancingRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, `
		SELECT * FROM plan_financings
		WHERE status NOT IN ($1, $2, $3, $4)
		AND plan_expires_at < $5
		ORDER BY plan_expires_at ASC
		LIMIT $6 OFFSET $7
	`, types.PlanFinancingStatusCancelled,
		types.PlanFinancingStatusDeprecated,
		types.PlanFinancingStatusExpired,
		types.PlanFinancingStatusFullyPaid,
		now, limit, offset)
	if err != nil {
		return nil, dbError(err, "Failed to list expired plan financings")
	}
	return r.rowsToPlanFinancings(rows)
}
