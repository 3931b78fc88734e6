package postgres

import (
	"context"

	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
)

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

// planRow carries the catalog collections as JSONB columns.
type planRow struct {
	plan.Plan
	FinancingOptionsJSON []byte `db:"financing_options"`
	AddOnsJSON           []byte `db:"add_ons"`
	ServiceItemIDsJSON   []byte `db:"service_item_ids"`
	PricingOverridesJSON []byte `db:"pricing_overrides"`
}

func newPlanRow(p *plan.Plan) (*planRow, error) {
	row := &planRow{Plan: *p}
	var err error
	if row.FinancingOptionsJSON, err = mustJSON(p.FinancingOptions); err != nil {
		return nil, err
	}
	if row.AddOnsJSON, err = mustJSON(p.AddOns); err != nil {
		return nil, err
	}
	if row.ServiceItemIDsJSON, err = mustJSON(p.ServiceItemIDs); err != nil {
		return nil, err
	}
	if row.PricingOverridesJSON, err = mustJSON(p.PricingOverrides); err != nil {
		return nil, err
	}
	return row, nil
}

func (row *planRow) toPlan() (*plan.Plan, error) {
	p := row.Plan
	if err := fromJSON(row.FinancingOptionsJSON, &p.FinancingOptions); err != nil {
		return nil, err
	}
	if err := fromJSON(row.AddOnsJSON, &p.AddOns); err != nil {
		return nil, err
	}
	if err := fromJSON(row.ServiceItemIDsJSON, &p.ServiceItemIDs); err != nil {
		return nil, err
	}
	if err := fromJSON(row.PricingOverridesJSON, &p.PricingOverrides); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	row, err := newPlanRow(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO plans (
			id, slug, name, renewable,
			price_monthly, price_quarterly, price_half, price_yearly, currency_code,
			trial_duration, trial_duration_unit,
			time_of_life, time_of_life_unit,
			supports_seats,
			financing_options, add_ons, service_item_ids, pricing_overrides,
			cohort_set_id, mentorship_service_set_id, event_type_set_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :slug, :name, :renewable,
			:price_monthly, :price_quarterly, :price_half, :price_yearly, :currency_code,
			:trial_duration, :trial_duration_unit,
			:time_of_life, :time_of_life_unit,
			:supports_seats,
			:financing_options, :add_ons, :service_item_ids, :pricing_overrides,
			:cohort_set_id, :mentorship_service_set_id, :event_type_set_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to create plan")
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var row planRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM plans WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("plan", id)
		}
		return nil, dbError(err, "Failed to get plan")
	}
	return row.toPlan()
}

func (r *planRepository) GetByIDOrSlug(ctx context.Context, ref string) (*plan.Plan, error) {
	var row planRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM plans WHERE id = $1 OR slug = $1`, ref)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("plan", ref)
		}
		return nil, dbError(err, "Failed to get plan")
	}
	return row.toPlan()
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	row, err := newPlanRow(p)
	if err != nil {
		return err
	}
	query := `
		UPDATE plans SET
			slug = :slug,
			name = :name,
			renewable = :renewable,
			price_monthly = :price_monthly,
			price_quarterly = :price_quarterly,
			price_half = :price_half,
			price_yearly = :price_yearly,
			currency_code = :currency_code,
			trial_duration = :trial_duration,
			trial_duration_unit = :trial_duration_unit,
			time_of_life = :time_of_life,
			time_of_life_unit = :time_of_life_unit,
			supports_seats = :supports_seats,
			financing_options = :financing_options,
			add_ons = :add_ons,
			service_item_ids = :service_item_ids,
			pricing_overrides = :pricing_overrides,
			cohort_set_id = :cohort_set_id,
			mentorship_service_set_id = :mentorship_service_set_id,
			event_type_set_id = :event_type_set_id,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to update plan")
	}
	return nil
}
