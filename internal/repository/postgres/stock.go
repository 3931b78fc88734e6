package postgres

import (
	"context"
	"time"

	"github.com/academypay/academypay/internal/domain/stock"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	"github.com/academypay/academypay/internal/types"
)

type stockRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewStockRepository(db *postgres.DB, logger *logger.Logger) stock.Repository {
	return &stockRepository{db: db, logger: logger}
}

func (r *stockRepository) Create(ctx context.Context, scheduler *stock.ServiceStockScheduler) error {
	query := `
		INSERT INTO service_stock_schedulers (
			id, service_item_id, owner_type, owner_id, plan_id,
			last_renew_at, valid_until,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :service_item_id, :owner_type, :owner_id, :plan_id,
			:last_renew_at, :valid_until,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, scheduler); err != nil {
		return dbError(err, "Failed to create stock scheduler")
	}
	return nil
}

func (r *stockRepository) Get(ctx context.Context, id string) (*stock.ServiceStockScheduler, error) {
	var scheduler stock.ServiceStockScheduler
	err := r.db.GetQuerier(ctx).GetContext(ctx, &scheduler,
		`SELECT * FROM service_stock_schedulers WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("stock_scheduler", id)
		}
		return nil, dbError(err, "Failed to get stock scheduler")
	}
	return &scheduler, nil
}

func (r *stockRepository) Update(ctx context.Context, scheduler *stock.ServiceStockScheduler) error {
	query := `
		UPDATE service_stock_schedulers SET
			last_renew_at = :last_renew_at,
			valid_until = :valid_until,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, scheduler); err != nil {
		return dbError(err, "Failed to update stock scheduler")
	}
	return nil
}

func (r *stockRepository) GetByItemAndOwner(ctx context.Context, serviceItemID string, ownerType string, ownerID string) (*stock.ServiceStockScheduler, error) {
	var scheduler stock.ServiceStockScheduler
	err := r.db.GetQuerier(ctx).GetContext(ctx, &scheduler, `
		SELECT * FROM service_stock_schedulers
		WHERE service_item_id = $1 AND owner_type = $2 AND owner_id = $3
	`, serviceItemID, ownerType, ownerID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("stock_scheduler", serviceItemID)
		}
		return nil, dbError(err, "Failed to get stock scheduler by item and owner")
	}
	return &scheduler, nil
}

func (r *stockRepository) ListByOwner(ctx context.Context, ownerType string, ownerID string) ([]*stock.ServiceStockScheduler, error) {
	var schedulers []*stock.ServiceStockScheduler
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &schedulers, `
		SELECT * FROM service_stock_schedulers
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY created_at ASC
	`, ownerType, ownerID)
	if err != nil {
		return nil, dbError(err, "Failed to list stock schedulers by owner")
	}
	return schedulers, nil
}

func (r *stockRepository) ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*stock.ServiceStockScheduler, error) {
	var schedulers []*stock.ServiceStockScheduler
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &schedulers, `
		SELECT * FROM service_stock_schedulers
		WHERE status = $1
		AND (valid_until IS NULL OR valid_until <= $2)
		ORDER BY valid_until ASC NULLS FIRST
		LIMIT $3 OFFSET $4
	`, types.StatusPublished, now.Add(lookahead), limit, offset)
	if err != nil {
		return nil, dbError(err, "Failed to list due stock schedulers")
	}
	return schedulers, nil
}

type consumableRow struct {
	stock.Consumable
	ResourceKindCol types.ResourceKind `db:"resource_kind"`
	ResourceIDCol   string             `db:"resource_id"`
}

func newConsumableRow(c *stock.Consumable) *consumableRow {
	row := &consumableRow{
		Consumable:      *c,
		ResourceKindCol: c.Resource.Kind,
		ResourceIDCol:   c.Resource.ID,
	}
	if row.ResourceKindCol == "" {
		row.ResourceKindCol = types.ResourceKindNone
	}
	return row
}

func (row *consumableRow) toConsumable() *stock.Consumable {
	c := row.Consumable
	if row.ResourceKindCol != types.ResourceKindNone && row.ResourceKindCol != "" {
		c.Resource = types.ResourceSelection{Kind: row.ResourceKindCol, ID: row.ResourceIDCol}
	} else {
		c.Resource = types.NoResource()
	}
	return &c
}

func (r *stockRepository) CreateConsumable(ctx context.Context, consumable *stock.Consumable) error {
	query := `
		INSERT INTO consumables (
			id, scheduler_id, service_item_id, user_id,
			how_many, unit_type, valid_until,
			resource_kind, resource_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :scheduler_id, :service_item_id, :user_id,
			:how_many, :unit_type, :valid_until,
			:resource_kind, :resource_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, newConsumableRow(consumable)); err != nil {
		return dbError(err, "Failed to create consumable")
	}
	return nil
}

func (r *stockRepository) GetLatestConsumable(ctx context.Context, schedulerID string) (*stock.Consumable, error) {
	var row consumableRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, `
		SELECT * FROM consumables
		WHERE scheduler_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, schedulerID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("consumable", schedulerID)
		}
		return nil, dbError(err, "Failed to get latest consumable")
	}
	return row.toConsumable(), nil
}

func (r *stockRepository) ListConsumables(ctx context.Context, schedulerID string) ([]*stock.Consumable, error) {
	var rows []consumableRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, `
		SELECT * FROM consumables
		WHERE scheduler_id = $1
		ORDER BY created_at ASC
	`, schedulerID)
	if err != nil {
		return nil, dbError(err, "Failed to list consumables")
	}
	consumables := make([]*stock.Consumable, 0, len(rows))
	for i := range rows {
		consumables = append(consumables, rows[i].toConsumable())
	}
	return consumables, nil
}
