package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
)

type serviceItemRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewServiceItemRepository(db *postgres.DB, logger *logger.Logger) serviceitem.Repository {
	return &serviceItemRepository{db: db, logger: logger}
}

func (r *serviceItemRepository) CreateService(ctx context.Context, svc *serviceitem.Service) error {
	query := `
		INSERT INTO services (
			id, slug, type, title, price_per_unit, currency_code,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :slug, :type, :title, :price_per_unit, :currency_code,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, svc); err != nil {
		return dbError(err, "Failed to create service")
	}
	return nil
}

func (r *serviceItemRepository) GetService(ctx context.Context, id string) (*serviceitem.Service, error) {
	var svc serviceitem.Service
	err := r.db.GetQuerier(ctx).GetContext(ctx, &svc,
		`SELECT * FROM services WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("service", id)
		}
		return nil, dbError(err, "Failed to get service")
	}
	return &svc, nil
}

func (r *serviceItemRepository) Create(ctx context.Context, item *serviceitem.ServiceItem) error {
	query := `
		INSERT INTO service_items (
			id, service_id, how_many, unit_type,
			renew_at, renew_at_unit, is_renewable,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :service_id, :how_many, :unit_type,
			:renew_at, :renew_at_unit, :is_renewable,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, item); err != nil {
		return dbError(err, "Failed to create service item")
	}
	return nil
}

func (r *serviceItemRepository) Get(ctx context.Context, id string) (*serviceitem.ServiceItem, error) {
	var item serviceitem.ServiceItem
	err := r.db.GetQuerier(ctx).GetContext(ctx, &item,
		`SELECT * FROM service_items WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("service item", id)
		}
		return nil, dbError(err, "Failed to get service item")
	}
	svc, err := r.GetService(ctx, item.ServiceID)
	if err != nil {
		return nil, err
	}
	item.Service = svc
	return &item, nil
}

// GetBatch resolves the items it finds; callers detect missing ids by
// comparing against the requested set.
func (r *serviceItemRepository) GetBatch(ctx context.Context, ids []string) ([]*serviceitem.ServiceItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM service_items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, dbError(err, "Failed to build service item query")
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var items []*serviceitem.ServiceItem
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query, args...); err != nil {
		return nil, dbError(err, "Failed to get service items")
	}
	for _, item := range items {
		svc, err := r.GetService(ctx, item.ServiceID)
		if err != nil {
			return nil, err
		}
		item.Service = svc
	}
	return items, nil
}
