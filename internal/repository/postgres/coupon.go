package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
)

type couponRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCouponRepository(db *postgres.DB, logger *logger.Logger) coupon.Repository {
	return &couponRepository{db: db, logger: logger}
}

func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	query := `
		INSERT INTO coupons (
			id, slug, discount_type, discount_value, usage_cap,
			offered_at, expires_at, allowed_user_id, seller_user_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :slug, :discount_type, :discount_value, :usage_cap,
			:offered_at, :expires_at, :allowed_user_id, :seller_user_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, c); err != nil {
		return dbError(err, "Failed to create coupon")
	}
	return nil
}

func (r *couponRepository) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	var c coupon.Coupon
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c,
		`SELECT * FROM coupons WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("coupon", id)
		}
		return nil, dbError(err, "Failed to get coupon")
	}
	return &c, nil
}

func (r *couponRepository) GetBySlug(ctx context.Context, slug string) (*coupon.Coupon, error) {
	var c coupon.Coupon
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c,
		`SELECT * FROM coupons WHERE slug = $1`, slug)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("coupon", slug)
		}
		return nil, dbError(err, "Failed to get coupon")
	}
	return &c, nil
}

// GetBatch returns the coupons it finds; unknown ids are simply absent so
// recurring charges can drop deleted coupons silently.
func (r *couponRepository) GetBatch(ctx context.Context, ids []string) ([]*coupon.Coupon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM coupons WHERE id IN (?)`, ids)
	if err != nil {
		return nil, dbError(err, "Failed to build coupon query")
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var coupons []*coupon.Coupon
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &coupons, query, args...); err != nil {
		return nil, dbError(err, "Failed to get coupons")
	}
	return coupons, nil
}
