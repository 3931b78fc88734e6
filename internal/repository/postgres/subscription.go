package postgres

import (
	"context"
	"time"

	"github.com/academypay/academypay/internal/domain/subscription"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	"github.com/academypay/academypay/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

type subscriptionRow struct {
	subscription.Subscription
	CouponIDsJSON   []byte             `db:"coupon_ids"`
	ResourceKindCol types.ResourceKind `db:"resource_kind"`
	ResourceIDCol   string             `db:"resource_id"`
}

func newSubscriptionRow(sub *subscription.Subscription) (*subscriptionRow, error) {
	row := &subscriptionRow{
		Subscription:    *sub,
		ResourceKindCol: sub.Resource.Kind,
		ResourceIDCol:   sub.Resource.ID,
	}
	if row.ResourceKindCol == "" {
		row.ResourceKindCol = types.ResourceKindNone
	}
	var err error
	if row.CouponIDsJSON, err = mustJSON(sub.CouponIDs); err != nil {
		return nil, err
	}
	return row, nil
}

func (row *subscriptionRow) toSubscription() (*subscription.Subscription, error) {
	sub := row.Subscription
	if err := fromJSON(row.CouponIDsJSON, &sub.CouponIDs); err != nil {
		return nil, err
	}
	if row.ResourceKindCol != types.ResourceKindNone && row.ResourceKindCol != "" {
		sub.Resource = types.ResourceSelection{Kind: row.ResourceKindCol, ID: row.ResourceIDCol}
	} else {
		sub.Resource = types.NoResource()
	}
	return &sub, nil
}

func (r *subscriptionRepository) rowsToSubscriptions(rows []subscriptionRow) ([]*subscription.Subscription, error) {
	subs := make([]*subscription.Subscription, 0, len(rows))
	for i := range rows {
		sub, err := rows[i].toSubscription()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	row, err := newSubscriptionRow(sub)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_id, bag_id, status,
			valid_until, next_payment_at, billing_period,
			country_code, currency_code,
			coupon_ids, resource_kind, resource_id, is_free,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :user_id, :plan_id, :bag_id, :status,
			:valid_until, :next_payment_at, :billing_period,
			:country_code, :currency_code,
			:coupon_ids, :resource_kind, :resource_id, :is_free,
			:created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to create subscription")
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("subscription", id)
		}
		return nil, dbError(err, "Failed to get subscription")
	}
	return row.toSubscription()
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	row, err := newSubscriptionRow(sub)
	if err != nil {
		return err
	}
	query := `
		UPDATE subscriptions SET
			status = :status,
			valid_until = :valid_until,
			next_payment_at = :next_payment_at,
			billing_period = :billing_period,
			coupon_ids = :coupon_ids,
			resource_kind = :resource_kind,
			resource_id = :resource_id,
			is_free = :is_free,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, row); err != nil {
		return dbError(err, "Failed to update subscription")
	}
	return nil
}

func (r *subscriptionRepository) GetActiveForUserPlan(ctx context.Context, userID, planID string, now time.Time) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, `
		SELECT * FROM subscriptions
		WHERE user_id = $1 AND plan_id = $2
		AND status NOT IN ($3, $4, $5)
		AND (valid_until IS NULL OR valid_until >= $6)
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, planID,
		types.SubscriptionStatusCancelled,
		types.SubscriptionStatusDeprecated,
		types.SubscriptionStatusExpired,
		now)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("subscription", userID)
		}
		return nil, dbError(err, "Failed to get active subscription")
	}
	return row.toSubscription()
}

func (r *subscriptionRepository) ExistsForUserPlan(ctx context.Context, userID, planID string) (bool, error) {
	var exists bool
	err := r.db.GetQuerier(ctx).GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions WHERE user_id = $1 AND plan_id = $2
		)
	`, userID, planID)
	if err != nil {
		return false, dbError(err, "Failed to check subscription history")
	}
	return exists, nil
}

func (r *subscriptionRepository) GetByBag(ctx context.Context, bagID string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row,
		`SELECT * FROM subscriptions WHERE bag_id = $1`, bagID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("subscription", bagID)
		}
		return nil, dbError(err, "Failed to get subscription by bag")
	}
	return row.toSubscription()
}

func (r *subscriptionRepository) ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*subscription.Subscription, error) {
	var rows []subscriptionRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, `
		SELECT * FROM subscriptions
		WHERE status IN ($1, $2)
		AND next_payment_at <= $3
		AND (valid_until IS NULL OR valid_until >= $4)
		ORDER BY next_payment_at ASC
		LIMIT $5 OFFSET $6
	`, types.SubscriptionStatusActive,
		types.SubscriptionStatusPaymentIssue,
		now.Add(lookahead), now, limit, offset)
	if err != nil {
		return nil, dbError(err, "Failed to list due subscriptions")
	}
	return r.rowsToSubscriptions(rows)
}

func (r *subscriptionRepository) ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*subscription.Subscription, error) {
	var rows []subscriptionRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, `
		SELECT * FROM subscriptions
		WHERE status NOT IN ($1, $2, $3)
		AND valid_until IS NOT NULL AND valid_until < $4
		ORDER BY valid_until ASC
		LIMIT $5 OFFSET $6
	`, types.SubscriptionStatusCancelled,
		types.SubscriptionStatusDeprecated,
		types.SubscriptionStatusExpired,
		now, limit, offset)
	if err != nil {
		return nil, dbError(err, "Failed to list expired subscriptions")
	}
	return r.rowsToSubscriptions(rows)
}

func (r *subscriptionRepository) CreateSeat(ctx context.Context, seat *subscription.Seat) error {
	query := `
		INSERT INTO subscription_seats (
			id, subscription_id, email, user_id, multiplier,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :subscription_id, :email, :user_id, :multiplier,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, seat); err != nil {
		return dbError(err, "Failed to create seat")
	}
	return nil
}

func (r *subscriptionRepository) UpdateSeat(ctx context.Context, seat *subscription.Seat) error {
	query := `
		UPDATE subscription_seats SET
			email = :email,
			user_id = :user_id,
			multiplier = :multiplier,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, seat); err != nil {
		return dbError(err, "Failed to update seat")
	}
	return nil
}

func (r *subscriptionRepository) GetActiveSeat(ctx context.Context, subscriptionID, normalizedEmail string) (*subscription.Seat, error) {
	var seat subscription.Seat
	err := r.db.GetQuerier(ctx).GetContext(ctx, &seat, `
		SELECT * FROM subscription_seats
		WHERE subscription_id = $1 AND email = $2 AND status = $3
	`, subscriptionID, normalizedEmail, types.StatusPublished)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("seat", normalizedEmail)
		}
		return nil, dbError(err, "Failed to get seat")
	}
	return &seat, nil
}

func (r *subscriptionRepository) ListSeats(ctx context.Context, subscriptionID string) ([]*subscription.Seat, error) {
	var seats []*subscription.Seat
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &seats, `
		SELECT * FROM subscription_seats
		WHERE subscription_id = $1
		ORDER BY created_at ASC
	`, subscriptionID)
	if err != nil {
		return nil, dbError(err, "Failed to list seats")
	}
	return seats, nil
}

func (r *subscriptionRepository) CreateSeatLog(ctx context.Context, log *subscription.SeatActivityLog) error {
	query := `
		INSERT INTO seat_activity_logs (id, seat_id, action, email, at)
		VALUES (:id, :seat_id, :action, :email, :at)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, log); err != nil {
		return dbError(err, "Failed to create seat activity log")
	}
	return nil
}
