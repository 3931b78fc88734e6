package postgres

import (
	"context"

	"github.com/academypay/academypay/internal/postgres"
)

// EnsureSchema creates every billing table if it does not exist. Statements
// are idempotent so the migration can run on every deploy.
func EnsureSchema(ctx context.Context, db *postgres.DB) error {
	_, err := db.GetQuerier(ctx).ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS customers (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    country_code TEXT NOT NULL DEFAULT '',
    gateway_customer_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_email ON customers (lower(trim(email)));

CREATE TABLE IF NOT EXISTS services (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    price_per_unit NUMERIC NOT NULL DEFAULT 0,
    currency_code TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_services_slug ON services (slug);

CREATE TABLE IF NOT EXISTS service_items (
    id TEXT PRIMARY KEY,
    service_id TEXT NOT NULL REFERENCES services (id),
    how_many BIGINT NOT NULL,
    unit_type TEXT NOT NULL,
    renew_at INT NOT NULL DEFAULT 0,
    renew_at_unit TEXT NOT NULL DEFAULT '',
    is_renewable BOOLEAN NOT NULL DEFAULT false,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    renewable BOOLEAN NOT NULL DEFAULT true,
    price_monthly NUMERIC NOT NULL DEFAULT 0,
    price_quarterly NUMERIC NOT NULL DEFAULT 0,
    price_half NUMERIC NOT NULL DEFAULT 0,
    price_yearly NUMERIC NOT NULL DEFAULT 0,
    currency_code TEXT NOT NULL DEFAULT '',
    trial_duration INT NOT NULL DEFAULT 0,
    trial_duration_unit TEXT NOT NULL DEFAULT '',
    time_of_life INT NOT NULL DEFAULT 0,
    time_of_life_unit TEXT NOT NULL DEFAULT '',
    supports_seats BOOLEAN NOT NULL DEFAULT false,
    financing_options JSONB NOT NULL DEFAULT '[]'::jsonb,
    add_ons JSONB NOT NULL DEFAULT '[]'::jsonb,
    service_item_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    pricing_overrides JSONB NOT NULL DEFAULT '[]'::jsonb,
    cohort_set_id TEXT,
    mentorship_service_set_id TEXT,
    event_type_set_id TEXT,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_slug ON plans (slug);

CREATE TABLE IF NOT EXISTS coupons (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    discount_type TEXT NOT NULL,
    discount_value NUMERIC NOT NULL,
    usage_cap INT,
    offered_at TIMESTAMPTZ,
    expires_at TIMESTAMPTZ,
    allowed_user_id TEXT,
    seller_user_id TEXT,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_slug ON coupons (slug);

CREATE TABLE IF NOT EXISTS bags (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    status TEXT NOT NULL,
    chosen_period TEXT NOT NULL DEFAULT '',
    how_many_installments INT NOT NULL DEFAULT 0,
    country_code TEXT NOT NULL DEFAULT '',
    currency_code TEXT NOT NULL DEFAULT '',
    plan_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    line_items JSONB NOT NULL DEFAULT '[]'::jsonb,
    seats INT NOT NULL DEFAULT 0,
    coupon_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    resource_kind TEXT NOT NULL DEFAULT 'NONE',
    resource_id TEXT NOT NULL DEFAULT '',
    amount_per_month NUMERIC NOT NULL DEFAULT 0,
    amount_per_quarter NUMERIC NOT NULL DEFAULT 0,
    amount_per_half NUMERIC NOT NULL DEFAULT 0,
    amount_per_year NUMERIC NOT NULL DEFAULT 0,
    charge_now BOOLEAN NOT NULL DEFAULT false,
    was_delivered BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_bags_user_status ON bags (user_id, status);

CREATE TABLE IF NOT EXISTS invoices (
    id TEXT PRIMARY KEY,
    number TEXT NOT NULL DEFAULT '',
    bag_id TEXT NOT NULL REFERENCES bags (id),
    user_id TEXT NOT NULL,
    amount NUMERIC NOT NULL,
    currency_code TEXT NOT NULL DEFAULT '',
    paid_at TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL,
    gateway_reference TEXT NOT NULL DEFAULT '',
    coupon_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_invoices_bag ON invoices (bag_id);
CREATE INDEX IF NOT EXISTS idx_invoices_coupons ON invoices USING GIN (coupon_ids);

CREATE TABLE IF NOT EXISTS subscriptions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    plan_id TEXT NOT NULL,
    bag_id TEXT NOT NULL,
    status TEXT NOT NULL,
    valid_until TIMESTAMPTZ,
    next_payment_at TIMESTAMPTZ NOT NULL,
    billing_period TEXT NOT NULL,
    country_code TEXT NOT NULL DEFAULT '',
    currency_code TEXT NOT NULL DEFAULT '',
    coupon_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    resource_kind TEXT NOT NULL DEFAULT 'NONE',
    resource_id TEXT NOT NULL DEFAULT '',
    is_free BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user_plan ON subscriptions (user_id, plan_id);
CREATE INDEX IF NOT EXISTS idx_subscriptions_next_payment ON subscriptions (status, next_payment_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_bag ON subscriptions (bag_id);

CREATE TABLE IF NOT EXISTS plan_financings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    plan_id TEXT NOT NULL,
    bag_id TEXT NOT NULL,
    status TEXT NOT NULL,
    plan_expires_at TIMESTAMPTZ NOT NULL,
    valid_until TIMESTAMPTZ NOT NULL,
    next_payment_at TIMESTAMPTZ NOT NULL,
    monthly_price NUMERIC NOT NULL,
    installments_total INT NOT NULL,
    installments_paid INT NOT NULL DEFAULT 0,
    country_code TEXT NOT NULL DEFAULT '',
    currency_code TEXT NOT NULL DEFAULT '',
    coupon_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    resource_kind TEXT NOT NULL DEFAULT 'NONE',
    resource_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_plan_financings_user_plan ON plan_financings (user_id, plan_id);
CREATE INDEX IF NOT EXISTS idx_plan_financings_next_payment ON plan_financings (status, next_payment_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_plan_financings_bag ON plan_financings (bag_id);

CREATE TABLE IF NOT EXISTS service_stock_schedulers (
    id TEXT PRIMARY KEY,
    service_item_id TEXT NOT NULL REFERENCES service_items (id),
    owner_type TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    plan_id TEXT,
    last_renew_at TIMESTAMPTZ,
    valid_until TIMESTAMPTZ,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_schedulers_item_owner
    ON service_stock_schedulers (service_item_id, owner_type, owner_id);
CREATE INDEX IF NOT EXISTS idx_schedulers_valid_until ON service_stock_schedulers (valid_until);

CREATE TABLE IF NOT EXISTS consumables (
    id TEXT PRIMARY KEY,
    scheduler_id TEXT NOT NULL REFERENCES service_stock_schedulers (id),
    service_item_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    how_many BIGINT NOT NULL,
    unit_type TEXT NOT NULL,
    valid_until TIMESTAMPTZ,
    resource_kind TEXT NOT NULL DEFAULT 'NONE',
    resource_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_consumables_scheduler ON consumables (scheduler_id, created_at DESC);

CREATE TABLE IF NOT EXISTS subscription_seats (
    id TEXT PRIMARY KEY,
    subscription_id TEXT NOT NULL REFERENCES subscriptions (id),
    email TEXT NOT NULL,
    user_id TEXT,
    multiplier NUMERIC NOT NULL DEFAULT 1,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_seats_subscription ON subscription_seats (subscription_id);

CREATE TABLE IF NOT EXISTS seat_activity_logs (
    id TEXT PRIMARY KEY,
    seat_id TEXT NOT NULL REFERENCES subscription_seats (id),
    action TEXT NOT NULL,
    email TEXT NOT NULL,
    at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pricing_ratios (
    country_code TEXT PRIMARY KEY,
    ratio NUMERIC NOT NULL,
    currency_code TEXT
);

CREATE TABLE IF NOT EXISTS cohort_sets (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS mentorship_service_sets (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS event_type_sets (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE
);
`
