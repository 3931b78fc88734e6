package postgres

import (
	"context"

	"github.com/academypay/academypay/internal/domain/customer"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
)

type customerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return &customerRepository{db: db, logger: logger}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			id, email, first_name, last_name, country_code,
			gateway_customer_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :email, :first_name, :last_name, :country_code,
			:gateway_customer_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, c); err != nil {
		return dbError(err, "Failed to create customer")
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c,
		`SELECT * FROM customers WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("customer", id)
		}
		return nil, dbError(err, "Failed to get customer")
	}
	return &c, nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	normalized := customer.NormalizedEmail(email)
	var c customer.Customer
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c,
		`SELECT * FROM customers WHERE lower(trim(email)) = $1`, normalized)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("customer", email)
		}
		return nil, dbError(err, "Failed to get customer by email")
	}
	return &c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers SET
			email = :email,
			first_name = :first_name,
			last_name = :last_name,
			country_code = :country_code,
			gateway_customer_id = :gateway_customer_id,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, c); err != nil {
		return dbError(err, "Failed to update customer")
	}
	return nil
}
