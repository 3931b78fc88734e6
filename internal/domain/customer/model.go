package customer

import (
	"strings"

	"github.com/academypay/academypay/internal/types"
)

// Customer is a paying user of the platform. Auth and profile data live
// elsewhere; this is only what billing needs.
type Customer struct {
	ID string `db:"id" json:"id"`
	// Email is stored as entered; use NormalizedEmail for uniqueness checks
	Email       string `db:"email" json:"email"`
	FirstName   string `db:"first_name" json:"first_name"`
	LastName    string `db:"last_name" json:"last_name"`
	CountryCode string `db:"country_code" json:"country_code"`
	// GatewayCustomerID is the charge provider's reference for this customer
	GatewayCustomerID string `db:"gateway_customer_id" json:"gateway_customer_id"`

	types.BaseModel
}

// NormalizedEmail lowercases and trims the email for uniqueness comparisons
func NormalizedEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
