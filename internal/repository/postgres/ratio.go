package postgres

import (
	"context"

	"github.com/academypay/academypay/internal/domain/pricing"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
)

type ratioRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewRatioRepository(db *postgres.DB, logger *logger.Logger) pricing.RatioRepository {
	return &ratioRepository{db: db, logger: logger}
}

type ratioRow struct {
	CountryCode string `db:"country_code"`
	pricing.CountryRatio
}

func (r *ratioRepository) ListRatios(ctx context.Context) (map[string]pricing.CountryRatio, error) {
	var rows []ratioRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows,
		`SELECT country_code, ratio, currency_code FROM pricing_ratios`)
	if err != nil {
		return nil, dbError(err, "Failed to list pricing ratios")
	}
	ratios := make(map[string]pricing.CountryRatio, len(rows))
	for _, row := range rows {
		ratios[row.CountryCode] = row.CountryRatio
	}
	return ratios, nil
}

func (r *ratioRepository) UpsertRatio(ctx context.Context, countryCode string, ratio pricing.CountryRatio) error {
	query := `
		INSERT INTO pricing_ratios (country_code, ratio, currency_code)
		VALUES (:country_code, :ratio, :currency_code)
		ON CONFLICT (country_code) DO UPDATE SET
			ratio = EXCLUDED.ratio,
			currency_code = EXCLUDED.currency_code
	`
	if _, err := r.db.GetQuerier(ctx).NamedExec(query, ratioRow{CountryCode: countryCode, CountryRatio: ratio}); err != nil {
		return dbError(err, "Failed to upsert pricing ratio")
	}
	return nil
}
