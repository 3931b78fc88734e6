package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"

	ierr "github.com/academypay/academypay/internal/errors"
)

// mustJSON marshals a JSONB column value. The input is always one of our
// own domain types, so a marshal failure is a programming error surfaced
// as a database error.
func mustJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode row data").
			Mark(ierr.ErrDatabase)
	}
	return data, nil
}

func fromJSON[T any](data []byte, dest *T) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to decode row data").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func notFound(entity, ref string) error {
	return ierr.NewError(entity + " not found").
		WithHint(entity + " not found").
		WithReportableDetails(map[string]any{"ref": ref}).
		Mark(ierr.ErrNotFound)
}

func dbError(err error, hint string) error {
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrDatabase)
}
