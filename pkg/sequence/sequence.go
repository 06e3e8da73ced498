package sequence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
)

// Document number entities. The prefix and zero padding are part of the
// external contract; downstream labels and documents reference these numbers.
const (
	EntitySalesOrder = "SO"
	EntityShipment   = "SH"
	EntityPOD        = "POD"
)

const suffixWidth = 6

// Next atomically increments and returns the counter for (entity, year).
// The whole read-modify-write happens inside one upsert statement, so
// concurrent creators can never observe the same value.
func Next(ctx context.Context, tx *gorm.DB, entity string, year int) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "sequence requires a db handle")
	}
	if entity == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "sequence entity required")
	}

	var value int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO number_sequences (entity, year, value, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (entity, year)
		DO UPDATE SET value = number_sequences.value + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING value
	`, entity, year).Scan(&value).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance number sequence")
	}
	return value, nil
}

// Format renders a document number such as SH-2024-000001.
func Format(entity string, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%0*d", entity, year, suffixWidth, value)
}

// NextNumber advances the counter for the year of the given time and returns
// the formatted document number.
func NextNumber(ctx context.Context, tx *gorm.DB, entity string, at time.Time) (string, error) {
	year := at.UTC().Year()
	value, err := Next(ctx, tx, entity, year)
	if err != nil {
		return "", err
	}
	return Format(entity, year, value), nil
}
