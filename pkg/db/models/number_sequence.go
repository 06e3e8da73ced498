package models

import "time"

// NumberSequence is the per-(entity, year) document number counter. Rows are
// only ever touched through the atomic upsert in pkg/sequence; reading the
// current max and incrementing in application code is not safe under
// concurrent creators.
type NumberSequence struct {
	Entity    string    `gorm:"column:entity;primaryKey"`
	Year      int       `gorm:"column:year;primaryKey"`
	Value     int64     `gorm:"column:value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
