package models

import (
	"time"

	"github.com/shopspring/decimal"
)

//ValueType declares the storage kind of the values recorded for a tag
type ValueType struct {
	ValueTypeID string `gorm:"primaryKey;size:8"`
	Name        string `gorm:"size:50;not null"`
	Kind        string `gorm:"size:16;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

//DataPoint stores one timestamped reading of a tag. Exactly one of the value
//columns is populated, selected by the kind of the tag's value type.
type DataPoint struct {
	ID        uint64              `gorm:"primaryKey;autoIncrement"`
	TagID     string              `gorm:"size:25;not null;index:idx_data_points_tag_timestamp,priority:1"`
	Tag       Tag                 `gorm:"constraint:OnDelete:RESTRICT"`
	Timestamp time.Time           `gorm:"not null;index:idx_data_points_tag_timestamp,priority:2"`
	ValueText *string             `gorm:"size:100"`
	ValueInt  *int64
	ValueDec  decimal.NullDecimal `gorm:"type:numeric(8,3)"`
	ValueBool *bool
}
