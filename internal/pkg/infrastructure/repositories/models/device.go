package models

import (
	"time"
)

//Device is the database model to store devices in our database
type Device struct {
	DeviceID    string `gorm:"primaryKey;size:25"`
	Name        string `gorm:"size:50;not null"`
	Description string `gorm:"size:255"`
	Type        string `gorm:"size:50"`
	Owner       string `gorm:"size:150;not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tags        []Tag `gorm:"foreignKey:DeviceID;constraint:OnDelete:RESTRICT"`
}

//Tag is a typed sensor channel belonging to a Device. The owner of a tag is
//always the owner of its device and is never stored on the tag itself.
type Tag struct {
	TagID       string    `gorm:"primaryKey;size:25"`
	DeviceID    string    `gorm:"size:25;not null;index"`
	Device      Device    `gorm:"constraint:OnDelete:RESTRICT"`
	ValueTypeID string    `gorm:"size:8;not null;index"`
	ValueType   ValueType `gorm:"constraint:OnDelete:RESTRICT"`
	Name        string    `gorm:"size:50;not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
