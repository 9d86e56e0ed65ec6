package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel audit fields embedded by every catalogue model
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// VersionedModel adds an optimistic-lock counter
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// assignID fills an empty primary key. Ids are generated in the application
// so the same models work against PostgreSQL and the SQLite test database.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
