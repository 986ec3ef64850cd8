package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog records who did what to which entity. Entries are append-only and
// written best-effort; a failed audit write never rolls back the operation
// it describes.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Actor      string         `gorm:"index"`
	Action     string         `gorm:"index"`
	EntityType string         `gorm:"index"`
	EntityID   string         `gorm:"index"`
	Details    datatypes.JSON
	CreatedAt  time.Time
}
