// Package audit is the side-effecting audit sink. Writes are best-effort:
// a failure is logged and swallowed, never propagated into the operation
// being audited.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"school-fees-backend/internal/models"
)

// Recorder is the sink consumed by the services.
type Recorder interface {
	Record(ctx context.Context, tenant uuid.UUID, actor, action, entityType, entityID string, details map[string]interface{})
}

type dbRecorder struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRecorder(db *gorm.DB, log zerolog.Logger) Recorder {
	return &dbRecorder{db: db, log: log}
}

func (r *dbRecorder) Record(ctx context.Context, tenant uuid.UUID, actor, action, entityType, entityID string, details map[string]interface{}) {
	var detailsJSON []byte
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}
	entry := &models.AuditLog{
		ID:         uuid.New(),
		TenantID:   tenant,
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detailsJSON,
		CreatedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Msg("audit write failed")
	}
}
