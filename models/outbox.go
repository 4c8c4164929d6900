package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChangeRecord is the transactional outbox row. Mutations append it inside
// their own DB transaction; the dispatcher publishes to Pub/Sub after commit.
type ChangeRecord struct {
	ID            int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	BusinessId    string              `gorm:"size:64;not null;index" json:"business_id"`
	OccurredAt    time.Time           `gorm:"index;not null" json:"occurred_at"`
	ReferenceId   int                 `json:"reference_id"`
	ReferenceType ChangeReferenceType `gorm:"type:enum('ORD','ITM','BOM','STM')" json:"reference_type"`
	Action        ChangeAction        `gorm:"type:enum('C','U','D','S')" json:"action"`
	Payload       []byte              `gorm:"type:blob" json:"payload"`
	IsProcessed   bool                `gorm:"index;not null" json:"is_processed"`
	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|PUBLISHED|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecordChange appends an outbox row inside the caller's transaction.
// It never publishes; the dispatcher owns delivery.
func RecordChange(ctx context.Context, tx *gorm.DB, businessId string, refId int, refType ChangeReferenceType, action ChangeAction, obj interface{}) error {

	var payload []byte
	var err error
	if obj != nil {
		payload, err = json.Marshal(obj)
		if err != nil {
			return err
		}
	}

	record := ChangeRecord{
		BusinessId:    businessId,
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        action,
		Payload:       payload,
		IsProcessed:   false,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func ConvertToChangeMessage(record ChangeRecord) config.ChangeMessage {
	return config.ChangeMessage{
		ID:            record.ID,
		BusinessId:    record.BusinessId,
		OccurredAt:    record.OccurredAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}
