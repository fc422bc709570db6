package syncqueue

import (
	"offer-calculator/internal/models"

	"gorm.io/gorm"
)

// Queue records CRM offer pushes that exhausted their inline retries so
// the background worker can re-attempt them. Requires the MySQL backend.
type Queue struct {
	db            *gorm.DB
	customFieldID string
}

// NewQueue creates the queue writing against the offer custom field.
func NewQueue(db *gorm.DB, customFieldID string) *Queue {
	return &Queue{db: db, customFieldID: customFieldID}
}

// Enqueue records one failed push. Repeated failures for the same
// opportunity collapse onto the existing pending entry so only the
// latest amount is retried.
func (q *Queue) Enqueue(opportunityID string, amount float64) error {
	var existing models.SyncRetry
	result := q.db.Where("opportunity_id = ? AND status IN ?", opportunityID,
		[]string{models.SyncStatusPending, models.SyncStatusFailed}).
		First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		entry := models.SyncRetry{
			OpportunityID: opportunityID,
			CustomFieldID: q.customFieldID,
			FieldValue:    amount,
			Status:        models.SyncStatusPending,
		}
		return q.db.Create(&entry).Error
	} else if result.Error != nil {
		return result.Error
	}

	return q.db.Model(&models.SyncRetry{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"field_value":   amount,
			"status":        models.SyncStatusPending,
			"next_retry_at": nil,
		}).Error
}

// Stats returns queue counts by status for the admin endpoint.
func (q *Queue) Stats() map[string]interface{} {
	var stats struct {
		Pending    int64
		Processing int64
		Done       int64
		Failed     int64
	}

	q.db.Model(&models.SyncRetry{}).Where("status = ?", models.SyncStatusPending).Count(&stats.Pending)
	q.db.Model(&models.SyncRetry{}).Where("status = ?", models.SyncStatusProcessing).Count(&stats.Processing)
	q.db.Model(&models.SyncRetry{}).Where("status = ?", models.SyncStatusDone).Count(&stats.Done)
	q.db.Model(&models.SyncRetry{}).Where("status = ?", models.SyncStatusFailed).Count(&stats.Failed)

	return map[string]interface{}{
		"pending":    stats.Pending,
		"processing": stats.Processing,
		"done":       stats.Done,
		"failed":     stats.Failed,
	}
}
