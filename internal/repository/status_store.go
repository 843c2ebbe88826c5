package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationStatus mirrors the schema used by the API gateway.
type NotificationStatus struct {
	RequestID     string `gorm:"primaryKey"`
	IntegrationID string
	Status        string
	UpdatedAt     time.Time
	Provider      string
	Detail        string
}

type StatusStore struct {
	db        *gorm.DB
	tableName string
}

func NewStatusStore(db *gorm.DB, tableName string) (*StatusStore, error) {
	if tableName == "" {
		tableName = "notification_statuses"
	}
	if err := db.Table(tableName).AutoMigrate(&NotificationStatus{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", tableName, err)
	}
	return &StatusStore{
		db:        db,
		tableName: tableName,
	}, nil
}

func (s *StatusStore) UpdateStatus(ctx context.Context, requestID, integrationID, status, provider, detail string) error {
	ns := NotificationStatus{
		RequestID:     requestID,
		IntegrationID: integrationID,
		Status:        status,
		UpdatedAt:     time.Now().UTC(),
		Provider:      provider,
		Detail:        detail,
	}
	return s.db.WithContext(ctx).Table(s.tableName).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"integration_id", "status", "updated_at", "provider", "detail"}),
		}).Create(&ns).Error
}

// Get returns the stored status of a request.
func (s *StatusStore) Get(ctx context.Context, requestID string) (*NotificationStatus, error) {
	var ns NotificationStatus
	if err := s.db.WithContext(ctx).Table(s.tableName).Where("request_id = ?", requestID).First(&ns).Error; err != nil {
		return nil, err
	}
	return &ns, nil
}
