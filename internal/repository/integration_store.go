package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

var ErrIntegrationNotFound = errors.New("integration not found")

// IntegrationStore persists provider integrations and their credentials.
type IntegrationStore struct {
	db        *gorm.DB
	tableName string
}

// NewIntegrationStore migrates the integrations table and returns the store.
func NewIntegrationStore(db *gorm.DB, tableName string) (*IntegrationStore, error) {
	if tableName == "" {
		tableName = "integrations"
	}
	if err := db.Table(tableName).AutoMigrate(&models.Integration{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", tableName, err)
	}
	return &IntegrationStore{db: db, tableName: tableName}, nil
}

// Save inserts or fully replaces an integration.
func (s *IntegrationStore) Save(ctx context.Context, in *models.Integration) error {
	if strings.TrimSpace(in.ID) == "" {
		return errors.New("integration id required")
	}
	return s.db.WithContext(ctx).Table(s.tableName).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"environment_id", "provider_id", "channel", "credentials", "active", "updated_at"}),
		}).Create(in).Error
}

// Get loads one integration by id.
func (s *IntegrationStore) Get(ctx context.Context, id string) (*models.Integration, error) {
	var in models.Integration
	err := s.db.WithContext(ctx).Table(s.tableName).Where("id = ?", id).First(&in).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrIntegrationNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// ListByEnvironment returns the integrations of an environment, optionally
// filtered by channel, ordered by id.
func (s *IntegrationStore) ListByEnvironment(ctx context.Context, environmentID, channel string) ([]models.Integration, error) {
	q := s.db.WithContext(ctx).Table(s.tableName).Where("environment_id = ?", environmentID)
	if channel != "" {
		q = q.Where("channel = ?", channel)
	}
	var out []models.Integration
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
