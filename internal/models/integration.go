package models

import "time"

// Integration is the stored record binding one provider and its credentials
// to an environment and channel.
type Integration struct {
	ID            string      `json:"_id" gorm:"primaryKey"`
	EnvironmentID string      `json:"_environmentId" gorm:"index"`
	ProviderID    string      `json:"providerId"`
	Channel       string      `json:"channel" gorm:"index"`
	Credentials   Credentials `json:"credentials" gorm:"serializer:json"`
	Active        bool        `json:"active"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
