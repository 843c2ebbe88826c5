package models

import "time"

// MessageEnvelope is a push job produced by the API gateway. IntegrationID
// selects the stored provider integration used for delivery.
type MessageEnvelope struct {
	RequestID         string                 `json:"request_id"`
	CorrelationID     string                 `json:"correlation_id"`
	CreatedAt         time.Time              `json:"created_at"`
	Channel           string                 `json:"channel"`
	IntegrationID     string                 `json:"integration_id"`
	User              User                   `json:"user"`
	Template          Template               `json:"template"`
	Variables         map[string]interface{} `json:"variables"`
	ProviderOverrides map[string]interface{} `json:"provider_overrides,omitempty"`
	RetryCount        int                    `json:"retry_count"`
}

type User struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Locale     string      `json:"locale"`
	PushTokens []PushToken `json:"push_tokens"`
}

// Template carries the title and body templates rendered against Variables.
type Template struct {
	Slug    string `json:"slug"`
	Locale  string `json:"locale"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}
