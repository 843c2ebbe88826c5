package models

import "strings"

// CredentialField names one attribute of a stored provider credential record.
type CredentialField string

const (
	FieldAPIKey         CredentialField = "apiKey"
	FieldSecretKey      CredentialField = "secretKey"
	FieldWebhookURL     CredentialField = "webhookUrl"
	FieldBaseURL        CredentialField = "baseUrl"
	FieldApplicationID  CredentialField = "applicationId"
	FieldServiceAccount CredentialField = "serviceAccount"
	FieldUser           CredentialField = "user"
	FieldPassword       CredentialField = "password"
	FieldFrom           CredentialField = "from"
)

// Credentials is the configuration bag of a single provider integration.
// Which fields matter depends on the provider.
type Credentials struct {
	APIKey         string `json:"apiKey,omitempty"`
	SecretKey      string `json:"secretKey,omitempty"`
	WebhookURL     string `json:"webhookUrl,omitempty"`
	BaseURL        string `json:"baseUrl,omitempty"`
	ApplicationID  string `json:"applicationId,omitempty"`
	ServiceAccount string `json:"serviceAccount,omitempty"`
	User           string `json:"user,omitempty"`
	Password       string `json:"password,omitempty"`
	From           string `json:"from,omitempty"`
}

// Value returns the trimmed value stored under field, or "" when the field is
// unknown or unset. Use it for presence checks; adapters get Raw.
func (c Credentials) Value(field CredentialField) string {
	return strings.TrimSpace(c.Raw(field))
}

// Raw returns the value stored under field exactly as saved.
func (c Credentials) Raw(field CredentialField) string {
	var v string
	switch field {
	case FieldAPIKey:
		v = c.APIKey
	case FieldSecretKey:
		v = c.SecretKey
	case FieldWebhookURL:
		v = c.WebhookURL
	case FieldBaseURL:
		v = c.BaseURL
	case FieldApplicationID:
		v = c.ApplicationID
	case FieldServiceAccount:
		v = c.ServiceAccount
	case FieldUser:
		v = c.User
	case FieldPassword:
		v = c.Password
	case FieldFrom:
		v = c.From
	}
	return v
}
