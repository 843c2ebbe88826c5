package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironmentDerived(t *testing.T) {
	assert.False(t, Environment{ID: "e1", Name: "dev"}.Derived())
	assert.True(t, Environment{ID: "e2", Name: "prod", ParentID: "e1"}.Derived())
}

func TestCredentialsValue(t *testing.T) {
	c := Credentials{WebhookURL: " https://hooks.example.com ", SecretKey: "s3cret", APIKey: "   "}
	assert.Equal(t, "https://hooks.example.com", c.Value(FieldWebhookURL))
	assert.Equal(t, "s3cret", c.Value(FieldSecretKey))
	assert.Empty(t, c.Value(FieldAPIKey))
	assert.Empty(t, c.Value(CredentialField("region")))

	assert.Equal(t, " https://hooks.example.com ", c.Raw(FieldWebhookURL))
	assert.Equal(t, "   ", c.Raw(FieldAPIKey))
	assert.Empty(t, c.Raw(CredentialField("region")))
}

func TestPlatformCategory(t *testing.T) {
	assert.Equal(t, PlatformMobile, PlatformCategory("Android"))
	assert.Equal(t, PlatformMobile, PlatformCategory("ios"))
	assert.Equal(t, PlatformWeb, PlatformCategory("web"))
	assert.Equal(t, PlatformUnknown, PlatformCategory("tv"))
}
