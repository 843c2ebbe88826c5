package handlers

import (
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/providers"
)

// PushWebhook requires a destination URL and an HMAC signing key.
var PushWebhook = Definition{
	ProviderID: providers.PushWebhookID,
	Channel:    ChannelPush,
	Required:   []models.CredentialField{models.FieldWebhookURL, models.FieldSecretKey},
	Build: func(creds models.Credentials, opts BuildOptions) (providers.Provider, error) {
		return providers.NewPushWebhookProvider(providers.PushWebhookConfig{
			WebhookURL:    creds.Raw(models.FieldWebhookURL),
			HMACSecretKey: creds.Raw(models.FieldSecretKey),
		}, opts.HTTPClient, opts.Timeout), nil
	},
}

// FCM requires the server key; baseUrl optionally overrides the endpoint.
var FCM = Definition{
	ProviderID: providers.FCMID,
	Channel:    ChannelPush,
	Required:   []models.CredentialField{models.FieldAPIKey},
	Build: func(creds models.Credentials, opts BuildOptions) (providers.Provider, error) {
		return providers.NewFCMProvider(providers.FCMConfig{
			ServerKey: creds.Raw(models.FieldAPIKey),
			Endpoint:  creds.Value(models.FieldBaseURL),
		}, opts.HTTPClient, opts.Timeout), nil
	},
}

// Default returns a registry holding every built-in push definition.
func Default(opts BuildOptions) *Registry {
	r := NewRegistry(opts)
	r.MustRegister(PushWebhook)
	r.MustRegister(FCM)
	return r
}
