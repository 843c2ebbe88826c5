package models

import "strings"

// PushToken represents a subscriber device that can receive push notifications.
type PushToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
	Provider string `json:"provider,omitempty"`
}

// Platform categories returned by PlatformCategory.
const (
	PlatformMobile  = "mobile"
	PlatformWeb     = "web"
	PlatformUnknown = "unknown"
)

// PlatformCategory normalizes a platform string to one of the supported categories.
func PlatformCategory(platform string) string {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "android", "ios":
		return PlatformMobile
	case "web":
		return PlatformWeb
	default:
		return PlatformUnknown
	}
}
