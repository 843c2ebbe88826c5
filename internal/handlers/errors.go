package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

var (
	// ErrInvalidConfig matches every *ConfigurationError.
	ErrInvalidConfig       = errors.New("invalid provider configuration")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrDuplicateDefinition = errors.New("provider already registered")
	ErrAlreadyBuilt        = errors.New("handler already built")
)

// ConfigurationError reports the credential fields a provider requires but
// the stored integration does not supply.
type ConfigurationError struct {
	ProviderID string
	Channel    Channel
	Missing    []models.CredentialField
}

func (e *ConfigurationError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		names = append(names, string(f))
	}
	return fmt.Sprintf("config is not valid for %s provider: missing %s", e.ProviderID, strings.Join(names, ", "))
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}
