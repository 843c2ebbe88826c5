package handlers

import (
	"fmt"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/providers"
)

// State is the lifecycle stage of a Handler.
type State int

const (
	StateUnbuilt State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handler builds one provider from one set of credentials. It moves from
// Unbuilt to either Ready or Failed exactly once; retrying needs a new
// handler from the Registry. A Handler is used by a single delivery attempt
// and is not safe for concurrent use.
type Handler struct {
	def      Definition
	opts     BuildOptions
	state    State
	provider providers.Provider
	err      error
}

func (h *Handler) ProviderID() string { return h.def.ProviderID }
func (h *Handler) Channel() Channel   { return h.def.Channel }
func (h *Handler) State() State       { return h.state }

// Err returns the error that moved the handler to Failed.
func (h *Handler) Err() error { return h.err }

// BuildProvider validates creds against the definition and constructs the
// provider. Missing or blank required fields yield a *ConfigurationError and
// the constructor is never called.
func (h *Handler) BuildProvider(creds models.Credentials) error {
	if h.state != StateUnbuilt {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyBuilt, h.def.key(), h.state)
	}

	if missing := missingFields(h.def.Required, creds); len(missing) > 0 {
		return h.fail(&ConfigurationError{
			ProviderID: h.def.ProviderID,
			Channel:    h.def.Channel,
			Missing:    missing,
		})
	}

	provider, err := h.def.Build(creds, h.opts)
	if err != nil {
		return h.fail(fmt.Errorf("build %s provider: %w", h.def.ProviderID, err))
	}
	if provider == nil {
		return h.fail(fmt.Errorf("build %s provider: constructor returned no provider", h.def.ProviderID))
	}

	h.provider = provider
	h.state = StateReady
	return nil
}

// Provider returns the built provider. ok is false unless the handler is Ready.
func (h *Handler) Provider() (providers.Provider, bool) {
	if h.state != StateReady {
		return nil, false
	}
	return h.provider, true
}

func (h *Handler) fail(err error) error {
	h.state = StateFailed
	h.err = err
	h.provider = nil
	return err
}

func missingFields(required []models.CredentialField, creds models.Credentials) []models.CredentialField {
	var missing []models.CredentialField
	for _, f := range required {
		if creds.Value(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
