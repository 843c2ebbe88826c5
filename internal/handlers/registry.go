// Package handlers turns stored integration credentials into ready delivery
// providers. A Registry maps (provider, channel) pairs to the credential
// fields each provider requires and the constructor that builds it.
package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/providers"
)

// Channel is a delivery channel type.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelChat  Channel = "chat"
	ChannelInApp Channel = "in_app"
)

// Key identifies a handler definition.
type Key struct {
	ProviderID string
	Channel    Channel
}

func (k Key) String() string {
	return string(k.Channel) + "/" + k.ProviderID
}

// BuildOptions carries transport settings shared by every constructor.
type BuildOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Constructor builds a provider from credentials that already passed
// validation of the definition's required fields.
type Constructor func(creds models.Credentials, opts BuildOptions) (providers.Provider, error)

// Definition is the validation rule set and constructor for one provider.
type Definition struct {
	ProviderID string
	Channel    Channel
	Required   []models.CredentialField
	Build      Constructor
}

func (d Definition) key() Key {
	return Key{ProviderID: d.ProviderID, Channel: d.Channel}
}

// Registry is safe for concurrent use. Definitions are normally registered
// once at startup.
type Registry struct {
	mu   sync.RWMutex
	defs map[Key]Definition
	opts BuildOptions
}

// NewRegistry returns an empty registry whose handlers build with opts.
func NewRegistry(opts BuildOptions) *Registry {
	return &Registry{
		defs: make(map[Key]Definition),
		opts: opts,
	}
}

// Register adds def. Registering the same (provider, channel) twice fails.
func (r *Registry) Register(def Definition) error {
	if def.ProviderID == "" || def.Channel == "" {
		return fmt.Errorf("handlers: definition needs provider id and channel")
	}
	if def.Build == nil {
		return fmt.Errorf("handlers: definition %s has no constructor", def.key())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.key()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDefinition, def.key())
	}
	r.defs[def.key()] = def
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Handler returns a fresh, unbuilt handler for the provider on channel.
func (r *Registry) Handler(providerID string, channel Channel) (*Handler, error) {
	r.mu.RLock()
	def, ok := r.defs[Key{ProviderID: providerID, Channel: channel}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownProvider, channel, providerID)
	}
	return &Handler{def: def, opts: r.opts}, nil
}

// Keys lists the registered definitions in a stable order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.defs))
	for k := range r.defs {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
