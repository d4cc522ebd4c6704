package source

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Institution is the static configuration of one upstream institution.
type Institution struct {
	// Code is the unique institution code (e.g. "ualberta").
	Code string `mapstructure:"code" json:"code"`
	// Name is the display name.
	Name string `mapstructure:"name" json:"name"`
	// Adapter selects the adapter implementation (e.g. "ualberta", "jsonfeed").
	Adapter string `mapstructure:"adapter" json:"adapter"`
	// BaseURL is the root every relative endpoint is resolved against.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// Endpoints maps endpoint names to URL templates.
	Endpoints map[string]string `mapstructure:"endpoints" json:"endpoints,omitempty"`
	// RequestInterval is the minimum delay between two upstream requests.
	RequestInterval time.Duration `mapstructure:"request_interval" json:"request_interval"`
	// FetchTimeout bounds one fetch attempt for this institution. Zero uses the
	// orchestrator default. Crawling adapters whose full fetch spans many paced
	// requests need more than the default.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" json:"fetch_timeout,omitempty"`
	// Burst is the number of requests allowed back to back.
	Burst int `mapstructure:"burst" json:"burst,omitempty"`
	// Options carries adapter specific settings.
	Options map[string]string `mapstructure:"options" json:"options,omitempty"`

	Country string `mapstructure:"country" json:"country,omitempty"`
	Region  string `mapstructure:"region" json:"region,omitempty"`
	Website string `mapstructure:"website" json:"website,omitempty"`
}

// NormalizeInstitutionCode lower-cases and trims a code.
func NormalizeInstitutionCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Validate checks the static configuration.
func (i Institution) Validate() error {
	if NormalizeInstitutionCode(i.Code) == "" {
		return fmt.Errorf("institution code is required")
	}
	if i.Name == "" {
		return fmt.Errorf("institution %s: name is required", i.Code)
	}
	if i.RequestInterval < 0 {
		return fmt.Errorf("institution %s: request_interval must not be negative", i.Code)
	}
	if i.FetchTimeout < 0 {
		return fmt.Errorf("institution %s: fetch_timeout must not be negative", i.Code)
	}
	return nil
}

// Endpoint returns the named endpoint template, or fallback if unset.
func (i Institution) Endpoint(name, fallback string) string {
	if v, ok := i.Endpoints[name]; ok && v != "" {
		return v
	}
	return fallback
}

// Option returns the named adapter option, or fallback if unset.
func (i Institution) Option(name, fallback string) string {
	if v, ok := i.Options[name]; ok && v != "" {
		return v
	}
	return fallback
}

type entry struct {
	institution Institution
	adapter     Adapter
}

// RegistryBuilder collects registrations before the registry is frozen.
type RegistryBuilder struct {
	entries map[string]entry
}

// NewRegistryBuilder creates an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{entries: make(map[string]entry)}
}

// Register adds an institution and its adapter. Codes must be unique.
func (b *RegistryBuilder) Register(inst Institution, adapter Adapter) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if adapter == nil {
		return fmt.Errorf("institution %s: adapter is required", inst.Code)
	}
	code := NormalizeInstitutionCode(inst.Code)
	if _, exists := b.entries[code]; exists {
		return fmt.Errorf("institution %s is already registered", code)
	}
	inst.Code = code
	b.entries[code] = entry{institution: inst, adapter: adapter}
	return nil
}

// Build freezes the registrations. The builder must not be used afterwards.
func (b *RegistryBuilder) Build() *Registry {
	codes := make([]string, 0, len(b.entries))
	for code := range b.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	r := &Registry{entries: b.entries, codes: codes}
	b.entries = nil
	return r
}

// Registry maps institution codes to adapters. It is immutable once built
// and safe for concurrent use without locking.
type Registry struct {
	entries map[string]entry
	codes   []string
}

// Lookup returns the adapter registered for code.
func (r *Registry) Lookup(code string) (Adapter, error) {
	e, ok := r.entries[NormalizeInstitutionCode(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstitution, code)
	}
	return e.adapter, nil
}

// Institution returns the configuration registered for code.
func (r *Registry) Institution(code string) (Institution, error) {
	e, ok := r.entries[NormalizeInstitutionCode(code)]
	if !ok {
		return Institution{}, fmt.Errorf("%w: %s", ErrUnknownInstitution, code)
	}
	return e.institution, nil
}

// Codes returns every registered code in sorted order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// Institutions returns every registered institution in code order.
func (r *Registry) Institutions() []Institution {
	out := make([]Institution, 0, len(r.codes))
	for _, code := range r.codes {
		out = append(out, r.entries[code].institution)
	}
	return out
}
