package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lepinkainen/naoka/internal/errors"
)

// Registry is the read-only set of connectors a run can use, indexed by
// lowercased code and kept in registration order.
type Registry struct {
	ordered []Connector
	byCode  map[string]Connector
}

// NewRegistry validates connectors and builds a registry. Codes must be
// non-empty and unique ignoring case.
func NewRegistry(connectors ...Connector) (*Registry, error) {
	byCode := make(map[string]Connector, len(connectors))
	ordered := make([]Connector, 0, len(connectors))
	for _, c := range connectors {
		if c == nil {
			return nil, fmt.Errorf("provider must not be nil")
		}
		code := normalizeCode(c.Code())
		if code == "" {
			return nil, fmt.Errorf("provider code must not be empty")
		}
		if _, ok := byCode[code]; ok {
			return nil, fmt.Errorf("duplicate provider %q", code)
		}
		if len(c.MediaTypes()) == 0 {
			return nil, fmt.Errorf("provider %q declares no media types", c.Code())
		}
		byCode[code] = c
		ordered = append(ordered, c)
	}
	return &Registry{ordered: ordered, byCode: byCode}, nil
}

// Get looks up a connector by case-insensitive code.
func (r *Registry) Get(code string) (Connector, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.byCode[normalizeCode(code)]
	return c, ok
}

// Resolve is Get that reports an unknown code as a ConfigurationError.
func (r *Registry) Resolve(code string) (Connector, error) {
	if c, ok := r.Get(code); ok {
		return c, nil
	}
	return nil, errors.NewConfigurationError("provider",
		fmt.Sprintf("unknown provider %q (available: %s)", code, strings.Join(r.Codes(), ", ")))
}

// All returns the connectors in registration order.
func (r *Registry) All() []Connector {
	if r == nil {
		return nil
	}
	return append([]Connector(nil), r.ordered...)
}

// Codes returns the lowercased codes, sorted.
func (r *Registry) Codes() []string {
	if r == nil {
		return nil
	}
	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
