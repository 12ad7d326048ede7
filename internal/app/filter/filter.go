// Package filter provides the track filter chain applied to catalog results.
package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/pomotune/internal/domain/track"
)

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "not_playable", "genre_excluded", "duplicate_track"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter decides whether a catalog track is kept in the playlist.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// Check checks t against the tracks kept so far.
	Check(ctx context.Context, t track.Track, kept []track.Track) Result
}

// registry holds registered filter factories in registration order.
var (
	registry   = make(map[string]func() Filter)
	registered []string
)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	if _, ok := registry[name]; !ok {
		registered = append(registered, name)
	}
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}

// RegisteredNames returns the registered filter names in registration order.
func RegisteredNames() []string {
	names := make([]string, len(registered))
	copy(names, registered)
	return names
}

// decodeSettings decodes settings into cfg, applies defaults and validates it.
func decodeSettings(settings map[string]any, cfg any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(cfg); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
