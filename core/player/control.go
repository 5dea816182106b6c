package player

import (
	"context"
	"errors"
	"fmt"

	"RaspCD/model"
)

// Property names understood by every control channel.
type Property string

const (
	PropPause       Property = "pause"
	PropChapter     Property = "chapter"
	PropPlaylistPos Property = "playlist-pos"
	PropTimePos     Property = "time-pos" // seconds from the start of the disc
	PropVolume      Property = "volume"
)

var (
	// ErrNotRunning is returned when the player process cannot be reached.
	ErrNotRunning = errors.New("player: not running")
	// ErrUnavailable is returned when the player has no value for a property.
	ErrUnavailable = errors.New("player: property unavailable")
)

// Control is the get/set channel to an external media player.
type Control interface {
	// Start begins playback of disc from its first track.
	Start(ctx context.Context, disc model.Disc, volume int) error
	Get(ctx context.Context, prop Property) (any, error)
	Set(ctx context.Context, prop Property, value any) error
	// Step moves delta tracks forward or back.
	Step(ctx context.Context, delta int) error
	// Alive reports whether playback is still in progress.
	Alive(ctx context.Context) bool
	Stop(ctx context.Context) error
}

// AsFloat converts a property value to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// AsInt converts a property value to int, truncating.
func AsInt(v any) (int, bool) {
	f, ok := AsFloat(v)
	return int(f), ok
}

// AsBool converts a property value to bool.
func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func unavailable(prop Property) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, prop)
}
