// Package activity defines the read-only query port the tile renderer uses
// to fetch GPS tracks. Ingesting activities from an external source (e.g. a
// Strava sync) is out of scope; this package only describes and serves the
// query side.
package activity

import (
	"context"
	"time"

	"github.com/MeKo-Tech/routeheat/internal/types"
)

// Activity is a single recorded GPS track.
type Activity struct {
	ID             string
	Type           string // e.g. "run", "ride"
	EncodedSummary string // Google-encoded polyline
	StartDate      time.Time
	Bounds         types.BoundingBox
}

// Filter narrows a Provider query to activities relevant to one tile render.
type Filter struct {
	Bounds    types.BoundingBox
	Type      string // empty matches all types
	StartDate time.Time
	EndDate   time.Time // zero value means unbounded
}

// Matches reports whether a does not need to be filtered out for not
// intersecting f's bounds, type, or date range. Providers may apply this
// themselves or rely on the caller having already done so.
func (f Filter) Matches(a Activity) bool {
	if !f.Bounds.Intersects(a.Bounds) {
		return false
	}
	if f.Type != "" && f.Type != a.Type {
		return false
	}
	if !f.StartDate.IsZero() && a.StartDate.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && a.StartDate.After(f.EndDate) {
		return false
	}
	return true
}

// Provider is the read-only port the renderer (C6) uses to fetch activities
// relevant to a tile. Implementations are free to push Filter down to a
// query (as internal/activitydb does) or apply it in memory.
type Provider interface {
	Activities(ctx context.Context, f Filter) ([]Activity, error)
}

// MemoryProvider is an in-memory Provider backed by a fixed slice, used in
// tests and by the prerender command's fixture mode.
type MemoryProvider struct {
	All []Activity
}

// Activities implements Provider by filtering All in memory.
func (p *MemoryProvider) Activities(_ context.Context, f Filter) ([]Activity, error) {
	var out []Activity
	for _, a := range p.All {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
