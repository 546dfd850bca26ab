// Package server exposes the heatmap renderer and tile cache over HTTP:
// semaphore-bounded concurrency, per-tile single-flight locks, CORS headers,
// and a request-scoped render timeout.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/routeheat/internal/cache"
	"github.com/MeKo-Tech/routeheat/internal/heatmap"
	"github.com/MeKo-Tech/routeheat/internal/tile"
)

// TilesConfig configures a Tiles handler.
type TilesConfig struct {
	MaxConcurrentRenders int
	RenderTimeout        time.Duration
	CacheControl         string
}

func (c TilesConfig) withDefaults() TilesConfig {
	if c.MaxConcurrentRenders <= 0 {
		c.MaxConcurrentRenders = 4
	}
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = 5 * time.Second
	}
	if c.CacheControl == "" {
		c.CacheControl = "public, max-age=86400"
	}
	return c
}

// Tiles serves rendered heatmap tiles, caching results and collapsing
// concurrent requests for the same tile+parameters into a single render.
type Tiles struct {
	renderer *heatmap.Renderer
	cache    *cache.Cache
	cfg      TilesConfig
	logger   *slog.Logger

	sem   chan struct{}
	locks sync.Map // cache.Key -> *sync.Mutex
}

// NewTiles constructs a Tiles handler over the given renderer and cache.
func NewTiles(renderer *heatmap.Renderer, c *cache.Cache, cfg TilesConfig, logger *slog.Logger) *Tiles {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Tiles{
		renderer: renderer,
		cache:    c,
		cfg:      cfg,
		logger:   logger,
		sem:      make(chan struct{}, cfg.MaxConcurrentRenders),
	}
}

// Handler returns the HTTP handler for GET /tiles/{z}/{x}/{y}.png.
func (t *Tiles) Handler() http.HandlerFunc {
	return t.serveTile
}

// ClearCacheHandler returns the HTTP handler for POST /tiles/cache/clear.
func (t *Tiles) ClearCacheHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		cleared := t.cache.Len()
		t.cache.Clear()
		t.log().Info("cache cleared", "cleared", cleared)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"cleared": cleared})
	}
}

func (t *Tiles) serveTile(w http.ResponseWriter, r *http.Request) {
	z, x, y, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := tile.Validate(z, x, y); err != nil {
		http.NotFound(w, r)
		return
	}

	opts, key, err := parseTileParams(z, x, y, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if data, hit := t.cache.Get(key); hit {
		t.writeTile(w, data, "hit")
		return
	}

	lock := t.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	// Re-check: another goroutine may have rendered this tile while we
	// waited for the lock.
	if data, hit := t.cache.Get(key); hit {
		t.writeTile(w, data, "hit")
		return
	}

	select {
	case t.sem <- struct{}{}:
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		http.Error(w, "request canceled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.RenderTimeout)
	defer cancel()

	data, err := t.renderer.Render(ctx, z, x, y, opts)
	if err != nil {
		t.writeRenderError(w, z, x, y, err)
		return
	}

	t.cache.Put(key, data)
	t.writeTile(w, data, "miss")
}

func (t *Tiles) writeTile(w http.ResponseWriter, data []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", t.cfg.CacheControl)
	w.Header().Set("X-Cache", cacheStatus)
	if _, err := w.Write(data); err != nil {
		t.log().Error("failed to write tile response", "error", err)
	}
}

func (t *Tiles) writeRenderError(w http.ResponseWriter, z, x, y uint32, err error) {
	var herr *heatmap.Error
	status := http.StatusInternalServerError
	if errors.As(err, &herr) {
		switch herr.Kind {
		case heatmap.KindInvalidTileAddress:
			status = http.StatusNotFound
		case heatmap.KindInvalidPaletteArgs, heatmap.KindMalformedPolyline:
			status = http.StatusBadRequest
		case heatmap.KindProviderUnavailable:
			status = http.StatusServiceUnavailable
		case heatmap.KindRenderTimeout:
			status = http.StatusGatewayTimeout
		}
	}

	t.log().Error("render failed", "z", z, "x", x, "y", y, "error", err)
	http.Error(w, err.Error(), status)
}

func (t *Tiles) lockFor(key cache.Key) *sync.Mutex {
	lock, _ := t.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (t *Tiles) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

// parseTilePath parses a path of the form /tiles/{z}/{x}/{y}.png.
func parseTilePath(requestPath string) (z, x, y uint32, ok bool) {
	const prefix = "/tiles/"
	if !strings.HasPrefix(requestPath, prefix) {
		return 0, 0, 0, false
	}

	rest := strings.TrimSuffix(strings.TrimPrefix(requestPath, prefix), ".png")
	if !strings.HasSuffix(requestPath, ".png") {
		return 0, 0, 0, false
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}

	zz, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	xx, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	yy, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, 0, 0, false
	}

	return uint32(zz), uint32(xx), uint32(yy), true
}

// parseTileParams turns a request's query string into render Options and
// the cache Key those options (plus the tile address) map to.
func parseTileParams(z, x, y uint32, q map[string][]string) (heatmap.Options, cache.Key, error) {
	get := func(name string) string {
		if v, ok := q[name]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	minColor, midColor, maxColor := get("min_color"), get("mid_color"), get("max_color")
	custom := minColor != "" && midColor != "" && maxColor != ""

	midpoint := 10
	if s := get("midpoint"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return heatmap.Options{}, cache.Key{}, fmt.Errorf("invalid midpoint: %q", s)
		}
		midpoint = v
	}

	gradientName := get("gradient")
	if !custom && gradientName == "" {
		gradientName = "orange"
	}

	splitBy := get("split_by")
	if splitBy != "" && splitBy != "activity_type" {
		return heatmap.Options{}, cache.Key{}, fmt.Errorf("invalid split_by: %q", splitBy)
	}

	opts := heatmap.Options{
		Palette: heatmap.Palette{
			Preset:   gradientName,
			Custom:   custom,
			MinColor: minColor,
			MidColor: midColor,
			MaxColor: maxColor,
			Midpoint: midpoint,
		},
		Filter: heatmap.Filter{
			ActivityType:        get("activity_type"),
			StartDate:           get("start_date"),
			EndDate:             get("end_date"),
			SplitByActivityType: splitBy == "activity_type",
		},
	}

	key := cache.Key{
		Z: z, X: x, Y: y,
		Gradient:  gradientName,
		MinColor:  minColor,
		MidColor:  midColor,
		MaxColor:  maxColor,
		Midpoint:  midpoint,
		Activity:  opts.Filter.ActivityType,
		StartDate: opts.Filter.StartDate,
		EndDate:   opts.Filter.EndDate,
		SplitBy:   splitBy,
	}

	return opts, key, nil
}
