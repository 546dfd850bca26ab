package cmd

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/routeheat/internal/activitydb"
	"github.com/MeKo-Tech/routeheat/internal/cache"
	"github.com/MeKo-Tech/routeheat/internal/heatmap"
	"github.com/MeKo-Tech/routeheat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered heatmap tiles over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("tiles-cache-mb", 100, "In-memory tile cache byte budget, in megabytes")
	serveCmd.Flags().Duration("render-timeout", 5*time.Second, "Timeout per tile render")
	serveCmd.Flags().Int("workers", runtime.NumCPU(), "Max concurrent tile renders")
	serveCmd.Flags().String("cache-control", "public, max-age=86400", "Cache-Control header for served tiles")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.cache_mb", "tiles-cache-mb")
	mustBind("serve.render_timeout", "render-timeout")
	mustBind("serve.workers", "workers")
	mustBind("serve.cache_control", "cache-control")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	cacheMB := viper.GetInt("serve.cache_mb")
	renderTimeout := viper.GetDuration("serve.render_timeout")
	workers := viper.GetInt("serve.workers")
	cacheControl := viper.GetString("serve.cache_control")
	dbPath := viper.GetString("activities-db")

	store, err := activitydb.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open activities database: %w", err)
	}

	renderer := heatmap.NewRenderer(store, logger)
	tileCache := cache.New(int64(cacheMB) << 20)

	tiles := server.NewTiles(renderer, tileCache, server.TilesConfig{
		MaxConcurrentRenders: workers,
		RenderTimeout:        renderTimeout,
		CacheControl:         cacheControl,
	}, logger)

	mux := http.NewServeMux()
	mux.Handle("/healthz", server.HealthHandler())
	mux.Handle("/tiles/cache/clear", server.WithCORS(tiles.ClearCacheHandler()))
	mux.Handle("/tiles/", server.WithCORS(tiles.Handler()))

	logger.Info("tile server listening",
		"addr", addr,
		"activities_db", dbPath,
		"tiles_cache_mb", cacheMB,
		"render_timeout", renderTimeout,
		"workers", workers,
	)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		store.Close()
		return err
	}
	return store.Close()
}
