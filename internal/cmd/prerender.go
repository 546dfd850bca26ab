package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/routeheat/internal/activitydb"
	"github.com/MeKo-Tech/routeheat/internal/heatmap"
	"github.com/MeKo-Tech/routeheat/internal/tile"
	"github.com/MeKo-Tech/routeheat/internal/worker"
)

var prerenderCmd = &cobra.Command{
	Use:   "prerender",
	Short: "Render every tile in a bounding box/zoom range to warm the cache",
	RunE:  runPrerender,
}

func init() {
	rootCmd.AddCommand(prerenderCmd)

	prerenderCmd.Flags().String("bbox", "", "minLon,minLat,maxLon,maxLat")
	prerenderCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	prerenderCmd.Flags().Int("zoom-max", 0, "Maximum zoom level")
	prerenderCmd.Flags().Int("workers", runtime.NumCPU(), "Max concurrent tile renders")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, prerenderCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("prerender.bbox", "bbox")
	mustBind("prerender.zoom_min", "zoom-min")
	mustBind("prerender.zoom_max", "zoom-max")
	mustBind("prerender.workers", "workers")
}

// renderingGenerator adapts heatmap.Renderer to worker.Generator, discarding
// the rendered bytes: prerendering's purpose is only to populate the
// activity provider's warm state (e.g. OS page cache over the sqlite file),
// since routeheat's tile cache lives in the serving process, not on disk.
type renderingGenerator struct {
	renderer *heatmap.Renderer
}

func (g renderingGenerator) RenderTile(ctx context.Context, z, x, y uint32) ([]byte, error) {
	return g.renderer.Render(ctx, z, x, y, heatmap.Options{Palette: heatmap.Palette{Preset: "orange"}})
}

func runPrerender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	bboxStr := viper.GetString("prerender.bbox")
	zoomMin := viper.GetInt("prerender.zoom_min")
	zoomMax := viper.GetInt("prerender.zoom_max")
	workers := viper.GetInt("prerender.workers")
	dbPath := viper.GetString("activities-db")

	bbox, err := parseBBox(bboxStr)
	if err != nil {
		return err
	}

	store, err := activitydb.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open activities database: %w", err)
	}
	defer store.Close()

	renderer := heatmap.NewRenderer(store, logger)
	gen := renderingGenerator{renderer: renderer}

	coords := tile.TilesInBBox(bbox, zoomMin, zoomMax)
	tasks := make([]worker.Task, len(coords))
	for i, c := range coords {
		tasks[i] = worker.Task{Coords: c}
	}

	progress := worker.NewProgress(len(tasks), true, logger)

	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	logger.Info("starting prerender", "tiles", len(tasks), "zoom_min", zoomMin, "zoom_max", zoomMax, "workers", workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt, cancelling prerender")
		cancel()
	}()

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("tile render failed", "coords", r.Task.Coords.String(), "error", r.Err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d/%d tiles failed to render", failed, len(tasks))
	}
	return nil
}

func parseBBox(s string) ([4]float64, error) {
	var bbox [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return bbox, fmt.Errorf("invalid --bbox %q: expected minLon,minLat,maxLon,maxLat", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return bbox, fmt.Errorf("invalid --bbox %q: %w", s, err)
		}
		bbox[i] = v
	}
	return bbox, nil
}
