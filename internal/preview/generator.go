// Package preview orchestrates scrub-preview generation across a Plex
// library: it enumerates items, fans them out over a bounded worker pool,
// and drives each item through extraction, reindexing, and BIF encoding.
package preview

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/previewgen/internal/config"
	"github.com/mantonx/previewgen/internal/ffmpeg"
	"github.com/mantonx/previewgen/internal/plex"
)

// Library is the read-only media library query surface.
type Library interface {
	Sections(ctx context.Context) ([]plex.Section, error)
	SectionItems(ctx context.Context, section plex.Section) ([]plex.Item, error)
	ItemTree(ctx context.Context, itemKey string) ([]plex.MediaPart, error)
}

// Extractor produces frame images from a source file into a directory.
type Extractor interface {
	Extract(ctx context.Context, source, outDir string) (ffmpeg.Report, error)
}

// MetricsSink receives one record per generated preview. Implementations
// must not fail jobs; errors are theirs to log.
type MetricsSink interface {
	RecordPreview(videoFile string, hwAccel bool, seconds, speed float64) error
}

// Generator runs preview generation for an entire library.
type Generator struct {
	library   Library
	extractor Extractor
	metrics   MetricsSink
	log       hclog.Logger

	poolSize        int
	frameInterval   int
	mediaPath       string
	tmpRoot         string
	pathMappingFrom string
	pathMappingTo   string

	// filter optionally restricts processing to source paths containing
	// this substring. Set per Run.
	filter string
}

// NewGenerator wires a generator from its collaborators and configuration.
func NewGenerator(cfg *config.Config, library Library, extractor Extractor, metrics MetricsSink, log hclog.Logger) *Generator {
	return &Generator{
		library:         library,
		extractor:       extractor,
		metrics:         metrics,
		log:             log.Named("generator"),
		poolSize:        cfg.PoolSize(),
		frameInterval:   cfg.Previews.FrameInterval,
		mediaPath:       cfg.Previews.MediaPath,
		tmpRoot:         cfg.Previews.TmpDir,
		pathMappingFrom: cfg.Previews.PathMappingFrom,
		pathMappingTo:   cfg.Previews.PathMappingTo,
	}
}

// Run generates previews for every supported section. Individual item
// failures are collected, logged, and never abort the run; the returned
// error covers only the enumeration surface.
func (g *Generator) Run(ctx context.Context, filter string) error {
	g.filter = filter

	sections, err := g.library.Sections(ctx)
	if err != nil {
		return err
	}

	for _, section := range sections {
		if !section.Supported() {
			g.log.Info("skipping unsupported library type", "library", section.Title, "type", section.Type)
			continue
		}

		items, err := g.library.SectionItems(ctx, section)
		if err != nil {
			g.log.Error("failed to enumerate library items", "library", section.Title, "error", err)
			continue
		}
		g.log.Info("processing library", "library", section.Title, "items", len(items))

		results := g.runPool(ctx, items)

		var done, skipped, failed int
		for _, res := range results {
			switch res.Status {
			case StatusDone:
				done++
			case StatusFailed:
				failed++
				g.log.Error("item job failed", "job_id", res.JobID, "item", res.Item.Title, "error", res.Err)
			default:
				skipped++
			}
		}
		g.log.Info("library complete", "library", section.Title, "generated", done, "skipped", skipped, "failed", failed)
	}
	return nil
}

// runPool fans items out over the fixed-size worker pool and blocks until
// every job has completed.
func (g *Generator) runPool(ctx context.Context, items []plex.Item) []Result {
	workers := g.poolSize
	if workers < 1 {
		workers = 1
	}
	if len(items) > 0 && workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan plex.Item)
	resultCh := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				resultCh <- g.runJob(ctx, item)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(items))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

func containsFilter(path, filter string) bool {
	return strings.Contains(path, filter)
}
