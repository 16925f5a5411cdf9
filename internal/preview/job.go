package preview

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/previewgen/internal/bif"
	"github.com/mantonx/previewgen/internal/ffmpeg"
	"github.com/mantonx/previewgen/internal/plex"
)

// Status is the terminal state of one item job.
type Status int

const (
	// StatusSkipped means nothing needed doing: artifact already present,
	// source missing, or every part filtered out.
	StatusSkipped Status = iota
	// StatusDone means at least one artifact was generated.
	StatusDone
	// StatusFailed means extraction or encoding failed for some part.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Result captures one item job's outcome at the pool boundary. Errors are
// carried here rather than propagated across goroutines.
type Result struct {
	JobID  string
	Item   plex.Item
	Status Status
	Err    error
}

// runJob executes the full per-item state machine. A panic anywhere inside
// is converted into a failed Result so it cannot take down sibling workers.
func (g *Generator) runJob(ctx context.Context, item plex.Item) (res Result) {
	res = Result{JobID: uuid.NewString(), Item: item}
	log := g.log.With("job_id", res.JobID, "item", item.Title)

	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	parts, err := g.library.ItemTree(ctx, item.Key)
	if err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("failed to fetch metadata tree: %w", err)
		return res
	}

	anyDone := false
	for _, part := range parts {
		if part.Hash == "" {
			continue
		}
		if g.filter != "" && !containsFilter(part.File, g.filter) {
			continue
		}

		status, err := g.processPart(ctx, log, part)
		switch {
		case err != nil:
			res.Status = StatusFailed
			if res.Err == nil {
				res.Err = err
			}
		case status == StatusDone:
			anyDone = true
		}
	}

	if res.Status != StatusFailed && anyDone {
		res.Status = StatusDone
	}
	return res
}

// processPart drives one media part through LocatingTarget, Extracting,
// Indexing, and Encoding, with the temp directory released on every path.
func (g *Generator) processPart(ctx context.Context, log hclog.Logger, part plex.MediaPart) (Status, error) {
	source := NormalizePath(RemapPath(part.File, g.pathMappingFrom, g.pathMappingTo))

	if _, err := os.Stat(source); err != nil {
		log.Error("skipping, source file not found", "file", source)
		return StatusSkipped, nil
	}

	paths, err := newBundlePaths(g.mediaPath, g.tmpRoot, part.Hash)
	if err != nil {
		log.Error("failed to derive bundle path", "file", source, "error", err)
		return StatusFailed, err
	}

	// The artifact's existence is the at-most-once gate per asset.
	if _, err := os.Stat(paths.artifact); err == nil {
		return StatusSkipped, nil
	}

	log.Debug("generating preview", "file", source, "artifact", paths.artifact)

	if err := os.MkdirAll(paths.indexesDir, 0755); err != nil {
		return StatusFailed, fmt.Errorf("failed to create indexes directory: %w", err)
	}
	if err := os.MkdirAll(paths.tmpDir, 0755); err != nil {
		return StatusFailed, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(paths.tmpDir)

	report, err := g.extractor.Extract(ctx, source, paths.tmpDir)
	if err != nil {
		var extErr *ffmpeg.ExtractionError
		if errors.As(err, &extErr) {
			log.Error("frame extraction failed", "file", source, "error", extErr.Err, "output_tail", extErr.Tail)
		} else {
			log.Error("frame extraction failed", "file", source, "error", err)
		}
		return StatusFailed, err
	}

	if err := Reindex(paths.tmpDir, g.frameInterval); err != nil {
		log.Error("frame reindexing failed", "file", source, "error", err)
		return StatusFailed, err
	}

	if err := bif.EncodeDir(paths.artifact, paths.tmpDir, uint32(g.frameInterval*1000)); err != nil {
		// Never leave a readable but corrupt artifact behind: the
		// idempotency check would treat it as already generated.
		os.Remove(paths.artifact)
		log.Error("preview encoding failed", "file", source, "error", err)
		return StatusFailed, err
	}

	log.Info("generated video preview",
		"file", source,
		"hw_accel", report.HWAccel,
		"time_seconds", fmt.Sprintf("%.1f", report.Duration.Seconds()),
		"speed", report.Speed,
	)

	if g.metrics != nil {
		// Fire and forget: the store logs its own failures.
		_ = g.metrics.RecordPreview(source, report.HWAccel, report.Duration.Seconds(), report.Speed)
	}
	return StatusDone, nil
}
