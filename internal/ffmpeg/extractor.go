// Package ffmpeg invokes the external ffmpeg binary to sample periodic
// keyframes from a video file into a directory of JPEG images.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/previewgen/internal/hwaccel"
)

// framePattern names extracted frames by 1-based ordinal.
const framePattern = "img-%06d.jpg"

// ExtractionError reports a failed ffmpeg run, carrying the tail of its
// diagnostic output.
type ExtractionError struct {
	Source string
	Err    error
	Tail   []string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("frame extraction failed for %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Report describes a completed extraction.
type Report struct {
	// Duration is wall-clock time measured around the ffmpeg run.
	Duration time.Duration
	// Speed is the encode speed multiplier ffmpeg reported, 1.0 if absent.
	Speed float64
	// HWAccel records whether hardware decoding was used.
	HWAccel bool
}

// Options configures an Extractor.
type Options struct {
	FFmpegPath    string
	FrameInterval int
	Quality       int
	Timeout       time.Duration
	GPUBudget     int
	CPUBudget     int
}

// Extractor runs ffmpeg frame sampling with accelerator admission control.
type Extractor struct {
	ffmpegPath string
	interval   int
	quality    int
	timeout    time.Duration
	gpuBudget  int
	cpuBudget  int
	accel      hwaccel.Accelerator
	log        hclog.Logger

	// startDelay gives ffmpeg a moment to spin up before waiting on it.
	startDelay time.Duration
}

// NewExtractor creates an extractor bound to one accelerator state for the
// process lifetime.
func NewExtractor(opts Options, accel hwaccel.Accelerator, log hclog.Logger) *Extractor {
	return &Extractor{
		ffmpegPath: opts.FFmpegPath,
		interval:   opts.FrameInterval,
		quality:    opts.Quality,
		timeout:    opts.Timeout,
		gpuBudget:  opts.GPUBudget,
		cpuBudget:  opts.CPUBudget,
		accel:      accel,
		log:        log.Named("extractor"),
		startDelay: time.Second,
	}
}

// decide performs the per-run hardware admission check. The contention read
// is approximate and racy by design; see hwaccel.Accelerator.
func (e *Extractor) decide() decision {
	if e.accel.Kind() == hwaccel.KindNone {
		return decision{}
	}

	contention := e.accel.Contention()
	if !hwaccel.Admit(contention, e.gpuBudget, e.cpuBudget) {
		e.log.Debug("accelerator busy, using software decode", "contention", contention, "gpu_budget", e.gpuBudget)
		return decision{}
	}

	return decision{
		useHardware: true,
		kind:        e.accel.Kind(),
		device:      e.accel.DevicePath(),
	}
}

// Extract samples keyframes from source into outDir. On a non-zero exit it
// returns an ExtractionError and salvages nothing; the caller owns disposal
// of outDir.
func (e *Extractor) Extract(ctx context.Context, source, outDir string) (Report, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	hdr := e.probeHDR(ctx, source)
	dec := e.decide()

	outPattern := filepath.Join(outDir, framePattern)
	args := buildArgs(source, outPattern, e.interval, e.quality, hdr, dec)
	e.log.Debug("running ffmpeg", "source", source, "hdr", hdr, "hw_accel", dec.useHardware, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Report{}, &ExtractionError{Source: source, Err: err}
	}

	// Slow sources can take a beat before ffmpeg produces any output.
	time.Sleep(e.startDelay)

	err := cmd.Wait()
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", e.timeout, err)
		}
		return Report{}, &ExtractionError{
			Source: source,
			Err:    err,
			Tail:   tailLines(stderr.String(), 5),
		}
	}

	return Report{
		Duration: elapsed,
		Speed:    parseSpeed(stderr.String()),
		HWAccel:  dec.useHardware,
	}, nil
}
