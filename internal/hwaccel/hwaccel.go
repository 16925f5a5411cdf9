// Package hwaccel probes for video decode accelerators and estimates how
// busy they are, so the extractor can decide between hardware and software
// decoding.
package hwaccel

import (
	"github.com/hashicorp/go-hclog"
)

// Kind identifies the accelerator family in use.
type Kind int

const (
	KindNone Kind = iota
	KindNvidia
	KindAMD
)

func (k Kind) String() string {
	switch k {
	case KindNvidia:
		return "nvidia"
	case KindAMD:
		return "amd"
	default:
		return "none"
	}
}

// Accelerator is a capability provider for one accelerator family.
//
// Contention returns an approximate count of transcoder processes already
// using the device. The read is not synchronized with admission: two workers
// may both observe low contention and both take the hardware path.
type Accelerator interface {
	Kind() Kind
	// Detect reports whether this accelerator family is present.
	Detect() bool
	// Contention estimates how many ffmpeg processes currently use the device.
	Contention() int
	// DevicePath returns the render device node for accelerators addressed
	// by path (VAAPI), empty otherwise.
	DevicePath() string
}

// Probe tries each accelerator family in order and returns the first one
// detected. Detection failures degrade to NoAccelerator; they never abort
// startup.
func Probe(log hclog.Logger) Accelerator {
	candidates := []Accelerator{
		NewNvidiaAccelerator(log),
		NewAMDAccelerator(log),
	}

	for _, acc := range candidates {
		if acc.Detect() {
			log.Info("video accelerator detected", "kind", acc.Kind().String(), "device", acc.DevicePath())
			return acc
		}
	}

	log.Warn("no video accelerator detected, defaulting to CPU decoding")
	return NoAccelerator{}
}

// Admit decides whether a new extraction may use hardware decoding.
// Hardware is admitted while contention is under the GPU worker budget, or
// unconditionally when CPU capacity has been deliberately disabled.
func Admit(contention, gpuBudget, cpuBudget int) bool {
	return contention < gpuBudget || cpuBudget == 0
}

// NoAccelerator is the CPU-only fallback.
type NoAccelerator struct{}

func (NoAccelerator) Kind() Kind         { return KindNone }
func (NoAccelerator) Detect() bool       { return false }
func (NoAccelerator) Contention() int    { return 0 }
func (NoAccelerator) DevicePath() string { return "" }
