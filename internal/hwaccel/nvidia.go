package hwaccel

import (
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// NvidiaAccelerator drives NVDEC through ffmpeg's cuda hwaccel. Presence and
// process accounting both go through nvidia-smi, the same tool the driver
// stack ships everywhere.
type NvidiaAccelerator struct {
	log hclog.Logger
}

func NewNvidiaAccelerator(log hclog.Logger) *NvidiaAccelerator {
	return &NvidiaAccelerator{log: log.Named("nvidia")}
}

func (a *NvidiaAccelerator) Kind() Kind         { return KindNvidia }
func (a *NvidiaAccelerator) DevicePath() string { return "" }

func (a *NvidiaAccelerator) Detect() bool {
	out, err := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		a.log.Debug("nvidia-smi probe failed", "error", err)
		return false
	}
	names := strings.TrimSpace(string(out))
	if names == "" {
		return false
	}
	a.log.Info("detected NVIDIA GPU(s)", "count", len(strings.Split(names, "\n")))
	return true
}

// Contention counts ffmpeg processes in the GPU's compute/encode process
// listing.
func (a *NvidiaAccelerator) Contention() int {
	out, err := exec.Command("nvidia-smi", "--query-compute-apps=process_name", "--format=csv,noheader").Output()
	if err != nil {
		a.log.Warn("failed to query GPU process list", "error", err)
		return 0
	}

	count := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(strings.ToLower(line), "ffmpeg") {
			count++
		}
	}
	a.log.Debug("ffmpeg GPU processes running", "count", count)
	return count
}
