package hwaccel

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/process"
)

const renderDeviceDir = "/dev/dri"

// AMDAccelerator drives VAAPI decode through a DRM render node. There is no
// vendor process listing to consult, so contention is estimated by counting
// ffmpeg processes on the host, which matches the admission heuristic's
// tolerance for approximation.
type AMDAccelerator struct {
	log    hclog.Logger
	device string
}

func NewAMDAccelerator(log hclog.Logger) *AMDAccelerator {
	return &AMDAccelerator{log: log.Named("amd")}
}

func (a *AMDAccelerator) Kind() Kind         { return KindAMD }
func (a *AMDAccelerator) DevicePath() string { return a.device }

func (a *AMDAccelerator) Detect() bool {
	entries, err := os.ReadDir(renderDeviceDir)
	if err != nil {
		a.log.Debug("no DRM render device directory", "error", err)
		return false
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "renderD") {
			a.device = filepath.Join(renderDeviceDir, entry.Name())
			a.log.Info("detected render device", "device", a.device)
			return true
		}
	}
	return false
}

func (a *AMDAccelerator) Contention() int {
	procs, err := process.Processes()
	if err != nil {
		a.log.Warn("failed to list processes", "error", err)
		return 0
	}

	count := 0
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil {
			continue
		}
		if isVAAPITranscode(name, cmdline) {
			count++
		}
	}
	a.log.Debug("ffmpeg VAAPI processes running", "count", count)
	return count
}

// isVAAPITranscode reports whether a process is an ffmpeg run on the VAAPI
// decode path. Software-decode ffmpeg jobs do not occupy the render device
// and must not count toward its contention.
func isVAAPITranscode(name, cmdline string) bool {
	return strings.HasPrefix(strings.ToLower(name), "ffmpeg") &&
		strings.Contains(strings.ToLower(cmdline), "vaapi")
}
