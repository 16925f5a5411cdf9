package hwaccel

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestAdmitPolicy(t *testing.T) {
	tests := []struct {
		name       string
		contention int
		gpuBudget  int
		cpuBudget  int
		want       bool
	}{
		{"idle GPU admits", 0, 4, 4, true},
		{"under budget admits", 3, 4, 4, true},
		{"at budget rejects", 4, 4, 4, false},
		{"over budget rejects", 7, 4, 4, false},
		{"cpu disabled forces hardware", 7, 4, 0, true},
		{"cpu disabled with zero gpu budget still forces hardware", 1, 0, 0, true},
		{"zero gpu budget with cpu capacity rejects", 0, 0, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Admit(tt.contention, tt.gpuBudget, tt.cpuBudget))
		})
	}
}

func TestNoAccelerator(t *testing.T) {
	acc := NoAccelerator{}
	assert.Equal(t, KindNone, acc.Kind())
	assert.False(t, acc.Detect())
	assert.Zero(t, acc.Contention())
	assert.Empty(t, acc.DevicePath())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", KindNone.String())
	assert.Equal(t, "nvidia", KindNvidia.String())
	assert.Equal(t, "amd", KindAMD.String())
}

func TestVAAPITranscodeFilter(t *testing.T) {
	tests := []struct {
		name    string
		proc    string
		cmdline string
		want    bool
	}{
		{"vaapi decode counts", "ffmpeg", "ffmpeg -hwaccel vaapi -vaapi_device /dev/dri/renderD128 -i a.mkv out.jpg", true},
		{"versioned binary counts", "ffmpeg6", "ffmpeg6 -hwaccel VAAPI -i a.mkv out.jpg", true},
		{"software decode excluded", "ffmpeg", "ffmpeg -i a.mkv -vf scale=320:240 out.jpg", false},
		{"other process excluded", "ffprobe", "ffprobe -show_streams a.mkv", false},
		{"vaapi mention in non-ffmpeg excluded", "grep", "grep vaapi log.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isVAAPITranscode(tt.proc, tt.cmdline))
		})
	}
}

func TestProbeDegradesToNone(t *testing.T) {
	// On machines without GPUs the ordered probe must fall through to the
	// CPU-only provider instead of failing.
	acc := Probe(hclog.NewNullLogger())
	if acc.Kind() == KindNone {
		assert.Zero(t, acc.Contention())
	}
}
