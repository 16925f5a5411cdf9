package ffmpeg

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
)

// ffprobeOutput is the subset of ffprobe's JSON output needed for HDR
// detection.
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType     string `json:"codec_type"`
	ColorTransfer string `json:"color_transfer"`
}

// isHDRTransfer reports whether a color transfer characteristic denotes HDR
// (PQ or HLG).
func isHDRTransfer(transfer string) bool {
	switch strings.ToLower(transfer) {
	case "smpte2084", "arib-std-b67":
		return true
	default:
		return false
	}
}

// ffprobePath derives the ffprobe binary location from the configured ffmpeg
// path, assuming they live side by side as every ffmpeg distribution ships
// them.
func ffprobePath(ffmpegPath string) string {
	dir := filepath.Dir(ffmpegPath)
	if dir == "." {
		return "ffprobe"
	}
	return filepath.Join(dir, "ffprobe")
}

// probeHDR inspects the source's video streams for an HDR transfer curve.
// Probe failures are treated as SDR so the item still gets a strip.
func (e *Extractor) probeHDR(ctx context.Context, source string) bool {
	cmd := exec.CommandContext(ctx, ffprobePath(e.ffmpegPath),
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "v",
		source,
	)

	out, err := cmd.Output()
	if err != nil {
		e.log.Debug("ffprobe failed, assuming SDR content", "source", source, "error", err)
		return false
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		e.log.Debug("unparseable ffprobe output, assuming SDR content", "source", source, "error", err)
		return false
	}

	for _, stream := range probe.Streams {
		if stream.CodecType == "video" && isHDRTransfer(stream.ColorTransfer) {
			return true
		}
	}
	return false
}
