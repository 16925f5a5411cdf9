package ffmpeg

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mantonx/previewgen/internal/hwaccel"
)

const (
	// scaleFilter fits frames into the thumbnail resolution BIF clients expect.
	scaleFilter = "scale=w=320:h=240:force_original_aspect_ratio=decrease"

	// scaleFilterVAAPI is the accelerator-resident equivalent. Software and
	// VAAPI filters cannot be mixed mid-pipeline, so frames are uploaded to
	// the device and scaled there.
	scaleFilterVAAPI = "format=nv12|vaapi,hwupload,scale_vaapi=w=320:h=240:force_original_aspect_ratio=decrease"

	// toneMapChain converts HDR content to BT.709 before scaling. Scaling
	// HDR transfer curves directly produces washed-out thumbnails.
	toneMapChain = "zscale=t=linear:npl=100,format=gbrpf32le," +
		"zscale=p=bt709,tonemap=tonemap=hable:desat=0," +
		"zscale=t=bt709:m=bt709:r=tv,format=yuv420p"
)

// decision captures the hardware choice made for a single extraction run.
type decision struct {
	useHardware bool
	kind        hwaccel.Kind
	device      string
}

// fpsRate formats the sampling rate 1/interval the way ffmpeg expects,
// rounded to six decimal places.
func fpsRate(intervalSeconds int) string {
	rate := math.Round(1e6/float64(intervalSeconds)) / 1e6
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// videoFilter assembles the -vf graph for one run.
func videoFilter(intervalSeconds int, hdr bool, dec decision) string {
	scale := scaleFilter
	if dec.useHardware && dec.kind == hwaccel.KindAMD {
		scale = scaleFilterVAAPI
	}

	parts := []string{"fps=fps=" + fpsRate(intervalSeconds)}
	if hdr {
		parts = append(parts, toneMapChain)
	}
	parts = append(parts, scale)
	return strings.Join(parts, ",")
}

// buildArgs builds the full ffmpeg argument list for sampling keyframes from
// source into outPattern.
func buildArgs(source, outPattern string, intervalSeconds, quality int, hdr bool, dec decision) []string {
	args := []string{"-loglevel", "info", "-skip_frame:v", "nokey"}

	if dec.useHardware {
		switch dec.kind {
		case hwaccel.KindNvidia:
			args = append(args, "-hwaccel", "cuda")
		case hwaccel.KindAMD:
			args = append(args, "-hwaccel", "vaapi", "-vaapi_device", dec.device)
		}
	}

	args = append(args,
		"-threads:0", "1",
		"-i", source,
		"-an", "-sn", "-dn",
		"-q:v", strconv.Itoa(quality),
		"-vf", videoFilter(intervalSeconds, hdr, dec),
		outPattern,
	)
	return args
}

var speedPattern = regexp.MustCompile(`speed= ?([0-9]+\.?[0-9]*|\.[0-9]+)x`)

// parseSpeed extracts the last encode speed multiplier from ffmpeg's
// diagnostic output, defaulting to 1.0 when no marker is present.
func parseSpeed(stderr string) float64 {
	matches := speedPattern.FindAllStringSubmatch(stderr, -1)
	if len(matches) == 0 {
		return 1.0
	}
	speed, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return 1.0
	}
	return speed
}

// tailLines returns up to n trailing non-empty lines of output for error
// reporting.
func tailLines(output string, n int) []string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	var tail []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			tail = append(tail, line)
		}
	}
	if len(tail) > n {
		tail = tail[len(tail)-n:]
	}
	return tail
}
