package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"clipforge/internal/config"
)

// Target output resolution for every processed clip (9:16 vertical).
const (
	targetWidth  = 1080
	targetHeight = 1920
)

const watermarkMargin = 10

// FilterStage is one named transformation in the video filter chain. It
// consumes the stream labelled Input (plus ExtraInput for overlays) and
// produces the stream labelled Output.
type FilterStage struct {
	Name       string
	Input      string
	ExtraInput string
	Output     string
	Expr       string
}

// filterGraph is the ordered stage chain for a single invocation. FinalLabel
// names the last stage's output, the merge point for audio mapping.
type filterGraph struct {
	Stages        []FilterStage
	FinalLabel    string
	UsesWatermark bool
}

// buildFilterGraph constructs the stage chain for the given settings. The
// scale-and-pad base stage is always present; every optional stage is included
// only when its magnitude differs from the no-op value, so a fully neutral
// configuration reduces to the base transform alone.
func buildFilterGraph(p config.Processing, watermarkPath string, rng Rand) filterGraph {
	var graph filterGraph
	label := 0
	current := "0:v"

	next := func() string {
		label++
		return "v" + strconv.Itoa(label)
	}

	add := func(name, expr string, extraInput string) {
		out := next()
		graph.Stages = append(graph.Stages, FilterStage{
			Name:       name,
			Input:      current,
			ExtraInput: extraInput,
			Output:     out,
			Expr:       expr,
		})
		current = out
	}

	// Base stage: letterbox into the fixed vertical frame, centered.
	add("scale_pad", fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black",
		targetWidth, targetHeight, targetWidth, targetHeight), "")

	if p.Saturation != 1 {
		add("saturation", fmt.Sprintf("eq=saturation=%s", formatFloat(p.Saturation)), "")
	}
	if p.Brightness != 1 {
		// Config carries a 0.5-2.0 multiplier; eq expects an offset around 0.
		add("brightness", fmt.Sprintf("eq=brightness=%s", formatFloat(p.Brightness-1)), "")
	}
	if p.DenoiseStrength > 0 {
		add("denoise", fmt.Sprintf("hqdn3d=%s", formatFloat(p.DenoiseStrength)), "")
	}
	if p.Sharpness > 0 {
		sharp := formatFloat(p.Sharpness)
		add("sharpen", fmt.Sprintf("unsharp=3:3:%s:3:3:%s", sharp, sharp), "")
	}
	if watermarkPath != "" && p.WatermarkOpacity > 0 {
		graph.UsesWatermark = true
		add("watermark", fmt.Sprintf(
			"overlay=W-w-%d:H-h-%d:format=auto:alpha=%s",
			watermarkMargin, watermarkMargin, formatFloat(p.WatermarkOpacity)), "1:v")
	}
	if p.SpeedRandomization > 0 {
		speed := uniform(rng, 1, p.SpeedRandomization)
		add("speed_jitter", fmt.Sprintf("setpts=%.6f*PTS", 1/speed), "")
	}
	if p.ZoomFactor > 1 {
		zoom := formatFloat(p.ZoomFactor)
		add("zoom", fmt.Sprintf("scale=iw*%s:ih*%s", zoom, zoom), "")
	}
	if p.PixelShift > 0 {
		shiftX := uniform(rng, 0, p.PixelShift)
		shiftY := uniform(rng, 0, p.PixelShift)
		add("pixel_shift", fmt.Sprintf("crop=iw:ih:%.2f:%.2f", shiftX, shiftY), "")
	}

	graph.FinalLabel = current
	return graph
}

// serialize renders the chain in FFmpeg filter_complex syntax. Graph
// construction stays syntax-free; this is the only place the expression
// grammar appears.
func (g filterGraph) serialize() string {
	parts := make([]string, 0, len(g.Stages))
	for _, stage := range g.Stages {
		var b strings.Builder
		b.WriteByte('[')
		b.WriteString(stage.Input)
		b.WriteByte(']')
		if stage.ExtraInput != "" {
			b.WriteByte('[')
			b.WriteString(stage.ExtraInput)
			b.WriteByte(']')
		}
		b.WriteString(stage.Expr)
		b.WriteByte('[')
		b.WriteString(stage.Output)
		b.WriteByte(']')
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ";")
}

// formatFloat renders option values compactly, rounding away binary float
// noise (1.1-1 prints as 0.1, not 0.10000000000000009).
func formatFloat(value float64) string {
	return strconv.FormatFloat(math.Round(value*1e6)/1e6, 'f', -1, 64)
}
