package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/linuxmatters/emberwave/internal/config"
	"github.com/linuxmatters/emberwave/internal/waveform"
)

// Style controls the PNG rendering of an envelope
type Style struct {
	Width      int
	Height     int
	BarFrom    color.RGBA // Colour at the edges
	BarTo      color.RGBA // Colour at the horizontal centre
	Background color.RGBA
	Title      string
}

// StyleFromConfig resolves the configured colours
func StyleFromConfig(cfg config.WaveformConfig, title string) (Style, error) {
	from, err := parseColor(cfg.BarFrom)
	if err != nil {
		return Style{}, err
	}
	to, err := parseColor(cfg.BarTo)
	if err != nil {
		return Style{}, err
	}
	bg, err := parseColor(cfg.Backdrop)
	if err != nil {
		return Style{}, err
	}
	return Style{
		Width:      cfg.Width,
		Height:     cfg.Height,
		BarFrom:    from,
		BarTo:      to,
		Background: bg,
		Title:      title,
	}, nil
}

func parseColor(hex string) (color.RGBA, error) {
	r, g, b, err := config.ParseHexColor(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// BarHeight maps a column's range to a bar height. amp is the half-height
// of the drawing area; silent and empty columns get the minimum bar.
func BarHeight(p waveform.Pair, amp, minHeight float64) float64 {
	return math.Min(2*amp, math.Max(minHeight, float64(p.Span())*amp))
}

// gradientAt returns the bar colour at horizontal position t in [0,1]:
// from at both edges, to at the centre.
func gradientAt(from, to color.RGBA, t float64) color.RGBA {
	u := 1 - math.Abs(2*t-1)
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*u))
	}
	return color.RGBA{R: lerp(from.R, to.R), G: lerp(from.G, to.G), B: lerp(from.B, to.B), A: 255}
}

// RenderWaveform draws one centred bar per envelope pair across the image width
func RenderWaveform(pairs []waveform.Pair, style Style) (*image.RGBA, error) {
	if style.Width <= 0 || style.Height <= 0 {
		return nil, fmt.Errorf("%w: waveform image must be at least 1x1, got %dx%d",
			config.ErrInvalidConfiguration, style.Width, style.Height)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: empty envelope", config.ErrInvalidConfiguration)
	}

	img := image.NewRGBA(image.Rect(0, 0, style.Width, style.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)

	amp := float64(style.Height) / 2
	n := len(pairs)
	for i, p := range pairs {
		x0 := i * style.Width / n
		x1 := max((i+1)*style.Width/n, x0+1)
		h := BarHeight(p, amp, config.MinBarHeight)
		y0 := int(math.Round(amp - h/2))
		y1 := int(math.Round(amp + h/2))

		t := 0.5
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		bar := image.NewUniform(gradientAt(style.BarFrom, style.BarTo, t))
		draw.Draw(img, image.Rect(x0, y0, x1, y1), bar, image.Point{}, draw.Src)
	}

	if style.Title != "" {
		if err := drawTitle(img, style.Title); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// drawTitle writes the title in the top-left corner with the Go Regular font
func drawTitle(img *image.RGBA, title string) error {
	parsedFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size: config.TitleFontSize,
		DPI:  72,
	})
	defer face.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 240, G: 240, B: 245, A: 255}),
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()
	d.Dot = freetype.Pt(config.TitleMargin, config.TitleMargin+ascent)

	// Truncate rather than run off the right edge
	maxWidth := fixed.I(img.Bounds().Dx() - 2*config.TitleMargin)
	runes := []rune(title)
	for len(runes) > 0 && d.MeasureString(string(runes)) > maxWidth {
		runes = runes[:len(runes)-1]
	}
	d.DrawString(string(runes))
	return nil
}

// WriteWaveformPNG renders the envelope and saves it as a PNG file
func WriteWaveformPNG(outputPath string, pairs []waveform.Pair, style Style) error {
	img, err := RenderWaveform(pairs, style)
	if err != nil {
		return err
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create waveform image: %w", err)
	}
	defer outFile.Close()

	if err := png.Encode(outFile, img); err != nil {
		return fmt.Errorf("failed to encode waveform image: %w", err)
	}
	return outFile.Close()
}
