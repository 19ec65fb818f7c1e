package service

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/icza/gox/imagex/colorx"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// placeholderFontSize is the point size used when a scalable font is
// configured for the label.
const placeholderFontSize = 52

// placeholderPalette is the fixed set of background colors; the pick per
// request is arbitrary.
var placeholderPalette = []string{
	"#999933",
	"#669933",
	"#339933",
	"#993333",
	"#C28547",
	"#339966",
	"#993366",
	"#4785C2",
	"#339999",
	"#993399",
}

// PlaceholderServiceImpl implements the PlaceholderService interface
type PlaceholderServiceImpl struct {
	face    font.Face
	palette []color.RGBA
}

// NewPlaceholderService creates a placeholder generator. When no font
// file is configured the basic built-in face is used for the label.
func NewPlaceholderService(cfg *config.PlaceholderConfig) (PlaceholderService, error) {
	face, err := loadFace(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load placeholder font: %w", err)
	}

	palette := make([]color.RGBA, 0, len(placeholderPalette))
	for _, hex := range placeholderPalette {
		c, err := colorx.ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("invalid palette color %s: %w", hex, err)
		}
		palette = append(palette, c)
	}

	return &PlaceholderServiceImpl{face: face, palette: palette}, nil
}

// Generate produces a labeled colored rectangle for a ratio and width.
// The output is synthetic and must never reach the render cache.
func (s *PlaceholderServiceImpl) Generate(ratio models.Ratio, width int, ext string) ([]byte, error) {
	if ratio.Width <= 0 || ratio.Height <= 0 {
		return nil, models.InvalidRatioError{Token: ratio.Slug()}
	}

	height := width * ratio.Height / ratio.Width
	if height < 1 {
		height = 1
	}

	background := s.palette[rand.Intn(len(s.palette))]
	canvas := imaging.New(width, height, background)

	s.drawLabel(canvas, ratio.Slug(), width, height)

	logger.Debug("Generated placeholder",
		zap.String("ratio", ratio.Slug()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.String("extension", ext))

	encoder := &ProcessorServiceImpl{}
	return encoder.encode(canvas, RenderOptions{Width: width, Extension: ext})
}

// drawLabel renders the ratio token centered on the canvas.
func (s *PlaceholderServiceImpl) drawLabel(canvas *image.NRGBA, label string, width, height int) {
	textWidth := font.MeasureString(s.face, label).Ceil()
	metrics := s.face.Metrics()

	x := (width - textWidth) / 2
	// Baseline placed so the glyph box is vertically centered.
	y := height/2 + (metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: s.face,
		Dot: fixed.Point26_6{
			X: fixed.I(x),
			Y: fixed.I(y),
		},
	}
	drawer.DrawString(label)
}

// loadFace loads the configured scalable face, or the built-in bitmap
// face when no path is set.
func loadFace(path string) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}

	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    placeholderFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
