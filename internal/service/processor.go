package service

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/webp"
)

// ProcessorServiceImpl implements the ProcessorService interface
type ProcessorServiceImpl struct{}

// NewProcessorService creates a new image processor service
func NewProcessorService() ProcessorService {
	return &ProcessorServiceImpl{}
}

// Decode decodes source bytes into an image
func (p *ProcessorServiceImpl) Decode(data []byte) (image.Image, error) {
	reader := bytes.NewReader(data)

	img, _, err := image.Decode(reader)
	if err != nil {
		// Try WebP specifically (not in standard library)
		if _, serr := reader.Seek(0, 0); serr == nil {
			if webpImg, werr := webp.Decode(reader); werr == nil {
				return webpImg, nil
			}
		}
		return nil, models.DecodeError{Reason: err.Error()}
	}

	return img, nil
}

// Render crops to the selection, resizes proportionally to the target
// width and encodes to the requested format.
func (p *ProcessorServiceImpl) Render(src image.Image, sel models.Selection, opts RenderOptions) ([]byte, error) {
	logger.Debug("Rendering crop",
		zap.Int("x0", sel.X0),
		zap.Int("y0", sel.Y0),
		zap.Int("x1", sel.X1),
		zap.Int("y1", sel.Y1),
		zap.Int("target_width", opts.Width),
		zap.String("extension", opts.Extension))

	cropped := imaging.Crop(src, image.Rect(sel.X0, sel.Y0, sel.X1, sel.Y1))

	// Height 0 keeps the selection's aspect ratio.
	resized := imaging.Resize(cropped, opts.Width, 0, imaging.Lanczos)

	return p.encode(resized, opts)
}

// encode serializes an image to the requested output format
func (p *ProcessorServiceImpl) encode(img image.Image, opts RenderOptions) ([]byte, error) {
	var buf bytes.Buffer

	switch opts.Extension {
	case "jpg":
		quality := opts.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = 80
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		encoder := &png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, models.UnsupportedFormatError{Extension: opts.Extension}
	}

	return buf.Bytes(), nil
}
