// ABOUTME: Image file loader and image inspection helpers
// ABOUTME: Reports format, pixel dimensions and color mode for standalone images
package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/harper/multimodal-rag/internal/models"
)

func (l *Loader) loadImage(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	info, err := InspectImage(data)
	if err != nil {
		return models.Document{}, corrupt(path, err)
	}

	meta := baseMetadata(path, "image")
	meta.Format = info.Format
	meta.Width = info.Width
	meta.Height = info.Height
	meta.Mode = info.Mode

	return models.Document{
		Images: []models.ImageSegment{{Data: data, Metadata: meta}},
	}, nil
}

// ImageInfo describes an encoded image without decoding its pixels
type ImageInfo struct {
	Format string
	Width  int
	Height int
	Mode   string
}

// InspectImage reads the header of an encoded image
func InspectImage(data []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	mode := colorMode(cfg.ColorModel)
	if format == "png" {
		if m, ok := pngMode(data); ok {
			mode = m
		}
	}

	return ImageInfo{
		Format: strings.ToUpper(format),
		Width:  cfg.Width,
		Height: cfg.Height,
		Mode:   mode,
	}, nil
}

// MIMEType returns the media type of an encoded image, defaulting to image/png
func MIMEType(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "image/png"
	}
	return "image/" + format
}

func colorMode(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.YCbCrModel, color.NYCbCrAModel:
		return "RGB"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return "RGB"
}

// pngMode reads the IHDR color type, which distinguishes RGB from RGBA and L from LA
func pngMode(data []byte) (string, bool) {
	// signature(8) length(4) "IHDR"(4) width(4) height(4) depth(1) colortype(1)
	if len(data) < 26 || string(data[12:16]) != "IHDR" {
		return "", false
	}
	if binary.BigEndian.Uint32(data[8:12]) != 13 {
		return "", false
	}
	switch data[25] {
	case 0:
		return "L", true
	case 2:
		return "RGB", true
	case 3:
		return "P", true
	case 4:
		return "LA", true
	case 6:
		return "RGBA", true
	}
	return "", false
}
