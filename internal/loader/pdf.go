// ABOUTME: PDF loader built on ledongthuc/pdf
// ABOUTME: Extracts per-page text and re-encodes decodable page images as PNG
package loader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/harper/multimodal-rag/internal/models"
)

func (l *Loader) loadPDF(path string) (doc models.Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// The pdf package panics on malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			doc, err = models.Document{}, corrupt(path, fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return models.Document{}, corrupt(path, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return models.Document{}, corrupt(path, fmt.Errorf("no pages"))
	}

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		meta := baseMetadata(path, "pdf")
		meta.Page = models.IntPtr(i)

		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn("failed to extract page text", "file", meta.SourceFile, "page", i, "error", err)
		}
		doc.Segments = append(doc.Segments, models.Segment{Content: text, Metadata: meta})

		doc.Images = append(doc.Images, l.pdfPageImages(page, meta)...)
	}

	return doc, nil
}

// pdfPageImages collects image XObjects of a page. image_index counts every image
// XObject on the page, including ones that could not be decoded.
func (l *Loader) pdfPageImages(page pdf.Page, pageMeta models.Metadata) []models.ImageSegment {
	xobjects := page.Resources().Key("XObject")
	var images []models.ImageSegment

	index := 0
	for _, name := range xobjects.Keys() {
		x := xobjects.Key(name)
		if x.Key("Subtype").Name() != "Image" {
			continue
		}

		data, err := encodePDFImage(x)
		if err != nil {
			l.logger.Warn("skipping pdf image", "file", pageMeta.SourceFile, "page", *pageMeta.Page, "name", name, "error", err)
			index++
			continue
		}

		meta := pageMeta
		meta.ImageIndex = models.IntPtr(index)
		meta.ImageFormat = "png"
		images = append(images, models.ImageSegment{Data: data, Metadata: meta})
		index++
	}
	return images
}

// encodePDFImage decodes an 8-bit Flate or unfiltered raster and re-encodes it as PNG
func encodePDFImage(x pdf.Value) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("unsupported image encoding: %v", r)
		}
	}()

	if filter := x.Key("Filter"); !filter.IsNull() {
		name := filter.Name()
		if filter.Kind() == pdf.Array && filter.Len() == 1 {
			name = filter.Index(0).Name()
		}
		if name != "FlateDecode" {
			return nil, fmt.Errorf("unsupported filter %s", filter)
		}
	}

	width := int(x.Key("Width").Int64())
	height := int(x.Key("Height").Int64())
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if bpc := x.Key("BitsPerComponent").Int64(); bpc != 8 {
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}

	components, err := colorComponents(x.Key("ColorSpace"))
	if err != nil {
		return nil, err
	}

	rc := x.Reader()
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read image stream: %w", err)
	}
	if len(raw) < width*height*components {
		return nil, fmt.Errorf("short image stream: %d bytes for %dx%dx%d", len(raw), width, height, components)
	}

	var img image.Image
	switch components {
	case 1:
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, raw[:width*height])
		img = gray
	case 3:
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < width*height; i++ {
			rgba.Pix[i*4] = raw[i*3]
			rgba.Pix[i*4+1] = raw[i*3+1]
			rgba.Pix[i*4+2] = raw[i*3+2]
			rgba.Pix[i*4+3] = 0xff
		}
		img = rgba
	case 4:
		cmyk := image.NewCMYK(image.Rect(0, 0, width, height))
		copy(cmyk.Pix, raw[:width*height*4])
		img = toRGBA(cmyk)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func colorComponents(cs pdf.Value) (int, error) {
	switch cs.Kind() {
	case pdf.Name:
		switch cs.Name() {
		case "DeviceGray":
			return 1, nil
		case "DeviceRGB":
			return 3, nil
		case "DeviceCMYK":
			return 4, nil
		}
	case pdf.Array:
		if cs.Index(0).Name() == "ICCBased" {
			switch n := cs.Index(1).Key("N").Int64(); n {
			case 1, 3, 4:
				return int(n), nil
			}
		}
	}
	return 0, fmt.Errorf("unsupported color space %s", cs)
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, color.RGBAModel.Convert(src.At(x, y)))
		}
	}
	return dst
}
