// ABOUTME: PPTX loader reading the OOXML package directly
// ABOUTME: One segment per slide with text, plus picture shapes resolved through slide relationships
package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/harper/multimodal-rag/internal/models"
)

type pptxPresentation struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type pptxRelationships struct {
	Items []struct {
		ID         string `xml:"Id,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

type pptxSlide struct {
	Tree pptxShapeTree `xml:"cSld>spTree"`
}

// pptxShapeTree keeps the top-level shapes of a slide in document order
type pptxShapeTree struct {
	Shapes []pptxShape
}

type pptxShape struct {
	Kind       string          `xml:"-"`
	Paragraphs []pptxParagraph `xml:"txBody>p"`
	Blip       struct {
		Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"`
	} `xml:"blipFill>blip"`
}

type pptxParagraph struct {
	Text string
}

var pptxShapeKinds = map[string]bool{
	"sp":           true,
	"pic":          true,
	"grpSp":        true,
	"graphicFrame": true,
	"cxnSp":        true,
	"contentPart":  true,
}

func (t *pptxShapeTree) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if !pptxShapeKinds[el.Name.Local] {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			var shape pptxShape
			if err := d.DecodeElement(&shape, &el); err != nil {
				return err
			}
			shape.Kind = el.Name.Local
			t.Shapes = append(t.Shapes, shape)
		case xml.EndElement:
			return nil
		}
	}
}

func (p *pptxParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	depth, inText := 0, false
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch el.Name.Local {
			case "t":
				inText = true
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = sb.String()
				return nil
			}
			depth--
			if el.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}
}

// Text joins the shape's paragraphs with newlines
func (s pptxShape) Text() string {
	parts := make([]string, len(s.Paragraphs))
	for i, p := range s.Paragraphs {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

func (l *Loader) loadPPTX(filePath string) (models.Document, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return models.Document{}, corrupt(filePath, err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	slidePaths, err := pptxSlidePaths(files)
	if err != nil {
		return models.Document{}, corrupt(filePath, err)
	}

	var doc models.Document
	for i, slidePath := range slidePaths {
		slideNum := i + 1

		var slide pptxSlide
		if err := readXMLPart(files, slidePath, &slide); err != nil {
			return models.Document{}, corrupt(filePath, fmt.Errorf("slide %d: %w", slideNum, err))
		}

		var texts []string
		for _, shape := range slide.Tree.Shapes {
			if text := shape.Text(); strings.TrimSpace(text) != "" {
				texts = append(texts, text)
			}
		}
		if len(texts) > 0 {
			meta := baseMetadata(filePath, "pptx")
			meta.SlideNumber = models.IntPtr(slideNum)
			doc.Segments = append(doc.Segments, models.Segment{
				Content:  strings.Join(texts, "\n"),
				Metadata: meta,
			})
		}

		doc.Images = append(doc.Images, l.pptxSlideImages(files, filePath, slidePath, slideNum, slide)...)
	}

	return doc, nil
}

func (l *Loader) pptxSlideImages(files map[string]*zip.File, filePath, slidePath string, slideNum int, slide pptxSlide) []models.ImageSegment {
	var images []models.ImageSegment
	var rels map[string]string

	for shapeIndex, shape := range slide.Tree.Shapes {
		if shape.Kind != "pic" || shape.Blip.Embed == "" {
			continue
		}
		if rels == nil {
			var err error
			if rels, err = readRelationships(files, slidePath); err != nil {
				l.logger.Warn("failed to read slide relationships", "file", filePath, "slide", slideNum, "error", err)
				return images
			}
		}

		target, ok := rels[shape.Blip.Embed]
		if !ok {
			l.logger.Warn("picture references unknown relationship", "slide", slideNum, "shape", shapeIndex, "rel", shape.Blip.Embed)
			continue
		}
		data, err := readPart(files, target)
		if err != nil {
			l.logger.Warn("error extracting image", "slide", slideNum, "shape", shapeIndex, "error", err)
			continue
		}

		meta := baseMetadata(filePath, "pptx")
		meta.SlideNumber = models.IntPtr(slideNum)
		meta.ImageIndex = models.IntPtr(shapeIndex)
		meta.ImageFormat = strings.ToLower(strings.TrimPrefix(path.Ext(target), "."))
		images = append(images, models.ImageSegment{Data: data, Metadata: meta})
	}

	if len(images) > 0 {
		l.logger.Debug("extracted slide images", "slide", slideNum, "count", len(images))
	}
	return images
}

// pptxSlidePaths returns slide part names in presentation order
func pptxSlidePaths(files map[string]*zip.File) ([]string, error) {
	const presPath = "ppt/presentation.xml"

	var pres pptxPresentation
	if err := readXMLPart(files, presPath, &pres); err != nil {
		return nil, err
	}
	rels, err := readRelationships(files, presPath)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(pres.SlideIDs))
	for _, id := range pres.SlideIDs {
		target, ok := rels[id.RID]
		if !ok {
			return nil, fmt.Errorf("slide relationship %s not found", id.RID)
		}
		paths = append(paths, target)
	}
	return paths, nil
}

// readRelationships maps relationship ids of a part to resolved package paths
func readRelationships(files map[string]*zip.File, partPath string) (map[string]string, error) {
	relsPath := path.Join(path.Dir(partPath), "_rels", path.Base(partPath)+".rels")

	var rels pptxRelationships
	if err := readXMLPart(files, relsPath, &rels); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		if r.TargetMode == "External" {
			continue
		}
		if strings.HasPrefix(r.Target, "/") {
			out[r.ID] = strings.TrimPrefix(r.Target, "/")
		} else {
			out[r.ID] = path.Join(path.Dir(partPath), r.Target)
		}
	}
	return out, nil
}

func readXMLPart(files map[string]*zip.File, name string, v any) error {
	data, err := readPart(files, name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func readPart(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("missing part %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
