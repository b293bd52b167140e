// ABOUTME: Test fixture builders for PDF, PPTX, DOCX and image files
// ABOUTME: Fixtures are generated into t.TempDir() so no binary files live in the repo
package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fumiama/go-docx"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func opaqueRGB(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	return img
}

// pdfPage describes one page of a generated PDF
type pdfPage struct {
	Text      string
	RGBImage  bool // 2x2 unfiltered DeviceRGB image
	JPEGImage bool // DCTDecode image the loader cannot decode
}

// buildPDF writes a minimal but valid PDF with a correct xref table
func buildPDF(t *testing.T, pages []pdfPage) string {
	t.Helper()

	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	add("") // catalog placeholder
	add("") // pages placeholder
	fontID := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []int
	for _, p := range pages {
		content := ""
		if p.Text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", p.Text)
		}
		contentID := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

		xobjects := ""
		if p.RGBImage {
			raw := string([]byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255})
			id := add(fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream", len(raw), raw))
			xobjects += fmt.Sprintf(" /Im1 %d 0 R", id)
		}
		if p.JPEGImage {
			raw := "not really a jpeg"
			id := add(fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n%s\nendstream", len(raw), raw))
			xobjects += fmt.Sprintf(" /Im0 %d 0 R", id)
		}

		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", fontID)
		if xobjects != "" {
			resources += " /XObject <<" + xobjects + " >>"
		}
		kids = append(kids, add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << %s >> /Contents %d 0 R >>", resources, contentID)))
	}

	kidRefs := ""
	for _, k := range kids {
		kidRefs += fmt.Sprintf("%d 0 R ", k)
	}
	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kidRefs, len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return writeFile(t, "report.pdf", buf.Bytes())
}

// pptxSlideSpec describes one slide of a generated presentation
type pptxSlideSpec struct {
	Texts   []string
	Picture []byte
}

// buildPPTX writes a minimal OOXML presentation package
func buildPPTX(t *testing.T, slides []pptxSlideSpec) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	put := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}

	const nsP = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

	sldIDs := ""
	presRels := ""
	for i, s := range slides {
		n := i + 1
		sldIDs += fmt.Sprintf(`<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n)
		presRels += fmt.Sprintf(`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, n, n)

		shapes := ""
		for _, text := range s.Texts {
			shapes += fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="T"/></p:nvSpPr><p:txBody><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, text)
		}
		slideRels := ""
		if s.Picture != nil {
			shapes += `<p:pic><p:nvPicPr><p:cNvPr id="3" name="Pic"/></p:nvPicPr><p:blipFill><a:blip r:embed="rId7"/></p:blipFill></p:pic>`
			put(fmt.Sprintf("ppt/media/image%d.png", n), string(s.Picture))
			slideRels = fmt.Sprintf(`<Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image%d.png"/>`, n)
		}

		put(fmt.Sprintf("ppt/slides/slide%d.xml", n),
			fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><p:sld %s><p:cSld><p:spTree><p:nvGrpSpPr/><p:grpSpPr/>%s</p:spTree></p:cSld></p:sld>`, nsP, shapes))
		put(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n),
			`<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+slideRels+`</Relationships>`)
	}

	put("ppt/presentation.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><p:presentation %s><p:sldIdLst>%s</p:sldIdLst></p:presentation>`, nsP, sldIDs))
	put("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+presRels+`</Relationships>`)

	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return writeFile(t, "deck.pptx", buf.Bytes())
}

// buildDOCX writes a Word document with one paragraph per entry
func buildDOCX(t *testing.T, paragraphs []string) string {
	t.Helper()

	doc := docx.New().WithDefaultTheme()
	for _, p := range paragraphs {
		para := doc.AddParagraph()
		if p != "" {
			para.AddText(p)
		}
	}

	path := filepath.Join(t.TempDir(), "notes.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create docx: %v", err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		t.Fatalf("failed to write docx: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close docx: %v", err)
	}
	return path
}
