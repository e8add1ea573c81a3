// Package deck assembles kept frames into a PowerPoint slideshow where each
// slide carries its frame image and a hyperlink back to the source video at
// that frame's timestamp.
//
// The writer emits the OOXML parts directly into the pptx zip container.
// Output is deterministic for a fixed slide list.
package deck

import (
	"archive/zip"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	_ "image/jpeg"
	_ "image/png"

	"github.com/patarapolw/yt2pptx/pkg/utils"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/timestamp"
)

// EMU per inch; OOXML measures everything in English Metric Units.
const emuPerInch = 914400

// Slide geometry matching the original tool's decks: 10 x 7.5 inches, image
// anchored at the origin and scaled to slide width, link textbox near the
// bottom-left corner.
const (
	slideCX = 10 * emuPerInch
	slideCY = 15 * emuPerInch / 2

	textX  = 3 * emuPerInch / 10
	textCX = 3 * emuPerInch
	textCY = emuPerInch / 2
	textY  = slideCY - 7*emuPerInch/10
)

var (
	slideTmpl     = template.Must(template.New("slide").Parse(slideXML))
	slideRelsTmpl = template.Must(template.New("slideRels").Parse(slideRels))
)

// Slide is one kept frame destined for the deck.
type Slide struct {
	ImagePath string
	Seconds   int
}

type slideData struct {
	ImageCX   int64
	ImageCY   int64
	TextX     int64
	TextY     int64
	TextCX    int64
	TextCY    int64
	Caption   string
	ImageName string
	Hyperlink string
}

// Write builds the pptx at outPath from the given slides, in order. Each
// slide links to the source video at its own timestamp. Zero slides still
// produce a valid, empty deck.
func Write(outPath, videoID string, slides []Slide) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating deck file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	write := func(name, content string) error {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, content)
		return err
	}

	var contentTypes strings.Builder
	contentTypes.WriteString(contentTypesHeader)
	for i := range slides {
		fmt.Fprintf(&contentTypes,
			"<Override PartName=\"/ppt/slides/slide%d.xml\" ContentType=\"application/vnd.openxmlformats-officedocument.presentationml.slide+xml\"/>\n",
			i+1)
	}
	contentTypes.WriteString("</Types>\n")

	if err := write("[Content_Types].xml", contentTypes.String()); err != nil {
		return fmt.Errorf("writing content types: %w", err)
	}
	if err := write("_rels/.rels", rootRels); err != nil {
		return fmt.Errorf("writing package rels: %w", err)
	}
	if err := write("ppt/presentation.xml", presentationXML(len(slides))); err != nil {
		return fmt.Errorf("writing presentation: %w", err)
	}
	if err := write("ppt/_rels/presentation.xml.rels", presentationRels(len(slides))); err != nil {
		return fmt.Errorf("writing presentation rels: %w", err)
	}
	if err := write("ppt/slideMasters/slideMaster1.xml", slideMasterXML); err != nil {
		return err
	}
	if err := write("ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRels); err != nil {
		return err
	}
	if err := write("ppt/slideLayouts/slideLayout1.xml", slideLayoutXML); err != nil {
		return err
	}
	if err := write("ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRels); err != nil {
		return err
	}
	if err := write("ppt/theme/theme1.xml", themeXML); err != nil {
		return err
	}

	for i, s := range slides {
		if err := writeSlide(zw, write, i+1, videoID, s); err != nil {
			return fmt.Errorf("writing slide %d: %w", i+1, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing deck: %w", err)
	}
	return nil
}

func writeSlide(zw *zip.Writer, write func(name, content string) error, n int, videoID string, s Slide) error {
	cx, cy, err := scaledImageSize(s.ImagePath)
	if err != nil {
		return err
	}

	imageName := fmt.Sprintf("image%d%s", n, strings.ToLower(filepath.Ext(s.ImagePath)))
	data := slideData{
		ImageCX:   cx,
		ImageCY:   cy,
		TextX:     textX,
		TextY:     textY,
		TextCX:    textCX,
		TextCY:    textCY,
		Caption:   fmt.Sprintf("Jump to %s on YouTube", timestamp.Format(s.Seconds)),
		ImageName: imageName,
		Hyperlink: xmlEscape(utils.WatchURL(videoID, s.Seconds)),
	}

	var sb strings.Builder
	if err := slideTmpl.Execute(&sb, data); err != nil {
		return err
	}
	if err := write(fmt.Sprintf("ppt/slides/slide%d.xml", n), sb.String()); err != nil {
		return err
	}

	sb.Reset()
	if err := slideRelsTmpl.Execute(&sb, data); err != nil {
		return err
	}
	if err := write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), sb.String()); err != nil {
		return err
	}

	img, err := os.Open(s.ImagePath)
	if err != nil {
		return fmt.Errorf("opening frame image: %w", err)
	}
	defer img.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "ppt/media/" + imageName, Method: zip.Deflate})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, img); err != nil {
		return fmt.Errorf("copying frame image: %w", err)
	}
	return nil
}

func presentationXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` + "\n")
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` + "\n")
	sb.WriteString("<p:sldIdLst>")
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	sb.WriteString("</p:sldIdLst>\n")
	fmt.Fprintf(&sb, `<p:sldSz cx="%d" cy="%d"/>`+"\n", slideCX, slideCY)
	fmt.Fprintf(&sb, `<p:notesSz cx="%d" cy="%d"/>`+"\n", slideCY, slideCX)
	sb.WriteString("</p:presentation>\n")
	return sb.String()
}

func presentationRels(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + "\n")
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>` + "\n")
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&sb,
			`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`+"\n",
			i+2, i+1)
	}
	sb.WriteString("</Relationships>\n")
	return sb.String()
}

// scaledImageSize returns the EMU extent of an image scaled to slide width.
func scaledImageSize(path string) (cx, cy int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening frame image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("reading image dimensions of %s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, fmt.Errorf("image %s has zero dimensions", path)
	}
	return slideCX, int64(slideCX) * int64(cfg.Height) / int64(cfg.Width), nil
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}
