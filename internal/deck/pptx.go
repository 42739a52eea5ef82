// Package deck edits presentation files directly: a .pptx is a zip of
// DrawingML parts, and every operation here rewrites only the parts it
// touches. Slide ordering lives in p:sldIdLst; dropping a slide removes its
// list entry and leaves the orphaned part in the archive, which renderers
// ignore.
package deck

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const emuPerInch = 914400

// Deck is an open presentation archive.
type Deck struct {
	names []string
	parts map[string][]byte
}

// Open reads every part of a presentation archive into memory.
func Open(pptxPath string) (*Deck, error) {
	zr, err := zip.OpenReader(pptxPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", pptxPath, err)
	}
	defer zr.Close()

	d := &Deck{parts: map[string][]byte{}}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		d.names = append(d.names, f.Name)
		d.parts[f.Name] = data
	}
	if _, ok := d.parts["ppt/presentation.xml"]; !ok {
		return nil, fmt.Errorf("%s: not a presentation archive", pptxPath)
	}
	return d, nil
}

// Save writes the archive to path, parts in their original order with any
// added parts appended.
func (d *Deck) Save(outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)
	for _, name := range d.names {
		w, err := zw.Create(name)
		if err != nil {
			f.Close()
			return fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := w.Write(d.parts[name]); err != nil {
			f.Close()
			return fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Deck) part(name string) (*etree.Document, error) {
	data, ok := d.parts[name]
	if !ok {
		return nil, fmt.Errorf("missing part %s", name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse part %s: %w", name, err)
	}
	return doc, nil
}

func (d *Deck) setPart(name string, doc *etree.Document) error {
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serialize part %s: %w", name, err)
	}
	if _, exists := d.parts[name]; !exists {
		d.names = append(d.names, name)
	}
	d.parts[name] = data
	return nil
}

// SlideSize returns the deck's slide dimensions in EMU.
func (d *Deck) SlideSize() (cx, cy int64, err error) {
	doc, err := d.part("ppt/presentation.xml")
	if err != nil {
		return 0, 0, err
	}
	sldSz := doc.FindElement("//sldSz")
	if sldSz == nil {
		return 0, 0, fmt.Errorf("presentation.xml: no sldSz element")
	}
	cx, err = strconv.ParseInt(sldSz.SelectAttrValue("cx", ""), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("sldSz cx: %w", err)
	}
	cy, err = strconv.ParseInt(sldSz.SelectAttrValue("cy", ""), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("sldSz cy: %w", err)
	}
	return cx, cy, nil
}

// SlideParts returns slide part names in presentation order.
func (d *Deck) SlideParts() ([]string, error) {
	doc, err := d.part("ppt/presentation.xml")
	if err != nil {
		return nil, err
	}
	rels, err := d.relTargets("ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, sldID := range doc.FindElements("//sldIdLst/sldId") {
		rid := relID(sldID)
		target, ok := rels[rid]
		if !ok {
			return nil, fmt.Errorf("slide rel %s unresolved", rid)
		}
		parts = append(parts, resolveTarget("ppt", target))
	}
	return parts, nil
}

// SlideCount returns the number of slides in presentation order.
func (d *Deck) SlideCount() (int, error) {
	parts, err := d.SlideParts()
	if err != nil {
		return 0, err
	}
	return len(parts), nil
}

// relID reads the r:id attribute. The unprefixed id attribute on sldId is
// the slide ID, not the relationship, so only the r-prefixed one counts.
func relID(el *etree.Element) string {
	for _, attr := range el.Attr {
		if attr.Space == "r" && attr.Key == "id" {
			return attr.Value
		}
	}
	return ""
}

// relTargets parses a relationship part into id→target.
func (d *Deck) relTargets(name string) (map[string]string, error) {
	doc, err := d.part(name)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, rel := range doc.FindElements("//Relationship") {
		out[rel.SelectAttrValue("Id", "")] = rel.SelectAttrValue("Target", "")
	}
	return out, nil
}

// resolveTarget resolves a relationship target relative to a base directory.
func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(base, target))
}

// DropSlides removes the first and/or last slide from the presentation
// order. Dropping the last slide of a single-slide deck is refused so a deck
// never ends up empty.
func (d *Deck) DropSlides(first, last bool) error {
	doc, err := d.part("ppt/presentation.xml")
	if err != nil {
		return err
	}
	lst := doc.FindElement("//sldIdLst")
	if lst == nil {
		return fmt.Errorf("presentation.xml: no sldIdLst")
	}
	ids := lst.SelectElements("sldId")
	if first && len(ids) > 0 {
		lst.RemoveChild(ids[0])
	}
	ids = lst.SelectElements("sldId")
	if last && len(ids) > 1 {
		lst.RemoveChild(ids[len(ids)-1])
	}
	return d.setPart("ppt/presentation.xml", doc)
}

// nextSlideIndex returns one past the highest slideN.xml index present.
func (d *Deck) nextSlideIndex() int {
	max := 0
	for name := range d.parts {
		var n int
		if _, err := fmt.Sscanf(name, "ppt/slides/slide%d.xml", &n); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// InsertSlideSecondToLast registers slideXML as a new slide part and places
// it immediately before the closing slide. All bookkeeping parts (content
// types, presentation rels, slide rels) are updated together.
func (d *Deck) InsertSlideSecondToLast(slideXML string) error {
	idx := d.nextSlideIndex()
	partName := fmt.Sprintf("ppt/slides/slide%d.xml", idx)
	relsName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", idx)

	layout, err := d.lastSlideLayoutTarget()
	if err != nil {
		return err
	}

	d.names = append(d.names, partName)
	d.parts[partName] = []byte(slideXML)
	d.names = append(d.names, relsName)
	d.parts[relsName] = []byte(slideRelsXML(layout))

	if err := d.registerContentType(partName); err != nil {
		return err
	}
	rid, err := d.addPresentationRel(partName)
	if err != nil {
		return err
	}
	return d.appendSlideID(rid)
}

// lastSlideLayoutTarget finds the layout relationship of the final slide so
// the injected slide inherits the same master styling.
func (d *Deck) lastSlideLayoutTarget() (string, error) {
	parts, err := d.SlideParts()
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "../slideLayouts/slideLayout1.xml", nil
	}
	lastPart := parts[len(parts)-1]
	relsName := path.Join(path.Dir(lastPart), "_rels", path.Base(lastPart)+".rels")
	doc, err := d.part(relsName)
	if err != nil {
		return "../slideLayouts/slideLayout1.xml", nil
	}
	for _, rel := range doc.FindElements("//Relationship") {
		if strings.HasSuffix(rel.SelectAttrValue("Type", ""), "/slideLayout") {
			return rel.SelectAttrValue("Target", ""), nil
		}
	}
	return "../slideLayouts/slideLayout1.xml", nil
}

func slideRelsXML(layoutTarget string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="` + layoutTarget + `"/>` +
		`</Relationships>`
}

func (d *Deck) registerContentType(partName string) error {
	doc, err := d.part("[Content_Types].xml")
	if err != nil {
		return err
	}
	root := doc.Root()
	override := root.CreateElement("Override")
	override.CreateAttr("PartName", "/"+partName)
	override.CreateAttr("ContentType", "application/vnd.openxmlformats-officedocument.presentationml.slide+xml")
	return d.setPart("[Content_Types].xml", doc)
}

func (d *Deck) addPresentationRel(partName string) (string, error) {
	const relsName = "ppt/_rels/presentation.xml.rels"
	doc, err := d.part(relsName)
	if err != nil {
		return "", err
	}
	maxID := 0
	for _, rel := range doc.FindElements("//Relationship") {
		id := rel.SelectAttrValue("Id", "")
		var n int
		if _, err := fmt.Sscanf(id, "rId%d", &n); err == nil && n > maxID {
			maxID = n
		}
	}
	rid := fmt.Sprintf("rId%d", maxID+1)
	rel := doc.Root().CreateElement("Relationship")
	rel.CreateAttr("Id", rid)
	rel.CreateAttr("Type", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide")
	rel.CreateAttr("Target", strings.TrimPrefix(partName, "ppt/"))
	if err := d.setPart(relsName, doc); err != nil {
		return "", err
	}
	return rid, nil
}

// appendSlideID adds the new slide to sldIdLst at the second-to-last
// position, preserving the closing slide at the end.
func (d *Deck) appendSlideID(rid string) error {
	doc, err := d.part("ppt/presentation.xml")
	if err != nil {
		return err
	}
	lst := doc.FindElement("//sldIdLst")
	if lst == nil {
		return fmt.Errorf("presentation.xml: no sldIdLst")
	}
	maxID := int64(255)
	for _, sldID := range lst.SelectElements("sldId") {
		if n, err := strconv.ParseInt(sldID.SelectAttrValue("id", "0"), 10, 64); err == nil && n > maxID {
			maxID = n
		}
	}
	sldID := etree.NewElement("sldId")
	sldID.Space = lst.Space
	sldID.CreateAttr("id", strconv.FormatInt(maxID+1, 10))
	sldID.CreateAttr("r:id", rid)

	existing := lst.SelectElements("sldId")
	if len(existing) == 0 {
		lst.AddChild(sldID)
	} else {
		lst.InsertChildAt(existing[len(existing)-1].Index(), sldID)
	}
	return d.setPart("ppt/presentation.xml", doc)
}
