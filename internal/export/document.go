package export

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/jward/annex/internal/store"
)

// Document is the external-annotations XML schema: one document per
// top-level class, one item per qualified signature, one annotation
// element per record. The merger reads the same schema back, so the
// structure lives here alongside the writer.
type Document struct {
	XMLName xml.Name `xml:"root"`
	Items   []Item   `xml:"item"`
}

// Item records one signature's annotations. Name is the signature's
// canonical textual form.
type Item struct {
	Name        string          `xml:"name,attr"`
	Annotations []AnnotationDoc `xml:"annotation"`
}

// AnnotationDoc is one annotation record with its attribute values.
type AnnotationDoc struct {
	Name string `xml:"name,attr"`
	Vals []Val  `xml:"val"`
}

// Val is a single attribute; Val holds the literal rendering.
type Val struct {
	Name string `xml:"name,attr"`
	Val  string `xml:"val,attr"`
}

// BuildDocuments groups the store's signatures by top-level class and
// renders one Document per class, keyed by the class's fully-qualified
// name. Items are sorted by signature text, making output independent of
// store insertion order.
func BuildDocuments(s *store.Store) map[string]*Document {
	docs := make(map[string]*Document)
	for _, sig := range s.Signatures() { // already sorted
		recs := s.Records(sig)
		if len(recs) == 0 {
			continue
		}
		item := Item{Name: sig.String()}
		for _, rec := range recs {
			ann := AnnotationDoc{Name: rec.Type}
			for _, attr := range rec.Attrs {
				ann.Vals = append(ann.Vals, Val{Name: attr.Name, Val: attr.Value.Text})
			}
			item.Annotations = append(item.Annotations, ann)
		}

		top := sig.TopLevelClass()
		doc := docs[top]
		if doc == nil {
			doc = &Document{}
			docs[top] = doc
		}
		doc.Items = append(doc.Items, item)
	}
	return docs
}

// EncodeDocument renders a document with a stable layout.
func EncodeDocument(doc *Document) ([]byte, error) {
	sort.Slice(doc.Items, func(i, j int) bool { return doc.Items[i].Name < doc.Items[j].Name })
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode annotations document: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// DecodeDocument parses a document produced by EncodeDocument (or any
// structurally compatible external source).
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EntryPath maps a top-level class to its archive entry name:
// foo.bar.Baz → foo/bar/Baz.annotations.xml.
func EntryPath(topLevelClass string) string {
	if dot := strings.LastIndexByte(topLevelClass, '.'); dot >= 0 {
		pkg := strings.ReplaceAll(topLevelClass[:dot], ".", "/")
		return pkg + "/" + topLevelClass[dot+1:] + ".annotations.xml"
	}
	return topLevelClass + ".annotations.xml"
}
