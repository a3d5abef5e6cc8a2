// Package pdf opens PDF documents with pdfcpu and exposes page count, the info
// dictionary and per-page text.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrMalformed is returned when the bytes cannot be read as a PDF document.
var ErrMalformed = errors.New("malformed PDF document")

func init() {
	// Cloud Functions only allow writes under /tmp; pdfcpu must not create its config dir.
	api.DisableConfigDir()
}

// Library opens documents from memory.
type Library struct {
	conf *model.Configuration
}

// NewLibrary returns a Library that reads documents in relaxed validation mode.
func NewLibrary() *Library {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Library{conf: conf}
}

// Document is an opened PDF. The pdfcpu context is not safe for concurrent use,
// so every access to it goes through mu.
type Document struct {
	mu    sync.Mutex
	ctx   *model.Context
	fonts map[int]*font // by object number
}

// Open reads raw as a PDF document.
func (l *Library) Open(raw []byte) (doc *Document, err error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	defer func() {
		// pdfcpu panics on some corrupt cross-reference tables.
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	ctx, err := api.ReadContext(bytes.NewReader(raw), l.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: failed to get page count: %v", ErrMalformed, err)
	}
	return &Document{ctx: ctx, fonts: map[int]*font{}}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx.PageCount
}

// ExtractPageText returns the text of the page at the zero-based pageIndex.
// A page without a content stream yields an empty string. When the content
// stream is damaged part way, the text before the damage is returned with the error.
func (d *Document) ExtractPageText(pageIndex int) (string, error) {
	content, fonts, err := d.pageContent(pageIndex + 1)
	if err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", nil
	}
	text, err := extractText(content, fonts)
	if err != nil {
		return text, fmt.Errorf("page %d: %w", pageIndex+1, err)
	}
	return text, nil
}

func (d *Document) pageContent(pageNr int) (content []byte, fonts map[string]*font, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			content, fonts, err = nil, nil, fmt.Errorf("page %d: corrupt content: %v", pageNr, r)
		}
	}()

	pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d: %w", pageNr, err)
	}
	if pageDict == nil {
		return nil, nil, fmt.Errorf("page %d: page not found", pageNr)
	}
	if _, ok := pageDict["Contents"]; !ok {
		return nil, nil, nil
	}

	r, err := pdfcpu.ExtractPageContent(d.ctx, pageNr)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d: %w", pageNr, err)
	}
	if r == nil {
		return nil, nil, nil
	}
	content, err = io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d: failed to read content: %w", pageNr, err)
	}
	return content, d.pageFonts(pageDict), nil
}

// maxParentDepth bounds the walk up the page tree for inherited resources.
const maxParentDepth = 32

// pageFonts loads the fonts named in the page resources, inherited from the page
// tree when the page has none of its own. Callers must hold mu.
func (d *Document) pageFonts(pageDict types.Dict) map[string]*font {
	node := pageDict
	var resources types.Dict
	for i := 0; node != nil && i < maxParentDepth; i++ {
		if obj, ok := node["Resources"]; ok {
			resources, _ = d.ctx.DereferenceDict(obj)
			break
		}
		parent, err := d.ctx.DereferenceDict(node["Parent"])
		if err != nil {
			break
		}
		node = parent
	}
	if resources == nil {
		return nil
	}

	fontDict, err := d.ctx.DereferenceDict(resources["Font"])
	if err != nil || fontDict == nil {
		return nil
	}
	fonts := make(map[string]*font, len(fontDict))
	for name, obj := range fontDict {
		ref, indirect := obj.(types.IndirectRef)
		if indirect {
			if f, ok := d.fonts[int(ref.ObjectNumber)]; ok {
				fonts[name] = f
				continue
			}
		}
		f := loadFont(d.ctx, obj)
		if f == nil {
			continue
		}
		if indirect {
			d.fonts[int(ref.ObjectNumber)] = f
		}
		fonts[name] = f
	}
	return fonts
}

// Metadata returns the entries of the document info dictionary. Entries stored as
// indirect objects are returned unresolved as models.LazyValue implementations.
func (d *Document) Metadata() (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := map[string]any{}
	if d.ctx.Info == nil {
		return out, nil
	}
	info, err := d.ctx.DereferenceDict(*d.ctx.Info)
	if err != nil {
		return nil, fmt.Errorf("failed to read info dictionary: %w", err)
	}
	for key, obj := range info {
		out[key] = d.value(obj)
	}
	return out, nil
}

// value converts a pdfcpu object into a plain Go value. Callers must hold mu.
func (d *Document) value(obj types.Object) any {
	switch v := obj.(type) {
	case nil:
		return nil
	case types.IndirectRef:
		return &indirectValue{doc: d, ref: v}
	case *types.IndirectRef:
		if v == nil {
			return nil
		}
		return &indirectValue{doc: d, ref: *v}
	case types.StringLiteral:
		if s, err := types.StringLiteralToString(v); err == nil {
			return s
		}
		return string(v)
	case types.HexLiteral:
		if s, err := types.HexLiteralToString(v); err == nil {
			return s
		}
		return string(v)
	case types.Name:
		return string(v)
	case types.Integer:
		return int(v)
	case types.Float:
		return float64(v)
	case types.Boolean:
		return bool(v)
	default:
		return obj.String()
	}
}

// indirectValue is an info dictionary entry that points at another object.
type indirectValue struct {
	doc *Document
	ref types.IndirectRef
}

// Resolve dereferences the object. The result may itself be another reference.
func (v *indirectValue) Resolve() (any, error) {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()

	obj, err := v.doc.ctx.Dereference(v.ref)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference object %d: %w", int(v.ref.ObjectNumber), err)
	}
	return v.doc.value(obj), nil
}
