package pdf

import (
	"sync"
	"testing"

	"github.com/Lllllllleong/pdfnarration/internal/pdf/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolver interface {
	Resolve() (any, error)
}

func TestDocument_Type0FontAndEmptyPage(t *testing.T) {
	doc, err := NewLibrary().Open(pdftest.TwoPageDocument())
	require.NoError(t, err)
	require.Equal(t, 2, doc.PageCount())

	text, err := doc.ExtractPageText(0)
	require.NoError(t, err)
	assert.Equal(t, "Hi", text)

	text, err = doc.ExtractPageText(1)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDocument_MetadataIndirectEntries(t *testing.T) {
	doc, err := NewLibrary().Open(pdftest.TwoPageDocument())
	require.NoError(t, err)

	meta, err := doc.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "Fixture Author", meta["Author"])

	lazy, ok := meta["Title"].(resolver)
	require.True(t, ok, "indirect Title should be returned unresolved, got %T", meta["Title"])
	title, err := lazy.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Indirect Title", title)
}

func TestDocument_InheritedSimpleFontWithDifferences(t *testing.T) {
	raw := pdftest.NewBuilder().
		Object(1, "<< /Type /Catalog /Pages "+pdftest.Ref(2)+" >>").
		Object(2, "<< /Type /Pages /Kids ["+pdftest.Ref(3)+"] /Count 1 /Resources << /Font << /F2 "+pdftest.Ref(4)+" >> >> >>").
		Object(3, "<< /Type /Page /Parent "+pdftest.Ref(2)+" /MediaBox [0 0 612 792] /Contents "+pdftest.Ref(5)+" >>").
		Object(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding << /Type /Encoding /BaseEncoding /WinAnsiEncoding /Differences [65 /eacute /uni2192] >> >>").
		Stream(5, "", `BT /F2 10 Tf (AB \222s) Tj ET`).
		Bytes(1, 0)

	doc, err := NewLibrary().Open(raw)
	require.NoError(t, err)

	text, err := doc.ExtractPageText(0)
	require.NoError(t, err)
	assert.Equal(t, "é→ ’s", text)

	meta, err := doc.Metadata()
	require.NoError(t, err)
	assert.Empty(t, meta)
}

func TestDocument_ConcurrentPageReads(t *testing.T) {
	doc, err := NewLibrary().Open(pdftest.TwoPageDocument())
	require.NoError(t, err)

	var wg sync.WaitGroup
	texts := make([]string, 8)
	for i := range texts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			texts[i], _ = doc.ExtractPageText(i % 2)
		}(i)
	}
	wg.Wait()

	for i, text := range texts {
		if i%2 == 0 {
			assert.Equal(t, "Hi", text)
		} else {
			assert.Empty(t, text)
		}
	}
}
