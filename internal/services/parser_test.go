package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/Lllllllleong/pdfnarration/internal/pdf/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PagesInOrderWithNoTextMarkers(t *testing.T) {
	doc := &fakeDoc{
		pages:   []string{"first page", "   ", "third page", "fourth"},
		pageErr: map[int]error{3: errors.New("bad font")},
	}
	parser := NewParser(fakeLibrary{doc: doc}, 2)

	got, err := parser.Parse(context.Background(), []byte("%PDF"))
	require.NoError(t, err)

	require.Equal(t, 4, got.PageCount)
	require.Len(t, got.Pages, 4)
	for i, page := range got.Pages {
		assert.Equal(t, i+1, page.Number)
	}
	assert.Equal(t, models.PageResult{Number: 1, Text: "first page"}, got.Pages[0])
	assert.True(t, got.Pages[1].NoText)
	assert.Equal(t, "third page", got.Pages[2].Text)
	assert.True(t, got.Pages[3].NoText)
	assert.Equal(t, []string{
		"page 2: no text detected",
		"page 4: text extraction failed: bad font",
	}, got.Warnings)
}

func TestParse_KeepsTextBeforeDamage(t *testing.T) {
	doc := &fakeDoc{
		pages:   []string{"", ""},
		pageErr: map[int]error{0: errors.New("unterminated string literal"), 1: errors.New("bad hex")},
		partial: map[int]string{0: "  Section 1 intro  "},
	}

	got, err := NewParser(fakeLibrary{doc: doc}, 1).Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.PageResult{Number: 1, Text: "Section 1 intro"}, got.Pages[0])
	assert.True(t, got.Pages[1].NoText)
	assert.Equal(t, []string{
		"page 1: text extraction incomplete: unterminated string literal",
		"page 2: text extraction failed: bad hex",
	}, got.Warnings)
}

func TestParse_CancelledContext(t *testing.T) {
	doc := &fakeDoc{pages: []string{"a", "b", "c"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := NewParser(fakeLibrary{doc: doc}, 2).Parse(ctx, nil)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindCancelled, KindOf(err))
	assert.True(t, KindOf(err).Retryable())
}

func TestParse_PDFDocument(t *testing.T) {
	got, err := NewPDFParser(2).Parse(context.Background(), pdftest.TwoPageDocument())
	require.NoError(t, err)

	require.Equal(t, 2, got.PageCount)
	assert.Equal(t, models.PageResult{Number: 1, Text: "Hi"}, got.Pages[0])
	assert.Equal(t, models.PageResult{Number: 2, NoText: true}, got.Pages[1])
	assert.Equal(t, []string{"page 2: no text detected"}, got.Warnings)

	require.NotNil(t, got.Metadata["Title"])
	assert.Equal(t, "Indirect Title", *got.Metadata["Title"])
	require.NotNil(t, got.Metadata["Author"])
	assert.Equal(t, "Fixture Author", *got.Metadata["Author"])
	assert.Nil(t, got.Metadata["Subject"])
	assert.Equal(t, "--- PAGE 1 ---\nHi\n\n--- PAGE 2 (No text detected) ---", JoinPages(got.Pages))
}

func TestParse_MalformedDocument(t *testing.T) {
	parser := NewParser(fakeLibrary{err: errors.New("no header")}, 4)

	_, err := parser.Parse(context.Background(), []byte("junk"))
	require.Error(t, err)
	assert.Equal(t, KindMalformedDocument, KindOf(err))
}

func TestParse_MetadataResolvesLazyValues(t *testing.T) {
	inner := &lazyValue{value: "Bridge Inspection"}
	doc := &fakeDoc{
		pages: []string{"text"},
		meta: map[string]any{
			"Title":    &lazyValue{value: inner},
			"Author":   "J. Smith",
			"/Custom":  42,
			"Trapped":  true,
			"Subject":  nil,
			"Producer": &lazyValue{err: errors.New("object 12 missing")},
		},
	}
	parser := NewParser(fakeLibrary{doc: doc}, 1)

	got, err := parser.Parse(context.Background(), nil)
	require.NoError(t, err)

	for _, key := range StandardMetadataKeys {
		assert.Contains(t, got.Metadata, key)
	}
	require.NotNil(t, got.Metadata["Title"])
	assert.Equal(t, "Bridge Inspection", *got.Metadata["Title"])
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "J. Smith", *got.Metadata["Author"])
	assert.Equal(t, "42", *got.Metadata["Custom"])
	assert.Equal(t, "true", *got.Metadata["Trapped"])
	assert.Nil(t, got.Metadata["Subject"])
	assert.Nil(t, got.Metadata["Producer"])
	assert.Nil(t, got.Metadata["Keywords"])
	assert.Contains(t, got.Warnings, "metadata Producer: object 12 missing")
}

type selfRef struct{}

func (s selfRef) Resolve() (any, error) { return s, nil }

func TestParse_MetadataReferenceCycleIsBounded(t *testing.T) {
	doc := &fakeDoc{pages: []string{"x"}, meta: map[string]any{"Title": selfRef{}}}

	got, err := NewParser(fakeLibrary{doc: doc}, 1).Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got.Metadata["Title"])
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "reference chain deeper than")
}

func TestParse_MetadataUnavailable(t *testing.T) {
	doc := &fakeDoc{pages: []string{"x"}, metaErr: errors.New("info dict broken")}

	got, err := NewParser(fakeLibrary{doc: doc}, 1).Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got.Metadata, len(StandardMetadataKeys))
	assert.Equal(t, []string{"metadata unavailable: info dict broken"}, got.Warnings)
}

func TestJoinPages(t *testing.T) {
	pages := []models.PageResult{
		{Number: 1, Text: "Hello"},
		{Number: 2, NoText: true},
		{Number: 3, Text: "Bye"},
	}
	assert.Equal(t,
		"--- PAGE 1 ---\nHello\n\n--- PAGE 2 (No text detected) ---\n\n--- PAGE 3 ---\nBye",
		JoinPages(pages))
	assert.Empty(t, JoinPages(nil))
}

func TestHasText(t *testing.T) {
	assert.False(t, HasText(&models.ExtractedDocument{Pages: []models.PageResult{{Number: 1, NoText: true}}}))
	assert.True(t, HasText(&models.ExtractedDocument{Pages: []models.PageResult{{Number: 1, NoText: true}, {Number: 2, Text: "a"}}}))
}
