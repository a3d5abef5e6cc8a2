package pdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_ShowOperators(t *testing.T) {
	content := []byte(`BT
/F1 12 Tf
72 712 Td
(Hello World) Tj
0 -14 Td
[(Engin) 20 (eering) -300 (Report)] TJ
T*
(Escaped \(parens\) and \\ slash) Tj
ET`)

	text, err := ExtractText(content)
	require.NoError(t, err)
	assert.Equal(t, "Hello World\nEngineering Report\nEscaped (parens) and \\ slash", text)
}

func TestExtractText_HexAndOctal(t *testing.T) {
	content := []byte(`BT <48656C6C6F> Tj ( \101\102C) Tj ET`)

	text, err := ExtractText(content)
	require.NoError(t, err)
	assert.Equal(t, "Hello ABC", text)
}

func TestExtractText_UTF16String(t *testing.T) {
	content := []byte(`BT <FEFF00480069> Tj ET`)

	text, err := ExtractText(content)
	require.NoError(t, err)
	assert.Equal(t, "Hi", text)
}

func TestExtractText_QuoteOperatorsStartNewLines(t *testing.T) {
	content := []byte(`BT (first) Tj (second) ' 1 2 (third) " ET`)

	text, err := ExtractText(content)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\nthird", text)
}

func TestExtractText_TextMatrixLineChange(t *testing.T) {
	content := []byte(`BT
1 0 0 1 72 700 Tm (top) Tj
1 0 0 1 200 700 Tm (right) Tj
1 0 0 1 72 680 Tm (below) Tj
ET`)

	text, err := ExtractText(content)
	require.NoError(t, err)
	assert.Equal(t, "top right\nbelow", text)
}

func TestExtractText_IgnoresGraphicsAndInlineImages(t *testing.T) {
	content := []byte(`q 1 0 0 1 0 0 cm 0 0 100 100 re f Q
/Span <</MCID 0>> BDC
BI /W 2 /H 2 /BPC 8 /CS /G ID ` + "\x00\xff(\x01" + ` EI
BT (visible) Tj ET
EMC
% a comment (not text) Tj
`)

	text, err := ExtractText(content)
	require.NoError(t, err)
	assert.Equal(t, "visible", text)
}

func TestExtractText_NoTextOperators(t *testing.T) {
	text, err := ExtractText([]byte(`q 0 0 612 792 re W n Q`))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractText_UnterminatedStringKeepsEarlierText(t *testing.T) {
	text, err := ExtractText([]byte(`BT (first line) Tj 0 -14 Td (second) Tj T* (never closed Tj ET`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated string literal")
	assert.Equal(t, "first line\nsecond", text)
}

func TestExtractText_BadHexKeepsEarlierText(t *testing.T) {
	text, err := ExtractText([]byte(`BT (kept) Tj <4G> Tj (dropped) Tj ET`))
	require.Error(t, err)
	assert.Equal(t, "kept", text)
}

func TestExtractText_FontSelection(t *testing.T) {
	fonts := map[string]*font{
		"F1": {codeWidth: 2, toUnicode: parseCMap([]byte(`1 begincodespacerange <0000> <FFFF> endcodespacerange
2 beginbfchar <0011> <0048> <0012> <0069> endbfchar`))},
		"F2": {codeWidth: 1, base: baseEncoding("WinAnsiEncoding")},
	}
	content := []byte(`BT /F1 12 Tf <00110012> Tj /F2 10 Tf ( caf\351 \222) Tj /F9 10 Tf (raw) Tj ET`)

	text, err := extractText(content, fonts)
	require.NoError(t, err)
	assert.Equal(t, "Hi café ’raw", text)
}

func TestDecodeText_PDFDocEncoding(t *testing.T) {
	assert.Equal(t, "• café", decodeText([]byte{0x80, ' ', 'c', 'a', 'f', 0xE9}))
	assert.Equal(t, "ab", decodeText([]byte{'a', 0x01, 'b'}))
}

func TestLibraryOpen_RejectsNonPDF(t *testing.T) {
	lib := NewLibrary()

	_, err := lib.Open(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = lib.Open([]byte("this is definitely not a pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
