package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCMap_CharsAndRanges(t *testing.T) {
	m := parseCMap([]byte(`/CIDInit /ProcSet findresource begin
12 dict begin begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
1 begincodespacerange <0000> <FFFF> endcodespacerange
1 beginbfchar <0003> <0020> endbfchar
2 beginbfrange
<0041> <0043> <0061>
<0050> <0051> [<0058> <00590059>]
endbfrange
endcmap end end`))

	assert.Equal(t, 2, m.codeWidth)
	assert.Equal(t, map[uint32]string{
		0x03: " ",
		0x41: "a", 0x42: "b", 0x43: "c",
		0x50: "X", 0x51: "YY",
	}, m.entries)
}

func TestParseCMap_SurrogatePairsAndOversizedRange(t *testing.T) {
	m := parseCMap([]byte(`1 beginbfchar <01> <D83DDE00> endbfchar
1 beginbfrange <0000> <FFFFFF> <0041> endbfrange`))

	assert.Equal(t, 0, m.codeWidth)
	assert.Equal(t, map[uint32]string{0x01: "😀"}, m.entries)
}

func TestParseCMap_TruncatedKeepsEarlierEntries(t *testing.T) {
	m := parseCMap([]byte(`1 beginbfchar <01> <0041> endbfchar
1 beginbfchar <02> <0042`))

	assert.Equal(t, map[uint32]string{0x01: "A"}, m.entries)
}

func TestFontDecode(t *testing.T) {
	composite := &font{codeWidth: 2, toUnicode: &toUnicodeMap{entries: map[uint32]string{0x0011: "H"}}}
	assert.Equal(t, "H", composite.decode([]byte{0x00, 0x11, 0x00, 0x99}), "unmapped composite codes are dropped")

	simple := &font{
		codeWidth:   1,
		differences: map[byte]string{'A': "é"},
		base:        baseEncoding("MacRomanEncoding"),
	}
	assert.Equal(t, "éB•", simple.decode([]byte{'A', 'B', 0xA5}))

	var none *font
	assert.Equal(t, "plain", none.decode([]byte("plain")))
}

func TestGlyphText(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"A", "A", true},
		{"eacute", "é", true},
		{"quotedblleft", "“", true},
		{"uni2192", "→", true},
		{"u1F600", "😀", true},
		{"one.oldstyle", "1", true},
		{"g123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := glyphText(tt.name)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
