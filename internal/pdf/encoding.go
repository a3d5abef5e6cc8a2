package pdf

import (
	"strings"
	"unicode/utf16"
)

// pdfDocEncoding maps the 0x80-0x9F range of PDFDocEncoding, where it differs from Latin-1.
var pdfDocEncoding = map[byte]rune{
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…', 0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰', 0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ', 0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł', 0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž',
}

// decodeText turns the bytes of a shown string into text. UTF-16BE strings carry a
// byte order mark; everything else is read as PDFDocEncoding. Control bytes are dropped.
func decodeText(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		units := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return string(utf16.Decode(units))
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for _, c := range raw {
		switch {
		case c == '\t' || c == '\n' || c == '\r':
			sb.WriteByte(' ')
		case c >= 0x20 && c < 0x7F:
			sb.WriteByte(c)
		case c >= 0x80 && c <= 0x9E:
			if r, ok := pdfDocEncoding[c]; ok {
				sb.WriteRune(r)
			}
		case c >= 0xA0:
			sb.WriteRune(rune(c))
		}
	}
	return sb.String()
}
