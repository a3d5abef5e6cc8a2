package pdf

import (
	"unicode/utf16"
)

// maxRangeSize bounds a single bfrange so a corrupt CMap cannot allocate unbounded maps.
const maxRangeSize = 1 << 16

// toUnicodeMap maps character codes to text, as read from a /ToUnicode CMap.
type toUnicodeMap struct {
	codeWidth int // bytes per code from the codespace range; 0 if none was declared
	entries   map[uint32]string
}

// parseCMap reads the codespace, bfchar and bfrange sections of a ToUnicode CMap.
// Unknown operators are ignored; a tokenizer error ends parsing with what was read so far.
func parseCMap(data []byte) *toUnicodeMap {
	m := &toUnicodeMap{entries: map[uint32]string{}}
	s := &scanner{data: data}
	var operands []operand

	for {
		tok, err := s.next()
		if err != nil || tok.kind == tokEOF {
			return m
		}
		switch tok.kind {
		case tokArrayStart:
			elems, err := s.readArray()
			if err != nil {
				return m
			}
			operands = append(operands, operand{tok: tok, elems: elems})
		case tokDictStart:
			if err := s.skipDict(); err != nil {
				return m
			}
		case tokOperator:
			switch tok.text {
			case "endcodespacerange":
				if len(operands) > 0 && operands[0].tok.kind == tokString && m.codeWidth == 0 {
					m.codeWidth = len(operands[0].tok.raw)
				}
			case "endbfchar":
				m.addChars(operands)
			case "endbfrange":
				m.addRanges(operands)
			}
			operands = operands[:0]
		default:
			operands = append(operands, operand{tok: tok})
		}
	}
}

func (m *toUnicodeMap) addChars(operands []operand) {
	for i := 0; i+1 < len(operands); i += 2 {
		src, dst := operands[i].tok, operands[i+1].tok
		if src.kind != tokString || dst.kind != tokString {
			continue
		}
		m.entries[codeOf(src.raw)] = utf16BE(dst.raw)
	}
}

func (m *toUnicodeMap) addRanges(operands []operand) {
	for i := 0; i+2 < len(operands); i += 3 {
		lo, hi, dst := operands[i].tok, operands[i+1].tok, operands[i+2]
		if lo.kind != tokString || hi.kind != tokString {
			continue
		}
		start, end := codeOf(lo.raw), codeOf(hi.raw)
		if end < start || end-start >= maxRangeSize {
			continue
		}

		if dst.tok.kind == tokArrayStart {
			for j, el := range dst.elems {
				code := start + uint32(j)
				if code > end {
					break
				}
				if el.kind == tokString {
					m.entries[code] = utf16BE(el.raw)
				}
			}
			continue
		}
		if dst.tok.kind != tokString || len(dst.tok.raw) == 0 {
			continue
		}
		base := append([]byte(nil), dst.tok.raw...)
		for code := start; code <= end; code++ {
			m.entries[code] = utf16BE(base)
			incrementLast(base)
		}
	}
}

// incrementLast adds one to the last UTF-16 unit of b, as bfrange destinations do.
func incrementLast(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return
		}
	}
}

func codeOf(raw []byte) uint32 {
	var code uint32
	for _, c := range raw {
		code = code<<8 | uint32(c)
	}
	return code
}

func utf16BE(raw []byte) string {
	if len(raw) == 1 {
		return string(rune(raw[0]))
	}
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
	}
	return string(utf16.Decode(units))
}
