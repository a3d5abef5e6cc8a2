package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokName
	tokOperator
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
)

type token struct {
	kind tokenKind
	text string // operator or name
	raw  []byte // decoded string bytes
	num  float64
}

// operand is one argument of a content stream operator. Arrays keep their
// flattened elements.
type operand struct {
	tok   token
	elems []token
}

// scanner tokenizes a page content stream.
type scanner struct {
	data []byte
	pos  int
}

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *scanner) skipSpaceAndComments() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *scanner) next() (token, error) {
	s.skipSpaceAndComments()
	if s.pos >= len(s.data) {
		return token{kind: tokEOF}, nil
	}

	c := s.data[s.pos]
	switch {
	case c == '(':
		raw, err := s.readLiteralString()
		return token{kind: tokString, raw: raw}, err
	case c == '<':
		if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
			s.pos += 2
			return token{kind: tokDictStart}, nil
		}
		raw, err := s.readHexString()
		return token{kind: tokString, raw: raw}, err
	case c == '>':
		if s.pos+1 < len(s.data) && s.data[s.pos+1] == '>' {
			s.pos += 2
			return token{kind: tokDictEnd}, nil
		}
		s.pos++
		return s.next()
	case c == '[':
		s.pos++
		return token{kind: tokArrayStart}, nil
	case c == ']':
		s.pos++
		return token{kind: tokArrayEnd}, nil
	case c == '{' || c == '}' || c == ')':
		s.pos++
		return s.next()
	case c == '/':
		s.pos++
		return token{kind: tokName, text: s.readRegular()}, nil
	}

	word := s.readRegular()
	if word == "" {
		s.pos++
		return s.next()
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, num: n, text: word}, nil
	}
	return token{kind: tokOperator, text: word}, nil
}

func (s *scanner) readRegular() string {
	start := s.pos
	for s.pos < len(s.data) && !isWhitespace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *scanner) readLiteralString() ([]byte, error) {
	s.pos++ // opening paren
	var out []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out, nil
			}
			out = append(out, c)
		case '\\':
			if s.pos >= len(s.data) {
				return out, nil
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data); i++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						s.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return out, fmt.Errorf("unterminated string literal")
}

func (s *scanner) readHexString() ([]byte, error) {
	s.pos++ // '<'
	var digits []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				v, err := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
				if err != nil {
					return nil, fmt.Errorf("invalid hex string: %w", err)
				}
				out[i] = byte(v)
			}
			return out, nil
		}
		if isWhitespace(c) {
			continue
		}
		digits = append(digits, c)
	}
	return nil, fmt.Errorf("unterminated hex string")
}

// skipInlineImage moves past the binary data of an inline image (BI ... ID <data> EI).
func (s *scanner) skipInlineImage() {
	idx := bytes.Index(s.data[s.pos:], []byte("ID"))
	if idx < 0 {
		s.pos = len(s.data)
		return
	}
	s.pos += idx + 2
	for s.pos < len(s.data) {
		idx := bytes.Index(s.data[s.pos:], []byte("EI"))
		if idx < 0 {
			s.pos = len(s.data)
			return
		}
		end := s.pos + idx
		before := end == 0 || isWhitespace(s.data[end-1])
		after := end+2 >= len(s.data) || isWhitespace(s.data[end+2])
		s.pos = end + 2
		if before && after {
			return
		}
	}
}

// textBuilder accumulates page text and inserts line breaks and word gaps.
type textBuilder struct {
	sb    strings.Builder
	lastY float64
	hasY  bool
	fonts map[string]*font
	font  *font
}

func (t *textBuilder) show(raw []byte) {
	t.sb.WriteString(t.font.decode(raw))
}

func (t *textBuilder) newline() {
	out := t.sb.String()
	if out == "" || strings.HasSuffix(out, "\n") {
		return
	}
	t.sb.WriteByte('\n')
}

func (t *textBuilder) space() {
	out := t.sb.String()
	if out == "" || strings.HasSuffix(out, "\n") || strings.HasSuffix(out, " ") {
		return
	}
	t.sb.WriteByte(' ')
}

// kerningGap is the TJ displacement (thousandths of an em) treated as a word break.
const kerningGap = -200

// ExtractText returns the text shown by a page content stream. Only text
// showing operators contribute; line moves become newlines. Strings are read as
// PDFDocEncoding or UTF-16BE.
func ExtractText(content []byte) (string, error) {
	return extractText(content, nil)
}

// extractText decodes shown strings with the font selected by Tf, looked up by
// resource name in fonts. On a tokenizer error the text read so far is returned
// together with the error.
func extractText(content []byte, fonts map[string]*font) (string, error) {
	s := &scanner{data: content}
	b := textBuilder{fonts: fonts}
	var operands []operand

	for {
		tok, err := s.next()
		if err != nil {
			return normalizeText(b.sb.String()), fmt.Errorf("offset %d: %w", s.pos, err)
		}
		switch tok.kind {
		case tokEOF:
			return normalizeText(b.sb.String()), nil
		case tokArrayStart:
			elems, err := s.readArray()
			if err != nil {
				return normalizeText(b.sb.String()), fmt.Errorf("offset %d: %w", s.pos, err)
			}
			operands = append(operands, operand{tok: tok, elems: elems})
		case tokDictStart:
			if err := s.skipDict(); err != nil {
				return normalizeText(b.sb.String()), fmt.Errorf("offset %d: %w", s.pos, err)
			}
			operands = append(operands, operand{tok: tok})
		case tokOperator:
			if tok.text == "BI" {
				s.skipInlineImage()
			} else {
				applyOperator(&b, tok.text, operands)
			}
			operands = operands[:0]
		default:
			operands = append(operands, operand{tok: tok})
		}
	}
}

func (s *scanner) readArray() ([]token, error) {
	var elems []token
	depth := 1
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			return elems, nil
		case tokArrayStart:
			depth++
		case tokArrayEnd:
			depth--
			if depth == 0 {
				return elems, nil
			}
		default:
			elems = append(elems, tok)
		}
	}
}

func (s *scanner) skipDict() error {
	depth := 1
	for depth > 0 {
		tok, err := s.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokEOF:
			return nil
		case tokDictStart:
			depth++
		case tokDictEnd:
			depth--
		}
	}
	return nil
}

func applyOperator(b *textBuilder, op string, operands []operand) {
	switch op {
	case "Tf":
		if len(operands) > 0 && operands[0].tok.kind == tokName {
			b.font = b.fonts[operands[0].tok.text]
		}
	case "Tj":
		if raw, ok := lastString(operands); ok {
			b.show(raw)
		}
	case "'", "\"":
		b.newline()
		if raw, ok := lastString(operands); ok {
			b.show(raw)
		}
	case "TJ":
		if len(operands) == 0 {
			return
		}
		for _, el := range operands[len(operands)-1].elems {
			switch el.kind {
			case tokString:
				b.show(el.raw)
			case tokNumber:
				if el.num < kerningGap {
					b.space()
				}
			}
		}
	case "Td", "TD":
		if len(operands) >= 2 && number(operands[1]) != 0 {
			b.newline()
		}
	case "T*":
		b.newline()
	case "Tm":
		if len(operands) < 6 {
			return
		}
		y := number(operands[5])
		if b.hasY && y != b.lastY {
			b.newline()
		} else if b.hasY {
			b.space()
		}
		b.lastY, b.hasY = y, true
	case "ET":
		b.space()
	}
}

func lastString(operands []operand) ([]byte, bool) {
	for i := len(operands) - 1; i >= 0; i-- {
		if operands[i].tok.kind == tokString {
			return operands[i].tok.raw, true
		}
	}
	return nil, false
}

func number(o operand) float64 {
	if o.tok.kind == tokNumber {
		return o.tok.num
	}
	return 0
}

func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
