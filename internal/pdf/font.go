package pdf

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

// font decodes the codes of strings shown while the font is selected with Tf.
type font struct {
	codeWidth   int // 1 for simple fonts, usually 2 for Type0
	toUnicode   *toUnicodeMap
	differences map[byte]string
	base        *charmap.Charmap // nil means PDFDocEncoding
}

// decode maps raw string bytes to text. A nil font falls back to decodeText.
func (f *font) decode(raw []byte) string {
	if f == nil {
		return decodeText(raw)
	}
	width := f.codeWidth
	if width < 1 {
		width = 1
	}

	var sb strings.Builder
	for i := 0; i < len(raw); i += width {
		end := min(i+width, len(raw))
		sb.WriteString(f.lookup(raw[i:end]))
	}
	return sb.String()
}

func (f *font) lookup(code []byte) string {
	if f.toUnicode != nil {
		if s, ok := f.toUnicode.entries[codeOf(code)]; ok {
			return s
		}
	}
	// Composite fonts have no usable fallback without a ToUnicode map.
	if f.codeWidth > 1 || len(code) != 1 {
		return ""
	}

	c := code[0]
	if s, ok := f.differences[c]; ok {
		return s
	}
	if f.base == nil {
		return decodeText(code)
	}
	r := f.base.DecodeByte(c)
	switch {
	case r == utf8.RuneError:
		return ""
	case r == '\t' || r == '\n' || r == '\r':
		return " "
	case r < 0x20 || r == 0x7F:
		return ""
	}
	return string(r)
}

// baseEncoding returns the single-byte table for a named PDF encoding.
func baseEncoding(name string) *charmap.Charmap {
	switch name {
	case "WinAnsiEncoding", "StandardEncoding":
		return charmap.Windows1252
	case "MacRomanEncoding":
		return charmap.Macintosh
	}
	return nil
}

// loadFont reads a font dictionary. Callers must hold the document lock.
func loadFont(ctx *model.Context, obj types.Object) *font {
	d, err := ctx.DereferenceDict(obj)
	if err != nil || d == nil {
		return nil
	}

	f := &font{codeWidth: 1}
	if subtype, _ := nameOf(ctx, d["Subtype"]); subtype == "Type0" {
		f.codeWidth = 2
	}

	if tu, ok := d["ToUnicode"]; ok {
		if sd, _, err := ctx.DereferenceStreamDict(tu); err == nil && sd != nil {
			if err := sd.Decode(); err == nil {
				f.toUnicode = parseCMap(sd.Content)
				if f.codeWidth > 1 && f.toUnicode.codeWidth > 0 {
					f.codeWidth = f.toUnicode.codeWidth
				}
			}
		}
	}
	if f.codeWidth > 1 {
		return f
	}

	enc, err := ctx.Dereference(d["Encoding"])
	if err != nil {
		return f
	}
	switch e := enc.(type) {
	case types.Name:
		f.base = baseEncoding(string(e))
	case types.Dict:
		if name, ok := nameOf(ctx, e["BaseEncoding"]); ok {
			f.base = baseEncoding(name)
		}
		f.differences = readDifferences(ctx, e["Differences"])
	}
	return f
}

func nameOf(ctx *model.Context, obj types.Object) (string, bool) {
	o, err := ctx.Dereference(obj)
	if err != nil {
		return "", false
	}
	n, ok := o.(types.Name)
	return string(n), ok
}

// readDifferences expands a /Differences array of codes followed by glyph names.
func readDifferences(ctx *model.Context, obj types.Object) map[byte]string {
	arr, err := ctx.DereferenceArray(obj)
	if err != nil || len(arr) == 0 {
		return nil
	}
	out := map[byte]string{}
	code := -1
	for _, el := range arr {
		switch v := el.(type) {
		case types.Integer:
			code = int(v)
		case types.Name:
			if code < 0 || code > 0xFF {
				continue
			}
			if s, ok := glyphText(string(v)); ok {
				out[byte(code)] = s
			}
			code++
		}
	}
	return out
}

// glyphText maps a glyph name to text. Besides the table below it understands
// uniXXXX and uXXXX[XX] names and single character names.
func glyphText(name string) (string, bool) {
	if s, ok := glyphNames[name]; ok {
		return s, true
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
		if s, ok := glyphNames[name]; ok {
			return s, true
		}
	}
	if utf8.RuneCountInString(name) == 1 {
		return name, true
	}

	hex := ""
	switch {
	case strings.HasPrefix(name, "uni") && len(name) >= 7:
		hex = name[3:7]
	case strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7:
		hex = name[1:]
	}
	if hex == "" {
		return "", false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return "", false
	}
	return string(rune(v)), true
}

var glyphNames = map[string]string{
	"space": " ", "exclam": "!", "quotedbl": "\"", "numbersign": "#", "dollar": "$",
	"percent": "%", "ampersand": "&", "quotesingle": "'", "quoteright": "’", "quoteleft": "‘",
	"parenleft": "(", "parenright": ")", "asterisk": "*", "plus": "+", "comma": ",",
	"hyphen": "-", "minus": "−", "period": ".", "slash": "/", "colon": ":", "semicolon": ";",
	"less": "<", "equal": "=", "greater": ">", "question": "?", "at": "@",
	"bracketleft": "[", "backslash": "\\", "bracketright": "]", "asciicircum": "^",
	"underscore": "_", "grave": "`", "braceleft": "{", "bar": "|", "braceright": "}",
	"asciitilde": "~",
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"bullet": "•", "endash": "–", "emdash": "—", "ellipsis": "…", "dagger": "†",
	"daggerdbl": "‡", "quotedblleft": "“", "quotedblright": "”", "quotesinglbase": "‚",
	"quotedblbase": "„", "guillemotleft": "«", "guillemotright": "»", "degree": "°",
	"copyright": "©", "registered": "®", "trademark": "™", "section": "§", "paragraph": "¶",
	"periodcentered": "·", "multiply": "×", "divide": "÷", "plusminus": "±", "mu": "µ",
	"fi": "fi", "fl": "fl", "ff": "ff", "ffi": "ffi", "ffl": "ffl",
	"Euro": "€", "sterling": "£", "yen": "¥", "cent": "¢",
	"eacute": "é", "egrave": "è", "ecircumflex": "ê", "edieresis": "ë",
	"aacute": "á", "agrave": "à", "acircumflex": "â", "adieresis": "ä", "aring": "å",
	"iacute": "í", "oacute": "ó", "odieresis": "ö", "uacute": "ú", "udieresis": "ü",
	"ccedilla": "ç", "ntilde": "ñ", "germandbls": "ß", "Eacute": "É", "Adieresis": "Ä",
	"Odieresis": "Ö", "Udieresis": "Ü", "nbspace": " ", "nonbreakingspace": " ",
}
