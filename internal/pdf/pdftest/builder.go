// Package pdftest builds small PDF files in memory for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
)

// Builder assembles numbered objects into a PDF file with a valid
// cross-reference table. Object numbers must run from 1 without gaps.
type Builder struct {
	objects map[int]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{objects: map[int]string{}}
}

// Ref formats an indirect reference to object num.
func Ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

// Object sets the body of object num, without the obj/endobj wrapper.
func (b *Builder) Object(num int, body string) *Builder {
	b.objects[num] = body
	return b
}

// Stream sets object num to a stream with the given dictionary entries and data.
// The Length entry is added.
func (b *Builder) Stream(num int, dict, data string) *Builder {
	b.objects[num] = fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
	return b
}

// Bytes writes the file. info may be 0 when the document has no info dictionary.
func (b *Builder) Bytes(root, info int) []byte {
	nums := make([]int, 0, len(b.objects))
	for n := range b.objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(nums)+1)
	for _, n := range nums {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, b.objects[n])
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(nums)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, n := range nums {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %s", len(nums)+1, Ref(root))
	if info > 0 {
		fmt.Fprintf(&buf, " /Info %s", Ref(info))
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// IdentityToUnicode is a ToUnicode CMap for two-byte codes mapping 0x0011 to "H"
// and 0x0012 to "i".
const IdentityToUnicode = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Fixture-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0011> <0048>
<0012> <0069>
endbfchar
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

// TwoPageDocument returns a document whose first page shows "Hi" through a Type0
// Identity-H font with a ToUnicode map, and whose second page has no content
// stream. The info dictionary stores Title as an indirect object holding
// "Indirect Title" and Author as a direct string "Fixture Author".
func TwoPageDocument() []byte {
	return NewBuilder().
		Object(1, "<< /Type /Catalog /Pages "+Ref(2)+" >>").
		Object(2, "<< /Type /Pages /Kids ["+Ref(3)+" "+Ref(4)+"] /Count 2 >>").
		Object(3, "<< /Type /Page /Parent "+Ref(2)+" /MediaBox [0 0 612 792] /Resources << /Font << /F1 "+Ref(5)+" >> >> /Contents "+Ref(6)+" >>").
		Object(4, "<< /Type /Page /Parent "+Ref(2)+" /MediaBox [0 0 612 792] >>").
		Object(5, "<< /Type /Font /Subtype /Type0 /BaseFont /FixtureSans /Encoding /Identity-H /DescendantFonts ["+Ref(7)+"] /ToUnicode "+Ref(8)+" >>").
		Stream(6, "", "BT /F1 12 Tf 72 700 Td <00110012> Tj ET").
		Object(7, "<< /Type /Font /Subtype /CIDFontType2 /BaseFont /FixtureSans /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /DW 1000 >>").
		Stream(8, "", IdentityToUnicode).
		Object(9, "(Indirect Title)").
		Object(10, "<< /Title "+Ref(9)+" /Author (Fixture Author) >>").
		Bytes(1, 10)
}
