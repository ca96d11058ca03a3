package value

import (
	"unicode/utf16"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
)

// utf16Codec is a little-endian UTF-16 codec from x/text; the conversions
// below use unicode/utf16 directly and do not go through it. The host (Go)
// side of this engine is always UTF-8; every JS String is UTF-16
// code units per spec §3, so every string literal, host callback argument,
// and console-output path crosses this boundary exactly once.
var utf16Codec = xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)

// UTF8ToUTF16 converts a Go string to ECMAScript UTF-16 code units with the
// standard library's utf16.Encode. Unpaired surrogates do not survive:
// []rune(s) turns invalid UTF-8 (an encoded surrogate included) into U+FFFD,
// and utf16.Encode maps any surrogate code point to U+FFFD.
func UTF8ToUTF16(s string) []uint16 {
	if s == "" {
		return nil
	}
	return utf16.Encode([]rune(s))
}

// UTF16ToUTF8 converts ECMAScript UTF-16 code units back to a Go string for
// host-side use (error messages, console sinks, JSON bridging). Lone
// surrogates decode to the replacement character, matching
// unicode/utf16.Decode's behavior and the teacher's console-sink path,
// which never needs to round-trip invalid surrogate pairs.
func UTF16ToUTF8(units []uint16) string {
	if len(units) == 0 {
		return ""
	}
	runes := utf16.Decode(units)
	buf := make([]byte, 0, len(runes)*utf8.UTFMax)
	for _, r := range runes {
		buf = utf8.AppendRune(buf, r)
	}
	return string(buf)
}

// Length returns the UTF-16 code-unit length of a String Value: the value
// JS's `.length` property reports, which counts surrogate halves rather
// than Unicode code points.
func (v Value) Length() int {
	if v.kind != KindString {
		panic("value: Length on non-string Value")
	}
	return len(v.ref.(*StringData).units)
}

// CharCodeAt returns the UTF-16 code unit at index i, and whether i was in
// range. Out-of-range access is how String.prototype.charCodeAt reports
// NaN: the caller turns the false into NaN, this function just bounds-checks.
func (v Value) CharCodeAt(i int) (uint16, bool) {
	units := v.StringUnits()
	if i < 0 || i >= len(units) {
		return 0, false
	}
	return units[i], true
}

// Concat returns a new String Value that is the UTF-16 concatenation of a
// and b, as the `+` operator and Array.prototype.join use.
func Concat(a, b Value) Value {
	au, bu := a.StringUnits(), b.StringUnits()
	out := make([]uint16, 0, len(au)+len(bu))
	out = append(out, au...)
	out = append(out, bu...)
	return StringFromUnits(out)
}
