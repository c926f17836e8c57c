package nbt

import (
	"math"
	"strconv"
	"strings"
)

// Stringify renders tag in the compact stringified text form, for example
//
//	{Name:"minecraft:stone",Properties:{axis:"y"}}
func Stringify(tag Tag) string {
	var sb strings.Builder
	w := snbtWriter{sb: &sb}
	w.tag(tag, 0)

	return sb.String()
}

// StringifyIndent renders tag with one field or list item per line, each
// nesting level prefixed by indent.
func StringifyIndent(tag Tag, indent string) string {
	var sb strings.Builder
	w := snbtWriter{sb: &sb, indent: indent}
	w.tag(tag, 0)

	return sb.String()
}

type snbtWriter struct {
	sb     *strings.Builder
	indent string
}

func (w *snbtWriter) newline(level int) {
	if w.indent == "" {
		return
	}
	w.sb.WriteByte('\n')
	for range level {
		w.sb.WriteString(w.indent)
	}
}

func (w *snbtWriter) sep() {
	if w.indent == "" {
		w.sb.WriteByte(':')
	} else {
		w.sb.WriteString(": ")
	}
}

func (w *snbtWriter) tag(tag Tag, level int) {
	switch v := tag.(type) {
	case Byte:
		w.sb.WriteString(strconv.Itoa(int(v)))
		w.sb.WriteByte('b')
	case Short:
		w.sb.WriteString(strconv.Itoa(int(v)))
		w.sb.WriteByte('s')
	case Int:
		w.sb.WriteString(strconv.Itoa(int(v)))
	case Long:
		w.sb.WriteString(strconv.FormatInt(int64(v), 10))
		w.sb.WriteByte('L')
	case Float:
		w.sb.WriteString(formatFloat(float64(v), 32))
		w.sb.WriteByte('f')
	case Double:
		w.sb.WriteString(formatFloat(float64(v), 64))
		w.sb.WriteByte('d')
	case String:
		w.sb.WriteString(quote(string(v)))
	case ByteArray:
		w.sb.WriteString("[B;")
		for i, x := range v {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.sb.WriteString(strconv.Itoa(int(int8(x)))) //nolint:gosec
			w.sb.WriteByte('B')
		}
		w.sb.WriteByte(']')
	case IntArray:
		w.sb.WriteString("[I;")
		for i, x := range v {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.sb.WriteString(strconv.Itoa(int(x)))
		}
		w.sb.WriteByte(']')
	case LongArray:
		w.sb.WriteString("[L;")
		for i, x := range v {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.sb.WriteString(strconv.FormatInt(x, 10))
			w.sb.WriteByte('L')
		}
		w.sb.WriteByte(']')
	case *List:
		w.sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.newline(level + 1)
			w.tag(item, level+1)
		}
		if len(v.Items) > 0 {
			w.newline(level)
		}
		w.sb.WriteByte(']')
	case *Compound:
		w.sb.WriteByte('{')
		for i, f := range v.Fields() {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.newline(level + 1)
			w.sb.WriteString(key(f.Name))
			w.sep()
			w.tag(f.Tag, level+1)
		}
		if v.Len() > 0 {
			w.newline(level)
		}
		w.sb.WriteByte('}')
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

// key quotes a compound key unless it consists only of characters allowed in
// unquoted keys.
func key(name string) string {
	if name == "" {
		return `""`
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.', c == '+':
		default:
			return quote(name)
		}
	}

	return name
}

func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')

	return sb.String()
}
