package reasoner

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Iron-Ham/monologue/internal/errors"
)

// segment is either literal text or the single replacement field.
type segment struct {
	text  string
	field bool
}

// template is a parsed extraction format such as "The age is {age}".
// Literal braces are written "{{" and "}}". A field may carry a conversion
// or format spec ("{age!r}", "{price:.2f}"); both are accepted and ignored
// when the value is substituted.
type template struct {
	raw      string
	field    string
	segments []segment
}

// parseTemplate checks that format has exactly one named field.
func parseTemplate(format string) (*template, error) {
	t := &template{raw: format}
	var fields []string
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '}':
			return nil, errors.NewTemplateError(format, len(fields)).
				WithCause(fmt.Errorf("single '}' at offset %d", i))
		case c == '{':
			end := closingBrace(format, i)
			if end < 0 {
				return nil, errors.NewTemplateError(format, len(fields)).
					WithCause(fmt.Errorf("unmatched '{' at offset %d", i))
			}
			flushLiteral()
			name := fieldName(format[i+1 : end])
			fields = append(fields, name)
			t.segments = append(t.segments, segment{text: name, field: true})
			i = end
		default:
			lit.WriteByte(c)
		}
	}
	flushLiteral()

	if len(fields) != 1 {
		return nil, errors.NewTemplateError(format, len(fields))
	}
	if !isIdentifier(fields[0]) {
		return nil, errors.NewTemplateError(format, 1).
			WithCause(fmt.Errorf("field name %q is not an identifier", fields[0]))
	}
	t.field = fields[0]
	return t, nil
}

// closingBrace returns the index of the '}' matching the '{' at open.
// Nested braces inside a format spec ("{x:{width}}") are skipped over.
func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// fieldName strips a conversion ("!r") or format spec (":>10") from a field.
func fieldName(expr string) string {
	if i := strings.IndexAny(expr, "!:"); i >= 0 {
		expr = expr[:i]
	}
	return strings.TrimSpace(expr)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// Format substitutes value for the field.
func (t *template) Format(value string) string {
	var sb strings.Builder
	for _, seg := range t.segments {
		if seg.field {
			sb.WriteString(value)
		} else {
			sb.WriteString(seg.text)
		}
	}
	return sb.String()
}
