package rdf

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// EncodeTerm produces the N-Triples encoding of a node. This is the only
// term serialization used for storage, so literal lexical forms are NFC
// normalized here.
//
// The zero node has no encoding and yields an empty string.
func EncodeTerm(n Node) string {
	switch n.Kind {
	case KindIRI:
		return "<" + n.Value + ">"
	case KindBlank:
		return "_:" + n.Value
	case KindLiteral:
		var sb strings.Builder
		sb.WriteByte('"')
		writeEscaped(&sb, norm.NFC.String(n.Value))
		sb.WriteByte('"')
		switch {
		case n.Lang != "":
			sb.WriteByte('@')
			sb.WriteString(n.Lang)
		case n.Datatype != "":
			sb.WriteString("^^<")
			sb.WriteString(n.Datatype)
			sb.WriteByte('>')
		}
		return sb.String()
	default:
		return ""
	}
}

func writeEscaped(sb *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
}

// FormatTriple returns one N-Triples line without the trailing newline.
func FormatTriple(t Triple) string {
	return EncodeTerm(t.Subject) + " " + EncodeTerm(t.Predicate) + " " + EncodeTerm(t.Object) + " ."
}

// WriteCanonical writes g as N-Triples with lines sorted byte-wise, so equal
// graphs produce identical output regardless of insertion order.
func WriteCanonical(w io.Writer, g *Graph) error {
	lines := make([]string, 0, g.Len())
	for _, t := range g.triples {
		lines = append(lines, FormatTriple(t))
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("write triple: %w", err)
		}
	}
	return nil
}

// ParseTerm decodes a single N-Triples term. The whole input must be
// consumed.
func ParseTerm(s string) (Node, error) {
	n, used, err := scanTerm(s)
	if err != nil {
		return Node{}, err
	}
	if strings.TrimSpace(s[used:]) != "" {
		return Node{}, fmt.Errorf("trailing input after term: %q", s[used:])
	}
	return n, nil
}

// ParseTriple decodes one N-Triples line. Blank lines and comment lines
// return ok=false with no error.
func ParseTriple(line string) (t Triple, ok bool, err error) {
	rest := strings.TrimSpace(line)
	if rest == "" || strings.HasPrefix(rest, "#") {
		return Triple{}, false, nil
	}

	var terms [3]Node
	for i := range terms {
		n, used, err := scanTerm(rest)
		if err != nil {
			return Triple{}, false, err
		}
		terms[i] = n
		rest = strings.TrimLeft(rest[used:], " \t")
	}
	if !strings.HasPrefix(rest, ".") {
		return Triple{}, false, fmt.Errorf("expected '.' at end of statement, found %q", rest)
	}
	rest = strings.TrimSpace(rest[1:])
	if rest != "" && !strings.HasPrefix(rest, "#") {
		return Triple{}, false, fmt.Errorf("unexpected input after statement: %q", rest)
	}

	t = Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]}
	if !t.Subject.IsResource() {
		return Triple{}, false, fmt.Errorf("subject must be an IRI or blank node: %s", EncodeTerm(t.Subject))
	}
	if !t.Predicate.IsIRI() {
		return Triple{}, false, fmt.Errorf("predicate must be an IRI: %s", EncodeTerm(t.Predicate))
	}
	return t, true, nil
}

// scanTerm decodes the term at the start of s and reports how many bytes it
// consumed.
func scanTerm(s string) (Node, int, error) {
	if s == "" {
		return Node{}, 0, fmt.Errorf("expected term, found end of input")
	}
	switch {
	case s[0] == '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return Node{}, 0, fmt.Errorf("unterminated IRI: %q", s)
		}
		iri := s[1:end]
		if strings.ContainsAny(iri, " \t\"<") {
			return Node{}, 0, fmt.Errorf("invalid character in IRI: %q", iri)
		}
		return IRI(iri), end + 1, nil

	case strings.HasPrefix(s, "_:"):
		end := 2
		for end < len(s) && !strings.ContainsRune(" \t<\"", rune(s[end])) {
			end++
		}
		// A label never ends with '.', which belongs to the statement.
		for end > 2 && s[end-1] == '.' {
			end--
		}
		if end == 2 {
			return Node{}, 0, fmt.Errorf("empty blank node label")
		}
		return Blank(s[2:end]), end, nil

	case s[0] == '"':
		lexical, used, err := scanQuoted(s)
		if err != nil {
			return Node{}, 0, err
		}
		rest := s[used:]
		switch {
		case strings.HasPrefix(rest, "@"):
			end := 1
			for end < len(rest) && isLangChar(rest[end]) {
				end++
			}
			if end == 1 {
				return Node{}, 0, fmt.Errorf("empty language tag")
			}
			return LangLiteral(lexical, rest[1:end]), used + end, nil
		case strings.HasPrefix(rest, "^^"):
			dt, dtUsed, err := scanTerm(rest[2:])
			if err != nil {
				return Node{}, 0, fmt.Errorf("datatype: %w", err)
			}
			if !dt.IsIRI() {
				return Node{}, 0, fmt.Errorf("datatype must be an IRI")
			}
			return TypedLiteral(lexical, dt.Value), used + 2 + dtUsed, nil
		default:
			return Literal(lexical), used, nil
		}

	default:
		return Node{}, 0, fmt.Errorf("unexpected input: %q", s)
	}
}

func isLangChar(c byte) bool {
	return c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scanQuoted decodes a double-quoted string with N-Triples escapes.
func scanQuoted(s string) (string, int, error) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("unterminated escape")
			}
			esc := s[i+1]
			switch esc {
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 'f':
				sb.WriteByte('\f')
			case '"', '\'', '\\':
				sb.WriteByte(esc)
			case 'u', 'U':
				width := 4
				if esc == 'U' {
					width = 8
				}
				if i+2+width > len(s) {
					return "", 0, fmt.Errorf("short unicode escape")
				}
				code, err := strconv.ParseUint(s[i+2:i+2+width], 16, 32)
				if err != nil || !utf8.ValidRune(rune(code)) {
					return "", 0, fmt.Errorf("invalid unicode escape %q", s[i:i+2+width])
				}
				sb.WriteRune(rune(code))
				i += width
			default:
				return "", 0, fmt.Errorf("unknown escape \\%c", esc)
			}
			i += 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}
