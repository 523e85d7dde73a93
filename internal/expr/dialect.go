package expr

import (
	"fmt"
	"strings"
)

// containsFunc is the CEL name bound to the contains(haystack, needle)
// helper.
const containsFunc = "text_contains"

var keywords = map[string]string{
	"and": "&&",
	"or":  "||",
	"not": "!",
	"mod": "%",
}

// translate rewrites the filter dialect into CEL source. Keywords outside
// string literals are replaced by their operators, a parenthesized list
// after "in" becomes a CEL list literal, and global calls to contains are
// redirected to the registered helper.
func translate(src string) (string, error) {
	var (
		b       strings.Builder
		parens  []bool
		afterIn bool
		prev    rune
	)
	b.Grow(len(src) + 8)

	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case r == '"' || r == '\'':
			end, err := skipString(runes, i)
			if err != nil {
				return "", err
			}
			b.WriteString(string(runes[i:end]))
			i = end
			prev = r
			afterIn = false
			continue

		case isIdentStart(r):
			end := i + 1
			for end < len(runes) && isIdentPart(runes[end]) {
				end++
			}
			word := string(runes[i:end])
			member := prev == '.'
			switch {
			case member:
				b.WriteString(word)
			case word == "in":
				b.WriteString(word)
				afterIn = true
				i = end
				prev = 'n'
				continue
			case word == "contains" && nextNonSpace(runes, end) == '(':
				b.WriteString(containsFunc)
			default:
				if op, ok := keywords[word]; ok {
					b.WriteString(op)
				} else {
					b.WriteString(word)
				}
			}
			i = end
			prev = runes[end-1]
			afterIn = false
			continue

		case r == '(':
			if afterIn {
				b.WriteRune('[')
			} else {
				b.WriteRune('(')
			}
			parens = append(parens, afterIn)

		case r == ')':
			if len(parens) == 0 {
				return "", fmt.Errorf("unbalanced ')' at offset %d", i)
			}
			list := parens[len(parens)-1]
			parens = parens[:len(parens)-1]
			if list {
				b.WriteRune(']')
			} else {
				b.WriteRune(')')
			}

		default:
			b.WriteRune(r)
		}

		if !isSpace(r) {
			afterIn = false
			prev = r
		}
		i++
	}

	if len(parens) != 0 {
		return "", fmt.Errorf("unbalanced '('")
	}
	return b.String(), nil
}

// skipString returns the offset just past the string literal starting at
// runes[start].
func skipString(runes []rune, start int) (int, error) {
	quote := runes[start]
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case quote:
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated string literal at offset %d", start)
}

func nextNonSpace(runes []rune, from int) rune {
	for i := from; i < len(runes); i++ {
		if !isSpace(runes[i]) {
			return runes[i]
		}
	}
	return 0
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
