// Package scanner strips comments and collapses whitespace in C-family
// source text. Both transforms treat string and character literals as
// opaque, so comment markers or braces inside literals never confuse later
// stages. Both are pure functions.
package scanner

import "strings"

// StripComments removes block and line comments from src while preserving
// string and character literals and the file's line structure. A block
// comment is replaced by a single space (newlines it spanned are kept so
// preprocessor directives stay on their own lines). Malformed input is
// handled permissively: a literal is closed at end of line, and a block
// comment with no terminator is left in place as plain text.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	const (
		code = iota
		lineComment
		blockComment
		strLit
		charLit
	)

	state := code
	blockStart := 0 // start offset of the current block comment

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case code:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				state = lineComment
				i++
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				state = blockComment
				blockStart = i
				i++
			case c == '"':
				state = strLit
				b.WriteByte(c)
			case c == '\'':
				state = charLit
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		case lineComment:
			if c == '\n' {
				state = code
				b.WriteByte(c)
			}
		case blockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = code
				i++
				b.WriteByte(' ')
			} else if c == '\n' {
				b.WriteByte(c)
			}
		case strLit, charLit:
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(src):
				i++
				b.WriteByte(src[i])
			case c == '"' && state == strLit:
				state = code
			case c == '\'' && state == charLit:
				state = code
			case c == '\n':
				// Unterminated literal; close it at end of line.
				state = code
			}
		}
	}

	// Unterminated block comment: keep the remainder as plain text.
	if state == blockComment {
		b.WriteString(src[blockStart:])
	}

	return b.String()
}

// Collapse minimizes whitespace for token efficiency: within each line,
// runs of spaces and tabs outside literals become a single space, leading
// and trailing whitespace is trimmed, and blank lines are dropped. Newlines
// between surviving lines are preserved.
func Collapse(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		collapsed := strings.TrimSpace(collapseLine(line))
		if collapsed == "" {
			continue
		}
		out = append(out, collapsed)
	}
	return strings.Join(out, "\n")
}

// collapseLine squeezes horizontal whitespace runs outside string and
// character literals. Literals never span lines after StripComments, so
// per-line state is enough.
func collapseLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	var inStr, inChar, lastSpace bool
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr || inChar {
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(line):
				i++
				b.WriteByte(line[i])
			case c == '"' && inStr:
				inStr = false
			case c == '\'' && inChar:
				inChar = false
			}
			continue
		}

		switch c {
		case ' ', '\t':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case '"':
			inStr = true
			lastSpace = false
			b.WriteByte(c)
		case '\'':
			inChar = true
			lastSpace = false
			b.WriteByte(c)
		default:
			lastSpace = false
			b.WriteByte(c)
		}
	}
	return b.String()
}
