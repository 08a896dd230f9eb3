package languageServer

import "strings"

// splitComment separates code from a trailing '#' or ';' comment that is not
// inside a string or character literal.
func splitComment(line string) (code, comment string) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '"' || c == '\'':
			quote = c
		case c == '#' || c == ';':
			return line[:i], line[i:]
		}
	}
	return line, ""
}

// collapseSpace turns tabs and runs of blanks outside literals into one space.
func collapseSpace(code string) string {
	var b strings.Builder
	var quote byte
	pendingSpace := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		if quote == 0 && (c == ' ' || c == '\t') {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteByte(c)
		switch {
		case quote != 0 && c == '\\' && i+1 < len(code):
			i++
			b.WriteByte(code[i])
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		}
	}
	return b.String()
}

func isLabelName(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c == '.' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// splitLabel returns the label defined at the start of code, if any.
func splitLabel(code string) (label, rest string, ok bool) {
	idx := strings.IndexByte(code, ':')
	if idx <= 0 || !isLabelName(code[:idx]) {
		return "", code, false
	}
	return code[:idx], strings.TrimLeft(code[idx+1:], " "), true
}

// reformat lays a source file out in columns: labels and directives start at
// column 0 and every other statement is indented past the longest label.
func reformat(text string) string {
	lines := strings.Split(text, "\n")
	codes := make([]string, len(lines))
	comments := make([]string, len(lines))
	carriage := make([]bool, len(lines))

	maxLabelLength := 0
	for i, line := range lines {
		if strings.HasSuffix(line, "\r") {
			carriage[i] = true
			line = strings.TrimSuffix(line, "\r")
		}
		code, comment := splitComment(line)
		codes[i] = collapseSpace(code)
		comments[i] = strings.TrimRight(comment, " \t")
		if label, _, ok := splitLabel(codes[i]); ok && len(label) > maxLabelLength {
			maxLabelLength = len(label)
		}
	}

	indent := strings.Repeat(" ", maxLabelLength+2)
	for i, code := range codes {
		var out string
		switch label, rest, ok := splitLabel(code); {
		case code == "":
			out = strings.TrimLeft(comments[i], " \t")
		case ok && rest == "":
			out = label + ":"
		case ok:
			out = label + ": " + rest
		case strings.HasPrefix(code, "."):
			out = code
		default:
			out = indent + code
		}
		if code != "" && comments[i] != "" {
			out += " " + comments[i]
		}
		if carriage[i] {
			out += "\r"
		}
		lines[i] = out
	}
	return strings.Join(lines, "\n")
}
