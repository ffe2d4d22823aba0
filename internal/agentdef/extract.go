package agentdef

import (
	"strings"
)

const delimiter = "---"

// ExtractHeader splits text into the header block and the body. The first
// line must be the delimiter and the block runs to the next delimiter line.
// ok is false when either delimiter is missing.
func ExtractHeader(text string) (block, body string, ok bool) {
	first, rest, found := strings.Cut(text, "\n")
	if !isDelimiter(first) {
		return "", "", false
	}
	if !found {
		return "", "", false
	}

	var lines []string
	for {
		line, next, more := strings.Cut(rest, "\n")
		if isDelimiter(line) {
			if !more {
				next = ""
			}
			return strings.Join(lines, "\n"), strings.TrimSpace(next), true
		}
		if !more {
			return "", "", false
		}
		lines = append(lines, strings.TrimSuffix(line, "\r"))
		rest = next
	}
}

func isDelimiter(line string) bool {
	return strings.TrimSuffix(line, "\r") == delimiter
}
