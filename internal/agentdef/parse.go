package agentdef

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed single-file document.
type Document struct {
	Header Header
	Body   string
	Mode   ParseMode
}

// ParseDocument extracts and parses the header of text. It returns
// ErrNoHeader when there is no header block and an error wrapping
// ErrMalformedHeader when the block yields no keys.
func ParseDocument(text string) (*Document, error) {
	block, body, ok := ExtractHeader(text)
	if !ok {
		return nil, ErrNoHeader
	}
	h, mode, err := ParseHeader(block)
	if err != nil {
		return nil, err
	}
	return &Document{Header: h, Body: body, Mode: mode}, nil
}

// ParseHeader parses a header block, first as YAML and then with the
// lenient line scanner.
func ParseHeader(block string) (Header, ParseMode, error) {
	var raw map[string]any
	strictErr := yaml.Unmarshal([]byte(block), &raw)
	if strictErr == nil && len(raw) > 0 {
		return normalizeHeader(raw), ModeStrict, nil
	}
	if strictErr == nil {
		strictErr = errors.New("no keys")
	}

	if h := parseLenient(block); len(h) > 0 {
		return h, ModeLenient, nil
	}
	return nil, 0, fmt.Errorf("%w: %w", ErrMalformedHeader, strictErr)
}

const multilineThreshold = 100

var (
	keyLinePattern    = regexp.MustCompile(`^([A-Za-z0-9_-]+):\s*(.*)$`)
	closingKeyPattern = regexp.MustCompile(`^(name|tools|color|version|author|tags):`)
	listItemPattern   = regexp.MustCompile(`^\s*-\s+(.*)$`)
	intPattern        = regexp.MustCompile(`^\d+$`)
	floatPattern      = regexp.MustCompile(`^\d+\.\d+$`)
)

// lenientScanner accumulates fields for parseLenient. Only one of the
// multi-line or list states is active at a time.
type lenientScanner struct {
	header    Header
	key       string
	parts     []string
	multiline bool
	list      []string
	listOpen  bool
}

// parseLenient handles headers a YAML parser rejects, mainly unquoted
// descriptions that embed literal `\n` sequences and colons. A description
// whose value contains `\n` or is longer than 100 characters swallows the
// following lines until one starts with a well-known key. That rule is a
// heuristic: a long description followed by an unknown key absorbs it.
func parseLenient(block string) Header {
	s := &lenientScanner{header: Header{}}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if s.multiline {
			if !closingKeyPattern.MatchString(line) {
				if t := strings.TrimSpace(line); t != "" {
					s.parts = append(s.parts, t)
				}
				continue
			}
			s.flush()
		}

		if s.listOpen {
			if m := listItemPattern.FindStringSubmatch(line); m != nil {
				s.list = append(s.list, unquote(strings.TrimSpace(m[1])))
				continue
			}
		}

		m := keyLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		s.flush()
		key, value := m[1], strings.TrimSpace(m[2])
		s.key = key
		switch {
		case key == "description" && (strings.Contains(value, `\n`) || len(value) > multilineThreshold):
			s.multiline = true
			s.parts = []string{value}
		case value == "":
			s.listOpen = true
		default:
			s.header[key] = convertScalar(value)
		}
	}
	s.flush()
	return s.header
}

func (s *lenientScanner) flush() {
	switch {
	case s.multiline:
		s.header[s.key] = convertScalar(strings.Join(s.parts, " "))
	case s.listOpen && len(s.list) > 0:
		s.header[s.key] = s.list
	case s.listOpen:
		s.header[s.key] = ""
	}
	s.multiline, s.listOpen = false, false
	s.parts, s.list = nil, nil
}

func convertScalar(v string) any {
	v = unquote(v)
	switch {
	case v == "true":
		return true
	case v == "false":
		return false
	case intPattern.MatchString(v):
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	case floatPattern.MatchString(v):
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
