package agentdef

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/agentsync/internal/scope"
)

// Layout is the on-disk shape a definition was loaded from.
type Layout int

const (
	// LayoutSingleFile is agents/<id>.md.
	LayoutSingleFile Layout = iota + 1
	// LayoutDirectory is agents/<id>/ with metadata.json, agent.md and an
	// optional hooks.json.
	LayoutDirectory
)

func (l Layout) String() string {
	switch l {
	case LayoutSingleFile:
		return "single-file"
	case LayoutDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// ParseMode records which parser produced a header.
type ParseMode int

const (
	ModeStrict ParseMode = iota + 1
	ModeLenient
)

func (m ParseMode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// Definition is the normalized form of one agent document. Downstream code
// never looks at Layout to decide behaviour; it is kept for display.
type Definition struct {
	Identifier string
	Header     Header
	Body       string
	// RawText is the single-file rendition of the definition: the original
	// bytes for LayoutSingleFile, a rendered document for LayoutDirectory.
	RawText    string
	Layout     Layout
	Scope      scope.Scope
	SourcePath string
	ParseMode  ParseMode
}

// Render produces a single-file document from a header and body.
func Render(h Header, body string) (string, error) {
	out, err := yaml.Marshal(map[string]any(h))
	if err != nil {
		return "", fmt.Errorf("failed to render header: %w", err)
	}
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	b.Write(out)
	b.WriteString(delimiter + "\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String(), nil
}
