package agentdef

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// hookSpec is one entry of hooks.json.
type hookSpec struct {
	Event   string `json:"event"`
	Matcher string `json:"matcher,omitempty"`
	Command string `json:"command"`
}

// parseHooks decodes hooks.json into the hooksRecommended header value.
// Commands are reformatted as shell; entries that are not valid shell or
// lack an event are dropped with a warning.
func parseHooks(ctx context.Context, p string, data []byte) ([]any, error) {
	var specs []hookSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p, err)
	}

	hooks := make([]any, 0, len(specs))
	for i, spec := range specs {
		if spec.Event == "" {
			slog.WarnContext(ctx, "dropping hook without event", "path", p, "index", i)
			continue
		}
		command, err := formatShell(spec.Command)
		if err != nil {
			slog.WarnContext(ctx, "dropping hook with invalid command", "path", p, "index", i, "error", err)
			continue
		}
		hook := map[string]any{
			"event":   spec.Event,
			"command": command,
		}
		if spec.Matcher != "" {
			hook["matcher"] = spec.Matcher
		}
		hooks = append(hooks, hook)
	}
	return hooks, nil
}

func formatShell(command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("empty command")
	}
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, file); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
