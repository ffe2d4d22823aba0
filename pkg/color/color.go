// Package color picks terminal colors for CLI output.
package color

import (
	"hash/fnv"
	"os"

	"github.com/fatih/color"
)

// Palette used for agent identifiers.
var agentColors = []color.Attribute{
	color.FgHiRed,
	color.FgHiGreen,
	color.FgHiYellow,
	color.FgHiBlue,
	color.FgHiMagenta,
	color.FgHiCyan,
	color.FgRed,
	color.FgGreen,
	color.FgYellow,
	color.FgBlue,
	color.FgMagenta,
	color.FgCyan,
}

var actionColors = map[string]color.Attribute{
	"register":        color.FgGreen,
	"copy-to-project": color.FgCyan,
	"rename":          color.FgYellow,
	"remove":          color.FgRed,
	"skip":            color.Faint,
}

// Supported reports whether output should be colored. FORCE_COLOR wins
// over NO_COLOR and terminal detection.
func Supported() bool {
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return !color.NoColor
}

func apply(c *color.Color) *color.Color {
	if Supported() {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// ForAgent returns a color that is stable for id.
func ForAgent(id string) *color.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return apply(color.New(agentColors[h.Sum32()%uint32(len(agentColors))]))
}

// ForAction returns the color of a plan action kind.
func ForAction(kind string) *color.Color {
	attr, ok := actionColors[kind]
	if !ok {
		attr = color.Reset
	}
	return apply(color.New(attr))
}

// AgentPrefix formats "[id]" in the agent's color.
func AgentPrefix(id string) string {
	return ForAgent(id).Sprintf("[%s]", id)
}

// Warn renders s as a warning.
func Warn(s string) string {
	return apply(color.New(color.FgYellow, color.Bold)).Sprint(s)
}
