package color

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestAgentPrefix_NoColor(t *testing.T) {
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("NO_COLOR", "1")
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })
	color.NoColor = true

	assert.False(t, Supported())
	assert.Equal(t, "[code-reviewer]", AgentPrefix("code-reviewer"))
	assert.Equal(t, "rename", ForAction("rename").Sprint("rename"))
}

func TestAgentPrefix_ForceColor(t *testing.T) {
	t.Setenv("FORCE_COLOR", "1")

	assert.True(t, Supported())
	got := AgentPrefix("code-reviewer")
	assert.Contains(t, got, "[code-reviewer]")
	assert.NotEqual(t, "[code-reviewer]", got)
	assert.Equal(t, got, AgentPrefix("code-reviewer"), "color must be stable per agent")
	assert.Contains(t, ForAction("remove").Sprint("remove"), "\x1b[31m")
}
