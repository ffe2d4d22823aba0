package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatcher(t *testing.T) {
	m, err := NewPatternMatcher([]string{
		"draft-*.md",
		"agents/wip/**",
		"/agents/tmp-?.md",
		"# comment",
		"",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"draft-*.md", "agents/wip/**", "/agents/tmp-?.md"}, m.Patterns())

	tests := []struct {
		path   string
		ignore bool
	}{
		{path: "agents/draft-reviewer.md", ignore: true},
		{path: "agents/reviewer.md", ignore: false},
		{path: "agents/wip/deep/agent.md", ignore: true},
		{path: "agents/wip", ignore: false},
		{path: "agents/tmp-1.md", ignore: true},
		{path: "agents/tmp-12.md", ignore: false},
		{path: "./agents/draft-x.md", ignore: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignore, m.Ignore(tt.path))
		})
	}
}

func TestPatternMatcher_Invalid(t *testing.T) {
	_, err := NewPatternMatcher([]string{"agents/[a-"})
	assert.Error(t, err)
}

func TestPatternMatcher_Empty(t *testing.T) {
	m, err := NewPatternMatcher(nil)
	require.NoError(t, err)
	assert.False(t, m.Ignore("agents/anything.md"))
}
