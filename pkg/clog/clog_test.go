package clog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, ScopeAttributeKey, "user")
	AddAttributes(ctx, map[string]any{
		"nested": map[string]any{"a": 1},
	})
	AddAttributes(ctx, map[string]any{
		"nested": map[string]any{"b": 2},
	})

	assert.Equal(t, "user", GetAttribute[string](ctx, ScopeAttributeKey))
	assert.Equal(t, 0, GetAttribute[int](ctx, ScopeAttributeKey), "type mismatch yields zero value")
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, GetAttributes(ctx)["nested"])
}

func TestContextAttributes_NoBag(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "k", "v")
	assert.Nil(t, GetAttributes(ctx))
	assert.Empty(t, GetStack(ctx))
}

func TestTextHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewAttributesHandler(NewTextHandler(buf, WithColor(false), WithLevel(slog.LevelInfo))))

	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, AgentAttributeKey, "code-reviewer")
	logger.InfoContext(ctx, "registered", slog.String(ScopeAttributeKey, "user"), slog.Int("count", 2))
	logger.DebugContext(ctx, "hidden")

	out := buf.String()
	assert.Contains(t, out, "INFO  [user] [code-reviewer] registered\n")
	assert.Contains(t, out, "    count=2\n")
	assert.NotContains(t, out, "hidden")
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(200))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(404))
	assert.Equal(t, LevelError, HTTPStatusToLevel(500))
	assert.Equal(t, slog.LevelWarn, LevelWarn.SlogLevel())
}
