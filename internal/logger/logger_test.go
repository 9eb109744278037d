package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(""))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
}

func TestNew_WritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: "info", NoColor: true})

	l.Debug().Msg("hidden")
	l.Info().Int("pairs", 3).Msg("loaded")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "pairs=3")
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: "debug", NoColor: true})

	ctx := WithRunID(context.Background(), l, "abc")
	From(ctx).Info().Msg("start")
	assert.Contains(t, buf.String(), "run_id=abc")

	assert.NotNil(t, From(context.Background()))
}
