package asyncrt

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpLogger_DiscardsEverything(t *testing.T) {
	l := NoOpLogger()
	assert.NotPanics(t, func() {
		l.Debug("msg", errors.New("boom"), map[string]any{"k": "v"})
		l.Warn("msg", nil, nil)
		l.Error("msg", errors.New("boom"), nil)
	})
}

func TestRuntimeLogger_NilLoggerSubstitutesNoOp(t *testing.T) {
	rl := newRuntimeLogger(nil)
	assert.NotPanics(t, func() {
		rl.debug("msg", nil)
		rl.warn("msg", errors.New("boom"), nil)
		rl.error("msg", errors.New("boom"), nil)
	})
}

func TestNewSlogLogger_WritesThroughToHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, nil)
	l := NewSlogLogger(handler)

	l.Error("something broke", errors.New("disk full"), map[string]any{"attempt": 3})

	out := buf.String()
	assert.Contains(t, out, "something broke")
	assert.Contains(t, out, "disk full")
}
