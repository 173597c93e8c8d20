package utils

import (
	"bytes"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Filters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)

	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown", "slicer", "OneDSlicer")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "level=warn")
	assert.Contains(t, out, "slicer=OneDSlicer")
}

func TestNewLogger_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("bogus", &buf)

	level.Debug(logger).Log("msg", "debug")
	level.Info(logger).Log("msg", "info")

	assert.NotContains(t, buf.String(), "msg=debug")
	assert.Contains(t, buf.String(), "msg=info")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	assert.NoError(t, OrNop(nil).Log("msg", "x"))
}
