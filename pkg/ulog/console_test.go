package ulog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleWriterPrefixesRunAndStep(t *testing.T) {
	var buf strings.Builder
	w := &ConsoleWriter{out: &buf}

	_, err := w.Write([]byte(`{"level":"info","run":"run#abc","step":"release/x86_64: Compile","message":"running"}`))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "run#abc")
	assert.Contains(t, buf.String(), "release/x86_64: Compile: running")
}

func TestConsoleWriterErrorDetails(t *testing.T) {
	var buf strings.Builder
	w := &ConsoleWriter{out: &buf}

	_, err := w.Write([]byte(`{"level":"error","message":"boom","error":"root cause"}`))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Error: boom")
	assert.Contains(t, buf.String(), "    root cause")
}

func TestConsoleWriterRejectsGarbage(t *testing.T) {
	w := &ConsoleWriter{out: &strings.Builder{}}

	_, err := w.Write([]byte("not json"))
	assert.Error(t, err)
}
