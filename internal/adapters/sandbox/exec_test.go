package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCapturesStdoutAndExitCode(t *testing.T) {
	e := New(nil)
	result, err := e.Execute(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExecuteReportsNonZeroExit(t *testing.T) {
	e := New(nil)
	result, err := e.Execute(context.Background(), "exit 7")
	require.NoError(t, err)
	assert.Equal(t, 7, result.ExitCode)
}

func TestExecuteTimesOut(t *testing.T) {
	e := New(nil)
	e.Timeout = 50 * time.Millisecond
	_, err := e.Execute(context.Background(), "sleep 5")
	require.Error(t, err)
}

func TestExecuteRejectsEmptyCode(t *testing.T) {
	e := New(nil)
	_, err := e.Execute(context.Background(), "")
	require.Error(t, err)
}

func TestExecuteTruncatesLargeOutput(t *testing.T) {
	e := New(nil)
	e.MaxOutputByte = 10
	result, err := e.Execute(context.Background(), "printf 'abcdefghijklmnopqrstuvwxyz'")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Stdout), 10)
}
