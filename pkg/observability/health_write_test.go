package observability //nolint:testpackage // writeHealthJSON is unexported.

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errBrokenPipe }

func TestWriteHealthJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, writeHealthJSON(&buf, healthStatusOK))
	assert.JSONEq(t, `{"status":"ok"}`, buf.String())

	err := writeHealthJSON(failingWriter{}, healthStatusUnavailable)
	require.ErrorIs(t, err, errBrokenPipe)
	assert.Contains(t, err.Error(), "write health status")
}
