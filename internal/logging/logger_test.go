package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/ports"
)

func TestLoggerWritesComponentAndRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(Options{Writer: &buf, Component: "store", JSON: true})
	require.NoError(t, err)

	ctx := ports.WithRequestID(context.Background(), "req-1")
	l.Info(ctx, "block created")

	out := buf.String()
	require.Contains(t, out, "block created")
	require.Contains(t, out, "store")
	require.Contains(t, out, "req-1")
}

func TestWithAppendsPersistentFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(Options{Writer: &buf, JSON: true})
	require.NoError(t, err)

	derived := l.With("project_id", "p-1")
	derived.Warn(context.Background(), "slow query")

	require.Contains(t, buf.String(), "p-1")
}

func TestNoOpNeverPanics(t *testing.T) {
	t.Parallel()

	var l ports.Logger = NoOp{}
	l.Info(context.Background(), "anything")
	l = l.With("a", "b")
	l.Error(context.Background(), "anything")
}
