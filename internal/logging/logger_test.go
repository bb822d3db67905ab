package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"development", "production", "nop", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l, mode)
	}
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("run_id", "r1")

	l.Warn("attempt failed", "attempt", 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "attempt failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r1", fields["run_id"])
	assert.EqualValues(t, 2, fields["attempt"])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
