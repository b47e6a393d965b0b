package main

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maccabipedia/basketbot/internal/pipeline"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "serve", "discover", "migrate"} {
		assert.Contains(t, names, want)
	}
}

func TestCycleOutcome(t *testing.T) {
	assert.NoError(t, cycleOutcome([]pipeline.CycleReport{{Source: "basket", Published: 2}}))

	err := cycleOutcome([]pipeline.CycleReport{
		{Source: "basket", Failed: []string{"a"}},
		{Source: "euroleague", Err: errors.New("feed down")},
	})
	require.Error(t, err)
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitPartial, ee.code)
	assert.Contains(t, err.Error(), "1 source(s) and 1 game(s)")
}

func TestWriteJSON(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, writeJSON(cmd, []discovered{{Source: "basket", Title: "t", Exists: true}}))
	assert.Contains(t, buf.String(), `"exists": true`)
}
