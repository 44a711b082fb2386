package deltas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffAppend(t *testing.T) {
	delta := Diff("x", "xy", time.UnixMilli(42))
	require.NotNil(t, delta)
	assert.Equal(t, int64(42), delta.TimestampMs)
	require.Len(t, delta.Operations, 1)
	require.NotNil(t, delta.Operations[0].Insert)
	assert.Equal(t, 1, delta.Operations[0].Insert.Offset)
	assert.Equal(t, "y", delta.Operations[0].Insert.Text)
}

func TestDiffIdentical(t *testing.T) {
	assert.Nil(t, Diff("same", "same", time.Now()))
}

func TestDiffRoundTrip(t *testing.T) {
	cases := []struct{ old, new string }{
		{"", "hello"},
		{"hello", ""},
		{"hello world", "hello brave world"},
		{"the quick brown fox", "the slow brown dog"},
		{"line1\nline2\nline3\n", "line1\nline2 changed\nline3\nline4\n"},
		{"héllo wörld", "héllo there wörld"},
	}
	for _, tc := range cases {
		delta := Diff(tc.old, tc.new, time.Now())
		require.NotNil(t, delta)
		got, err := delta.Apply(tc.old)
		require.NoError(t, err)
		assert.Equal(t, tc.new, got)
	}
}

func TestDiffSequentialEdits(t *testing.T) {
	// Two rapid edits to the same file produce two deltas that replay in
	// order onto the original content.
	first := Diff("package main\n", "package main\n\nfunc main() {}\n", time.UnixMilli(1))
	require.NotNil(t, first)
	mid, err := first.Apply("package main\n")
	require.NoError(t, err)

	second := Diff(mid, "package main\n\nfunc main() { run() }\n", time.UnixMilli(2))
	require.NotNil(t, second)
	final, err := second.Apply(mid)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() { run() }\n", final)
}
