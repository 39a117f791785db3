package script_test

import (
	"path/filepath"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/avltree/pkg/script"
)

func ptr[T any](value T) *T {
	return &value
}

func TestRunTestdata(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"rotations.yaml", "ascending.json"} {
		scr, err := script.Load(filepath.Join("testdata", name))
		require.NoError(t, err)

		result := script.Run(scr)
		assert.True(t, result.Passed(), "%s: %v", name, result.Failures)
		assert.Equal(t, len(scr.Ops), result.Steps)
	}
}

func TestRunReportsOperationFailures(t *testing.T) {
	t.Parallel()

	result := script.Run(&script.Script{
		Ops: []script.Op{
			{Op: script.OpInsert, Key: 1, Value: "one"},
			{Op: script.OpFind, Key: 1, Value: "two"},
			{Op: script.OpFind, Key: 2},
			{Op: script.OpFind, Key: 1, ExpectAbsent: true},
			{Op: script.OpRemove, Key: 3},
			{Op: script.OpRemove, Key: 1, ExpectAbsent: true},
			{Op: "shuffle"},
		},
	})

	require.False(t, result.Passed())

	var steps []int
	for _, failure := range result.Failures {
		steps = append(steps, failure.Step)
	}

	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, steps)
	assert.Equal(t, `step 2 (find): key 1 holds "one", expected "two"`, result.Failures[0].String())
	assert.Equal(t, "step 3 (find): key not found: 2", result.Failures[1].String())
	assert.Equal(t, 0, result.Tree.Len())
}

func TestRunReportsExpectationFailures(t *testing.T) {
	t.Parallel()

	result := script.Run(&script.Script{
		Ops: []script.Op{
			{Op: script.OpInsert, Key: 1},
			{Op: script.OpInsert, Key: 2},
			{Op: script.OpInsert, Key: 3},
		},
		Expect: &script.Expect{
			InOrder:    []int{1, 3, 4},
			Root:       ptr(1),
			Height:     ptr(2),
			Len:        ptr(4),
			EqualPaths: ptr(false),
		},
	})

	require.Len(t, result.Failures, 5)

	inorder := result.Failures[0]
	assert.Equal(t, "expect: in-order keys differ", inorder.String())
	assert.Contains(t, inorder.Diffs, diffmatchpatch.Diff{Type: diffmatchpatch.DiffDelete, Text: "4\n"})
	assert.Contains(t, inorder.Diffs, diffmatchpatch.Diff{Type: diffmatchpatch.DiffInsert, Text: "2\n"})

	assert.Equal(t, "expect: root is 2, expected 1", result.Failures[1].String())
	assert.Equal(t, "expect: height is 1, expected 2", result.Failures[2].String())
	assert.Equal(t, "expect: len is 3, expected 4", result.Failures[3].String())
	assert.Equal(t, "expect: equal leaf depths is true, expected false", result.Failures[4].String())
}

func TestRunEmptyRoot(t *testing.T) {
	t.Parallel()

	result := script.Run(&script.Script{Expect: &script.Expect{Root: ptr(5), Height: ptr(-1)}})

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "expect: root is empty, expected 5", result.Failures[0].String())
}
