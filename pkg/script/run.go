package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/avltree/pkg/avl"
)

// Failure is one unmet expectation. Step is the 1-based index of the
// operation, or 0 for the final expectations.
type Failure struct {
	Op      string
	Message string
	// Diffs is the line diff between the expected and the actual in-order
	// listing, one key per line. Only set for in-order mismatches.
	Diffs []diffmatchpatch.Diff
	Step  int
}

func (f Failure) String() string {
	if f.Step == 0 {
		return fmt.Sprintf("expect: %s", f.Message)
	}

	return fmt.Sprintf("step %d (%s): %s", f.Step, f.Op, f.Message)
}

// Result is the outcome of running a script.
type Result struct {
	Tree     *avl.Tree[int, string]
	Name     string
	Failures []Failure
	Steps    int
}

// Passed reports whether every check held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run applies the operations of script to a fresh tree and checks the
// expectations. Failures do not stop the run.
func Run(script *Script) *Result {
	result := &Result{
		Name: script.Name,
		Tree: avl.New[int, string](),
	}

	for idx, op := range script.Ops {
		result.Steps++

		message := apply(result.Tree, op)
		if message != "" {
			result.Failures = append(result.Failures, Failure{Step: idx + 1, Op: op.Op, Message: message})
		}
	}

	err := result.Tree.Verify()
	if err != nil {
		result.Failures = append(result.Failures, Failure{Message: err.Error()})
	}

	if script.Expect != nil {
		result.Failures = append(result.Failures, checkExpect(result.Tree, script.Expect)...)
	}

	return result
}

func apply(tree *avl.Tree[int, string], op Op) string {
	switch op.Op {
	case OpInsert:
		tree.Insert(op.Key, op.Value)
	case OpRemove:
		removed := tree.Remove(op.Key)

		switch {
		case removed && op.ExpectAbsent:
			return fmt.Sprintf("removed key %d that was expected to be absent", op.Key)
		case !removed && !op.ExpectAbsent:
			return fmt.Sprintf("key %d was not present", op.Key)
		}
	case OpFind:
		value, err := tree.Lookup(op.Key)

		switch {
		case op.ExpectAbsent && err == nil:
			return fmt.Sprintf("found key %d that was expected to be absent", op.Key)
		case op.ExpectAbsent:
		case errors.Is(err, avl.ErrKeyNotFound):
			return err.Error()
		case op.Value != "" && value != op.Value:
			return fmt.Sprintf("key %d holds %q, expected %q", op.Key, value, op.Value)
		}
	case OpVerify:
		err := tree.Verify()
		if err != nil {
			return err.Error()
		}
	default:
		return fmt.Sprintf("unknown operation %q", op.Op)
	}

	return ""
}

func checkExpect(tree *avl.Tree[int, string], expect *Expect) []Failure {
	var failures []Failure

	fail := func(format string, args ...any) {
		failures = append(failures, Failure{Message: fmt.Sprintf(format, args...)})
	}

	if expect.InOrder != nil {
		expected, actual := listing(expect.InOrder), listing(tree.Keys())
		if expected != actual {
			failures = append(failures, Failure{
				Message: "in-order keys differ",
				Diffs:   lineDiff(expected, actual),
			})
		}
	}

	if expect.Root != nil {
		switch root := tree.Root(); {
		case root.Limit():
			fail("root is empty, expected %d", *expect.Root)
		case root.Key() != *expect.Root:
			fail("root is %d, expected %d", root.Key(), *expect.Root)
		}
	}

	if expect.Height != nil && tree.Height() != *expect.Height {
		fail("height is %d, expected %d", tree.Height(), *expect.Height)
	}

	if expect.Len != nil && tree.Len() != *expect.Len {
		fail("len is %d, expected %d", tree.Len(), *expect.Len)
	}

	if expect.EqualPaths != nil && tree.EqualPaths() != *expect.EqualPaths {
		fail("equal leaf depths is %t, expected %t", tree.EqualPaths(), *expect.EqualPaths)
	}

	return failures
}

func listing(keys []int) string {
	var builder strings.Builder

	for _, key := range keys {
		builder.WriteString(strconv.Itoa(key))
		builder.WriteByte('\n')
	}

	return builder.String()
}

func lineDiff(expected, actual string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffMain(src, dst, false)

	return dmp.DiffCharsToLines(diffs, lines)
}
