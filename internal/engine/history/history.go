// Package history provides undo and redo for buffer edits.
//
// Every edit is recorded as an Op: the span of lines it replaced, the
// lines before and after, and the cursor position on both sides.
// Undoing an op writes the old lines back; redoing writes the new
// ones. Consecutive single-character insertions coalesce into one op
// so undo removes a typed word rather than one byte at a time.
package history

import (
	"errors"
	"sync"
)

// ErrNothingToUndo is returned by Undo on an empty undo stack.
var ErrNothingToUndo = errors.New("history: nothing to undo")

// ErrNothingToRedo is returned by Redo on an empty redo stack.
var ErrNothingToRedo = errors.New("history: nothing to redo")

// DefaultLimit bounds the undo stack depth.
const DefaultLimit = 1000

// Buffer is the slice of buffer behavior history needs to apply ops.
type Buffer interface {
	SetLine(i int, text string) error
	InsertLines(at int, texts []string) error
	DeleteLines(at, count int) error
}

// Position is a cursor position in line and byte-column terms.
type Position struct {
	Line, Col int
}

// Op records one edit as a replaced span of lines.
type Op struct {
	// StartLine is the first line the edit touched.
	StartLine int
	// OldLines is the span's content before the edit.
	OldLines []string
	// NewLines is the span's content after the edit.
	NewLines []string
	// Before and After are the cursor positions surrounding the edit.
	Before, After Position
	// Coalesce marks ops that may merge with a following coalescible
	// op, such as single-rune typing.
	Coalesce bool
}

// undo writes the old lines back over the new span.
func (op *Op) undo(buf Buffer) error {
	return replaceSpan(buf, op.StartLine, len(op.NewLines), op.OldLines)
}

// redo writes the new lines back over the old span.
func (op *Op) redo(buf Buffer) error {
	return replaceSpan(buf, op.StartLine, len(op.OldLines), op.NewLines)
}

// replaceSpan swaps count lines starting at start for the given lines,
// overwriting in place where the spans overlap so listeners see line
// modifications instead of churn.
func replaceSpan(buf Buffer, start, count int, lines []string) error {
	n := count
	if len(lines) < n {
		n = len(lines)
	}
	for i := 0; i < n; i++ {
		if err := buf.SetLine(start+i, lines[i]); err != nil {
			return err
		}
	}
	if count > n {
		return buf.DeleteLines(start+n, count-n)
	}
	if len(lines) > n {
		return buf.InsertLines(start+n, lines[n:])
	}
	return nil
}

// Stack holds the undo and redo stacks for one buffer.
type Stack struct {
	mu    sync.Mutex
	undo  []*Op
	redo  []*Op
	limit int
}

// NewStack creates a history stack with the default depth limit.
func NewStack() *Stack {
	return &Stack{limit: DefaultLimit}
}

// Push records an edit that was already applied to the buffer. It
// clears the redo stack: a new edit forks history.
func (s *Stack) Push(op *Op) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.redo = s.redo[:0]
	if op.Coalesce && len(s.undo) > 0 {
		if top := s.undo[len(s.undo)-1]; top.Coalesce && top.merge(op) {
			return
		}
	}
	s.undo = append(s.undo, op)
	if len(s.undo) > s.limit {
		s.undo = s.undo[1:]
	}
}

// merge folds a continuation edit into op, returning false when the
// edits do not chain. Chaining requires both position adjacency and
// content continuity: the second op must start from exactly the line
// the first one produced.
func (op *Op) merge(next *Op) bool {
	if len(op.NewLines) != 1 || len(next.OldLines) != 1 || len(next.NewLines) != 1 {
		return false
	}
	if next.StartLine != op.StartLine || next.Before != op.After {
		return false
	}
	if next.OldLines[0] != op.NewLines[0] {
		return false
	}
	op.NewLines = next.NewLines
	op.After = next.After
	return true
}

// Undo reverts the most recent edit, returning the cursor position
// from before it.
func (s *Stack) Undo(buf Buffer) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return Position{}, ErrNothingToUndo
	}
	op := s.undo[len(s.undo)-1]
	if err := op.undo(buf); err != nil {
		return Position{}, err
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, op)
	return op.Before, nil
}

// Redo reapplies the most recently undone edit, returning the cursor
// position from after it.
func (s *Stack) Redo(buf Buffer) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return Position{}, ErrNothingToRedo
	}
	op := s.redo[len(s.redo)-1]
	if err := op.redo(buf); err != nil {
		return Position{}, err
	}
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, op)
	return op.After, nil
}

// CanUndo reports whether the undo stack is non-empty.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Len returns the undo stack depth.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}
