package buffer

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Errors returned by buffer operations.
var (
	ErrLineOutOfRange   = errors.New("line out of range")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// LineEnding specifies the line ending style used when saving.
// Content is normalized to LF internally.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// String returns the escaped representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// RevisionID uniquely identifies a buffer revision.
// Each modification to the buffer creates a new revision.
type RevisionID uint64

var revisionCounter uint64

// NewRevisionID generates a new unique revision ID.
func NewRevisionID() RevisionID {
	return RevisionID(atomic.AddUint64(&revisionCounter, 1))
}

// EditListener observes structural changes to a buffer. A listener is
// notified after every edit, before any other edit can be made. Line
// indexes are zero-based and refer to positions after the edit.
type EditListener interface {
	// LinesInserted reports count new lines starting at index first.
	LinesInserted(first, count int)
	// LinesDeleted reports that count lines starting at first were removed.
	LinesDeleted(first, count int)
	// LineModified reports an in-place change to one line.
	LineModified(line int)
}

// Buffer is an open document: an ordered list of lines plus identity
// and bookkeeping. All methods are safe for concurrent use. Listeners
// are invoked outside the buffer lock, in registration order, because
// a listener may read buffer content from its callback.
//
// A buffer always contains at least one line. Lines are stored without
// their newline; Line reconstructs it, so the buffer satisfies the
// LineSource contract of the highlight cache.
type Buffer struct {
	mu             sync.RWMutex
	id             string
	path           string
	lines          [][]byte
	noFinalNewline bool
	lineEnding     LineEnding
	revision       RevisionID
	dirty          bool
	listeners      []EditListener
}

// New creates an empty buffer containing a single empty line.
func New() *Buffer {
	return &Buffer{
		id:             uuid.New().String(),
		lines:          [][]byte{nil},
		noFinalNewline: true,
		revision:       NewRevisionID(),
	}
}

// NewFromString creates a buffer holding s. The line ending style is
// detected from the content and remembered for saving.
func NewFromString(s string) *Buffer {
	b := New()
	b.setContent([]byte(s))
	return b
}

// NewFromReader creates a buffer from r, reading it fully.
func NewFromReader(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b := New()
	b.setContent(data)
	return b, nil
}

// setContent detects the line ending style, normalizes to LF and
// splits into lines. Only used during construction, before the buffer
// is shared.
func (b *Buffer) setContent(data []byte) {
	switch {
	case bytes.Contains(data, []byte("\r\n")):
		b.lineEnding = LineEndingCRLF
		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	case bytes.IndexByte(data, '\r') >= 0:
		b.lineEnding = LineEndingCR
		data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	}

	b.noFinalNewline = len(data) == 0 || data[len(data)-1] != '\n'
	if !b.noFinalNewline {
		data = data[:len(data)-1]
	}
	parts := bytes.Split(data, []byte("\n"))
	b.lines = make([][]byte, len(parts))
	for i, p := range parts {
		b.lines[i] = append([]byte(nil), p...)
	}
}

// ID returns the buffer's unique identity.
func (b *Buffer) ID() string { return b.id }

// Path returns the file path the buffer is associated with, if any.
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// SetPath associates the buffer with a file path.
func (b *Buffer) SetPath(path string) {
	b.mu.Lock()
	b.path = path
	b.mu.Unlock()
}

// LineEnding returns the line ending style used when saving.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// Revision returns the current revision ID.
func (b *Buffer) Revision() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// Dirty reports whether the buffer has unsaved changes.
func (b *Buffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}

// AddListener registers an edit listener.
func (b *Buffer) AddListener(l EditListener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// RemoveListener unregisters a previously added listener.
func (b *Buffer) RemoveListener(l EditListener) {
	b.mu.Lock()
	for i, cur := range b.listeners {
		if cur == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
}

// LineCount returns the number of lines. Always at least 1.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Line returns the content of line i including its trailing newline.
// The final line has no newline when the underlying content had none.
// The returned slice must not be modified.
func (b *Buffer) Line(i int) []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.lines) {
		return nil
	}
	if i == len(b.lines)-1 && b.noFinalNewline {
		return b.lines[i]
	}
	return append(append([]byte(nil), b.lines[i]...), '\n')
}

// LineText returns the text of line i without its newline.
func (b *Buffer) LineText(i int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return string(b.lines[i])
}

// Text returns the full buffer content with LF line endings.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sb strings.Builder
	for i, line := range b.lines {
		sb.Write(line)
		if i < len(b.lines)-1 || !b.noFinalNewline {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// WriteTo writes the buffer content to w using the buffer's line
// ending style, and marks the buffer clean on success.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	eol := []byte(b.lineEnding.Sequence())
	var total int64
	for i, line := range b.lines {
		n, err := w.Write(line)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if i < len(b.lines)-1 || !b.noFinalNewline {
			n, err = w.Write(eol)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	b.dirty = false
	return total, nil
}

// notification records one listener call to replay after the buffer
// lock is released.
type notification struct {
	kind  int // 0 insert, 1 delete, 2 modify
	first int
	count int
}

func (b *Buffer) notify(listeners []EditListener, notes []notification) {
	for _, l := range listeners {
		for _, n := range notes {
			switch n.kind {
			case 0:
				l.LinesInserted(n.first, n.count)
			case 1:
				l.LinesDeleted(n.first, n.count)
			case 2:
				l.LineModified(n.first)
			}
		}
	}
}

func (b *Buffer) touch() {
	b.revision = NewRevisionID()
	b.dirty = true
}

// InsertLines inserts whole lines before index at. at may equal
// LineCount to append. Each text must not contain a newline.
func (b *Buffer) InsertLines(at int, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	b.mu.Lock()
	if at < 0 || at > len(b.lines) {
		b.mu.Unlock()
		return ErrLineOutOfRange
	}
	ins := make([][]byte, len(texts))
	for i, t := range texts {
		ins[i] = []byte(t)
	}
	appending := at == len(b.lines)
	b.lines = append(b.lines[:at:at], append(ins, b.lines[at:]...)...)

	notes := []notification{{kind: 0, first: at, count: len(texts)}}
	if appending && b.noFinalNewline && at > 0 {
		// The former last line gained a newline.
		notes = append(notes, notification{kind: 2, first: at - 1})
	}
	b.touch()
	listeners := b.listeners
	b.mu.Unlock()

	b.notify(listeners, notes)
	return nil
}

// DeleteLines removes count lines starting at index at. Deleting
// every line leaves a single empty line.
func (b *Buffer) DeleteLines(at, count int) error {
	if count == 0 {
		return nil
	}
	b.mu.Lock()
	if at < 0 || count < 0 || at+count > len(b.lines) {
		b.mu.Unlock()
		return ErrRangeInvalid
	}
	tail := at+count == len(b.lines)
	b.lines = append(b.lines[:at], b.lines[at+count:]...)

	var notes []notification
	if len(b.lines) == 0 {
		b.lines = [][]byte{nil}
		b.noFinalNewline = true
		notes = append(notes,
			notification{kind: 1, first: 1, count: count - 1},
			notification{kind: 2, first: 0})
	} else {
		notes = append(notes, notification{kind: 1, first: at, count: count})
		if tail && b.noFinalNewline {
			// The new last line lost its newline.
			notes = append(notes, notification{kind: 2, first: at - 1})
		}
	}
	b.touch()
	listeners := b.listeners
	b.mu.Unlock()

	b.notify(listeners, notes)
	return nil
}

// SetLine replaces the text of line i. text must not contain a newline.
func (b *Buffer) SetLine(i int, text string) error {
	b.mu.Lock()
	if i < 0 || i >= len(b.lines) {
		b.mu.Unlock()
		return ErrLineOutOfRange
	}
	b.lines[i] = []byte(text)
	b.touch()
	listeners := b.listeners
	b.mu.Unlock()

	b.notify(listeners, []notification{{kind: 2, first: i}})
	return nil
}

// InsertText inserts text at the given line and byte column. Newlines
// in text split the line.
func (b *Buffer) InsertText(line, col int, text string) error {
	if text == "" {
		return nil
	}
	b.mu.Lock()
	if line < 0 || line >= len(b.lines) {
		b.mu.Unlock()
		return ErrLineOutOfRange
	}
	cur := b.lines[line]
	if col < 0 || col > len(cur) {
		b.mu.Unlock()
		return ErrColumnOutOfRange
	}

	var notes []notification
	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		merged := make([]byte, 0, len(cur)+len(text))
		merged = append(merged, cur[:col]...)
		merged = append(merged, text...)
		merged = append(merged, cur[col:]...)
		b.lines[line] = merged
		notes = []notification{{kind: 2, first: line}}
	} else {
		suffix := append([]byte(nil), cur[col:]...)
		b.lines[line] = append(append([]byte(nil), cur[:col]...), parts[0]...)
		ins := make([][]byte, len(parts)-1)
		for i, p := range parts[1:] {
			ins[i] = []byte(p)
		}
		ins[len(ins)-1] = append(ins[len(ins)-1], suffix...)
		b.lines = append(b.lines[:line+1:line+1], append(ins, b.lines[line+1:]...)...)
		notes = []notification{
			{kind: 2, first: line},
			{kind: 0, first: line + 1, count: len(ins)},
		}
	}
	b.touch()
	listeners := b.listeners
	b.mu.Unlock()

	b.notify(listeners, notes)
	return nil
}

// DeleteRange removes the text between (startLine, startCol) and
// (endLine, endCol), end exclusive. Spanning multiple lines joins the
// remainder of the end line onto the start line.
func (b *Buffer) DeleteRange(startLine, startCol, endLine, endCol int) error {
	b.mu.Lock()
	if startLine < 0 || endLine >= len(b.lines) || startLine > endLine {
		b.mu.Unlock()
		return ErrRangeInvalid
	}
	start, end := b.lines[startLine], b.lines[endLine]
	if startCol < 0 || startCol > len(start) || endCol < 0 || endCol > len(end) {
		b.mu.Unlock()
		return ErrColumnOutOfRange
	}
	if startLine == endLine && startCol > endCol {
		b.mu.Unlock()
		return ErrRangeInvalid
	}

	var notes []notification
	if startLine == endLine {
		b.lines[startLine] = append(start[:startCol:startCol], start[endCol:]...)
		notes = []notification{{kind: 2, first: startLine}}
	} else {
		b.lines[startLine] = append(start[:startCol:startCol], end[endCol:]...)
		b.lines = append(b.lines[:startLine+1], b.lines[endLine+1:]...)
		notes = []notification{
			{kind: 2, first: startLine},
			{kind: 1, first: startLine + 1, count: endLine - startLine},
		}
	}
	b.touch()
	listeners := b.listeners
	b.mu.Unlock()

	b.notify(listeners, notes)
	return nil
}

// SplitLine breaks line i at the given byte column.
func (b *Buffer) SplitLine(i, col int) error {
	return b.InsertText(i, col, "\n")
}

// JoinLines appends line i+1 onto line i.
func (b *Buffer) JoinLines(i int) error {
	b.mu.Lock()
	if i < 0 || i+1 >= len(b.lines) {
		b.mu.Unlock()
		return ErrLineOutOfRange
	}
	col := len(b.lines[i])
	b.mu.Unlock()
	return b.DeleteRange(i, col, i+1, 0)
}
