// Package emit provides a line buffer with block-scoped indentation, the
// shared backend of every code generator in cloudsketch.
//
// Blocks are opened and closed in pairs. Generators use [Emitter.Block], which
// closes the block it opens when the body returns, so pairing follows the
// nesting of calls:
//
//	e := emit.New()
//	e.Block(`with Diagram("web", show=False):`, func() {
//	    e.Line(`EC2("web")`)
//	})
//	fmt.Println(e.String())
//
// Unbalanced use of the low-level [Emitter.Open] and [Emitter.Close] is a
// programming error. It is recorded rather than panicking, and [Emitter.Err]
// reports it so callers can discard the output.
package emit

import (
	"fmt"
	"strings"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
)

// Indent is the whitespace emitted per nesting level.
const Indent = "    "

// Emitter accumulates indented lines. It is not safe for concurrent use;
// each emission owns its own Emitter.
type Emitter struct {
	depth int
	lines []string
	err   error
}

// New returns an empty emitter at depth 0.
func New() *Emitter {
	return &Emitter{}
}

// Line appends text prefixed by the current indentation.
func (e *Emitter) Line(text string) {
	e.lines = append(e.lines, strings.Repeat(Indent, e.depth)+text)
}

// Linef appends a formatted line.
func (e *Emitter) Linef(format string, args ...any) {
	e.Line(fmt.Sprintf(format, args...))
}

// Blank appends an empty line with no indentation.
func (e *Emitter) Blank() {
	e.lines = append(e.lines, "")
}

// Open emits header at the current depth and enters a nested block.
func (e *Emitter) Open(header string) {
	e.Line(header)
	e.depth++
}

// Close leaves the current block. Closing at depth 0 is recorded as a
// BLOCK_UNDERFLOW error and leaves the depth unchanged.
func (e *Emitter) Close() {
	if e.depth == 0 {
		if e.err == nil {
			e.err = errs.New(errs.ErrCodeBlockUnderflow, "close without matching open after %d lines", len(e.lines))
		}
		return
	}
	e.depth--
}

// Block opens a block with header, runs body inside it, and closes it.
func (e *Emitter) Block(header string, body func()) {
	e.Open(header)
	defer e.Close()
	body()
}

// Depth returns the current nesting depth.
func (e *Emitter) Depth() int { return e.depth }

// Len returns the number of lines emitted so far.
func (e *Emitter) Len() int { return len(e.lines) }

// Err reports a contract violation: an underflowing Close, or blocks still
// open. Output must be discarded when Err is non-nil.
func (e *Emitter) Err() error {
	if e.err != nil {
		return e.err
	}
	if e.depth != 0 {
		return errs.New(errs.ErrCodeBlockUnderflow, "%d block(s) left open", e.depth)
	}
	return nil
}

// String joins the emitted lines with newlines. It may be called any number
// of times and returns the same text until more lines are appended.
func (e *Emitter) String() string {
	return strings.Join(e.lines, "\n")
}
