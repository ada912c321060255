package duedate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnparseable means the text matched no known date expression. This is a
// user-correctable input error, not a storage failure.
var ErrUnparseable = errors.New("unrecognized due date expression")

// Normalizer turns a free-text due date ("tomorrow at 5pm", "next friday")
// into an absolute timestamp relative to an explicit reference time.
type Normalizer struct {
	parser *when.Parser
}

func New() *Normalizer {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return &Normalizer{parser: p}
}

// Normalize resolves text against now and returns the result truncated to
// whole seconds. It never reads the wall clock: a fixed (text, now) pair
// always yields the same timestamp.
func (n *Normalizer) Normalize(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnparseable)
	}
	r, err := n.parser.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
	}
	return r.Time.Truncate(time.Second), nil
}
