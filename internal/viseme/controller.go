// Package viseme keeps the on-screen viseme readout in sync with the rig's
// enum property and reverts it to silence after a hold delay.
package viseme

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/rigpanel/internal/rig"
)

// None is the sentinel label meaning no viseme is held.
const None = "none"

// DefaultResetDelay is how long a selected viseme is held before reverting.
const DefaultResetDelay = 1000 * time.Millisecond

// Change describes one display-relevant transition.
type Change struct {
	Property string
	Value    string
	Index    int  // 0-based index into labels, -1 when the value is not among them
	Reverted bool // true when the change came from the reset timer
}

// Controller owns the viseme enum slot: the current value (always one of the
// declared labels or None), and at most one pending reset timer. Selecting a
// new value always cancels the previous timer before scheduling a fresh one;
// resets never queue up.
type Controller struct {
	log   zerolog.Logger
	delay time.Duration

	mu     sync.Mutex
	prop   *rig.EnumProperty
	labels []string
	timer  *time.Timer
	gen    uint64 // bumped on every selection and rebind; stale resets check it
	closed bool

	onChange func(Change)
}

// NewController creates an unbound controller. Until Bind is called every
// selection and keypress is ignored.
func NewController(delay time.Duration, logger zerolog.Logger) *Controller {
	if delay <= 0 {
		delay = DefaultResetDelay
	}
	return &Controller{
		delay: delay,
		log:   logger.With().Str("component", "viseme").Logger(),
	}
}

// SetChangeHandler sets the callback invoked after each applied transition.
func (c *Controller) SetChangeHandler(fn func(Change)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Bind attaches the discovered enum property and its declared labels. The
// binding replaces any previous one; a pending reset for the old binding is
// canceled.
func (c *Controller) Bind(prop *rig.EnumProperty, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.prop = prop
	c.labels = make([]string, len(labels))
	copy(c.labels, labels)
	c.log.Info().Int("labels", len(labels)).Msg("Viseme property bound")
}

// Bound reports whether a property is attached.
func (c *Controller) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prop != nil
}

// Labels returns the declared label sequence in declaration order.
func (c *Controller) Labels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// EnumName returns the name of the bound enum, or "" when unbound.
func (c *Controller) EnumName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prop == nil {
		return ""
	}
	return c.prop.EnumName()
}

// PropertyPath returns the path of the bound property, or "" when unbound.
func (c *Controller) PropertyPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prop == nil {
		return ""
	}
	return c.prop.Path()
}

// Value returns the currently held label, or None when unbound.
func (c *Controller) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prop == nil {
		return None
	}
	return c.prop.Value()
}

// Select applies a label by direct activation. Labels outside the declared
// sequence are ignored. Returns true when the value was applied.
func (c *Controller) Select(label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.prop == nil {
		return false
	}
	if indexOf(c.labels, label) < 0 {
		c.log.Debug().Str("label", label).Msg("Ignoring selection outside declared labels")
		return false
	}
	c.applyLocked(label)
	return true
}

// HandleKey applies the label at 1-based digit position. Digits are ignored
// before any labels were discovered and for positions beyond the declared
// label count.
func (c *Controller) HandleKey(digit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.prop == nil || len(c.labels) == 0 {
		return false
	}
	if digit < 1 || digit > 9 || digit > len(c.labels) {
		return false
	}
	c.applyLocked(c.labels[digit-1])
	return true
}

// applyLocked writes the label through, notifies, and supersedes any pending
// reset with a fresh one. Caller holds c.mu.
func (c *Controller) applyLocked(label string) {
	c.prop.Set(label)
	c.notifyLocked(Change{
		Property: c.prop.Path(),
		Value:    label,
		Index:    indexOf(c.labels, label),
	})

	c.gen++
	gen := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, func() { c.reset(gen) })
}

// reset fires when the hold delay elapses without a newer selection. A timer
// whose callback already started can lose a race with a newer selection:
// Stop is a no-op once fired, so the callback arrives here anyway and must
// not revert the newer value or clobber its timer. The generation check makes
// such stale callbacks do nothing. The revert only happens when None is among
// the declared labels; otherwise the held value is left untouched.
func (c *Controller) reset(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.prop == nil || gen != c.gen {
		return
	}
	c.timer = nil
	if indexOf(c.labels, None) < 0 {
		c.log.Debug().Msg("Enum declares no none label, skipping revert")
		return
	}
	c.prop.Set(None)
	c.notifyLocked(Change{
		Property: c.prop.Path(),
		Value:    None,
		Index:    indexOf(c.labels, None),
		Reverted: true,
	})
}

func (c *Controller) notifyLocked(ch Change) {
	if c.onChange != nil {
		c.onChange(ch)
	}
}

// Close cancels any pending reset and detaches the controller.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
