package rig

import (
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Session is the live binding between a loaded rig asset and its drawing
// surface. It owns the surface size and the lifetime of every input handle
// derived from it. There is exactly one active session per controller; a
// replacement session must only be created after Close on the old one.
type Session struct {
	opts SessionOptions
	sink CommandSink
	log  zerolog.Logger

	mu      sync.RWMutex
	machine string
	order   []InputDescriptor
	bools   map[string]bool
	numbers map[string]float64
	enums   []EnumDef
	props   map[string]*EnumProperty

	surfaceW int // device pixels
	surfaceH int
	closed   bool
}

// NewSession builds a session from a parsed declaration. Inputs with unknown
// type tags are skipped with a log line; they never abort enumeration of the
// remaining inputs.
func NewSession(opts SessionOptions, decl *Declaration, sink CommandSink, logger zerolog.Logger) *Session {
	s := &Session{
		opts:    opts,
		sink:    sink,
		log:     logger.With().Str("component", "rig-session").Logger(),
		bools:   make(map[string]bool),
		numbers: make(map[string]float64),
		props:   make(map[string]*EnumProperty),
	}

	machine := selectMachine(decl, opts.StateMachine)
	if machine == nil {
		s.log.Warn().Str("machine", opts.StateMachine).Msg("State machine not declared by asset")
	} else {
		s.machine = machine.Name
		for _, in := range machine.Inputs {
			kind, ok := KindFromTag(in.Type)
			if !ok {
				s.log.Warn().Str("input", in.Name).Int("tag", in.Type).Msg("Skipping input with unknown type tag")
				continue
			}
			s.order = append(s.order, InputDescriptor{Name: in.Name, Kind: kind})
			switch kind {
			case KindBoolean:
				s.bools[in.Name] = in.Bool
			case KindNumber:
				s.numbers[in.Name] = in.Value
			}
		}
	}

	s.enums = append(s.enums, decl.enumDefs()...)

	for _, p := range decl.Properties {
		value := p.Value
		if value == "" {
			value = "none"
		}
		s.props[p.Name] = &EnumProperty{session: s, path: p.Name, enumName: p.Enum, value: value}
	}

	return s
}

func selectMachine(decl *Declaration, name string) *StateMachineDecl {
	if len(decl.StateMachines) == 0 {
		return nil
	}
	if name == "" {
		return &decl.StateMachines[0]
	}
	for i := range decl.StateMachines {
		if decl.StateMachines[i].Name == name {
			return &decl.StateMachines[i]
		}
	}
	return nil
}

// Options returns the options the session was constructed with.
func (s *Session) Options() SessionOptions { return s.opts }

// Machine returns the name of the resolved state machine.
func (s *Session) Machine() string { return s.machine }

// Inputs returns the enumerated input descriptors in declaration order.
// The returned slice is a copy; the set is fixed after load.
func (s *Session) Inputs() []InputDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]InputDescriptor, len(s.order))
	copy(out, s.order)
	return out
}

// Enums returns the asset's declared enum definitions.
func (s *Session) Enums() []EnumDef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EnumDef, len(s.enums))
	copy(out, s.enums)
	return out
}

// Enum resolves a declared enum by case-insensitive name match.
func (s *Session) Enum(name string) (EnumDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.enums {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return EnumDef{}, false
}

// Property resolves a writable enum slot by exact path. Nested fallback
// lookups are the caller's concern.
func (s *Session) Property(path string) (*EnumProperty, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.props[path]
	return p, ok
}

func (s *Session) descriptor(name string) (InputDescriptor, bool) {
	for _, d := range s.order {
		if d.Name == name {
			return d, true
		}
	}
	return InputDescriptor{}, false
}

// Trigger returns the handle for a trigger-kind input.
func (s *Session) Trigger(name string) (*TriggerInput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descriptor(name)
	if !ok || d.Kind != KindTrigger {
		return nil, false
	}
	return &TriggerInput{session: s, name: name}, true
}

// Bool returns the handle for a boolean-kind input.
func (s *Session) Bool(name string) (*BoolInput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descriptor(name)
	if !ok || d.Kind != KindBoolean {
		return nil, false
	}
	return &BoolInput{session: s, name: name}, true
}

// Number returns the handle for a number-kind input.
func (s *Session) Number(name string) (*NumberInput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descriptor(name)
	if !ok || d.Kind != KindNumber {
		return nil, false
	}
	return &NumberInput{session: s, name: name}, true
}

// Announce emits the load command followed by the initial surface resize.
// Called once by the loader after construction.
func (s *Session) Announce() {
	s.send(Command{
		Op:        OpLoad,
		Surface:   s.opts.Surface,
		Source:    s.opts.Source,
		Machine:   s.machine,
		Artboard:  s.opts.Artboard,
		Autoplay:  s.opts.Autoplay,
		Fit:       string(s.opts.Fit),
		Alignment: string(s.opts.Alignment),
		BindMode:  string(s.opts.Bind),
	})
	s.Resize(s.opts.SurfaceWidth, s.opts.SurfaceHeight, s.opts.PixelRatio)
}

// Resize recomputes surface device pixels from CSS size and pixel ratio and
// forwards the new geometry to the renderer.
func (s *Session) Resize(cssW, cssH int, ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	w := int(math.Round(float64(cssW) * ratio))
	h := int(math.Round(float64(cssH) * ratio))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.surfaceW, s.surfaceH = w, h
	s.mu.Unlock()

	s.send(Command{Op: OpResize, Surface: s.opts.Surface, Width: w, Height: h, Ratio: ratio})
}

// SurfaceSize returns the current surface size in device pixels.
func (s *Session) SurfaceSize() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surfaceW, s.surfaceH
}

// Close tears the session down. Writes through handles created from a closed
// session are dropped. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.send(Command{Op: OpUnload, Surface: s.opts.Surface})
	s.log.Debug().Str("source", s.opts.Source).Msg("Session closed")
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) send(cmd Command) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed && cmd.Op != OpUnload {
		s.log.Debug().Str("op", cmd.Op).Msg("Dropping command on closed session")
		return
	}
	if s.sink != nil {
		s.sink.Send(cmd)
	}
}

// TriggerInput is a fire-and-forget input handle with no persisted value.
type TriggerInput struct {
	session *Session
	name    string
}

// Name returns the input name.
func (t *TriggerInput) Name() string { return t.name }

// Fire emits a one-shot event on the input.
func (t *TriggerInput) Fire() {
	s := t.session
	s.send(Command{Op: OpFire, Surface: s.opts.Surface, Machine: s.machine, Input: t.name})
}

// BoolInput is a boolean input handle.
type BoolInput struct {
	session *Session
	name    string
}

// Name returns the input name.
func (b *BoolInput) Name() string { return b.name }

// Value returns the current boolean value.
func (b *BoolInput) Value() bool {
	b.session.mu.RLock()
	defer b.session.mu.RUnlock()
	return b.session.bools[b.name]
}

// Set writes a new boolean value straight through.
func (b *BoolInput) Set(v bool) {
	s := b.session
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.bools[b.name] = v
	s.mu.Unlock()
	s.send(Command{Op: OpSetBool, Surface: s.opts.Surface, Machine: s.machine, Input: b.name, Bool: v})
}

// NumberInput is a numeric input handle.
type NumberInput struct {
	session *Session
	name    string
}

// Name returns the input name.
func (n *NumberInput) Name() string { return n.name }

// Value returns the current numeric value.
func (n *NumberInput) Value() float64 {
	n.session.mu.RLock()
	defer n.session.mu.RUnlock()
	return n.session.numbers[n.name]
}

// Set writes a new numeric value straight through.
func (n *NumberInput) Set(v float64) {
	s := n.session
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.numbers[n.name] = v
	s.mu.Unlock()
	s.send(Command{Op: OpSetNumber, Surface: s.opts.Surface, Machine: s.machine, Input: n.name, Number: v})
}

// EnumProperty is a named writable slot whose value is always one of its
// enum's declared labels, or the sentinel "none".
type EnumProperty struct {
	session  *Session
	path     string
	enumName string

	mu    sync.RWMutex
	value string
}

// Path returns the property path the slot was declared under.
func (p *EnumProperty) Path() string { return p.path }

// EnumName returns the name of the enum the slot is restricted to.
func (p *EnumProperty) EnumName() string { return p.enumName }

// Value returns the currently held label.
func (p *EnumProperty) Value() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set writes a new label straight through to the runtime.
func (p *EnumProperty) Set(label string) {
	s := p.session
	if s.Closed() {
		return
	}
	p.mu.Lock()
	p.value = label
	p.mu.Unlock()
	s.send(Command{Op: OpSetEnum, Surface: s.opts.Surface, Input: p.path, Label: label})
}
