// Package rig defines the boundary to the external animation runtime: the
// session constructed around a loaded rig asset, the state-machine inputs it
// exposes, and the commands a renderer client consumes to draw it.
package rig

import "fmt"

// InputKind classifies a state-machine input. The set is closed: inputs are
// resolved to one of these kinds once, at enumeration time.
type InputKind int

const (
	KindTrigger InputKind = iota
	KindBoolean
	KindNumber
)

// Numeric type tags as declared in rig assets.
const (
	TagNumber  = 56
	TagTrigger = 58
	TagBoolean = 59
)

// KindFromTag resolves a declared numeric type tag. The second return is
// false for tags this runtime does not know; callers skip those inputs and
// keep enumerating.
func KindFromTag(tag int) (InputKind, bool) {
	switch tag {
	case TagTrigger:
		return KindTrigger, true
	case TagBoolean:
		return KindBoolean, true
	case TagNumber:
		return KindNumber, true
	default:
		return 0, false
	}
}

func (k InputKind) String() string {
	switch k {
	case KindTrigger:
		return "trigger"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// InputDescriptor is the read-only identity of one state-machine input.
// The set of descriptors is fixed once the session has loaded.
type InputDescriptor struct {
	Name string
	Kind InputKind
}

// EnumDef is a declared enum: a name and its ordered label sequence.
type EnumDef struct {
	Name   string
	Labels []string
}

// Fit controls how the artboard maps onto the drawing surface.
type Fit string

const (
	FitContain Fit = "contain"
	FitCover   Fit = "cover"
	FitFill    Fit = "fill"
	FitNone    Fit = "none"
)

// Alignment positions the artboard within the drawing surface.
type Alignment string

const (
	AlignCenter      Alignment = "center"
	AlignTopCenter   Alignment = "topCenter"
	AlignBottomLeft  Alignment = "bottomLeft"
	AlignBottomRight Alignment = "bottomRight"
)

// BindMode controls how view-model data binds to the artboard on load.
type BindMode string

const (
	BindAuto BindMode = "auto"
	BindNone BindMode = "none"
)

// SessionOptions carries everything needed to construct a Session. OnLoad and
// OnLoadError are continuations delivered at most once each; exactly one of
// them fires per load attempt.
type SessionOptions struct {
	Source       string
	Surface      string
	StateMachine string
	Artboard     string
	Autoplay     bool
	Fit          Fit
	Alignment    Alignment
	Bind         BindMode

	// Initial surface geometry in CSS pixels plus device pixel ratio.
	SurfaceWidth  int
	SurfaceHeight int
	PixelRatio    float64

	OnLoad      func(*Session)
	OnLoadError func(error)
}

// Command op codes understood by renderer clients.
const (
	OpLoad      = "load"
	OpFire      = "fire"
	OpSetBool   = "setBool"
	OpSetNumber = "setNumber"
	OpSetEnum   = "setEnum"
	OpResize    = "resize"
	OpUnload    = "unload"
)

// Command is one runtime instruction emitted by a Session for the renderer
// bound to its surface.
type Command struct {
	Op      string  `json:"op"`
	Surface string  `json:"surface"`
	Source  string  `json:"source,omitempty"`
	Machine string  `json:"machine,omitempty"`
	Input   string  `json:"input,omitempty"`
	Bool    bool    `json:"bool,omitempty"`
	Number  float64 `json:"number,omitempty"`
	Label   string  `json:"label,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`

	Artboard  string  `json:"artboard,omitempty"`
	Autoplay  bool    `json:"autoplay,omitempty"`
	Fit       string  `json:"fit,omitempty"`
	Alignment string  `json:"alignment,omitempty"`
	BindMode  string  `json:"bindMode,omitempty"`
	Ratio     float64 `json:"ratio,omitempty"`
}

// CommandSink receives runtime commands. The WebSocket hub implements this;
// sessions never talk to the transport directly.
type CommandSink interface {
	Send(Command)
}
