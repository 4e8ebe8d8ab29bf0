package rig

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu   sync.Mutex
	cmds []Command
}

func (c *captureSink) Send(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmds = append(c.cmds, cmd)
}

func (c *captureSink) byOp(op string) []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Command
	for _, cmd := range c.cmds {
		if cmd.Op == op {
			out = append(out, cmd)
		}
	}
	return out
}

func testDeclaration() *Declaration {
	return &Declaration{
		Artboard: "Hannah",
		StateMachines: []StateMachineDecl{{
			Name: "Controls",
			Inputs: []InputDecl{
				{Name: "wave", Type: TagTrigger},
				{Name: "talking", Type: TagBoolean, Bool: true},
				{Name: "energy", Type: TagNumber, Value: 40},
			},
		}},
		Enums: []EnumDecl{{Name: "Visemes", Values: []string{"none", "AA", "E", "O"}}},
		Properties: []PropertyDecl{
			{Name: "Face/mouth", Enum: "Visemes", Value: "none"},
		},
	}
}

func newTestSession(t *testing.T) (*Session, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	opts := SessionOptions{
		Source:       "rig.glb",
		Surface:      "rig-surface",
		StateMachine: "Controls",
	}
	return NewSession(opts, testDeclaration(), sink, zerolog.Nop()), sink
}

func TestNewSession_EnumeratesInputsInOrder(t *testing.T) {
	sess, _ := newTestSession(t)

	inputs := sess.Inputs()
	require.Len(t, inputs, 3)
	assert.Equal(t, InputDescriptor{Name: "wave", Kind: KindTrigger}, inputs[0])
	assert.Equal(t, InputDescriptor{Name: "talking", Kind: KindBoolean}, inputs[1])
	assert.Equal(t, InputDescriptor{Name: "energy", Kind: KindNumber}, inputs[2])
}

func TestNewSession_SkipsUnknownTypeTags(t *testing.T) {
	decl := testDeclaration()
	decl.StateMachines[0].Inputs = append(decl.StateMachines[0].Inputs,
		InputDecl{Name: "mystery", Type: 99},
		InputDecl{Name: "after", Type: TagTrigger},
	)
	sess := NewSession(SessionOptions{StateMachine: "Controls"}, decl, &captureSink{}, zerolog.Nop())

	// The unknown tag is dropped; enumeration of the rest continues.
	inputs := sess.Inputs()
	require.Len(t, inputs, 4)
	assert.Equal(t, "after", inputs[3].Name)
	_, ok := sess.Trigger("mystery")
	assert.False(t, ok)
}

func TestBoolInput_WriteThrough(t *testing.T) {
	sess, sink := newTestSession(t)

	in, ok := sess.Bool("talking")
	require.True(t, ok)
	assert.True(t, in.Value(), "initial value mirrors the declaration")

	in.Set(false)
	assert.False(t, in.Value())

	cmds := sink.byOp(OpSetBool)
	require.Len(t, cmds, 1)
	assert.Equal(t, "talking", cmds[0].Input)
	assert.False(t, cmds[0].Bool)
}

func TestNumberInput_WriteThrough(t *testing.T) {
	sess, sink := newTestSession(t)

	in, ok := sess.Number("energy")
	require.True(t, ok)
	assert.Equal(t, 40.0, in.Value())

	in.Set(37.45)
	assert.Equal(t, 37.45, in.Value())

	cmds := sink.byOp(OpSetNumber)
	require.Len(t, cmds, 1)
	assert.Equal(t, 37.45, cmds[0].Number)
}

func TestTriggerInput_FireIsOneShot(t *testing.T) {
	sess, sink := newTestSession(t)

	in, ok := sess.Trigger("wave")
	require.True(t, ok)
	in.Fire()
	in.Fire()

	cmds := sink.byOp(OpFire)
	require.Len(t, cmds, 2)
	assert.Equal(t, "wave", cmds[0].Input)
}

func TestInputHandles_KindMismatch(t *testing.T) {
	sess, _ := newTestSession(t)

	_, ok := sess.Bool("wave")
	assert.False(t, ok)
	_, ok = sess.Number("talking")
	assert.False(t, ok)
	_, ok = sess.Trigger("energy")
	assert.False(t, ok)
}

func TestSession_ResizeUsesPixelRatio(t *testing.T) {
	sess, sink := newTestSession(t)

	sess.Resize(800, 600, 2.0)
	w, h := sess.SurfaceSize()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1200, h)

	// A missing ratio falls back to 1.
	sess.Resize(640, 480, 0)
	w, h = sess.SurfaceSize()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	cmds := sink.byOp(OpResize)
	require.Len(t, cmds, 2)
	assert.Equal(t, 1600, cmds[0].Width)
}

func TestSession_EnumLookupIsCaseInsensitive(t *testing.T) {
	sess, _ := newTestSession(t)

	def, ok := sess.Enum("visemes")
	require.True(t, ok)
	assert.Equal(t, []string{"none", "AA", "E", "O"}, def.Labels)

	_, ok = sess.Enum("emotions")
	assert.False(t, ok)
}

func TestSession_PropertyLookupIsExactPath(t *testing.T) {
	sess, _ := newTestSession(t)

	_, ok := sess.Property("mouth")
	assert.False(t, ok)

	prop, ok := sess.Property("Face/mouth")
	require.True(t, ok)
	assert.Equal(t, "none", prop.Value())
	assert.Equal(t, "Visemes", prop.EnumName())
}

func TestEnumProperty_SetWritesThrough(t *testing.T) {
	sess, sink := newTestSession(t)

	prop, _ := sess.Property("Face/mouth")
	prop.Set("AA")
	assert.Equal(t, "AA", prop.Value())

	cmds := sink.byOp(OpSetEnum)
	require.Len(t, cmds, 1)
	assert.Equal(t, "Face/mouth", cmds[0].Input)
	assert.Equal(t, "AA", cmds[0].Label)
}

func TestSession_CloseDropsWrites(t *testing.T) {
	sess, sink := newTestSession(t)
	in, _ := sess.Bool("talking")

	sess.Close()
	sess.Close() // idempotent

	in.Set(false)
	sess.Resize(100, 100, 1)

	assert.True(t, in.Value(), "write after close must not land")
	assert.Empty(t, sink.byOp(OpSetBool))
	assert.Empty(t, sink.byOp(OpResize))
	assert.Len(t, sink.byOp(OpUnload), 1)
}

func TestSession_FallsBackToFirstMachine(t *testing.T) {
	sess := NewSession(SessionOptions{}, testDeclaration(), &captureSink{}, zerolog.Nop())
	assert.Equal(t, "Controls", sess.Machine())
	assert.Len(t, sess.Inputs(), 3)
}

func TestSession_UnknownMachineHasNoInputs(t *testing.T) {
	sess := NewSession(SessionOptions{StateMachine: "Missing"}, testDeclaration(), &captureSink{}, zerolog.Nop())
	assert.Empty(t, sess.Inputs())
}
