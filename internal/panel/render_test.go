package panel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/rigpanel/internal/rig"
)

func render(t *testing.T, view *View) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, view))
	return buf.String()
}

func TestRender_AllSections(t *testing.T) {
	sess := testSession(t, fullDeclaration())
	html := render(t, Build("Rig Control Panel", sess, boundViseme(t, sess)))

	assert.Contains(t, html, `id="enums"`)
	assert.Contains(t, html, `id="numbers"`)
	assert.Contains(t, html, `id="triggers"`)
	assert.Contains(t, html, `id="booleans"`)

	assert.Contains(t, html, `data-label="AA"`)
	assert.Contains(t, html, `min="0" max="100" step="0.1"`)
	assert.Contains(t, html, `id="num-energy-readout">37.4<`)
	assert.Contains(t, html, `data-name="wave"`)
	assert.Contains(t, html, `id="bool-talking" data-name="talking" checked`)
	assert.Contains(t, html, `id="log-lines"`)
}

func TestRender_EmptySectionsAreHidden(t *testing.T) {
	decl := &rig.Declaration{
		StateMachines: []rig.StateMachineDecl{{
			Name:   "Controls",
			Inputs: []rig.InputDecl{{Name: "wave", Type: rig.TagTrigger}},
		}},
	}
	sess := testSession(t, decl)
	html := render(t, Build("Rig Control Panel", sess, nil))

	assert.Contains(t, html, `id="triggers"`)
	assert.NotContains(t, html, `id="enums"`)
	assert.NotContains(t, html, `id="numbers"`)
	assert.NotContains(t, html, `id="booleans"`)
}

func TestRender_BadgesOnFirstNineButtons(t *testing.T) {
	sess := testSession(t, fullDeclaration())
	html := render(t, Build("Rig Control Panel", sess, boundViseme(t, sess)))

	assert.Contains(t, html, `<span class="badge">1</span>none`)
	assert.Contains(t, html, `<span class="badge">4</span>O`)
}

func TestRender_ActiveButtonMarked(t *testing.T) {
	sess := testSession(t, fullDeclaration())
	html := render(t, Build("Rig Control Panel", sess, boundViseme(t, sess)))

	assert.Equal(t, 1, strings.Count(html, "enum-btn active"))
	assert.Contains(t, html, `id="enum-value">none<`)
}

func TestRender_LoadErrorPlaceholder(t *testing.T) {
	html := render(t, BuildError("Rig Control Panel", assert.AnError))

	assert.Contains(t, html, "Failed to load animation")
	assert.NotContains(t, html, "<canvas")
	assert.NotContains(t, html, `id="triggers"`)
}
