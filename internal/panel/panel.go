// Package panel turns a session's enumerated inputs into the control surface
// served to the browser: one control per input, grouped by kind, plus the
// viseme button row.
package panel

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/normanking/rigpanel/internal/rig"
	"github.com/normanking/rigpanel/internal/viseme"
)

// Number controls share a fixed range and step.
const (
	NumberMin  = 0.0
	NumberMax  = 100.0
	NumberStep = 0.1
)

// Control is one rendered control bound to a state-machine input.
type Control struct {
	Name    string
	Kind    rig.InputKind
	Checked bool    // booleans: initial checked state
	Value   float64 // numbers: initial position
	Readout string  // numbers: paired text readout
}

// EnumButton is one button of the viseme row.
type EnumButton struct {
	Label  string
	Badge  int // 1-based shortcut badge for the first nine buttons, 0 = none
	Active bool
}

// View is everything the page template needs. Sections with no controls are
// omitted from the rendered page entirely.
type View struct {
	Title    string
	Surface  string
	Source   string
	LoadErr  string
	Triggers []Control
	Booleans []Control
	Numbers  []Control

	EnumName    string
	EnumValue   string
	EnumButtons []EnumButton
}

// FormatReadout renders a numeric readout to one decimal place.
func FormatReadout(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// Build assembles the view for a loaded session. vis may be unbound when the
// viseme property was not discovered; the enum section is then left out.
func Build(title string, sess *rig.Session, vis *viseme.Controller) *View {
	v := &View{
		Title:   title,
		Surface: sess.Options().Surface,
		Source:  filepath.Base(sess.Options().Source),
	}

	for _, d := range sess.Inputs() {
		switch d.Kind {
		case rig.KindTrigger:
			v.Triggers = append(v.Triggers, Control{Name: d.Name, Kind: d.Kind})
		case rig.KindBoolean:
			in, _ := sess.Bool(d.Name)
			v.Booleans = append(v.Booleans, Control{Name: d.Name, Kind: d.Kind, Checked: in.Value()})
		case rig.KindNumber:
			in, _ := sess.Number(d.Name)
			v.Numbers = append(v.Numbers, Control{
				Name:    d.Name,
				Kind:    d.Kind,
				Value:   in.Value(),
				Readout: FormatReadout(in.Value()),
			})
		}
	}

	if vis != nil && vis.Bound() {
		v.EnumName = vis.EnumName()
		v.EnumValue = vis.Value()
		for i, label := range vis.Labels() {
			btn := EnumButton{Label: label, Active: label == v.EnumValue}
			if i < 9 {
				btn.Badge = i + 1
			}
			v.EnumButtons = append(v.EnumButtons, btn)
		}
	}

	return v
}

// BuildError assembles the placeholder view shown when the asset failed to
// load. The page stays up but carries no controls.
func BuildError(title string, err error) *View {
	return &View{Title: title, LoadErr: err.Error()}
}

// DiscoverVisemeProperty resolves the named enum slot on the session: first
// by direct path, then retrying once under the nested sub-component prefix.
// The label sequence comes from the asset's enum declarations, matched by
// name case-insensitively. A miss is a logged warning, not an error; the
// control surface is simply built without the viseme section.
func DiscoverVisemeProperty(sess *rig.Session, name, subComponent string, logger zerolog.Logger) (*rig.EnumProperty, []string, bool) {
	log := logger.With().Str("component", "panel").Logger()

	prop, ok := sess.Property(name)
	if !ok && subComponent != "" {
		nested := subComponent + "/" + name
		prop, ok = sess.Property(nested)
		if ok {
			log.Debug().Str("path", nested).Msg("Viseme property found on nested path")
		}
	}
	if !ok {
		log.Warn().Str("property", name).Msg("Viseme property not declared, skipping enum section")
		return nil, nil, false
	}

	def, ok := sess.Enum(prop.EnumName())
	if !ok {
		log.Warn().Str("enum", prop.EnumName()).Msg("Enum definition not declared, skipping enum section")
		return nil, nil, false
	}

	return prop, def.Labels, true
}
