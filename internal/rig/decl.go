package rig

// Declaration is the rig metadata carried by an asset: the artboard, its
// state machines with typed inputs, declared enums, and writable enum slots.
// The same shape is read from glTF document extras (JSON) and from YAML rig
// manifests, hence the twin tags.
type Declaration struct {
	Artboard      string             `json:"artboard" yaml:"artboard"`
	StateMachines []StateMachineDecl `json:"stateMachines" yaml:"stateMachines"`
	Enums         []EnumDecl         `json:"enums" yaml:"enums"`
	Properties    []PropertyDecl     `json:"properties" yaml:"properties"`
}

// StateMachineDecl declares one state machine and its inputs.
type StateMachineDecl struct {
	Name   string      `json:"name" yaml:"name"`
	Inputs []InputDecl `json:"inputs" yaml:"inputs"`
}

// InputDecl declares one input with its raw numeric type tag and optional
// initial value. Bool carries the initial value for boolean tags, Value for
// number tags.
type InputDecl struct {
	Name  string  `json:"name" yaml:"name"`
	Type  int     `json:"type" yaml:"type"`
	Bool  bool    `json:"bool,omitempty" yaml:"bool,omitempty"`
	Value float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// EnumDecl declares a named ordered label sequence.
type EnumDecl struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// PropertyDecl declares a writable enum slot. Name may be a nested path such
// as "Face/mouth".
type PropertyDecl struct {
	Name  string `json:"name" yaml:"name"`
	Enum  string `json:"enum" yaml:"enum"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

func (d *Declaration) enumDefs() []EnumDef {
	defs := make([]EnumDef, 0, len(d.Enums))
	for _, e := range d.Enums {
		labels := make([]string, len(e.Values))
		copy(labels, e.Values)
		defs = append(defs, EnumDef{Name: e.Name, Labels: labels})
	}
	return defs
}
