package server

import (
	"github.com/normanking/rigpanel/internal/logging"
	"github.com/normanking/rigpanel/internal/rig"
)

// Inbound is a message received from a panel or renderer client.
type Inbound struct {
	Type   string  `json:"type"`
	Name   string  `json:"name,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
	Number float64 `json:"number,omitempty"`
	Label  string  `json:"label,omitempty"`
	Key    int     `json:"key,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
}

// Inbound message types.
const (
	MsgFire   = "fire"
	MsgBool   = "bool"
	MsgNumber = "number"
	MsgEnum   = "enum"
	MsgKey    = "key"
	MsgResize = "resize"
)

// DisplayMessage keeps every connected panel's readout and active button in
// sync with the viseme controller.
type DisplayMessage struct {
	Type     string `json:"type"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Index    int    `json:"index"`
	Reverted bool   `json:"reverted,omitempty"`
}

// InputMessage echoes a write-through so other panels mirror it.
type InputMessage struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Bool   bool    `json:"bool,omitempty"`
	Number float64 `json:"number,omitempty"`
}

// CommandMessage wraps a runtime command for renderer clients.
type CommandMessage struct {
	Type string      `json:"type"`
	Cmd  rig.Command `json:"cmd"`
}

// ReloadMessage tells panels to refetch the page after a session replace.
type ReloadMessage struct {
	Type string `json:"type"`
}

// LogMessage streams one log entry to the panel's log drawer.
type LogMessage struct {
	Type  string           `json:"type"`
	Entry logging.LogEntry `json:"entry"`
}

// EventMessage surfaces a session lifecycle event to panel clients.
type EventMessage struct {
	Type  string         `json:"type"`
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}
