// Package server exposes the control surface over HTTP and WebSocket and
// routes client interaction into the rig session.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/normanking/rigpanel/internal/bus"
	"github.com/normanking/rigpanel/internal/config"
	"github.com/normanking/rigpanel/internal/logging"
	"github.com/normanking/rigpanel/internal/panel"
	"github.com/normanking/rigpanel/internal/rig"
	"github.com/normanking/rigpanel/internal/viseme"
)

// Server holds the single active session and everything serving it.
type Server struct {
	cfg      *config.Config
	log      zerolog.Logger
	events   *bus.EventBus
	hub      *Hub
	renderer *panel.Renderer
	vis      *viseme.Controller

	mu      sync.RWMutex
	sess    *rig.Session
	loadErr error

	logHistory func(limit int) []logging.LogEntry
}

// New wires the server to the hub and the viseme controller. Viseme changes
// fan out to clients as display messages from here on.
func New(cfg *config.Config, hub *Hub, vis *viseme.Controller, events *bus.EventBus, renderer *panel.Renderer, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      logger.With().Str("component", "server").Logger(),
		events:   events,
		hub:      hub,
		renderer: renderer,
		vis:      vis,
	}

	hub.SetMessageHandler(s.dispatch)
	hub.SetConnectHandlers(
		func(id string) {
			events.Publish(bus.Event{Type: bus.EventTypeClientConnected, Data: map[string]any{"client": id}})
		},
		func(id string) {
			events.Publish(bus.Event{Type: bus.EventTypeClientDisconnected, Data: map[string]any{"client": id}})
		},
	)

	// Session lifecycle fans out to panels so they can show load state;
	// anything publishing these events reaches clients without knowing
	// about the hub.
	events.SubscribeMultiple([]bus.EventType{
		bus.EventTypeSessionLoaded,
		bus.EventTypeSessionReloaded,
		bus.EventTypeSessionLoadFailed,
		bus.EventTypeSessionClosed,
	}, func(e bus.Event) {
		hub.Broadcast(EventMessage{Type: "event", Event: string(e.Type), Data: e.Data})
	})

	vis.SetChangeHandler(func(ch viseme.Change) {
		hub.Broadcast(DisplayMessage{
			Type:     "display",
			Property: ch.Property,
			Value:    ch.Value,
			Index:    ch.Index,
			Reverted: ch.Reverted,
		})
		evt := bus.EventTypeVisemeChanged
		if ch.Reverted {
			evt = bus.EventTypeVisemeReset
		}
		events.Publish(bus.Event{Type: evt, Data: map[string]any{"value": ch.Value}})
	})

	return s
}

// SetLogHistory wires the data source for the panel's log drawer.
func (s *Server) SetLogHistory(fn func(limit int) []logging.LogEntry) {
	s.logHistory = fn
}

// Routes returns the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/assets/", s.handleAsset)
	mux.HandleFunc("/logs", s.handleLogs)
	mux.HandleFunc("/ws", s.hub.ServeWS)
	return mux
}

// AdoptSession installs a freshly loaded session, tearing down the previous
// one first. Old control bindings never outlive their session: the viseme
// controller is rebound and panels are told to refetch the page.
func (s *Server) AdoptSession(sess *rig.Session) {
	s.mu.Lock()
	old := s.sess
	s.sess = sess
	s.loadErr = nil
	s.mu.Unlock()

	reload := old != nil
	if old != nil {
		old.Close()
	}

	prop, labels, ok := panel.DiscoverVisemeProperty(sess, s.cfg.Viseme.Property, s.cfg.Viseme.SubComponent, s.log)
	if ok {
		s.vis.Bind(prop, labels)
	} else {
		s.vis.Bind(nil, nil)
	}

	evt := bus.EventTypeSessionLoaded
	if reload {
		evt = bus.EventTypeSessionReloaded
	}
	s.events.Publish(bus.Event{Type: evt, Data: map[string]any{"source": sess.Options().Source}})

	if reload {
		s.hub.Broadcast(ReloadMessage{Type: "reload"})
	}
}

// SetLoadError records a failed load. With no session installed the page
// renders the error placeholder; when a working session exists (a reload
// failed) it stays in place and the failure is only logged and published.
func (s *Server) SetLoadError(err error) {
	s.mu.Lock()
	keep := s.sess != nil
	if !keep {
		s.loadErr = err
	}
	s.mu.Unlock()

	s.events.Publish(bus.Event{Type: bus.EventTypeSessionLoadFailed, Data: map[string]any{"error": err.Error()}})

	if keep {
		s.log.Warn().Err(err).Msg("Asset reload failed, keeping current session")
		return
	}
	s.hub.Broadcast(ReloadMessage{Type: "reload"})
}

// Session returns the active session, or nil before load settles.
func (s *Server) Session() *rig.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mu.RLock()
	sess, loadErr := s.sess, s.loadErr
	s.mu.RUnlock()

	var view *panel.View
	switch {
	case loadErr != nil:
		view = panel.BuildError(s.cfg.Server.Title, loadErr)
	case sess == nil:
		view = &panel.View{Title: s.cfg.Server.Title, Surface: s.cfg.Surface.ID}
	default:
		view = panel.Build(s.cfg.Server.Title, sess, s.vis)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, view); err != nil {
		s.log.Error().Err(err).Msg("Failed to render panel")
	}
}

// handleAsset serves the animation asset to renderer clients. Only the
// configured asset is reachable; this is not a general file server.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Asset.Path)
}

// handleLogs returns recent log entries for the panel's log drawer.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := []logging.LogEntry{}
	if s.logHistory != nil {
		entries = s.logHistory(100)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode log history")
	}
}

// dispatch routes one inbound client message to the matching runtime call.
// Errors are local: a malformed or stale message is logged and dropped.
func (s *Server) dispatch(data []byte) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Warn().Err(err).Msg("Failed to parse client message")
		return
	}

	sess := s.Session()

	switch msg.Type {
	case MsgFire:
		if sess == nil {
			return
		}
		in, ok := sess.Trigger(msg.Name)
		if !ok {
			s.log.Warn().Str("input", msg.Name).Msg("Unknown trigger input")
			return
		}
		in.Fire()
		s.events.Publish(bus.Event{Type: bus.EventTypeTriggerFired, Data: map[string]any{"input": msg.Name}})

	case MsgBool:
		if sess == nil {
			return
		}
		in, ok := sess.Bool(msg.Name)
		if !ok {
			s.log.Warn().Str("input", msg.Name).Msg("Unknown boolean input")
			return
		}
		in.Set(msg.Bool)
		s.hub.Broadcast(InputMessage{Type: "input", Name: msg.Name, Kind: "boolean", Bool: msg.Bool})
		s.events.Publish(bus.Event{Type: bus.EventTypeInputWritten, Data: map[string]any{"input": msg.Name, "bool": msg.Bool}})

	case MsgNumber:
		if sess == nil {
			return
		}
		in, ok := sess.Number(msg.Name)
		if !ok {
			s.log.Warn().Str("input", msg.Name).Msg("Unknown number input")
			return
		}
		in.Set(msg.Number)
		s.hub.Broadcast(InputMessage{Type: "input", Name: msg.Name, Kind: "number", Number: msg.Number})
		s.events.Publish(bus.Event{Type: bus.EventTypeInputWritten, Data: map[string]any{"input": msg.Name, "number": msg.Number}})

	case MsgEnum:
		s.vis.Select(msg.Label)

	case MsgKey:
		s.vis.HandleKey(msg.Key)

	case MsgResize:
		if sess == nil {
			return
		}
		sess.Resize(msg.Width, msg.Height, msg.Ratio)
		s.events.Publish(bus.Event{Type: bus.EventTypeSurfaceResize, Data: map[string]any{"width": msg.Width, "height": msg.Height}})

	default:
		s.log.Debug().Str("type", msg.Type).Msg("Unknown message type")
	}
}
