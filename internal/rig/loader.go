package rig

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Loader constructs sessions from rig assets. Loading is asynchronous: the
// result is delivered once through the OnLoad / OnLoadError continuations in
// SessionOptions. Load failure is not retried.
type Loader struct {
	sink CommandSink
	log  zerolog.Logger
}

// NewLoader creates a loader that binds sessions to the given command sink.
func NewLoader(sink CommandSink, logger zerolog.Logger) *Loader {
	return &Loader{
		sink: sink,
		log:  logger.With().Str("component", "rig-loader").Logger(),
	}
}

// Load parses the asset named by opts.Source and constructs a session bound
// to opts.Surface. It returns immediately; exactly one of opts.OnLoad or
// opts.OnLoadError is invoked when the attempt settles.
func (l *Loader) Load(ctx context.Context, opts SessionOptions) {
	go func() {
		sess, err := l.load(ctx, opts)
		if err != nil {
			l.log.Error().Err(err).Str("source", opts.Source).Msg("Asset load failed")
			if opts.OnLoadError != nil {
				opts.OnLoadError(err)
			}
			return
		}
		l.log.Info().
			Str("source", opts.Source).
			Str("machine", sess.Machine()).
			Int("inputs", len(sess.Inputs())).
			Int("enums", len(sess.Enums())).
			Msg("Asset loaded")
		if opts.OnLoad != nil {
			opts.OnLoad(sess)
		}
	}()
}

// LoadSync is the synchronous form of Load, used by callers that already run
// off the request path (the reload watcher, tests).
func (l *Loader) LoadSync(ctx context.Context, opts SessionOptions) (*Session, error) {
	return l.load(ctx, opts)
}

func (l *Loader) load(ctx context.Context, opts SessionOptions) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decl, err := ParseDeclaration(opts.Source)
	if err != nil {
		return nil, err
	}
	if opts.Artboard == "" {
		opts.Artboard = decl.Artboard
	}

	sess := NewSession(opts, decl, l.sink, l.log)
	sess.Announce()
	return sess, nil
}

// ParseDeclaration reads the rig declaration out of an asset file. glTF
// assets carry it in document extras under "rig"; YAML manifests are the
// declaration itself.
func ParseDeclaration(path string) (*Declaration, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		return parseGLTF(path)
	case ".yaml", ".yml":
		return parseManifest(path)
	default:
		return nil, fmt.Errorf("unsupported asset format: %s", filepath.Ext(path))
	}
}

func parseGLTF(path string) (*Declaration, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	extras, ok := doc.Extras.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("asset %s declares no rig extras", filepath.Base(path))
	}
	raw, ok := extras["rig"]
	if !ok {
		return nil, fmt.Errorf("asset %s declares no rig extras", filepath.Base(path))
	}

	// Extras arrive as generic JSON values; round-trip them into the typed
	// declaration.
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode rig extras: %w", err)
	}
	var decl Declaration
	if err := json.Unmarshal(buf, &decl); err != nil {
		return nil, fmt.Errorf("decode rig extras: %w", err)
	}

	fillEnumsFromMorphTargets(doc, &decl)
	return &decl, nil
}

// fillEnumsFromMorphTargets backfills an undeclared enum referenced by a
// property with the asset's morph target names, read from mesh extras the
// same way exporters write them ("targetNames").
func fillEnumsFromMorphTargets(doc *gltf.Document, decl *Declaration) {
	declared := make(map[string]bool, len(decl.Enums))
	for _, e := range decl.Enums {
		declared[strings.ToLower(e.Name)] = true
	}

	for _, p := range decl.Properties {
		if p.Enum == "" || declared[strings.ToLower(p.Enum)] {
			continue
		}
		names := morphTargetNames(doc)
		if len(names) == 0 {
			continue
		}
		decl.Enums = append(decl.Enums, EnumDecl{Name: p.Enum, Values: names})
		declared[strings.ToLower(p.Enum)] = true
	}
}

func morphTargetNames(doc *gltf.Document) []string {
	for _, mesh := range doc.Meshes {
		extras, ok := mesh.Extras.(map[string]interface{})
		if !ok {
			continue
		}
		raw, ok := extras["targetNames"].([]interface{})
		if !ok {
			continue
		}
		names := make([]string, 0, len(raw))
		for _, n := range raw {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	return nil
}

func parseManifest(path string) (*Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var decl Declaration
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &decl, nil
}
