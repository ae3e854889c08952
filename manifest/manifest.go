// Package manifest handles totem.toml model manifests.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("totem.manifest")

// ManifestName is the file name Load and FindAndLoad look for.
const ManifestName = "totem.toml"

// Manifest represents a totem.toml model manifest: project metadata plus
// the type declarations to register, in any order.
type Manifest struct {
	Project Project    `toml:"project"`
	Types   []TypeDecl `toml:"type"`

	// Dir is the directory containing the totem.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Version   string `toml:"version"`
}

// TypeDecl declares one type of the model. Hooks cannot live in TOML, so
// a declaration names a hook set ("hooks") that the embedder provides
// through a HookCatalog.
type TypeDecl struct {
	Name       string   `toml:"name"`
	Parent     string   `toml:"parent"`
	Abstract   bool     `toml:"abstract"`
	InstVars   []string `toml:"instance-vars"`
	VirtualOps []string `toml:"virtual-ops"`
	Interfaces []string `toml:"interfaces"`
	Hooks      string   `toml:"hooks"`
}

// Load parses and validates a totem.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	// Schema first: the CUE validator reports unknown keys and missing
	// required fields with a path into the offending field, which struct
	// decoding silently swallows.
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Project.Namespace == "" {
		m.Project.Namespace = DefaultNamespace(m.Project.Name)
	}

	if err := m.checkDecls(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	log.Debugf("loaded manifest %s (%d types)", path, len(m.Types))
	return &m, nil
}

// FindAndLoad walks up from startDir to find a totem.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// checkDecls applies the checks the schema cannot express: builtin
// selector names belong to the runtime, not to manifests.
func (m *Manifest) checkDecls() error {
	for _, decl := range m.Types {
		for _, op := range decl.VirtualOps {
			if IsReservedSelector(op) {
				return fmt.Errorf("type %s: virtual op %q is a builtin selector", decl.Name, op)
			}
		}
	}
	return nil
}

// Resolver returns the project's display-name resolver.
func (m *Manifest) Resolver() Namespacer {
	return Namespacer{Namespace: m.Project.Namespace}
}
