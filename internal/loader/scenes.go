package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/scene-lint/pkg/content"
	"gopkg.in/yaml.v3"
)

// SceneDoc is one parsed scene document and where it came from
type SceneDoc struct {
	Source string // Base filename, used to prefix findings
	Path   string
	Scene  content.Scene
}

// SceneSet holds every scene document that parsed and carried an id.
// Docs keeps duplicates so their internal checks still run; ByID points at the first document for each id.
type SceneSet struct {
	Docs []*SceneDoc
	ByID map[string]*SceneDoc
}

func (s *SceneSet) Has(id string) bool {
	_, ok := s.ByID[id]
	return ok
}

// Loader reads content sources from disk
type Loader struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

var sceneExtensions = map[string]string{
	".json": "JSON",
	".yaml": "YAML",
	".yml":  "YAML",
}

// LoadScenes parses every scene document directly inside dir, in filename order.
// The returned error strings are hard validation errors for the failing documents.
func (l *Loader) LoadScenes(dir string) (*SceneSet, []string) {
	set := &SceneSet{ByID: make(map[string]*SceneDoc)}
	var errs []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		l.logger.Error("Failed to read scene directory", "dir", dir, "error", err)
		return set, []string{fmt.Sprintf("cannot read scene directory %s: %v", dir, err)}
	}

	// os.ReadDir returns entries sorted by filename
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		kind, ok := sceneExtensions[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := readSource(path)
		if err != nil {
			l.logger.Warn("Failed to read scene file", "path", path, "error", err)
			errs = append(errs, fmt.Sprintf("cannot read scene file %s: %v", name, err))
			continue
		}

		var scene content.Scene
		if err := decodeScene(kind, data, &scene); err != nil {
			l.logger.Warn("Failed to unmarshal scene file", "path", path, "error", err)
			errs = append(errs, fmt.Sprintf("%s parse error: %s: %v", kind, name, err))
			continue
		}

		id := string(scene.ID)
		if id == "" {
			errs = append(errs, fmt.Sprintf("Invalid scene file: %s: missing id", name))
			continue
		}

		doc := &SceneDoc{Source: name, Path: path, Scene: scene}
		if _, dup := set.ByID[id]; dup {
			errs = append(errs, fmt.Sprintf("Duplicate scene id: %s in %s", id, name))
		} else {
			set.ByID[id] = doc
		}
		set.Docs = append(set.Docs, doc)
	}

	l.logger.Debug("Loaded scenes", "dir", dir, "documents", len(set.Docs), "unique_ids", len(set.ByID))
	return set, errs
}

// decodeScene fails only when the document itself is malformed; field values of an
// unexpected type are dropped by the content types.
func decodeScene(kind string, data []byte, scene *content.Scene) error {
	if kind == "YAML" {
		return yaml.Unmarshal(data, scene)
	}
	return json.Unmarshal(data, scene)
}
