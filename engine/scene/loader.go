package scene

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
)

// BuiltinGrid is the path that loads DefaultDescription without reading a file.
const BuiltinGrid = "builtin:grid"

// fileLoader is the implementation of the Loader interface. It reads scene descriptions in
// TOML or YAML and builds grid scenes from them.
type fileLoader struct {
	mu *sync.Mutex

	backend renderer.Backend
	loader  shader.ProgramLoader
}

var _ Loader = &fileLoader{}

// NewLoader creates a Loader that builds scenes on backend with programs from the given
// program backend.
//
// Parameters:
//   - backend: the GPU backend
//   - programBackend: the program backend resolved at startup
//   - options: variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the new loader
func NewLoader(backend renderer.Backend, programBackend shader.ProgramBackend, options ...LoaderBuilderOption) Loader {
	l := &fileLoader{
		mu:      &sync.Mutex{},
		backend: backend,
	}
	for _, opt := range options {
		opt(l)
	}
	if l.loader == nil {
		l.loader = shader.NewProgramLoader(programBackend, ProgramFS())
	}
	return l
}

func (l *fileLoader) Load(path string) (Scene, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	desc := DefaultDescription()
	if !strings.EqualFold(path, BuiltinGrid) {
		if err := config.DecodeFile(path, &desc); err != nil {
			return nil, fmt.Errorf("failed to load scene: %w", err)
		}
		if desc.Name == "" {
			desc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}

	s, err := NewGridScene(l.backend, l.loader, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene %s: %w", path, err)
	}
	common.Logger().Info("scene loaded", "path", path, "name", desc.Name, "cameras", len(desc.Cameras))
	return s, nil
}
