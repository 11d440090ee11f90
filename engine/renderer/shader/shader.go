package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// ErrUnknownProgramBackend is returned when a program backend name is not recognized.
var ErrUnknownProgramBackend = errors.New("unknown program backend")

// ProgramBackend selects how scene programs are produced. It is resolved once at startup.
type ProgramBackend int

const (
	// ProgramBackendOriginal loads plain WGSL files ("<name>.wgsl") as written.
	ProgramBackendOriginal ProgramBackend = iota

	// ProgramBackendPreprocessed loads annotated files ("<name>.oxy.wgsl") and expands them
	// with the pre-processor.
	ProgramBackendPreprocessed
)

// ParseProgramBackend parses a program backend name. The empty string selects ProgramBackendOriginal.
//
// Parameters:
//   - s: "original" or "preprocessed", case insensitive
//
// Returns:
//   - ProgramBackend: the parsed backend
//   - error: ErrUnknownProgramBackend if s is not recognized
func ParseProgramBackend(s string) (ProgramBackend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "original":
		return ProgramBackendOriginal, nil
	case "preprocessed":
		return ProgramBackendPreprocessed, nil
	}
	return ProgramBackendOriginal, fmt.Errorf("%w: %q", ErrUnknownProgramBackend, s)
}

func (b ProgramBackend) String() string {
	if b == ProgramBackendPreprocessed {
		return "preprocessed"
	}
	return "original"
}

// StatsFileName returns the file name profiling results are written to for this backend.
func (b ProgramBackend) StatsFileName() string {
	return "stats-" + b.String() + ".txt"
}

// WindowTitle returns the viewer window title for this backend.
func (b ProgramBackend) WindowTitle() string {
	if b == ProgramBackendPreprocessed {
		return "Oxy+Preprocessed Scene Viewer"
	}
	return "Oxy Scene Viewer"
}

// FileName returns the file a program named name is read from under this backend.
func (b ProgramBackend) FileName(name string) string {
	if b == ProgramBackendPreprocessed {
		return name + ".oxy.wgsl"
	}
	return name + ".wgsl"
}

// programLoader is the implementation of the ProgramLoader interface.
type programLoader struct {
	mu *sync.Mutex

	backend       ProgramBackend
	fsys          fs.FS
	vertexEntry   string
	fragmentEntry string
	ppOptions     []PreProcessorBuilderOption
	pp            PreProcessor
}

// ProgramLoader turns named scene programs into backend program descriptors according to the
// selected ProgramBackend.
type ProgramLoader interface {
	// Backend returns the program backend this loader was created with.
	//
	// Returns:
	//   - ProgramBackend: the loader's backend
	Backend() ProgramBackend

	// Load reads the program called name and returns a scene program descriptor for it.
	//
	// Parameters:
	//   - name: the program name without extension
	//   - uniformSize: the size of the program's uniform block in bytes
	//
	// Returns:
	//   - renderer.ProgramDescriptor: the descriptor ready for Backend.CreateProgram
	//   - error: an error if the file cannot be read or pre-processing fails
	Load(name string, uniformSize uint64) (renderer.ProgramDescriptor, error)

	// Declarations returns the bind group declarations collected by the most recent Load.
	// It is always empty for ProgramBackendOriginal.
	//
	// Returns:
	//   - []Annotation: the declarations of the last preprocessed program
	Declarations() []Annotation
}

var _ ProgramLoader = &programLoader{}

// NewProgramLoader creates a new ProgramLoader reading program files from fsys.
//
// Parameters:
//   - backend: the program backend
//   - fsys: the file system holding the program files
//   - options: variadic list of ProgramLoaderBuilderOption functions
//
// Returns:
//   - ProgramLoader: the new loader
func NewProgramLoader(backend ProgramBackend, fsys fs.FS, options ...ProgramLoaderBuilderOption) ProgramLoader {
	l := &programLoader{
		mu:            &sync.Mutex{},
		backend:       backend,
		fsys:          fsys,
		vertexEntry:   "vs_main",
		fragmentEntry: "fs_main",
	}
	for _, opt := range options {
		opt(l)
	}
	if backend == ProgramBackendPreprocessed {
		l.pp = NewPreProcessor(append([]PreProcessorBuilderOption{WithFS(fsys)}, l.ppOptions...)...)
	}
	return l
}

func (l *programLoader) Backend() ProgramBackend {
	return l.backend
}

func (l *programLoader) Load(name string, uniformSize uint64) (renderer.ProgramDescriptor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file := l.backend.FileName(name)
	var source string
	if l.pp != nil {
		expanded, err := l.pp.ProcessFile(file)
		if err != nil {
			return renderer.ProgramDescriptor{}, fmt.Errorf("failed to preprocess program %s: %w", name, err)
		}
		source = expanded
	} else {
		data, err := fs.ReadFile(l.fsys, file)
		if err != nil {
			return renderer.ProgramDescriptor{}, fmt.Errorf("failed to read program %s: %w", name, err)
		}
		source = string(data)
	}

	return renderer.ProgramDescriptor{
		Label:         name + "." + l.backend.String(),
		Source:        source,
		VertexEntry:   l.vertexEntry,
		FragmentEntry: l.fragmentEntry,
		Kind:          renderer.ProgramKindScene,
		UniformSize:   uniformSize,
	}, nil
}

func (l *programLoader) Declarations() []Annotation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pp == nil {
		return nil
	}
	return l.pp.Declarations()
}
