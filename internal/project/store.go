package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"appforge/internal/fileutil"
	"appforge/internal/logging"
	"appforge/internal/security"
)

var (
	// ErrNoProject is returned by accessors when no project is current.
	ErrNoProject = errors.New("no current project selected")
	// ErrInvalidName is returned for names that are not a single folder name.
	ErrInvalidName = errors.New("invalid project name")
	// ErrMemoryKeyNotFound is returned by MemoryGet for unknown keys.
	ErrMemoryKeyNotFound = errors.New("memory key not found")
)

// DefaultTemplateDir is the template used when none is configured.
const DefaultTemplateDir = "templates/react-simple-spa"

// memoryFile holds a project's notes so a later run can pick them up.
const memoryFile = ".appforge-memory.json"

// Project is one application-generation effort.
type Project struct {
	Name   string
	memory *orderedmap.OrderedMap[string, string]
}

// KV is one memory entry.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store tracks the projects of one pipeline run and which of them is current.
// It is created per run and passed explicitly; nothing here is global.
type Store struct {
	mu          sync.RWMutex
	baseDir     string
	templateDir string
	projects    map[string]*Project
	current     string
}

// NewStore creates a store rooted at baseDir. An empty templateDir selects
// DefaultTemplateDir.
func NewStore(baseDir, templateDir string) (*Store, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	if templateDir == "" {
		templateDir = DefaultTemplateDir
	}
	return &Store{
		baseDir:     abs,
		templateDir: templateDir,
		projects:    make(map[string]*Project),
	}, nil
}

// BaseDir returns the absolute base storage directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// ValidateName checks that name is usable as a single folder under the base dir.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q must not start with a dot", ErrInvalidName, name)
	}
	return nil
}

// SetCurrent registers name and makes it current when nothing is current
// yet. If a different project is already current it does not switch and
// returns an informational message instead; use Switch to change projects.
func (s *Store) SetCurrent(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.current {
	case "":
		if err := s.registerLocked(name); err != nil {
			return "", err
		}
		s.current = name
		logging.Info("project selected", "project", name)
		return fmt.Sprintf("Current project set to: %s", name), nil
	case name:
		return fmt.Sprintf("Project '%s' is already current", name), nil
	default:
		logging.Warn("ignored implicit project switch", "current", s.current, "requested", name)
		return fmt.Sprintf("Project '%s' is already current; not switching to '%s'. Use switch_project to change projects deliberately.", s.current, name), nil
	}
}

// Switch makes name current, registering it if needed. It never touches
// the previously current project.
func (s *Store) Switch(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registerLocked(name); err != nil {
		return "", err
	}
	prev := s.current
	s.current = name
	logging.Info("project switched", "from", prev, "to", name)
	return fmt.Sprintf("Switched current project to: %s", name), nil
}

// SetAppName is the implicit creation path used by the requirements phase.
// It creates the project folder and then behaves like SetCurrent. The paths
// in the message are those of the project that is current afterwards, which
// is not name when another project was already current.
func (s *Store) SetAppName(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(s.baseDir, name), 0755); err != nil {
		return "", fmt.Errorf("create project folder: %w", err)
	}
	msg, err := s.SetCurrent(name)
	if err != nil {
		return "", err
	}

	current, _ := s.Current()
	root := filepath.Join(s.baseDir, current)
	return fmt.Sprintf("%s\nApp folder: %s\nPRD path: %s\nSpec path: %s", msg, root,
		derivePath(root, s.templateDir, KindRequirementsDoc), derivePath(root, s.templateDir, KindSpecDoc)), nil
}

// Current returns the current project name.
func (s *Store) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}

// ListAll returns every known project: the immediate subdirectories of the
// base dir, scanned on each call, plus projects registered in memory.
func (s *Store) ListAll() ([]string, error) {
	seen := make(map[string]struct{})

	entries, err := os.ReadDir(s.baseDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scan %s: %w", s.baseDir, err)
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			seen[e.Name()] = struct{}{}
		}
	}

	s.mu.RLock()
	for name := range s.projects {
		seen[name] = struct{}{}
	}
	s.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Path returns a derived location of the current project.
func (s *Store) Path(kind Kind) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == "" {
		return "", ErrNoProject
	}
	return derivePath(filepath.Join(s.baseDir, s.current), s.templateDir, kind), nil
}

// PathOf returns a derived location of a named project without changing
// which project is current.
func (s *Store) PathOf(name string, kind Kind) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return derivePath(filepath.Join(s.baseDir, name), s.templateDir, kind), nil
}

// Guard returns a path guard confined to the current project root.
func (s *Store) Guard() (*security.PathGuard, error) {
	root, err := s.Path(KindRoot)
	if err != nil {
		return nil, err
	}
	return security.NewPathGuard(root)
}

// MemorySet stores a note for the current project.
func (s *Store) MemorySet(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.currentLocked()
	if err != nil {
		return err
	}
	p.memory.Set(key, value)
	return s.persistLocked(p)
}

// MemoryGet reads a note of the current project.
func (s *Store) MemoryGet(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.currentLocked()
	if err != nil {
		return "", err
	}
	v, ok := p.memory.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMemoryKeyNotFound, key)
	}
	return v, nil
}

// MemoryAll returns the current project's notes in insertion order.
func (s *Store) MemoryAll() ([]KV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.currentLocked()
	if err != nil {
		return nil, err
	}
	out := make([]KV, 0, p.memory.Len())
	for pair := p.memory.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, KV{Key: pair.Key, Value: pair.Value})
	}
	return out, nil
}

// MemoryJSON renders the current project's notes as an ordered JSON object.
func (s *Store) MemoryJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.currentLocked()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(p.memory, "", "  ")
}

func (s *Store) currentLocked() (*Project, error) {
	if s.current == "" {
		return nil, ErrNoProject
	}
	p, ok := s.projects[s.current]
	if !ok {
		return nil, ErrNoProject
	}
	return p, nil
}

// registerLocked adds name to the registry and creates its root folder.
func (s *Store) registerLocked(name string) error {
	if _, ok := s.projects[name]; ok {
		return nil
	}

	root := filepath.Join(s.baseDir, name)
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("create project folder: %w", err)
	}

	p := &Project{Name: name, memory: orderedmap.New[string, string]()}
	if data, err := os.ReadFile(filepath.Join(root, memoryFile)); err == nil {
		if err := json.Unmarshal(data, p.memory); err != nil {
			logging.Warn("ignoring unreadable project memory", "project", name, "error", err)
			p.memory = orderedmap.New[string, string]()
		}
	}

	s.projects[name] = p
	return nil
}

func (s *Store) persistLocked(p *Project) error {
	data, err := json.MarshalIndent(p.memory, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.AtomicWrite(filepath.Join(s.baseDir, p.Name, memoryFile), data, 0644)
}
