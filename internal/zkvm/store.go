package zkvm

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"pnl_prover/internal/models"
)

const (
	manifestFile = "manifest.yaml"
	ccsFile      = "circuit.ccs"
	pkFile       = "proving.key"
	vkFile       = "verifying.key"
)

// Manifest фиксирует идентичности собранных программ, чтобы верификатор мог проверить
// квитанцию без пересборки схемы.
type Manifest struct {
	Programs []ManifestEntry `yaml:"programs"`
}

type ManifestEntry struct {
	Name        string              `yaml:"name"`
	Identity    string              `yaml:"identity"`
	Policy      models.PolicyConfig `yaml:"policy"`
	Constraints int                 `yaml:"constraints"`
	BuiltAt     time.Time           `yaml:"built_at"`
}

func (m *Manifest) byName(name string) (ManifestEntry, bool) {
	for _, e := range m.Programs {
		if e.Name == name {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

func (m *Manifest) byIdentity(id string) (ManifestEntry, bool) {
	for _, e := range m.Programs {
		if e.Identity == id {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

func (m *Manifest) put(e ManifestEntry) {
	for i := range m.Programs {
		if m.Programs[i].Name == e.Name {
			m.Programs[i] = e
			return
		}
	}
	m.Programs = append(m.Programs, e)
}

// Store: каталог артефактов: <dir>/manifest.yaml и <dir>/<policy>/{circuit.ccs,proving.key,verifying.key}.
type Store struct {
	dir string

	mu       sync.RWMutex
	programs map[string]*Program // by name, provable
	verifier map[string]*Program // by identity, VK only
}

func NewStore(dir string) *Store {
	return &Store{
		dir:      dir,
		programs: make(map[string]*Program),
		verifier: make(map[string]*Program),
	}
}

func (s *Store) Dir() string { return s.dir }

// Build compiles, sets up and persists a program, replacing any previous build.
func (s *Store) Build(cfg models.PolicyConfig) (*Program, error) {
	prog, err := Compile(cfg)
	if err != nil {
		return nil, err
	}
	if err = s.save(prog); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.programs[cfg.Name] = prog
	s.verifier[prog.Identity] = prog
	s.mu.Unlock()
	return prog, nil
}

// Load returns the provable program for a policy name.
func (s *Store) Load(name string) (*Program, error) {
	s.mu.RLock()
	prog, ok := s.programs[name]
	s.mu.RUnlock()
	if ok {
		return prog, nil
	}

	m, err := s.Manifest()
	if err != nil {
		return nil, err
	}
	entry, ok := m.byName(name)
	if !ok {
		return nil, errors.Wrapf(ErrProgramNotFound, "policy %q", name)
	}

	prog, err = s.readProgram(entry, true)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.programs[name] = prog
	s.mu.Unlock()
	return prog, nil
}

// ByIdentity returns a verify-only program for an identity.
func (s *Store) ByIdentity(id string) (*Program, error) {
	s.mu.RLock()
	prog, ok := s.verifier[id]
	s.mu.RUnlock()
	if ok {
		return prog, nil
	}

	m, err := s.Manifest()
	if err != nil {
		return nil, err
	}
	entry, ok := m.byIdentity(id)
	if !ok {
		return nil, errors.Wrapf(ErrProgramNotFound, "identity %s", id)
	}

	prog, err = s.readProgram(entry, false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.verifier[id] = prog
	s.mu.Unlock()
	return prog, nil
}

// Manifest reads the manifest; a missing file is an empty manifest.
func (s *Store) Manifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err = yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decode manifest")
	}
	return &m, nil
}

func (s *Store) save(prog *Program) error {
	dir := filepath.Join(s.dir, prog.Policy.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create artifact dir")
	}

	if err := writeFile(filepath.Join(dir, ccsFile), prog.CCS.WriteTo); err != nil {
		return errors.Wrap(err, "write ccs")
	}
	if err := writeFile(filepath.Join(dir, pkFile), prog.PK.WriteRawTo); err != nil {
		return errors.Wrap(err, "write pk")
	}
	if err := writeFile(filepath.Join(dir, vkFile), prog.VK.WriteRawTo); err != nil {
		return errors.Wrap(err, "write vk")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Manifest()
	if err != nil {
		return err
	}
	m.put(ManifestEntry{
		Name:        prog.Policy.Name,
		Identity:    prog.Identity,
		Policy:      prog.Policy,
		Constraints: prog.CCS.GetNbConstraints(),
		BuiltAt:     time.Now().UTC(),
	})
	out, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(s.dir, manifestFile), out, 0o644), "write manifest")
}

func (s *Store) readProgram(entry ManifestEntry, provable bool) (*Program, error) {
	dir := filepath.Join(s.dir, entry.Name)

	vk := groth16.NewVerifyingKey(curve)
	if err := readFile(filepath.Join(dir, vkFile), vk.ReadFrom); err != nil {
		return nil, errors.Wrapf(err, "read vk for %s", entry.Name)
	}
	id, err := Identity(vk)
	if err != nil {
		return nil, err
	}
	if id != entry.Identity {
		return nil, errors.Wrapf(ErrTampered, "%s: manifest %s, key %s", entry.Name, entry.Identity, id)
	}

	prog := &Program{Policy: entry.Policy, Identity: id, VK: vk}
	if !provable {
		return prog, nil
	}

	prog.CCS = groth16.NewCS(curve)
	if err = readFile(filepath.Join(dir, ccsFile), prog.CCS.ReadFrom); err != nil {
		return nil, errors.Wrapf(err, "read ccs for %s", entry.Name)
	}
	prog.PK = groth16.NewProvingKey(curve)
	if err = readFile(filepath.Join(dir, pkFile), prog.PK.ReadFrom); err != nil {
		return nil, errors.Wrapf(err, "read pk for %s", entry.Name)
	}
	return prog, nil
}

func writeFile(path string, write func(io.Writer) (int64, error)) error {
	var buf bytes.Buffer
	if _, err := write(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func readFile(path string, read func(io.Reader) (int64, error)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.Wrap(ErrProgramNotFound, path)
		}
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	_, err = read(f)
	return err
}
