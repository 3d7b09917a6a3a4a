// Package preset persists named filter views so an analyst can jump back
// to a saved slice of the dataset. All views live in one JSON store file,
// written atomically.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quatqasymbek/ai-course-dash/internal/filter"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

const storeFileName = "views.json"

// Preset is one saved filter view. Selection semantics mirror the engine:
// a missing/null key is an unset filter, an explicit empty list is a
// cleared multiselect that matches nothing. JSON keeps the distinction
// (null vs []), so presets round-trip it.
type Preset struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Region       []string            `json:"region,omitempty"`
	District     []string            `json:"district,omitempty"`
	Organization []string            `json:"organization,omitempty"`
	Independent  map[string][]string `json:"independent,omitempty"`
	AgeMin       *float64            `json:"age_min,omitempty"`
	AgeMax       *float64            `json:"age_max,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// FromState captures engine selections as a persistable preset. Unbounded
// age ends become nil so the JSON never carries infinities.
func FromState(name, description string, st *filter.State) *Preset {
	p := &Preset{Name: name, Description: description}
	if st == nil {
		return p
	}
	p.Region = st.Region
	p.District = st.District
	p.Organization = st.Organization
	if len(st.Independent) > 0 {
		p.Independent = make(map[string][]string, len(st.Independent))
		for col, sel := range st.Independent {
			p.Independent[col] = sel
		}
	}
	if st.Age != nil {
		if !math.IsInf(st.Age.Min, -1) {
			v := st.Age.Min
			p.AgeMin = &v
		}
		if !math.IsInf(st.Age.Max, 1) {
			v := st.Age.Max
			p.AgeMax = &v
		}
	}
	return p
}

// State converts the preset back into engine selections.
func (p *Preset) State() *filter.State {
	st := &filter.State{
		Region:       filter.Selection(p.Region),
		District:     filter.Selection(p.District),
		Organization: filter.Selection(p.Organization),
	}
	if len(p.Independent) > 0 {
		st.Independent = make(map[string]filter.Selection, len(p.Independent))
		for col, vals := range p.Independent {
			st.Independent[col] = filter.Selection(vals)
		}
	}
	if p.AgeMin != nil || p.AgeMax != nil {
		r := &filter.Range{Min: math.Inf(-1), Max: math.Inf(1)}
		if p.AgeMin != nil {
			r.Min = *p.AgeMin
		}
		if p.AgeMax != nil {
			r.Max = *p.AgeMax
		}
		st.Age = r
	}
	return st
}

// Store reads and writes the views file under dir.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created lazily
// on the first save.
func NewStore(dir string) *Store { return &Store{dir: dir} }

func (s *Store) path() string { return filepath.Join(s.dir, storeFileName) }

// load reads the whole store; a missing file is an empty store.
func (s *Store) load() (map[string]*Preset, error) {
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]*Preset{}, nil
		}
		return nil, fmt.Errorf("read views: %w", err)
	}
	var m map[string]*Preset
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}
	if m == nil {
		m = map[string]*Preset{}
	}
	return m, nil
}

func (s *Store) save(m map[string]*Preset) error {
	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("ensure views dir: %w", err)
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(s.path(), data)
}

// Save upserts a preset by name. New presets get an ID and CreatedAt;
// existing ones keep both and bump UpdatedAt.
func (s *Store) Save(p *Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("view name is required")
	}
	m, err := s.load()
	if err != nil {
		return err
	}
	now := time.Now()
	if prev, ok := m[p.Name]; ok {
		p.ID = prev.ID
		p.CreatedAt = prev.CreatedAt
	} else {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m[p.Name] = p
	return s.save(m)
}

// Get returns the named preset.
func (s *Store) Get(name string) (*Preset, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	p, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("view %q not found", name)
	}
	return p, nil
}

// List returns all presets sorted by name.
func (s *Store) List() ([]*Preset, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Preset, 0, len(names))
	for _, name := range names {
		out = append(out, m[name])
	}
	return out, nil
}

// Delete removes the named preset.
func (s *Store) Delete(name string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[name]; !ok {
		return fmt.Errorf("view %q not found", name)
	}
	delete(m, name)
	return s.save(m)
}
