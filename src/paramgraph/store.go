package paramgraph

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type storeMetaJSON struct {
	Name string `json:"name"`
}
type storeListJSON struct {
	Items []storeMetaJSON `json:"items"`
}

// Store keeps named snapshots as JSON files in one directory, with a
// _list.json index alongside them.
type Store struct {
	dir   string
	graph *Graph
	names []string
}

// NewStore ...
func NewStore(dir string, g *Graph) *Store {
	return &Store{
		dir:   dir,
		graph: g,
	}
}

// List returns the saved snapshot names.
func (s *Store) List() ([]string, error) {
	if s.names == nil {
		if err := s.loadList(); err != nil {
			return nil, err
		}
	}
	return s.names, nil
}

// Save captures the graph and writes it as <dir>/<name>.json.
func (s *Store) Save(name string) error {
	if s.names == nil {
		if err := s.loadList(); err != nil {
			return err
		}
	}
	bytes, err := json.MarshalIndent(s.graph.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name+".json"), bytes, 0o644); err != nil {
		return err
	}
	for _, n := range s.names {
		if n == name {
			return nil
		}
	}
	s.names = append(s.names, name)
	return s.saveList()
}

// Apply loads <dir>/<name>.json into the graph.
func (s *Store) Apply(name string) error {
	bytes, err := os.ReadFile(filepath.Join(s.dir, name+".json"))
	if err != nil {
		return err
	}
	var snap Snapshot
	if err := json.Unmarshal(bytes, &snap); err != nil {
		return err
	}
	s.graph.LoadSnapshot(&snap)
	return nil
}

func (s *Store) loadList() error {
	bytes, err := os.ReadFile(filepath.Join(s.dir, "_list.json"))
	if os.IsNotExist(err) {
		s.names = make([]string, 0, 128)
		return nil
	}
	if err != nil {
		return err
	}
	var list storeListJSON
	if err := json.Unmarshal(bytes, &list); err != nil {
		return err
	}
	s.names = make([]string, len(list.Items))
	for i, item := range list.Items {
		s.names[i] = item.Name
	}
	return nil
}

func (s *Store) saveList() error {
	list := storeListJSON{Items: make([]storeMetaJSON, len(s.names))}
	for i, n := range s.names {
		list.Items[i] = storeMetaJSON{Name: n}
	}
	bytes, err := json.MarshalIndent(&list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, "_list.json"), bytes, 0o644)
}
