package projects

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lwd-temp/gitbutler/errors"
)

// Storage persists the project registry as a JSON file under the data dir.
type Storage struct {
	path string
	mu   sync.Mutex
}

// NewStorage creates a Storage backed by the given registry file path.
func NewStorage(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create data directory")
	}
	return &Storage{path: path}, nil
}

// Add registers a new project for the given work directory path.
func (s *Storage) Add(path, title string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.InvalidInput("invalid project path: " + path)
	}
	for _, p := range list {
		if p.Path == abs {
			return nil, errors.ProjectExists(abs)
		}
	}

	if title == "" {
		title = filepath.Base(abs)
	}
	project := &Project{
		ID:        newID(),
		Title:     title,
		Path:      abs,
		CreatedAt: time.Now().UTC(),
	}
	list = append(list, project)

	if err := s.save(list); err != nil {
		return nil, err
	}
	return project, nil
}

// Get returns the project with the given id.
func (s *Storage) Get(id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.ProjectNotFound(id)
}

// List returns all registered projects, archived ones included.
func (s *Storage) List() ([]*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// SetArchived flips the archived flag on a project. Archived projects are
// not watched but keep their recorded history.
func (s *Storage) SetArchived(id string, archived bool) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		if p.ID == id {
			p.Archived = archived
			if err := s.save(list); err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return nil, errors.ProjectNotFound(id)
}

// SetTitle renames a project.
func (s *Storage) SetTitle(id, title string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		return nil, errors.InvalidInput("project title cannot be empty")
	}
	list, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		if p.ID == id {
			p.Title = title
			if err := s.save(list); err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return nil, errors.ProjectNotFound(id)
}

// Delete removes a project from the registry.
func (s *Storage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, p := range list {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return errors.ProjectNotFound(id)
	}
	return s.save(kept)
}

func (s *Storage) load() ([]*Project, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read project registry")
	}
	var list []*Project
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "corrupt project registry")
	}
	return list, nil
}

// save writes the registry atomically via a temp file rename.
func (s *Storage) save(list []*Project) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal project registry")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write project registry")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to replace project registry")
	}
	return nil
}
