package history

import (
	"fmt"
	"strings"
)

func (s *Store) collectionIndex(id string) int {
	for i, c := range s.collections {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// CreateCollection creates an empty collection.
func (s *Store) CreateCollection(name, description string, tags []string, isPublic bool) (Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, fmt.Errorf("collection name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Collection{}, errClosed
	}
	now := s.clock.Now()
	c := Collection{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		Components:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        normalizeTags(tags),
		IsPublic:    isPublic,
	}
	s.collections = append(s.collections, c)
	return c.clone(), s.persistCollections()
}

// Collections returns all collections in creation order.
func (s *Store) Collections() []Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Collection, len(s.collections))
	for i, c := range s.collections {
		out[i] = c.clone()
	}
	return out
}

// GetCollection returns one collection.
func (s *Store) GetCollection(id string) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.collectionIndex(id)
	if i < 0 {
		return Collection{}, fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	return s.collections[i].clone(), nil
}

// AddToCollection appends an entry to a collection. Both must exist. Adding
// an entry that is already a member is a no-op.
func (s *Store) AddToCollection(collectionID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	ci := s.collectionIndex(collectionID)
	if ci < 0 {
		return fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	if s.index(entryID) < 0 {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	c := &s.collections[ci]
	for _, id := range c.Components {
		if id == entryID {
			return nil
		}
	}
	c.Components = append(c.Components, entryID)
	c.UpdatedAt = s.clock.Now()
	return s.persistCollections()
}

// RemoveFromCollection removes an entry from a collection.
func (s *Store) RemoveFromCollection(collectionID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	ci := s.collectionIndex(collectionID)
	if ci < 0 {
		return fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	c := &s.collections[ci]
	for i, id := range c.Components {
		if id == entryID {
			c.Components = append(c.Components[:i], c.Components[i+1:]...)
			c.UpdatedAt = s.clock.Now()
			return s.persistCollections()
		}
	}
	return fmt.Errorf("entry %s in collection %s: %w", entryID, collectionID, ErrNotFound)
}

// DeleteCollection removes a collection. Its entries are not touched.
func (s *Store) DeleteCollection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	ci := s.collectionIndex(id)
	if ci < 0 {
		return fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	s.collections = append(s.collections[:ci], s.collections[ci+1:]...)
	return s.persistCollections()
}
