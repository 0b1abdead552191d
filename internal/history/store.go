// Package history records every generated component with versioning, usage
// statistics, favorites, ratings and named collections. State is written
// through to a key-value store on every mutation.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kalambet/magic/internal/storage"
)

// Keys under which the store persists its state.
const (
	EntriesKey     = "magic.history.entries"
	CollectionsKey = "magic.history.collections"
)

// DefaultMaxEntries is the default retention cap.
const DefaultMaxEntries = 100

// KV is the persistent key-value store. Get must return an error wrapping
// storage.ErrNotFound for a missing key.
type KV interface {
	Get(key string) (string, error)
	Put(key, value string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Store is the component history. It is safe for concurrent use; every
// public operation holds a single lock for its full read-modify-persist
// cycle.
type Store struct {
	kv     KV
	max    int
	clock  Clock
	newID  func() string
	logger *slog.Logger

	mu          sync.Mutex
	entries     []Entry // insertion order
	collections []Collection
	closed      bool
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries sets the retention cap. Values below 1 keep the default.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithClock replaces the wall clock (for testing).
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator replaces uuid generation (for testing).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open loads the history from kv. Missing keys mean an empty history;
// unparseable ones are an error.
func Open(kv KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		max:    DefaultMaxEntries,
		clock:  realClock{},
		newID:  func() string { return uuid.New().String() },
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.load(EntriesKey, &s.entries); err != nil {
		return nil, err
	}
	if err := s.load(CollectionsKey, &s.collections); err != nil {
		return nil, err
	}
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].Timestamp.Before(s.entries[j].Timestamp)
	})
	s.logger.Debug("history loaded", "entries", len(s.entries), "collections", len(s.collections))
	return s, nil
}

func (s *Store) load(key string, dst any) error {
	raw, err := s.kv.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// Close flushes the current state. Further mutations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.persistAll()
}

var errClosed = errors.New("history store is closed")

func (s *Store) persistEntries() error {
	data, err := json.Marshal(nonNil(s.entries))
	if err != nil {
		return err
	}
	if err := s.kv.Put(EntriesKey, string(data)); err != nil {
		return fmt.Errorf("persisting history entries: %w", err)
	}
	return nil
}

func (s *Store) persistCollections() error {
	data, err := json.Marshal(nonNil(s.collections))
	if err != nil {
		return err
	}
	if err := s.kv.Put(CollectionsKey, string(data)); err != nil {
		return fmt.Errorf("persisting collections: %w", err)
	}
	return nil
}

// batchKV is implemented by stores that write several keys atomically,
// such as storage.Store.
type batchKV interface {
	PutAll(values map[string]string) error
}

func (s *Store) persistAll() error {
	b, ok := s.kv.(batchKV)
	if !ok {
		return errors.Join(s.persistEntries(), s.persistCollections())
	}
	entries, err := json.Marshal(nonNil(s.entries))
	if err != nil {
		return err
	}
	cols, err := json.Marshal(nonNil(s.collections))
	if err != nil {
		return err
	}
	if err := b.PutAll(map[string]string{
		EntriesKey:     string(entries),
		CollectionsKey: string(cols),
	}); err != nil {
		return fmt.Errorf("persisting history: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Add records a generation. The entry name is taken from the component's
// exported name, or derived from the prompt. If an existing entry has the
// same code after whitespace and case normalization, the new entry reuses
// that name with the next version number; the earlier entry is kept.
//
// After the insert, the oldest non-favorite entries are pruned until the
// store is back at its cap. The returned entry is as inserted; if favorites
// alone fill the store, it may already have been pruned.
//
// A non-nil error with a non-zero Entry means the entry was recorded in
// memory but could not be persisted.
func (s *Store) Add(code, prompt string, meta Metadata) (Entry, error) {
	return s.add("", code, prompt, meta)
}

func (s *Store) add(name, code, prompt string, meta Metadata) (Entry, error) {
	meta, err := meta.Normalize()
	if err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Entry{}, errClosed
	}

	if name == "" {
		name = ComponentName(code, prompt)
	}
	version := 1
	norm := normalizeCode(code)
	for _, e := range s.entries {
		if normalizeCode(e.Code) != norm {
			continue
		}
		if e.Version >= version {
			version = e.Version + 1
			name = e.Name
		}
	}

	entry := Entry{
		ID:        s.newID(),
		Name:      name,
		Code:      code,
		Prompt:    prompt,
		Timestamp: s.clock.Now(),
		Version:   version,
		Metadata:  meta,
	}
	s.entries = append(s.entries, entry)
	pruned := s.prune()
	if len(pruned) > 0 {
		s.logger.Debug("pruned history", "removed", len(pruned), "size", len(s.entries))
	}

	return entry.clone(), s.persistRemoval(pruned)
}

// persistRemoval drops the removed ids from every collection, then writes
// the entries and, when a collection changed, the collections too. Memory is
// consistent even if the write fails.
func (s *Store) persistRemoval(removed map[string]bool) error {
	if s.scrubCollections(removed) {
		return s.persistAll()
	}
	return s.persistEntries()
}

// prune removes the oldest non-favorite entries until the store is within
// its cap, returning the removed ids.
func (s *Store) prune() map[string]bool {
	excess := len(s.entries) - s.max
	if excess <= 0 {
		return nil
	}
	var candidates []int
	for i, e := range s.entries {
		if !e.Stats.Favorite {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return s.entries[candidates[a]].Timestamp.Before(s.entries[candidates[b]].Timestamp)
	})
	if excess > len(candidates) {
		excess = len(candidates)
	}

	removed := make(map[string]bool, excess)
	for _, i := range candidates[:excess] {
		removed[s.entries[i].ID] = true
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !removed[e.ID] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return removed
}

// scrubCollections drops removed ids from every collection and reports
// whether anything changed.
func (s *Store) scrubCollections(removed map[string]bool) bool {
	if len(removed) == 0 {
		return false
	}
	changed := false
	now := s.clock.Now()
	for i := range s.collections {
		c := &s.collections[i]
		kept := c.Components[:0]
		for _, id := range c.Components {
			if !removed[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(c.Components) {
			c.Components = kept
			c.UpdatedAt = now
			changed = true
		}
	}
	return changed
}

func (s *Store) index(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the entry and records the access: its usage count goes up by
// one and its last-used time is set to now.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Entry{}, errClosed
	}
	i := s.index(id)
	if i < 0 {
		return Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	now := s.clock.Now()
	s.entries[i].Stats.UsageCount++
	s.entries[i].Stats.LastUsed = &now
	return s.entries[i].clone(), s.persistEntries()
}

// Peek returns the entry without recording an access.
func (s *Store) Peek(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return s.entries[i].clone(), nil
}

// List returns up to limit entries, most recent first. A limit of 0 or less
// returns everything.
func (s *Store) List(limit int) []Entry {
	return s.filter(limit, func(Entry) bool { return true })
}

// Favorites returns the favorite entries, most recent first.
func (s *Store) Favorites() []Entry {
	return s.filter(0, func(e Entry) bool { return e.Stats.Favorite })
}

// Search returns entries whose name, prompt, category or any tag contains
// query (case-insensitive), most recent first. An empty query matches all.
func (s *Store) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filter(0, func(e Entry) bool {
		if q == "" {
			return true
		}
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Prompt), q) ||
			strings.Contains(strings.ToLower(e.Metadata.Category), q) {
			return true
		}
		for _, t := range e.Metadata.Tags {
			if strings.Contains(t, q) {
				return true
			}
		}
		return false
	})
}

func (s *Store) filter(limit int, keep func(Entry) bool) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Entry{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		if keep(s.entries[i]) {
			out = append(out, s.entries[i].clone())
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp.After(out[b].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, errClosed
	}
	i := s.index(id)
	if i < 0 {
		return false, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	s.entries[i].Stats.Favorite = !s.entries[i].Stats.Favorite
	return s.entries[i].Stats.Favorite, s.persistEntries()
}

// Rate sets the entry's rating (1..5).
func (s *Store) Rate(id string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	s.entries[i].Stats.Rating = rating
	return s.persistEntries()
}

// Delete removes the entry and every collection reference to it.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return s.persistRemoval(map[string]bool{id: true})
}

// ClearHistory removes every entry, favorites included, and empties all
// collections. The collections themselves are kept.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	removed := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		removed[e.ID] = true
	}
	s.entries = nil
	s.scrubCollections(removed)
	return s.persistAll()
}

// Statistics aggregates the current contents.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Statistics{
		TotalEntries: len(s.entries),
		Collections:  len(s.collections),
		ByType:       make(map[Type]int),
		BySource:     make(map[string]int),
		MostUsed:     []Entry{},
	}
	ratingSum := 0
	for _, e := range s.entries {
		if e.Stats.Favorite {
			st.Favorites++
		}
		st.TotalUsage += e.Stats.UsageCount
		if e.Stats.Rating > 0 {
			st.RatedEntries++
			ratingSum += e.Stats.Rating
		}
		st.ByType[e.Metadata.Type]++
		if e.Metadata.Source != "" {
			st.BySource[e.Metadata.Source]++
		}
		ts := e.Timestamp
		if st.Oldest == nil || ts.Before(*st.Oldest) {
			st.Oldest = &ts
		}
		if st.Newest == nil || ts.After(*st.Newest) {
			t := ts
			st.Newest = &t
		}
	}
	if st.RatedEntries > 0 {
		st.AverageRating = float64(ratingSum) / float64(st.RatedEntries)
	}

	var used []Entry
	for _, e := range s.entries {
		if e.Stats.UsageCount > 0 {
			used = append(used, e.clone())
		}
	}
	sort.SliceStable(used, func(a, b int) bool {
		return used[a].Stats.UsageCount > used[b].Stats.UsageCount
	})
	if len(used) > 5 {
		used = used[:5]
	}
	if used != nil {
		st.MostUsed = used
	}
	return st
}

// normalizeCode strips all whitespace and lower-cases code for duplicate
// detection.
func normalizeCode(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))
	for _, r := range code {
		if !unicode.IsSpace(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

var (
	exportDefaultRe = regexp.MustCompile(`export\s+default\s+(?:function|class)\s+([A-Z][A-Za-z0-9_]*)|export\s+default\s+([A-Z][A-Za-z0-9_]*)`)
	declRe          = regexp.MustCompile(`(?:function|const|class)\s+([A-Z][A-Za-z0-9_]*)`)
)

// ComponentName derives an entry name: the component's exported name if the
// code declares one, otherwise a PascalCase form of the prompt's first
// words, otherwise "Component".
func ComponentName(code, prompt string) string {
	if m := exportDefaultRe.FindStringSubmatch(code); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}
	if m := declRe.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	var sb strings.Builder
	n := 0
	for _, w := range strings.FieldsFunc(prompt, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if n == 3 {
			break
		}
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		sb.WriteString(string(rs))
		n++
	}
	if sb.Len() == 0 {
		return "Component"
	}
	return sb.String()
}
