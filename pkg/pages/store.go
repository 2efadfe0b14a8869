package pages

import (
	"errors"
	"sync"

	"github.com/orgwiki/orgwiki/pkg/observability"
)

// PageID is the opaque identifier of a page: the id of the directory
// organization backing it.
type PageID string

// ErrNotFound is the page-does-not-resolve failure, surfaced as 404 at the
// HTTP edge.
var ErrNotFound = errors.New("page not found")

// DefaultContents is the placeholder content a page starts with before
// anyone writes to it.
const DefaultContents = "#eee"

// Page is the locally-held state of a page. Access control lives entirely
// in the directory; only the public flag and the contents live here.
type Page struct {
	Public   bool   `json:"public"`
	Contents string `json:"contents"`
}

// Store is the in-memory page store. Contents are not persisted: a restart
// drops all pages back to defaults. Reading an unknown page creates it with
// default state, mirroring how the directory org may exist before any
// content was written.
type Store struct {
	mu      sync.Mutex
	pages   map[PageID]Page
	metrics *observability.Metrics
}

// NewStore creates an empty page store
func NewStore(metrics *observability.Metrics) *Store {
	return &Store{
		pages:   make(map[PageID]Page),
		metrics: metrics,
	}
}

// Get returns the page for id, creating it with default state if absent
func (s *Store) Get(id PageID) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id PageID) Page {
	page, ok := s.pages[id]
	if !ok {
		page = Page{Public: false, Contents: DefaultContents}
		s.pages[id] = page
		s.metrics.SetPagesTotal(len(s.pages))
	}
	return page
}

// Put replaces the page state for id
func (s *Store) Put(id PageID, page Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[id] = page
	s.metrics.SetPagesTotal(len(s.pages))
}

// SetContents replaces the contents of a page, creating it if absent
func (s *Store) SetContents(id PageID, contents string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.getLocked(id)
	page.Contents = contents
	s.pages[id] = page
}

// SetPublic sets the public flag of a page, creating it if absent
func (s *Store) SetPublic(id PageID, public bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.getLocked(id)
	page.Public = public
	s.pages[id] = page
}

// Delete removes the local page state for id
func (s *Store) Delete(id PageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, id)
	s.metrics.SetPagesTotal(len(s.pages))
}

// Len returns the number of pages currently held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}
