package api

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/pages"
	"github.com/orgwiki/orgwiki/pkg/permissions"
	"github.com/orgwiki/orgwiki/pkg/users"
)

// fakeDirectory is a stateful in-memory directory covering the org tree,
// memberships, handles and attributes that the handlers exercise.
type fakeDirectory struct {
	mu       sync.Mutex
	names    map[string]string              // org id -> fully-qualified name
	children map[string][]string            // org id -> child org ids
	members  map[string]map[string][]string // org id -> person id -> groups
	handles  map[string][]directory.Handle  // person id -> handles
	attrs    map[string]map[string]string   // person id -> attribute bucket contents
	seq      int

	subOrgsCreated int
}

var _ directory.Client = (*fakeDirectory)(nil)

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		names:    map[string]string{"org-root": "acme"},
		children: map[string][]string{},
		members:  map[string]map[string][]string{"org-root": {}},
		handles:  map[string][]directory.Handle{},
		attrs:    map[string]map[string]string{},
	}
}

// addOrg registers a child org under parent and returns nothing; ids and
// names are chosen by the caller for readable tests.
func (f *fakeDirectory) addOrg(parentID, orgID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[orgID] = name
	f.children[parentID] = append(f.children[parentID], orgID)
	f.members[orgID] = map[string][]string{}
}

// addMember grants a person groups within an org and gives them an email
// handle if they have none.
func (f *fakeDirectory) addMember(orgID, personID string, groups ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[orgID][personID] = groups
	if _, ok := f.handles[personID]; !ok {
		f.handles[personID] = []directory.Handle{{
			Type:  directory.HandleTypeEmail,
			Value: personID + "@example.com",
		}}
	}
}

// orgIDByName reverse-looks-up an org id from its fully-qualified name
func (f *fakeDirectory) orgIDByName(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, n := range f.names {
		if n == name {
			return id, true
		}
	}
	return "", false
}

func (f *fakeDirectory) memberGroups(orgID, personID string) ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.members[orgID]
	if !ok {
		return nil, false
	}
	groups, ok := org[personID]
	return groups, ok
}

func (f *fakeDirectory) ListPersons(ctx context.Context, orgID string, handle string) ([]directory.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.members[orgID]
	if !ok {
		return nil, directory.ErrNotFound
	}
	var persons []directory.Person
	for personID := range org {
		if handle != "" {
			matched := false
			for _, h := range f.handles[personID] {
				if h.String() == handle {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		persons = append(persons, directory.Person{ID: personID, Active: true})
	}
	return persons, nil
}

func (f *fakeDirectory) UpsertPerson(ctx context.Context, orgID string, req directory.PersonUpsert) (*directory.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.members[orgID]
	if !ok {
		return nil, directory.ErrNotFound
	}

	// Match an existing person by handle, as the directory would
	for personID, handles := range f.handles {
		for _, existing := range handles {
			for _, incoming := range req.Handles {
				if existing == incoming {
					org[personID] = req.Groups
					return &directory.Person{ID: personID, Handles: handles}, nil
				}
			}
		}
	}

	f.seq++
	personID := fmt.Sprintf("person-%d", f.seq)
	f.handles[personID] = req.Handles
	org[personID] = req.Groups
	return &directory.Person{ID: personID, Handles: req.Handles}, nil
}

func (f *fakeDirectory) DeletePerson(ctx context.Context, orgID, personID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.members[orgID]
	if !ok {
		return directory.ErrNotFound
	}
	delete(org, personID)
	return nil
}

func (f *fakeDirectory) GetPersonHandles(ctx context.Context, orgID, personID string) ([]directory.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	handles, ok := f.handles[personID]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return handles, nil
}

func (f *fakeDirectory) ListPersonOrganizations(ctx context.Context, orgID, personID string) ([]directory.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orgs []directory.Organization
	for id, members := range f.members {
		if _, ok := members[personID]; ok {
			orgs = append(orgs, directory.Organization{ID: id, Name: f.names[id]})
		}
	}
	if len(orgs) == 0 {
		return nil, directory.ErrNotFound
	}
	return orgs, nil
}

func (f *fakeDirectory) ListPersonGroups(ctx context.Context, orgID, personID string) ([]string, error) {
	groups, ok := f.memberGroups(orgID, personID)
	if !ok {
		return nil, nil
	}
	return groups, nil
}

func (f *fakeDirectory) SetPersonGroups(ctx context.Context, orgID, personID string, groups []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.members[orgID]
	if !ok {
		return directory.ErrNotFound
	}
	org[personID] = groups
	return nil
}

func (f *fakeDirectory) CreateGroup(ctx context.Context, orgID, name, description string) error {
	return nil
}

func (f *fakeDirectory) ListSubOrganizations(ctx context.Context, orgID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.names[orgID]; !ok {
		return nil, directory.ErrNotFound
	}
	return f.children[orgID], nil
}

func (f *fakeDirectory) CreateSubOrganization(ctx context.Context, parentOrgID string, req directory.SubOrganizationCreate) (*directory.Organization, error) {
	f.mu.Lock()
	f.seq++
	f.subOrgsCreated++
	orgID := fmt.Sprintf("org-%d", f.seq)
	f.names[orgID] = req.Name
	f.children[parentOrgID] = append(f.children[parentOrgID], orgID)
	f.members[orgID] = map[string][]string{}
	f.mu.Unlock()
	return &directory.Organization{ID: orgID, Name: req.Name}, nil
}

func (f *fakeDirectory) GetPersonAttributes(ctx context.Context, orgID, personID, bucket string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handles[personID]; !ok {
		return nil, directory.ErrNotFound
	}
	attrs, ok := f.attrs[personID]
	if !ok {
		return map[string]string{}, nil
	}
	return attrs, nil
}

func (f *fakeDirectory) SetPersonAttributes(ctx context.Context, orgID, personID, bucket string, attrs map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs[personID] = attrs
	return nil
}

func (f *fakeDirectory) MintToken(ctx context.Context, orgID, personID string) (string, error) {
	return "token-" + personID, nil
}

// tokenVerifier maps known bearer tokens to user ids
type tokenVerifier struct {
	tokens map[string]auth.UserID
}

func (v *tokenVerifier) Verify(ctx context.Context, rawToken string) (auth.UserID, error) {
	userID, ok := v.tokens[rawToken]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}
	return userID, nil
}

// testEnv bundles a server over a seeded fake directory. The tree is
// "acme" (org-root) with one child page "docs" (org-docs). alice holds all
// permissions on the root and read+write+admin on docs; bob holds read on
// docs only.
type testEnv struct {
	dir    *fakeDirectory
	store  *pages.Store
	server *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := newFakeDirectory()
	dir.addOrg("org-root", "org-docs", "acme/docs")
	dir.addMember("org-root", "alice", "read", "write", "admin")
	dir.addMember("org-docs", "alice", "read", "write", "admin")
	dir.addMember("org-docs", "bob", "read")
	dir.addMember("org-root", "bob")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cache := pages.NewNameCache(nil)
	resolver := pages.NewResolver(dir, cache, "org-root", logger)
	_, err := resolver.SeedRoot(context.Background())
	require.NoError(t, err)

	store := pages.NewStore(nil)
	permSvc := permissions.NewService(dir, "org-root", logger)
	userSvc := users.NewService(dir, "org-root", logger)

	verifier := &tokenVerifier{tokens: map[string]auth.UserID{
		"alice-token": "alice",
		"bob-token":   "bob",
	}}

	server := NewServer(dir, resolver, store, permSvc, userSvc, []string{"root@example.com"}, logger, Options{
		AuthMiddleware: auth.NewMiddleware(verifier, logger),
		CORSOrigins:    []string{"http://localhost:5173"},
	})

	return &testEnv{dir: dir, store: store, server: server}
}

// request performs an HTTP request against the server. token may be empty
// for anonymous calls.
func (e *testEnv) request(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}
