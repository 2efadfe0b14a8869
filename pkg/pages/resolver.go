package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/orgwiki/orgwiki/pkg/directory"
)

// Resolver maps page paths onto directory organization ids. Lookups walk
// the org tree parent-first and populate the NameCache as they go, so a
// path is resolved against the directory at most once per process lifetime.
type Resolver struct {
	dir       directory.Client
	cache     *NameCache
	rootOrgID string
	logger    *logrus.Logger
}

// NewResolver creates a resolver over the given directory client and cache.
// The root org name must be seeded (SeedRoot) before Resolve is used.
func NewResolver(dir directory.Client, cache *NameCache, rootOrgID string, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		dir:       dir,
		cache:     cache,
		rootOrgID: rootOrgID,
		logger:    logger,
	}
}

// RootID returns the well-known id of the root page
func (r *Resolver) RootID() PageID {
	return PageID(r.rootOrgID)
}

// RootName returns the root org's fully-qualified name, if seeded
func (r *Resolver) RootName() (string, bool) {
	return r.cache.NameForID(r.rootOrgID)
}

// SeedRoot resolves and caches the root organization's name. Must be called
// once at startup; the root org always exists.
func (r *Resolver) SeedRoot(ctx context.Context) (string, error) {
	name, err := r.NameOf(ctx, r.rootOrgID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root organization name: %w", err)
	}
	r.logger.WithField("root_org_name", name).Info("Root organization name resolved")
	return name, nil
}

// Resolve maps a page path to its PageID. A page that does not exist is a
// first-class (zero, false, nil) result, not an error; errors are reserved
// for directory failures.
func (r *Resolver) Resolve(ctx context.Context, path PagePath) (PageID, bool, error) {
	rootName, ok := r.RootName()
	if !ok {
		return "", false, fmt.Errorf("root organization name not seeded")
	}
	id, ok, err := r.resolveName(ctx, path.OrgName(rootName))
	if err != nil {
		return "", false, err
	}
	return PageID(id), ok, nil
}

// resolveName resolves a fully-qualified org name to its id. On a cache
// miss it resolves the parent name first, then lists the parent's children
// and looks their names up concurrently; all siblings discovered in the
// pass are cached.
func (r *Resolver) resolveName(ctx context.Context, name string) (string, bool, error) {
	if id, ok := r.cache.IDForName(name); ok {
		return id, true, nil
	}

	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		// No parent to walk up to. The only parentless org is the root,
		// which is always cached.
		return "", false, nil
	}

	parentID, ok, err := r.resolveName(ctx, name[:idx])
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	siblingIDs, err := r.dir.ListSubOrganizations(ctx, parentID)
	if err != nil {
		return "", false, fmt.Errorf("failed to list children of org %s: %w", parentID, err)
	}

	names := make([]string, len(siblingIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, siblingID := range siblingIDs {
		i, siblingID := i, siblingID
		g.Go(func() error {
			siblingName, err := r.NameOf(gctx, siblingID)
			if err != nil {
				return err
			}
			names[i] = siblingName
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", false, err
	}

	for i, siblingName := range names {
		if siblingName == name {
			return siblingIDs[i], true, nil
		}
	}
	return "", false, nil
}

// NameOf returns the fully-qualified name of an organization, memoized for
// the process lifetime. The directory has no direct name endpoint, so a
// cache miss creates a throwaway inactive member under the org, reads the
// name off that member's membership list, and removes the member again.
// Concurrent callers may both run the probe for the same org; the duplicate
// work is wasteful but harmless.
func (r *Resolver) NameOf(ctx context.Context, orgID string) (string, error) {
	if name, ok := r.cache.NameForID(orgID); ok {
		return name, nil
	}

	inactive := false
	person, err := r.dir.UpsertPerson(ctx, orgID, directory.PersonUpsert{
		Handles: []directory.Handle{{
			Type:  directory.HandleTypeEmail,
			Value: uuid.NewString() + "@example.com",
		}},
		Groups: []string{},
		Active: &inactive,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create probe member in org %s: %w", orgID, err)
	}
	defer func() {
		// Cleanup must run even when a sibling lookup cancelled our context.
		if err := r.dir.DeletePerson(context.WithoutCancel(ctx), orgID, person.ID); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"org_id":    orgID,
				"person_id": person.ID,
			}).Warn("Failed to remove probe member")
		}
	}()

	orgs, err := r.dir.ListPersonOrganizations(ctx, orgID, person.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list probe member organizations in org %s: %w", orgID, err)
	}
	for _, org := range orgs {
		r.cache.Put(org.ID, org.Name)
	}

	name, ok := r.cache.NameForID(orgID)
	if !ok {
		return "", fmt.Errorf("org %s missing from its own probe member memberships", orgID)
	}
	return name, nil
}
