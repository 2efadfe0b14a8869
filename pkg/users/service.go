// Package users provides user profile lookups and updates on top of the
// identity directory. The directory owns identity; the only thing this
// service adds is the display name, stored in a per-person attribute
// bucket, and a bounded cache so settings pages listing many users do not
// hammer the directory.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/permissions"
)

const (
	// nameAttrBucket is the directory attribute bucket holding profile
	// fields that end users may edit themselves.
	nameAttrBucket = "person_pool-end_user_read_write"
	nameAttrKey    = "name"

	cacheSize = 1024
	cacheTTL  = time.Minute
)

// ErrNotFound is returned when no user matches the given id or handle
var ErrNotFound = errors.New("user not found")

// Info is a user profile as exposed over the API
type Info struct {
	ID     auth.UserID `json:"id"`
	Name   *string     `json:"name"`
	Emails []string    `json:"emails"`
	Phones []string    `json:"phones"`
}

// Service looks up and updates user profiles
type Service struct {
	dir       directory.Client
	rootOrgID string
	logger    *logrus.Logger
	cache     *lru.LRU[auth.UserID, *Info]
}

// NewService creates the user service
func NewService(dir directory.Client, rootOrgID string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		dir:       dir,
		rootOrgID: rootOrgID,
		logger:    logger,
		cache:     lru.NewLRU[auth.UserID, *Info](cacheSize, nil, cacheTTL),
	}
}

// GetByID returns the profile of the given user. Name and handles are
// fetched concurrently; results are cached briefly.
func (s *Service) GetByID(ctx context.Context, userID auth.UserID) (*Info, error) {
	if info, ok := s.cache.Get(userID); ok {
		return info, nil
	}

	var (
		name    *string
		handles []directory.Handle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		attrs, err := s.dir.GetPersonAttributes(gctx, s.rootOrgID, string(userID), nameAttrBucket)
		if err != nil {
			return err
		}
		if v, ok := attrs[nameAttrKey]; ok {
			name = &v
		}
		return nil
	})
	g.Go(func() error {
		var err error
		handles, err = s.dir.GetPersonHandles(gctx, s.rootOrgID, string(userID))
		return err
	})
	if err := g.Wait(); err != nil {
		if isMissingPerson(err) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, userID)
		}
		return nil, err
	}

	info := &Info{ID: userID, Name: name, Emails: []string{}, Phones: []string{}}
	for _, handle := range handles {
		switch handle.Type {
		case directory.HandleTypeEmail:
			info.Emails = append(info.Emails, handle.Value)
		case directory.HandleTypePhone:
			info.Phones = append(info.Phones, handle.Value)
		}
	}

	s.cache.Add(userID, info)
	return info, nil
}

// GetByHandle returns the profile of the user owning the given handle
func (s *Service) GetByHandle(ctx context.Context, handle directory.Handle) (*Info, error) {
	persons, err := s.dir.ListPersons(ctx, s.rootOrgID, handle.String())
	if err != nil {
		if isMissingPerson(err) {
			return nil, fmt.Errorf("%w: handle %s", ErrNotFound, handle)
		}
		return nil, err
	}
	if len(persons) == 0 {
		return nil, fmt.Errorf("%w: handle %s", ErrNotFound, handle)
	}
	return s.GetByID(ctx, auth.UserID(persons[0].ID))
}

// UpdateName sets the user's display name attribute
func (s *Service) UpdateName(ctx context.Context, userID auth.UserID, name string) error {
	err := s.dir.SetPersonAttributes(ctx, s.rootOrgID, string(userID), nameAttrBucket, map[string]string{
		nameAttrKey: name,
	})
	if err != nil {
		return fmt.Errorf("failed to update name for user %s: %w", userID, err)
	}
	s.cache.Remove(userID)
	return nil
}

// PagePermissions returns every page the user has any permission on, keyed
// by page path relative to the root org name (with a trailing slash, the
// root page itself being "/"). Group lookups fan out concurrently across
// the user's orgs.
func (s *Service) PagePermissions(ctx context.Context, userID auth.UserID, rootName string) (map[string]permissions.Set, error) {
	orgs, err := s.dir.ListPersonOrganizations(ctx, s.rootOrgID, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations for user %s: %w", userID, err)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })

	sets := make([]permissions.Set, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	for i, org := range orgs {
		i, org := i, org
		g.Go(func() error {
			groups, err := s.dir.ListPersonGroups(gctx, org.ID, string(userID))
			if err != nil {
				return err
			}
			sets[i] = permissions.FromGroupNames(groups)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]permissions.Set)
	for i, org := range orgs {
		if len(sets[i]) == 0 {
			continue
		}
		result[strings.TrimPrefix(org.Name, rootName)+"/"] = sets[i]
	}
	return result, nil
}

// isMissingPerson reports whether a directory error means the person does
// not exist. The directory answers 400 for malformed person ids; treat
// those as not-found too rather than blaming the upstream.
func isMissingPerson(err error) bool {
	if errors.Is(err, directory.ErrNotFound) {
		return true
	}
	var apiErr *directory.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}
