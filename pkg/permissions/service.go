package permissions

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/pages"
)

// Service bundles the fixed guards and permission mutations over one
// directory client. The three guards are built once here and shared by all
// requests.
type Service struct {
	dir       directory.Client
	rootOrgID string
	logger    *logrus.Logger

	// Guards for the three fixed requirements
	ReadGuard  *Guard
	WriteGuard *Guard
	AdminGuard *Guard
}

// NewService creates the permission service and its guards
func NewService(dir directory.Client, rootOrgID string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		dir:        dir,
		rootOrgID:  rootOrgID,
		logger:     logger,
		ReadGuard:  NewGuard(dir, NewSet(Read)),
		WriteGuard: NewGuard(dir, NewSet(Write)),
		AdminGuard: NewGuard(dir, NewSet(Admin)),
	}
}

// GetPermissions returns the user's actual permission set on a page. An
// anonymous user or an unresolved page yields the empty set; this is the
// permissive variant used where absence must fall through to other checks
// (e.g. the public flag on page reads) instead of hard-failing.
func (s *Service) GetPermissions(ctx context.Context, userID auth.UserID, pageID pages.PageID) (Set, error) {
	return getPermissions(ctx, s.dir, userID, pageID)
}

// SetUserPermissions replaces the user's permission set on a page. An empty
// set removes the person from the page's org entirely rather than leaving an
// ungrouped membership behind. The root org is the exception: root membership
// must survive even an empty set, otherwise the user loses their only path
// back into the tree.
func (s *Service) SetUserPermissions(ctx context.Context, userID auth.UserID, pageID pages.PageID, perms Set) error {
	if len(perms) == 0 && string(pageID) != s.rootOrgID {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"page_id": pageID,
		}).Info("Removing user from page")
		return s.dir.DeletePerson(ctx, string(pageID), string(userID))
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"page_id":     pageID,
		"permissions": perms.GroupNames(),
	}).Info("Setting user permissions on page")
	return s.dir.SetPersonGroups(ctx, string(pageID), string(userID), perms.GroupNames())
}
