package api

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/httputil"
	"github.com/orgwiki/orgwiki/pkg/pages"
	"github.com/orgwiki/orgwiki/pkg/permissions"
	"github.com/orgwiki/orgwiki/pkg/users"
)

// UserPermissions pairs a user profile with their permission set on a page
type UserPermissions struct {
	User        *users.Info     `json:"user"`
	Permissions permissions.Set `json:"permissions"`
}

// PageSettings is the admin view of a page: visibility plus everyone who
// holds any permission on it.
type PageSettings struct {
	ID     pages.PageID      `json:"id"`
	Public bool              `json:"public"`
	Users  []UserPermissions `json:"users"`
}

// UserPermissionsPatch is one user entry in a settings patch. A nil
// Permissions leaves the user untouched; an empty set revokes all access.
type UserPermissionsPatch struct {
	ID          auth.UserID      `json:"id"`
	Permissions *permissions.Set `json:"permissions"`
}

// PageSettingsPatch is a partial update of page settings. Only non-nil
// fields are applied.
type PageSettingsPatch struct {
	Public *bool                  `json:"public,omitempty"`
	Users  []UserPermissionsPatch `json:"users,omitempty"`
}

// getPageSettings handles GET /admin/{page_path}. Requires admin
// permission. Per-user group and profile lookups fan out concurrently;
// users with no recognized permissions are omitted.
func (s *Server) getPageSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolvePage(w, r, pagePath(r))
	if !ok {
		return
	}
	if _, err := s.perms.AdminGuard.Check(r.Context(), auth.UserFromRequest(r), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	persons, err := s.dir.ListPersons(r.Context(), string(id), "")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	entries := make([]*UserPermissions, len(persons))
	g, gctx := errgroup.WithContext(r.Context())
	for i, person := range persons {
		i, person := i, person
		g.Go(func() error {
			userID := auth.UserID(person.ID)
			perms, err := s.perms.GetPermissions(gctx, userID, id)
			if err != nil {
				return err
			}
			if len(perms) == 0 {
				return nil
			}
			info, err := s.users.GetByID(gctx, userID)
			if err != nil {
				return err
			}
			entries[i] = &UserPermissions{User: info, Permissions: perms}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	settings := PageSettings{
		ID:     id,
		Public: s.store.Get(id).Public,
		Users:  make([]UserPermissions, 0, len(entries)),
	}
	for _, entry := range entries {
		if entry != nil {
			settings.Users = append(settings.Users, *entry)
		}
	}
	httputil.WriteSuccess(w, settings)
}

// patchPageSettings handles PATCH /admin/{page_path}. Requires admin
// permission. Applies only the fields present in the patch; user updates
// fan out concurrently.
func (s *Server) patchPageSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolvePage(w, r, pagePath(r))
	if !ok {
		return
	}
	if _, err := s.perms.AdminGuard.Check(r.Context(), auth.UserFromRequest(r), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var patch PageSettingsPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	if patch.Public != nil {
		s.store.SetPublic(id, *patch.Public)
	}

	if patch.Users != nil {
		g, gctx := errgroup.WithContext(r.Context())
		for _, user := range patch.Users {
			if user.Permissions == nil {
				continue
			}
			user := user
			g.Go(func() error {
				return s.perms.SetUserPermissions(gctx, user.ID, id, *user.Permissions)
			})
		}
		if err := g.Wait(); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}

	httputil.WriteNoContent(w)
}
