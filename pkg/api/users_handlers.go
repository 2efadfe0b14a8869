package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/httputil"
	"github.com/orgwiki/orgwiki/pkg/permissions"
	"github.com/orgwiki/orgwiki/pkg/users"
)

// MeInfo is the current user's profile plus every page they can access,
// keyed by path.
type MeInfo struct {
	User  *users.Info                `json:"user"`
	Pages map[string]permissions.Set `json:"pages"`
}

// UserInfoPatch is a partial profile update. Only the name is updatable.
type UserInfoPatch struct {
	Name *string `json:"name,omitempty"`
}

// MeInfoPatch is a partial update of the current user's own record
type MeInfoPatch struct {
	User *UserInfoPatch `json:"user,omitempty"`
}

// getUserMe handles GET /users/me: the caller's profile and page access map
func (s *Server) getUserMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromRequest(r)
	if userID == "" {
		s.writeDomainError(w, r, permissions.ErrNoCredentials)
		return
	}

	rootName, ok := s.resolver.RootName()
	if !ok {
		httputil.WriteServiceUnavailable(w, "root organization name not available")
		return
	}

	var (
		info     *users.Info
		pagePerm map[string]permissions.Set
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		info, err = s.users.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		pagePerm, err = s.users.PagePermissions(gctx, userID, rootName)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, MeInfo{User: info, Pages: pagePerm})
}

// patchUserMe handles PATCH /users/me
func (s *Server) patchUserMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromRequest(r)
	if userID == "" {
		s.writeDomainError(w, r, permissions.ErrNoCredentials)
		return
	}

	var patch MeInfoPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	if patch.User != nil && patch.User.Name != nil {
		if err := s.users.UpdateName(r.Context(), userID, *patch.User.Name); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}

	httputil.WriteNoContent(w)
}

// getUserByEmail handles GET /users/email/{email}
func (s *Server) getUserByEmail(w http.ResponseWriter, r *http.Request) {
	s.getUserByHandle(w, r, directory.Handle{
		Type:  directory.HandleTypeEmail,
		Value: mux.Vars(r)["email"],
	})
}

// getUserByPhone handles GET /users/phone/{phone}
func (s *Server) getUserByPhone(w http.ResponseWriter, r *http.Request) {
	s.getUserByHandle(w, r, directory.Handle{
		Type:  directory.HandleTypePhone,
		Value: mux.Vars(r)["phone"],
	})
}

func (s *Server) getUserByHandle(w http.ResponseWriter, r *http.Request, handle directory.Handle) {
	info, err := s.users.GetByHandle(r.Context(), handle)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, info)
}

// getUserByID handles GET /users/id/{user_id}
func (s *Server) getUserByID(w http.ResponseWriter, r *http.Request) {
	info, err := s.users.GetByID(r.Context(), auth.UserID(mux.Vars(r)["user_id"]))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, info)
}
