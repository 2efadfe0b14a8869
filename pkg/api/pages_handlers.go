package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/httputil"
	"github.com/orgwiki/orgwiki/pkg/pages"
	"github.com/orgwiki/orgwiki/pkg/permissions"
)

// pagePath extracts the page path from the route
func pagePath(r *http.Request) pages.PagePath {
	return pages.ParsePath(mux.Vars(r)["page_path"])
}

// resolvePage resolves the request's page path. A missing page is reported
// to the client as 404 and (zero, false) to the caller; resolution failures
// are written out too.
func (s *Server) resolvePage(w http.ResponseWriter, r *http.Request, path pages.PagePath) (pages.PageID, bool) {
	id, ok, err := s.resolver.Resolve(r.Context(), path)
	if err != nil {
		s.writeDomainError(w, r, err)
		return "", false
	}
	if !ok {
		httputil.WriteNotFoundError(w, "page not found")
		return "", false
	}
	return id, true
}

// getPage handles GET /pages/{page_path}. Public pages are readable by
// anyone, including anonymous callers; private pages require read
// permission.
func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolvePage(w, r, pagePath(r))
	if !ok {
		return
	}

	page := s.store.Get(id)
	if !page.Public {
		if _, err := s.perms.ReadGuard.Check(r.Context(), auth.UserFromRequest(r), id); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}

	httputil.WriteText(w, http.StatusOK, page.Contents)
}

// putPage handles PUT /pages/{page_path}. Requires write permission.
func (s *Server) putPage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolvePage(w, r, pagePath(r))
	if !ok {
		return
	}
	if _, err := s.perms.WriteGuard.Check(r.Context(), auth.UserFromRequest(r), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	body, ok := httputil.ReadTextOrError(w, r)
	if !ok {
		return
	}
	s.store.SetContents(id, body)
	httputil.WriteNoContent(w)
}

// postPage handles POST /pages/{page_path}: creates a new page backed by a
// fresh sub-organization under the parent page's org. Requires admin
// permission on the parent; the creator's permissions there carry over to
// the new page, as does the parent's public flag.
func (s *Server) postPage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromRequest(r)
	if userID == "" {
		s.writeDomainError(w, r, permissions.ErrNoCredentials)
		return
	}

	path := pagePath(r)

	// The page must not exist yet
	_, exists, err := s.resolver.Resolve(r.Context(), path)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if exists {
		httputil.WriteConflict(w, "page already exists")
		return
	}

	// And the user must be an admin of the parent
	parentID, ok := s.resolvePage(w, r, path.Parent())
	if !ok {
		return
	}
	parentPerms, err := s.perms.AdminGuard.Check(r.Context(), userID, parentID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	body, ok := httputil.ReadTextOrError(w, r)
	if !ok {
		return
	}

	rootName, ok := s.resolver.RootName()
	if !ok {
		httputil.WriteServiceUnavailable(w, "root organization name not available")
		return
	}

	admins := make([]directory.Handle, len(s.adminEmails))
	for i, email := range s.adminEmails {
		admins[i] = directory.Handle{Type: directory.HandleTypeEmail, Value: email}
	}
	org, err := s.dir.CreateSubOrganization(r.Context(), string(parentID), directory.SubOrganizationCreate{
		Name:         path.OrgName(rootName),
		Admins:       admins,
		PersonsOrgID: string(parentID),
		GroupsOrgID:  string(parentID),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	pageID := pages.PageID(org.ID)

	// Carry the creator's parent permissions over to the new page
	if err := s.perms.SetUserPermissions(r.Context(), userID, pageID, parentPerms); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.store.Put(pageID, pages.Page{
		Public:   s.store.Get(parentID).Public,
		Contents: body,
	})
	httputil.WriteNoContent(w)
}

// deletePage handles DELETE /pages/{page_path}. Requires admin permission.
// The local page record is dropped, but the directory offers no way to
// remove a sub-organization, so the operation reports 501 and leaves the
// page resolvable.
func (s *Server) deletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolvePage(w, r, pagePath(r))
	if !ok {
		return
	}
	if _, err := s.perms.AdminGuard.Check(r.Context(), auth.UserFromRequest(r), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.store.Delete(id)
	httputil.WriteNotImplemented(w, "organization removal not supported by the identity directory")
}
