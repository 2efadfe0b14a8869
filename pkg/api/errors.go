package api

import (
	"errors"
	"net/http"

	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/httputil"
	"github.com/orgwiki/orgwiki/pkg/pages"
	"github.com/orgwiki/orgwiki/pkg/permissions"
	"github.com/orgwiki/orgwiki/pkg/users"
)

// writeDomainError maps domain errors onto HTTP status codes. The guard
// error precedence (401 before 404 before 403) is decided by the guards
// themselves; this function only translates whatever error came out.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var forbidden *permissions.ForbiddenError
	var apiErr *directory.APIError

	switch {
	case errors.Is(err, permissions.ErrNoCredentials):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, pages.ErrNotFound), errors.Is(err, users.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.As(err, &forbidden):
		httputil.WriteDetailedError(w, http.StatusForbidden, err, map[string]string{
			"required": forbidden.Required.String(),
			"actual":   forbidden.Actual.String(),
		})
	case errors.As(err, &apiErr):
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("Directory request failed")
		httputil.WriteServiceUnavailable(w, "identity directory unavailable")
	default:
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("Unhandled error")
		httputil.WriteInternalError(w, err)
	}
}
