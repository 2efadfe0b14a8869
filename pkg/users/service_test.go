package users

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/permissions"
)

func profileClient(attrCalls *int) *directory.Fake {
	var mu sync.Mutex
	return &directory.Fake{
		GetPersonAttributesFunc: func(ctx context.Context, orgID, personID, bucket string) (map[string]string, error) {
			mu.Lock()
			if attrCalls != nil {
				*attrCalls++
			}
			mu.Unlock()
			if personID != "alice" {
				return nil, directory.ErrNotFound
			}
			return map[string]string{"name": "Alice"}, nil
		},
		GetPersonHandlesFunc: func(ctx context.Context, orgID, personID string) ([]directory.Handle, error) {
			if personID != "alice" {
				return nil, directory.ErrNotFound
			}
			return []directory.Handle{
				{Type: directory.HandleTypeEmail, Value: "alice@example.com"},
				{Type: directory.HandleTypePhone, Value: "+15551234"},
			}, nil
		},
	}
}

func TestGetByID(t *testing.T) {
	svc := NewService(profileClient(nil), "org-root", nil)

	info, err := svc.GetByID(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", string(info.ID))
	require.NotNil(t, info.Name)
	assert.Equal(t, "Alice", *info.Name)
	assert.Equal(t, []string{"alice@example.com"}, info.Emails)
	assert.Equal(t, []string{"+15551234"}, info.Phones)
}

func TestGetByIDUsesCache(t *testing.T) {
	var attrCalls int
	svc := NewService(profileClient(&attrCalls), "org-root", nil)

	_, err := svc.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	_, err = svc.GetByID(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, attrCalls)
}

func TestGetByIDUnknownUser(t *testing.T) {
	svc := NewService(profileClient(nil), "org-root", nil)

	_, err := svc.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByHandle(t *testing.T) {
	dir := profileClient(nil)
	var gotHandle string
	dir.ListPersonsFunc = func(ctx context.Context, orgID, handle string) ([]directory.Person, error) {
		gotHandle = handle
		return []directory.Person{{ID: "alice"}}, nil
	}
	svc := NewService(dir, "org-root", nil)

	info, err := svc.GetByHandle(context.Background(), directory.Handle{
		Type:  directory.HandleTypeEmail,
		Value: "alice@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "email_address:alice@example.com", gotHandle)
	assert.Equal(t, "alice", string(info.ID))
}

func TestGetByHandleNoMatch(t *testing.T) {
	dir := profileClient(nil)
	dir.ListPersonsFunc = func(ctx context.Context, orgID, handle string) ([]directory.Person, error) {
		return nil, nil
	}
	svc := NewService(dir, "org-root", nil)

	_, err := svc.GetByHandle(context.Background(), directory.Handle{
		Type:  directory.HandleTypeEmail,
		Value: "nobody@example.com",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateNameInvalidatesCache(t *testing.T) {
	var attrCalls int
	dir := profileClient(&attrCalls)
	var wroteAttrs map[string]string
	dir.SetPersonAttributesFunc = func(ctx context.Context, orgID, personID, bucket string, attrs map[string]string) error {
		assert.Equal(t, "person_pool-end_user_read_write", bucket)
		wroteAttrs = attrs
		return nil
	}
	svc := NewService(dir, "org-root", nil)

	_, err := svc.GetByID(context.Background(), "alice")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateName(context.Background(), "alice", "Alice Cooper"))
	assert.Equal(t, map[string]string{"name": "Alice Cooper"}, wroteAttrs)

	_, err = svc.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, attrCalls, "profile must be re-fetched after a name change")
}

func TestPagePermissions(t *testing.T) {
	dir := &directory.Fake{
		ListPersonOrganizationsFunc: func(ctx context.Context, orgID, personID string) ([]directory.Organization, error) {
			return []directory.Organization{
				{ID: "org-docs", Name: "acme/docs"},
				{ID: "org-root", Name: "acme"},
				{ID: "org-blog", Name: "acme/blog"},
			}, nil
		},
		ListPersonGroupsFunc: func(ctx context.Context, orgID, personID string) ([]string, error) {
			switch orgID {
			case "org-root":
				return []string{"read", "write", "admin"}, nil
			case "org-docs":
				return []string{"read"}, nil
			default:
				return nil, nil
			}
		},
	}
	svc := NewService(dir, "org-root", nil)

	pagePerms, err := svc.PagePermissions(context.Background(), "alice", "acme")
	require.NoError(t, err)

	assert.Equal(t, map[string]permissions.Set{
		"/":      permissions.NewSet(permissions.Read, permissions.Write, permissions.Admin),
		"/docs/": permissions.NewSet(permissions.Read),
	}, pagePerms)
}
