// Package bootstrap provisions the directory state the service depends on:
// the cached root organization name, the three permission groups, and the
// configured admin users. All of it is idempotent, so running it on every
// startup is safe.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/pages"
	"github.com/orgwiki/orgwiki/pkg/permissions"
)

// Initializer runs the startup provisioning sequence.
type Initializer struct {
	dir         directory.Client
	resolver    *pages.Resolver
	adminEmails []string
	logger      *logrus.Logger
}

// NewInitializer creates an Initializer. adminEmails are the handles that
// receive full permissions on the root page.
func NewInitializer(dir directory.Client, resolver *pages.Resolver, adminEmails []string, logger *logrus.Logger) *Initializer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Initializer{
		dir:         dir,
		resolver:    resolver,
		adminEmails: adminEmails,
		logger:      logger,
	}
}

// Run seeds the root organization name and provisions groups and admins.
// The two legs are independent and run concurrently.
func (i *Initializer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := i.resolver.SeedRoot(gctx)
		return err
	})

	g.Go(func() error {
		if err := i.ensureGroups(gctx); err != nil {
			return err
		}
		return i.ensureAdmins(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	return nil
}

// ensureGroups creates the permission groups in the root org. The
// directory treats re-creating an existing group as a no-op.
func (i *Initializer) ensureGroups(ctx context.Context) error {
	rootOrgID := string(i.resolver.RootID())

	g, gctx := errgroup.WithContext(ctx)
	for _, perm := range permissions.All() {
		perm := perm
		g.Go(func() error {
			if err := i.dir.CreateGroup(gctx, rootOrgID, string(perm), permissions.Descriptions[perm]); err != nil {
				return fmt.Errorf("failed to create group %s: %w", perm, err)
			}
			i.logger.WithFields(logrus.Fields{
				"group":       string(perm),
				"description": permissions.Descriptions[perm],
			}).Info("Ensured permission group")
			return nil
		})
	}
	return g.Wait()
}

// ensureAdmins upserts each configured admin with all three permissions on
// the root page and mints a login token for them. The token is only logged;
// handing it out is an operator concern.
func (i *Initializer) ensureAdmins(ctx context.Context) error {
	rootOrgID := string(i.resolver.RootID())
	active := true

	g, gctx := errgroup.WithContext(ctx)
	for _, email := range i.adminEmails {
		email := email
		g.Go(func() error {
			person, err := i.dir.UpsertPerson(gctx, rootOrgID, directory.PersonUpsert{
				Handles: []directory.Handle{{
					Type:  directory.HandleTypeEmail,
					Value: email,
				}},
				Groups: permissions.NewSet(permissions.All()...).GroupNames(),
				Active: &active,
			})
			if err != nil {
				return fmt.Errorf("failed to provision admin %s: %w", email, err)
			}

			token, err := i.dir.MintToken(gctx, rootOrgID, person.ID)
			if err != nil {
				return fmt.Errorf("failed to mint token for admin %s: %w", email, err)
			}
			i.logger.WithFields(logrus.Fields{
				"email":     email,
				"person_id": person.ID,
				"token":     token,
			}).Info("Provisioned admin user")
			return nil
		})
	}
	return g.Wait()
}
