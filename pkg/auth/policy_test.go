package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func viewFromRoles(subject string, roles ...string) AccessView {
	return BuildView(Credential{Subject: subject, Roles: roles})
}

func TestCanAccessOrganization(t *testing.T) {
	org := OrganizationRef{Name: "acme", Owners: []string{"owner1"}}

	t.Run("any organization role grants access", func(t *testing.T) {
		assert.True(t, CanAccessOrganization(viewFromRoles("u1", "org_acme_access"), org))
		assert.True(t, CanAccessOrganization(viewFromRoles("u1", "org_acme_admin"), org))
		assert.False(t, CanAccessOrganization(viewFromRoles("u1", "org_other_access"), org))
	})

	t.Run("owner has access without role records", func(t *testing.T) {
		assert.True(t, CanAccessOrganization(viewFromRoles("owner1"), org))
	})

	t.Run("superuser has access", func(t *testing.T) {
		assert.True(t, CanAccessOrganization(viewFromRoles("u1", "DATASPACE_ADMIN"), org))
	})

	t.Run("public access short-circuit", func(t *testing.T) {
		public := OrganizationRef{Name: "acme", Public: true}
		assert.True(t, CanAccessOrganization(viewFromRoles("u1", "PUBLIC_ORG_ACCESS"), public))
		// Marker without public confidentiality does not help.
		assert.False(t, CanAccessOrganization(viewFromRoles("u1", "PUBLIC_ORG_ACCESS"), org))
		// Public confidentiality without the marker does not help either.
		assert.False(t, CanAccessOrganization(viewFromRoles("u1"), public))
	})

	t.Run("organization name matching is case-insensitive", func(t *testing.T) {
		mixed := OrganizationRef{Name: "Acme"}
		assert.True(t, CanAccessOrganization(viewFromRoles("u1", "org_acme_access"), mixed))
	})
}

func TestIsAdminAndOwner(t *testing.T) {
	org := OrganizationRef{Name: "acme", Owners: []string{"u1"}}

	t.Run("owner membership is exact and case-sensitive", func(t *testing.T) {
		assert.True(t, IsOwner("u1", org.Owners))
		assert.False(t, IsOwner("U1", org.Owners))
		assert.False(t, IsOwner("u2", org.Owners))
	})

	t.Run("admin requires admin role or superuser", func(t *testing.T) {
		assert.True(t, IsAdmin(viewFromRoles("u2", "org_acme_admin"), org))
		assert.True(t, IsAdmin(viewFromRoles("u2", "DATASPACE_ADMIN"), org))
		assert.False(t, IsAdmin(viewFromRoles("u2", "org_acme_access"), org))
	})

	t.Run("owner without any role records is admin-or-owner", func(t *testing.T) {
		assert.True(t, IsAdminOrOwner(viewFromRoles("u1"), org))
		assert.False(t, IsAdminOrOwner(viewFromRoles("u2"), org))
	})
}

func TestIsSpaceAdminOrOwner(t *testing.T) {
	org := OrganizationRef{Name: "acme", Owners: []string{"orgowner"}}
	space := SpaceRef{Name: "ds1", Owners: []string{"spaceowner"}}

	// The two branches are independent ORs: space ownership alone suffices,
	// org administration alone suffices, org ownership alone does not.
	assert.True(t, IsSpaceAdminOrOwner(viewFromRoles("spaceowner"), org, space))
	assert.True(t, IsSpaceAdminOrOwner(viewFromRoles("u1", "org_acme_admin"), org, space))
	assert.False(t, IsSpaceAdminOrOwner(viewFromRoles("orgowner"), org, space))
	assert.False(t, IsSpaceAdminOrOwner(viewFromRoles("u1", "org_acme_access"), org, space))
}

func TestOrganizationsByPermission(t *testing.T) {
	t.Run("space role without org access yields nothing", func(t *testing.T) {
		view := viewFromRoles("u1", "acme_ds1_user")
		assert.Empty(t, OrganizationsByPermission(view, LevelRead))
	})

	t.Run("org access without a qualifying space role yields nothing", func(t *testing.T) {
		view := viewFromRoles("u1", "org_acme_access")
		assert.Empty(t, OrganizationsByPermission(view, LevelRead))
	})

	t.Run("intersection of space role and explicit access", func(t *testing.T) {
		view := viewFromRoles("u1", "org_acme_access", "acme_ds1_supplier")
		assert.Equal(t, []string{"acme"}, OrganizationsByPermission(view, LevelWrite))
		assert.Equal(t, []string{"acme"}, OrganizationsByPermission(view, LevelRead))
		assert.Empty(t, OrganizationsByPermission(view, LevelDelete))
	})

	t.Run("admin-only org roles do not count", func(t *testing.T) {
		view := viewFromRoles("u1", "org_acme_admin", "acme_ds1_trustee")
		assert.Empty(t, OrganizationsByPermission(view, LevelDelete))
	})

	t.Run("get aliases read", func(t *testing.T) {
		view := viewFromRoles("u1", "org_acme_access", "acme_ds1_user")
		assert.Equal(t, []string{"acme"}, OrganizationsByPermission(view, LevelGet))
	})

	t.Run("unknown level yields nothing", func(t *testing.T) {
		view := viewFromRoles("u1", "org_acme_access", "acme_ds1_trustee")
		assert.Empty(t, OrganizationsByPermission(view, PermissionLevel("own")))
	})

	t.Run("result is sorted across organizations", func(t *testing.T) {
		view := viewFromRoles("u1",
			"org_zebra_access", "zebra_ds1_user",
			"org_acme_access", "acme_ds1_user",
		)
		assert.Equal(t, []string{"acme", "zebra"}, OrganizationsByPermission(view, LevelRead))
	})
}

func TestSpacesByPermission(t *testing.T) {
	view := viewFromRoles("u1",
		"acme_ds1_user",
		"acme_ds2_supplier",
		"acme_ds3_trustee",
	)

	assert.Equal(t, []string{"ds1", "ds2", "ds3"}, SpacesByPermission(view, "acme", LevelRead))
	assert.Equal(t, []string{"ds1", "ds2", "ds3"}, SpacesByPermission(view, "acme", LevelGet))
	assert.Equal(t, []string{"ds2", "ds3"}, SpacesByPermission(view, "acme", LevelWrite))
	assert.Equal(t, []string{"ds3"}, SpacesByPermission(view, "acme", LevelDelete))
	assert.Empty(t, SpacesByPermission(view, "acme", PermissionLevel("bogus")))

	t.Run("scoped to the named organization", func(t *testing.T) {
		// ds1 exists under both organizations; the globex role must not
		// make acme's ds1 reachable.
		view := viewFromRoles("u1", "globex_ds1_user", "acme_ds2_user")
		assert.Equal(t, []string{"ds2"}, SpacesByPermission(view, "acme", LevelRead))
		assert.Equal(t, []string{"ds1"}, SpacesByPermission(view, "globex", LevelRead))
		assert.Empty(t, SpacesByPermission(view, "initech", LevelRead))
	})
}

func TestIsUnrestrictedReader(t *testing.T) {
	assert.True(t, IsUnrestrictedReader(viewFromRoles("u1", "DATASPACE_ADMIN")))
	assert.False(t, IsUnrestrictedReader(viewFromRoles("u1", "org_acme_admin")))
}

func TestParsePermissionLevel(t *testing.T) {
	for raw, want := range map[string]PermissionLevel{
		"read": LevelRead, "WRITE": LevelWrite, "Delete": LevelDelete, "get": LevelGet,
	} {
		level, ok := ParsePermissionLevel(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, level)
	}
	_, ok := ParsePermissionLevel("admin")
	assert.False(t, ok)
}
