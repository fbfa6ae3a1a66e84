package auth

import (
	"sort"
	"strings"
)

// PermissionLevel is a requested access level for a permission query.
type PermissionLevel string

const (
	LevelRead   PermissionLevel = "read"
	LevelWrite  PermissionLevel = "write"
	LevelDelete PermissionLevel = "delete"

	// LevelGet is a query-only alias satisfied by the same space roles as
	// LevelRead. It exists so callers can mark pure enumeration requests,
	// which superusers may short-circuit via IsUnrestrictedReader.
	LevelGet PermissionLevel = "get"
)

// permittedSpaceRoles maps a level to the space roles that satisfy it.
var permittedSpaceRoles = map[PermissionLevel]map[SpaceRoleKind]bool{
	LevelRead:   {SpaceRoleUser: true, SpaceRoleSupplier: true, SpaceRoleTrustee: true},
	LevelWrite:  {SpaceRoleSupplier: true, SpaceRoleTrustee: true},
	LevelDelete: {SpaceRoleTrustee: true},
}

// ParsePermissionLevel maps a raw string to a PermissionLevel. The second
// return is false for unknown levels; callers treat that as an authorization
// failure, not a parse error.
func ParsePermissionLevel(raw string) (PermissionLevel, bool) {
	switch PermissionLevel(strings.ToLower(raw)) {
	case LevelRead:
		return LevelRead, true
	case LevelWrite:
		return LevelWrite, true
	case LevelDelete:
		return LevelDelete, true
	case LevelGet:
		return LevelGet, true
	}
	return "", false
}

func (l PermissionLevel) permitted() map[SpaceRoleKind]bool {
	if l == LevelGet {
		l = LevelRead
	}
	return permittedSpaceRoles[l]
}

// OrganizationRef is the subset of an organization that access decisions
// need. Entities expose it via an AccessRef method.
type OrganizationRef struct {
	Name   string
	Public bool
	Owners []string
}

// SpaceRef is the subset of a space that access decisions need.
type SpaceRef struct {
	Name   string
	Owners []string
}

// IsOwner reports whether subject appears in owners. Exact, case-sensitive
// membership: owner identifiers are opaque and compared verbatim.
func IsOwner(subject string, owners []string) bool {
	for _, owner := range owners {
		if owner == subject {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the view administers the organization: superusers
// always do, otherwise an admin-level organization role matching the name
// case-insensitively is required.
func IsAdmin(view AccessView, org OrganizationRef) bool {
	if view.Superuser {
		return true
	}
	for _, r := range view.OrganizationRoles {
		if r.Role == OrgRoleAdmin && strings.EqualFold(r.Organization, org.Name) {
			return true
		}
	}
	return false
}

// IsAdminOrOwner reports whether the subject owns the organization or
// administers it.
func IsAdminOrOwner(view AccessView, org OrganizationRef) bool {
	return IsOwner(view.Subject, org.Owners) || IsAdmin(view, org)
}

// IsSpaceAdminOrOwner reports whether the subject owns the space or
// administers its organization. The two branches are independent: space
// ownership does not require organization access, and organization
// administration is not implied by space ownership.
func IsSpaceAdminOrOwner(view AccessView, org OrganizationRef, space SpaceRef) bool {
	return IsOwner(view.Subject, space.Owners) || IsAdmin(view, org)
}

// CanAccessOrganization decides read access to an organization: public
// organizations are open to credentials carrying the public-access marker,
// admins and owners always pass, and any organization role naming the
// organization (case-insensitively) suffices.
func CanAccessOrganization(view AccessView, org OrganizationRef) bool {
	if org.Public && view.OrgPublicAccess {
		return true
	}
	if IsAdminOrOwner(view, org) {
		return true
	}
	for _, r := range view.OrganizationRoles {
		if strings.EqualFold(r.Organization, org.Name) {
			return true
		}
	}
	return false
}

// OrganizationsByPermission returns the sorted set of organization names the
// view can reach at the given level. A qualifying space role is necessary but
// not sufficient: the view must also hold an explicit access-level
// organization role for that organization. Admin-only organization roles do
// not count toward this derived permission.
func OrganizationsByPermission(view AccessView, level PermissionLevel) []string {
	permitted := level.permitted()
	if len(permitted) == 0 {
		return nil
	}

	fromSpaces := make(map[string]bool)
	for _, r := range view.SpaceRoles {
		if permitted[r.Role] {
			fromSpaces[r.Organization] = true
		}
	}

	var names []string
	seen := make(map[string]bool)
	for _, r := range view.OrganizationRoles {
		if r.Role != OrgRoleAccess {
			continue
		}
		if fromSpaces[r.Organization] && !seen[r.Organization] {
			seen[r.Organization] = true
			names = append(names, r.Organization)
		}
	}
	sort.Strings(names)
	return names
}

// SpacesByPermission returns the sorted set of space names inside the named
// organization for which the view holds a role satisfying the given level.
// Space names are only unique per organization, so a role naming a same-named
// space elsewhere never qualifies here.
func SpacesByPermission(view AccessView, organization string, level PermissionLevel) []string {
	permitted := level.permitted()
	if len(permitted) == 0 {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	for _, r := range view.SpaceRoles {
		if !strings.EqualFold(r.Organization, organization) {
			continue
		}
		if permitted[r.Role] && !seen[r.Space] {
			seen[r.Space] = true
			names = append(names, r.Space)
		}
	}
	sort.Strings(names)
	return names
}

// IsUnrestrictedReader reports whether enumeration queries at LevelGet may
// bypass per-organization role checks and return the full set.
func IsUnrestrictedReader(view AccessView) bool {
	return view.Superuser
}
