package auth

import (
	"fmt"
	"regexp"
)

// OrgRoleKind is the access level of an organization-scoped role.
type OrgRoleKind string

const (
	OrgRoleAccess OrgRoleKind = "access" // member-level access to the organization
	OrgRoleAdmin  OrgRoleKind = "admin"  // full control over the organization
)

// SpaceRoleKind is the access level of a space-scoped role.
type SpaceRoleKind string

const (
	SpaceRoleUser     SpaceRoleKind = "user"     // read-only consumer
	SpaceRoleSupplier SpaceRoleKind = "supplier" // may write data into the space
	SpaceRoleTrustee  SpaceRoleKind = "trustee"  // full control, including deletion
)

// Marker strings recognized in raw credentials alongside the role grammar.
const (
	// SuperuserMarker grants unrestricted administration. Matched
	// case-insensitively against raw role strings.
	SuperuserMarker = "DATASPACE_ADMIN"

	// OrgPublicAccessMarker grants read access to organizations whose
	// confidentiality is public. Matched case-sensitively.
	OrgPublicAccessMarker = "PUBLIC_ORG_ACCESS"

	// SpacePublicAccessMarker is parsed onto the view for parity with the
	// claim set. No access decision consults it.
	SpacePublicAccessMarker = "PUBLIC_SPACE_ACCESS"
)

var (
	orgRolePattern   = regexp.MustCompile(`^org_([a-z0-9]{3,24})_(access|admin)$`)
	spaceRolePattern = regexp.MustCompile(`^([a-z0-9]{3,24})_([a-z0-9-]{3,63})_(user|supplier|trustee)$`)
)

// OrganizationRole is a parsed organization-scoped role claim.
type OrganizationRole struct {
	Organization string
	Role         OrgRoleKind
}

// String re-serializes the role to the exact claim format it was parsed from.
func (r OrganizationRole) String() string {
	return "org_" + r.Organization + "_" + string(r.Role)
}

// SpaceRole is a parsed space-scoped role claim.
type SpaceRole struct {
	Organization string
	Space        string
	Role         SpaceRoleKind
}

// String re-serializes the role to the exact claim format it was parsed from.
func (r SpaceRole) String() string {
	return r.Organization + "_" + r.Space + "_" + string(r.Role)
}

// RoleParseError reports a role string that does not match the grammar.
// It is not a system fault: callers filter through MatchesOrganizationRole /
// MatchesSpaceRole before parsing, so a well-formed view build never sees it.
type RoleParseError struct {
	Raw string
}

func (e *RoleParseError) Error() string {
	return fmt.Sprintf("malformed role string: %q", e.Raw)
}

// IsMalformedRole reports whether err is a role grammar violation.
func IsMalformedRole(err error) bool {
	_, ok := err.(*RoleParseError)
	return ok
}

// MatchesOrganizationRole reports whether raw matches the organization-role
// grammar.
func MatchesOrganizationRole(raw string) bool {
	return orgRolePattern.MatchString(raw)
}

// MatchesSpaceRole reports whether raw matches the space-role grammar.
func MatchesSpaceRole(raw string) bool {
	return spaceRolePattern.MatchString(raw)
}

// ParseOrganizationRole parses a raw claim of the form
// org_<organization>_<access|admin>. Parsing is pure: identical inputs always
// yield identical records.
func ParseOrganizationRole(raw string) (OrganizationRole, error) {
	m := orgRolePattern.FindStringSubmatch(raw)
	if m == nil {
		return OrganizationRole{}, &RoleParseError{Raw: raw}
	}
	return OrganizationRole{Organization: m[1], Role: OrgRoleKind(m[2])}, nil
}

// ParseSpaceRole parses a raw claim of the form
// <organization>_<space>_<user|supplier|trustee>.
func ParseSpaceRole(raw string) (SpaceRole, error) {
	m := spaceRolePattern.FindStringSubmatch(raw)
	if m == nil {
		return SpaceRole{}, &RoleParseError{Raw: raw}
	}
	return SpaceRole{Organization: m[1], Space: m[2], Role: SpaceRoleKind(m[3])}, nil
}
