package auth

import "strings"

// Credential is the raw material the authentication boundary supplies for one
// request: a subject identifier and the role strings carried by the bearer
// token. It is immutable for the request's lifetime.
type Credential struct {
	Subject string
	Roles   []string
}

// AccessView is the structured authorization view derived from a Credential.
// It is built once per request by BuildView and read-only afterwards.
type AccessView struct {
	Subject           string
	OrganizationRoles []OrganizationRole
	SpaceRoles        []SpaceRole
	Superuser         bool
	OrgPublicAccess   bool

	// SpacePublicAccess mirrors the claim set but is not consulted by any
	// access decision. See the design notes before wiring it into a check.
	SpacePublicAccess bool
}

// BuildView derives an AccessView from a credential. Role strings matching
// neither grammar nor a marker are ignored; duplicate role claims collapse.
func BuildView(cred Credential) AccessView {
	view := AccessView{Subject: cred.Subject}

	seenOrg := make(map[OrganizationRole]struct{})
	seenSpace := make(map[SpaceRole]struct{})

	for _, raw := range cred.Roles {
		switch {
		case MatchesOrganizationRole(raw):
			record, err := ParseOrganizationRole(raw)
			if err != nil {
				continue
			}
			if _, dup := seenOrg[record]; dup {
				continue
			}
			seenOrg[record] = struct{}{}
			view.OrganizationRoles = append(view.OrganizationRoles, record)
		case MatchesSpaceRole(raw):
			record, err := ParseSpaceRole(raw)
			if err != nil {
				continue
			}
			if _, dup := seenSpace[record]; dup {
				continue
			}
			seenSpace[record] = struct{}{}
			view.SpaceRoles = append(view.SpaceRoles, record)
		}

		if strings.EqualFold(raw, SuperuserMarker) {
			view.Superuser = true
		}
		switch raw {
		case OrgPublicAccessMarker:
			view.OrgPublicAccess = true
		case SpacePublicAccessMarker:
			view.SpacePublicAccess = true
		}
	}

	return view
}
