package propagation

import (
	"context"

	"github.com/platinummonkey/dataspace/pkg/orgs"
)

// organizationContext is the JSON representation of an organization sent to
// downstream services.
type organizationContext struct {
	Name            string   `json:"name"`
	Confidentiality string   `json:"confidentiality"`
	Owners          []string `json:"owners"`
}

// spaceContext is the JSON representation of a space sent to downstream
// services. Spaces are addressed under their organization.
type spaceContext struct {
	Name            string   `json:"name"`
	Organization    string   `json:"organization"`
	Confidentiality string   `json:"confidentiality"`
	Capabilities    []string `json:"capabilities"`
	Owners          []string `json:"owners"`
}

func toOrganizationContext(org *orgs.Organization) organizationContext {
	return organizationContext{
		Name:            org.Name,
		Confidentiality: string(org.Confidentiality),
		Owners:          org.Owners,
	}
}

func toSpaceContext(org *orgs.Organization, space *orgs.Space) spaceContext {
	capabilities := make([]string, len(space.Capabilities))
	for i, c := range space.Capabilities {
		capabilities[i] = string(c)
	}
	return spaceContext{
		Name:            space.Name,
		Organization:    org.Name,
		Confidentiality: string(space.Confidentiality),
		Capabilities:    capabilities,
		Owners:          space.Owners,
	}
}

// restAdapter carries the REST plumbing shared by all adapters. Concrete
// adapters embed it and override the relevance predicates or operations they
// diverge on; there is no other inheritance.
type restAdapter struct {
	name   string
	client *Client
}

func (a *restAdapter) Name() string {
	return a.name
}

func (a *restAdapter) RelevantForOrganization(*orgs.Organization) bool {
	return true
}

func (a *restAdapter) RelevantForSpace(*orgs.Space) bool {
	return true
}

func (a *restAdapter) CreateOrganizationContext(ctx context.Context, org *orgs.Organization) error {
	err := a.client.CreateJSON(ctx, "/organization/", toOrganizationContext(org))
	return a.wrap("create organization context", err)
}

func (a *restAdapter) UpdateOrganizationContext(ctx context.Context, org *orgs.Organization) error {
	err := a.client.UpdateJSON(ctx, "/organization/"+org.Name, toOrganizationContext(org))
	return a.wrap("update organization context", err)
}

func (a *restAdapter) DeleteOrganizationContext(ctx context.Context, org *orgs.Organization) error {
	err := a.client.Delete(ctx, "/organization/"+org.Name)
	return a.wrap("delete organization context", err)
}

func (a *restAdapter) CreateSpaceContext(ctx context.Context, org *orgs.Organization, space *orgs.Space) error {
	err := a.client.CreateJSON(ctx, "/organization/"+org.Name+"/space/", toSpaceContext(org, space))
	return a.wrap("create space context", err)
}

func (a *restAdapter) UpdateSpaceContext(ctx context.Context, org *orgs.Organization, _, after *orgs.Space) error {
	err := a.client.UpdateJSON(ctx, "/organization/"+org.Name+"/space/"+after.Name, toSpaceContext(org, after))
	return a.wrap("update space context", err)
}

func (a *restAdapter) DeleteSpaceContext(ctx context.Context, org *orgs.Organization, space *orgs.Space) error {
	err := a.client.Delete(ctx, "/organization/"+org.Name+"/space/"+space.Name)
	return a.wrap("delete space context", err)
}

func (a *restAdapter) SyncOrganizationContext(ctx context.Context, org *orgs.Organization) error {
	err := a.client.UpsertJSON(ctx, "/organization/"+org.Name, "/organization/", toOrganizationContext(org))
	return a.wrap("sync organization context", err)
}

func (a *restAdapter) SyncSpaceContext(ctx context.Context, org *orgs.Organization, space *orgs.Space) error {
	err := a.client.UpsertJSON(ctx,
		"/organization/"+org.Name+"/space/"+space.Name,
		"/organization/"+org.Name+"/space/",
		toSpaceContext(org, space))
	return a.wrap("sync space context", err)
}

func (a *restAdapter) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Adapter: a.name, Op: op, Err: err}
}
