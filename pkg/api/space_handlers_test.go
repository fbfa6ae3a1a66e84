package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/dataspace/pkg/orgs"
)

func (f *apiFixture) seedSpace(t *testing.T, orgName, spaceName string, owners []string, capabilities ...orgs.Capability) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.store.CreateSpace(context.Background(), &orgs.Space{
		ID:              "space-" + spaceName,
		OrganizationID:  "org-" + orgName,
		Name:            spaceName,
		Confidentiality: orgs.ConfidentialityInternal,
		Capabilities:    capabilities,
		Owners:          owners,
		SyncStatus:      orgs.SyncStatusPropagated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}))
}

func TestCreateSpaceHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newAPIFixture(t)
		f.seedOrg(t, "acme", "alice")

		rec := f.do(t, "POST", "/organization/acme/space/", "alice", map[string]interface{}{
			"name":            "research-lab",
			"confidentiality": "internal",
			"capabilities":    []string{"storage"},
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var space orgs.Space
		decodeBody(t, rec, &space)
		assert.Equal(t, "research-lab", space.Name)
		assert.Equal(t, "org-acme", space.OrganizationID)
		assert.Equal(t, orgs.SyncStatusPropagated, space.SyncStatus)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		f := newAPIFixture(t)
		f.seedOrg(t, "acme", "alice")

		rec := f.do(t, "POST", "/organization/acme/space/", "mallory", map[string]interface{}{
			"name":            "research-lab",
			"confidentiality": "internal",
		}, "org_acme_access")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown organization", func(t *testing.T) {
		f := newAPIFixture(t)

		rec := f.do(t, "POST", "/organization/ghost/space/", "alice", map[string]interface{}{
			"name":            "research-lab",
			"confidentiality": "internal",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid capability", func(t *testing.T) {
		f := newAPIFixture(t)
		f.seedOrg(t, "acme", "alice")

		rec := f.do(t, "POST", "/organization/acme/space/", "alice", map[string]interface{}{
			"name":            "research-lab",
			"confidentiality": "internal",
			"capabilities":    []string{"teleportation"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSpaceHandler(t *testing.T) {
	f := newAPIFixture(t)
	f.seedOrg(t, "acme", "alice")
	f.seedSpace(t, "acme", "research-lab", []string{"bob"})

	t.Run("org owner reads", func(t *testing.T) {
		rec := f.do(t, "GET", "/organization/acme/space/research-lab", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var space orgs.Space
		decodeBody(t, rec, &space)
		assert.Equal(t, "research-lab", space.Name)
	})

	t.Run("space owner reads without org roles", func(t *testing.T) {
		rec := f.do(t, "GET", "/organization/acme/space/research-lab", "bob", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		rec := f.do(t, "GET", "/organization/acme/space/research-lab", "mallory", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown space", func(t *testing.T) {
		rec := f.do(t, "GET", "/organization/acme/space/ghost", "alice", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListSpacesHandler(t *testing.T) {
	f := newAPIFixture(t)
	f.seedOrg(t, "acme", "alice")
	f.seedSpace(t, "acme", "research-lab", nil)
	f.seedSpace(t, "acme", "field-data", nil)

	t.Run("owner sees all", func(t *testing.T) {
		rec := f.do(t, "GET", "/organization/acme/space/", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result []orgs.Space
		decodeBody(t, rec, &result)
		assert.Len(t, result, 2)
	})

	t.Run("space role filters", func(t *testing.T) {
		rec := f.do(t, "GET", "/organization/acme/space/", "carol", nil,
			"org_acme_access", "acme_research-lab_user")
		require.Equal(t, http.StatusOK, rec.Code)

		var result []orgs.Space
		decodeBody(t, rec, &result)
		require.Len(t, result, 1)
		assert.Equal(t, "research-lab", result[0].Name)
	})

	t.Run("write level excludes read-only role", func(t *testing.T) {
		rec := f.do(t, "GET", "/organization/acme/space/?permission=write", "carol", nil,
			"org_acme_access", "acme_research-lab_user")
		require.Equal(t, http.StatusOK, rec.Code)

		var result []orgs.Space
		decodeBody(t, rec, &result)
		assert.Empty(t, result)
	})
}

func TestUpdateSpaceHandler(t *testing.T) {
	t.Run("owner updates capabilities", func(t *testing.T) {
		f := newAPIFixture(t)
		f.seedOrg(t, "acme", "alice")
		f.seedSpace(t, "acme", "research-lab", nil, orgs.CapabilityMetadata)

		rec := f.do(t, "PUT", "/organization/acme/space/research-lab", "alice", map[string]interface{}{
			"confidentiality": "internal",
			"capabilities":    []string{"metadata", "storage"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var space orgs.Space
		decodeBody(t, rec, &space)
		assert.Contains(t, space.Capabilities, orgs.CapabilityStorage)
	})

	t.Run("organization rename rejected", func(t *testing.T) {
		f := newAPIFixture(t)
		f.seedOrg(t, "acme", "alice")
		f.seedSpace(t, "acme", "research-lab", nil)

		rec := f.do(t, "PUT", "/organization/acme/space/research-lab", "alice", map[string]interface{}{
			"organization":    "globex",
			"confidentiality": "internal",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("parent id mismatch conflicts", func(t *testing.T) {
		f := newAPIFixture(t)
		f.seedOrg(t, "acme", "alice")
		f.seedSpace(t, "acme", "research-lab", nil)

		rec := f.do(t, "PUT", "/organization/acme/space/research-lab", "alice", map[string]interface{}{
			"organization_id": "org-other",
			"confidentiality": "internal",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestDeleteSpaceHandler(t *testing.T) {
	f := newAPIFixture(t)
	f.seedOrg(t, "acme", "alice")
	f.seedSpace(t, "acme", "research-lab", nil)

	t.Run("stranger forbidden", func(t *testing.T) {
		rec := f.do(t, "DELETE", "/organization/acme/space/research-lab", "mallory", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		rec := f.do(t, "DELETE", "/organization/acme/space/research-lab", "alice", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		_, err := f.store.GetSpaceByName(context.Background(), "org-acme", "research-lab")
		assert.True(t, orgs.IsNotFound(err))
	})
}

func TestHealthAndMetricsBypassRouting(t *testing.T) {
	f := newAPIFixture(t)

	// No health checker or registry configured; the routes simply don't
	// exist rather than 401.
	rec := f.do(t, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
