package propagation

// IdentityAdapter keeps the identity/role service in step with organization
// and space lifecycle. It provisions the role structures other downstream
// services depend on, which is why the synchronizer always runs it first.
// Roles are cross-cutting, so the adapter is relevant to every entity.
type IdentityAdapter struct {
	restAdapter
}

// NewIdentityAdapter creates the identity adapter.
func NewIdentityAdapter(client *Client) *IdentityAdapter {
	return &IdentityAdapter{restAdapter{name: "identity", client: client}}
}

// MetadataAdapter keeps the metadata/search service's indices in step with
// organization and space lifecycle. Indices exist for every entity regardless
// of declared capabilities.
type MetadataAdapter struct {
	restAdapter
}

// NewMetadataAdapter creates the metadata adapter.
func NewMetadataAdapter(client *Client) *MetadataAdapter {
	return &MetadataAdapter{restAdapter{name: "metadata", client: client}}
}
