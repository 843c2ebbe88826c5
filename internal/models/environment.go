package models

// Environment is a tenant-scoped configuration namespace (for example
// development or production) inside one organization.
type Environment struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Identifier     string `json:"identifier,omitempty"`
	OrganizationID string `json:"_organizationId,omitempty"`
	ParentID       string `json:"_parentId,omitempty"`
}

// Derived reports whether the environment has a parent, which makes it
// read-only for the client.
func (e Environment) Derived() bool {
	return e.ParentID != ""
}
