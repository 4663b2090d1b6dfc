package entities

// Resource identifies a protected capability by type and name, e.g.
// mcp_tool:tool_execution. Immutable once referenced by a grant or policy.
type Resource struct {
	ResourceType string `json:"resource_type"`
	ResourceName string `json:"resource_name"`
}

// Key returns the canonical type:name form used for map and column keys.
func (r Resource) Key() string {
	return r.ResourceType + ":" + r.ResourceName
}
