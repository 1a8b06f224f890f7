package types

import "time"

// ResourceRecord is one cloud resource as reported by the platform inventory.
// Config is the raw resource configuration document; its shape is
// resource-type specific and the platform does not guarantee schema
// stability, so it stays untyped with accessor helpers on top.
type ResourceRecord struct {
	ID     string            `json:"resourceId"`
	Type   string            `json:"resourceType"`
	Name   string            `json:"resourceName,omitempty"`
	Config map[string]any    `json:"resourceConfig,omitempty"`
	Tags   map[string]string `json:"resourceTags,omitempty"`
	Cloud  CloudContext      `json:"cloudDetails"`
}

// CloudContext locates a resource within a cloud provider.
type CloudContext struct {
	AccountID   string `json:"accountID"`
	Region      string `json:"region,omitempty"`
	AccountName string `json:"accountAlias,omitempty"`
}

// HasTags reports whether the resource carries any direct tags.
func (r ResourceRecord) HasTags() bool {
	return len(r.Tags) > 0
}

// ConfigString returns a string field from the raw configuration,
// or "" when absent or not a string.
func (r ResourceRecord) ConfigString(key string) string {
	v, ok := r.Config[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ConfigStringSlice returns a list field from the raw configuration as
// strings. Scalars are wrapped so callers can treat single values and
// lists uniformly.
func (r ResourceRecord) ConfigStringSlice(key string) []string {
	v, ok := r.Config[key]
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	}
	return nil
}

// FetchMeta describes how an account inventory was retrieved.
type FetchMeta struct {
	AccountID      string        `json:"account_id"`
	TotalResources int           `json:"total_resources"`
	PageCount      int           `json:"total_pages"`
	APICalls       int           `json:"total_api_calls"`
	FetchDuration  time.Duration `json:"fetch_duration_ns"`
	StartDate      string        `json:"start_date,omitempty"`
	EndDate        string        `json:"end_date,omitempty"`
	FetchedAt      time.Time     `json:"fetched_at"`
}

// AccountInventory is the complete resource inventory for one account.
// Resources is the source of truth; the indices are derived views and
// must be rebuilt after deserialization.
type AccountInventory struct {
	Meta      FetchMeta        `json:"metadata"`
	Resources []ResourceRecord `json:"resources"`

	byID   map[string]*ResourceRecord
	byType map[string][]*ResourceRecord
}

// BuildIndices (re)builds the by-identifier and by-type lookup indices.
// Identifiers may collide or be absent, so the index can be smaller than
// the resource list.
func (inv *AccountInventory) BuildIndices() {
	inv.byID = make(map[string]*ResourceRecord, len(inv.Resources))
	inv.byType = make(map[string][]*ResourceRecord)
	for i := range inv.Resources {
		r := &inv.Resources[i]
		if r.ID != "" {
			if _, exists := inv.byID[r.ID]; !exists {
				inv.byID[r.ID] = r
			}
		}
		if r.Type != "" {
			inv.byType[r.Type] = append(inv.byType[r.Type], r)
		}
	}
}

// LookupByID returns the resource with the given platform identifier.
func (inv *AccountInventory) LookupByID(id string) (*ResourceRecord, bool) {
	if inv.byID == nil {
		inv.BuildIndices()
	}
	r, ok := inv.byID[id]
	return r, ok
}

// ResourcesByType returns all resources of one platform resource type.
func (inv *AccountInventory) ResourcesByType(resourceType string) []*ResourceRecord {
	if inv.byType == nil {
		inv.BuildIndices()
	}
	return inv.byType[resourceType]
}

// IndexSize returns the number of distinct indexed identifiers.
func (inv *AccountInventory) IndexSize() int {
	if inv.byID == nil {
		inv.BuildIndices()
	}
	return len(inv.byID)
}

// Account is one cloud account integration known to the platform.
type Account struct {
	ID              string `json:"account_id"`
	Alias           string `json:"account_alias"`
	Enabled         bool   `json:"enabled"`
	IntegrationGUID string `json:"integration_guid,omitempty"`
}

// DateRange bounds a reporting window. Dates are YYYY-MM-DD strings as
// the platform API expects them.
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// IsZero reports whether the range is unset.
func (d DateRange) IsZero() bool {
	return d.Start == "" && d.End == ""
}

// String renders the range for log output.
func (d DateRange) String() string {
	if d.IsZero() {
		return "latest"
	}
	return d.Start + ".." + d.End
}
