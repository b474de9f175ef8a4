package model

import "encoding/json"

type Tenant struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
}

type TenantDetails struct {
	DisplayName string `json:"displayName"`
}

type User struct {
	ID              string   `json:"id"`
	Tenants         []string `json:"tenants"`
	DefaultTenantID string   `json:"defaultTenantId,omitempty"`
	Created         string   `json:"created,omitempty"`
	Updated         string   `json:"updated,omitempty"`
}

// Tenancy membership is stored as a JSON-encoded list in a single row
// field, so user rows stay flat.
func (u *User) Record() map[string]any {
	tenants, _ := json.Marshal(u.Tenants)
	rec := map[string]any{
		"id":      u.ID,
		"tenants": string(tenants),
	}
	if u.DefaultTenantID != "" {
		rec["defaultTenantId"] = u.DefaultTenantID
	}
	if u.Created != "" {
		rec["created"] = u.Created
	}
	if u.Updated != "" {
		rec["updated"] = u.Updated
	}
	return rec
}

func UserFromRecord(rec map[string]any) *User {
	if rec == nil {
		return nil
	}
	u := &User{}
	if v, ok := rec["id"].(string); ok {
		u.ID = v
	}
	if v, ok := rec["defaultTenantId"].(string); ok {
		u.DefaultTenantID = v
	}
	if v, ok := rec["created"].(string); ok {
		u.Created = v
	}
	if v, ok := rec["updated"].(string); ok {
		u.Updated = v
	}
	if v, ok := rec["tenants"].(string); ok {
		_ = json.Unmarshal([]byte(v), &u.Tenants)
	}
	return u
}

func (u *User) HasTenant(tenantID string) bool {
	for _, t := range u.Tenants {
		if t == tenantID {
			return true
		}
	}
	return false
}

type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TenantID    string `json:"tenantId"`
	Permissions string `json:"permissions,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
}
