package model

// Document is the core fixed-schema record for a tenant-scoped document.
// Fields the workflow engine derives (Public, ReadWrite) are overwritten
// on every transition and are never client-settable. Anything outside the
// fixed schema lives in Values, which is allow-listed to scalar entries at
// the storage boundary.
type Document struct {
	ID                  string `json:"id"`
	Tenant              string `json:"tenant"`
	CreatedBy           string `json:"createdBy,omitempty"`
	Created             string `json:"created,omitempty"`
	Updated             string `json:"updated,omitempty"`
	Status              string `json:"status,omitempty"`
	Disposition         string `json:"disposition,omitempty"`
	Workflow            string `json:"workflow,omitempty"`
	Public              bool   `json:"public"`
	ReadWrite           bool   `json:"readwrite"`
	ParentID            string `json:"parentId,omitempty"`
	ParentIDTenant      string `json:"parentIdTenant,omitempty"`
	GrandParentID       string `json:"grandParentId,omitempty"`
	GrandParentIDTenant string `json:"grandParentIdTenant,omitempty"`

	// CloneID and CloneTenant identify the prototype during clone
	// creation. They are transient: present in the creation payload,
	// never persisted.
	CloneID     string `json:"clone-id,omitempty"`
	CloneTenant string `json:"clone-tenant,omitempty"`

	Values map[string]any `json:"values,omitempty"`
}

// coreFields is the storage allow-list for fixed-schema columns.
var coreFields = map[string]struct{}{
	"id": {}, "tenant": {}, "createdBy": {}, "created": {}, "updated": {},
	"status": {}, "disposition": {}, "workflow": {}, "public": {},
	"readwrite": {}, "parentId": {}, "parentIdTenant": {},
	"grandParentId": {}, "grandParentIdTenant": {},
}

func IsCoreField(name string) bool {
	_, ok := coreFields[name]
	return ok
}

// IsScalar reports whether a value may be stored as a row field. Records
// are flat string/number/bool maps; anything else is dropped by the
// storage boundary.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	}
	return false
}

// Record flattens the document into a storable field map. Transient clone
// markers and non-scalar extension values are excluded.
func (d *Document) Record() map[string]any {
	rec := map[string]any{
		"id":        d.ID,
		"tenant":    d.Tenant,
		"public":    d.Public,
		"readwrite": d.ReadWrite,
	}
	setIf := func(key, val string) {
		if val != "" {
			rec[key] = val
		}
	}
	setIf("createdBy", d.CreatedBy)
	setIf("created", d.Created)
	setIf("updated", d.Updated)
	setIf("status", d.Status)
	setIf("disposition", d.Disposition)
	setIf("workflow", d.Workflow)
	setIf("parentId", d.ParentID)
	setIf("parentIdTenant", d.ParentIDTenant)
	setIf("grandParentId", d.GrandParentID)
	setIf("grandParentIdTenant", d.GrandParentIDTenant)
	for k, v := range d.Values {
		if IsCoreField(k) || !IsScalar(v) {
			continue
		}
		rec[k] = v
	}
	return rec
}

func DocumentFromRecord(rec map[string]any) *Document {
	if rec == nil {
		return nil
	}
	str := func(key string) string {
		if v, ok := rec[key].(string); ok {
			return v
		}
		return ""
	}
	boolean := func(key string) bool {
		if v, ok := rec[key].(bool); ok {
			return v
		}
		return rec[key] == "true"
	}
	d := &Document{
		ID:                  str("id"),
		Tenant:              str("tenant"),
		CreatedBy:           str("createdBy"),
		Created:             str("created"),
		Updated:             str("updated"),
		Status:              str("status"),
		Disposition:         str("disposition"),
		Workflow:            str("workflow"),
		Public:              boolean("public"),
		ReadWrite:           boolean("readwrite"),
		ParentID:            str("parentId"),
		ParentIDTenant:      str("parentIdTenant"),
		GrandParentID:       str("grandParentId"),
		GrandParentIDTenant: str("grandParentIdTenant"),
	}
	for k, v := range rec {
		if IsCoreField(k) {
			continue
		}
		if d.Values == nil {
			d.Values = make(map[string]any)
		}
		d.Values[k] = v
	}
	return d
}

// AsMap is the flat field view used by constraint and extractor path
// lookups, the same shape the row store persists.
func (d *Document) AsMap() map[string]any {
	return d.Record()
}

// DeepCopy returns an independent copy, including the extension map.
func (d *Document) DeepCopy() *Document {
	copied := *d
	if d.Values != nil {
		copied.Values = make(map[string]any, len(d.Values))
		for k, v := range d.Values {
			copied.Values[k] = v
		}
	}
	return &copied
}

// Apply merges a partial update onto a copy of the document. Known core
// fields update the struct; unknown scalar keys land in Values. Derived
// flags are not client-settable and are ignored here, the engine assigns
// them on transition.
func (d *Document) Apply(patch map[string]any) *Document {
	next := d.DeepCopy()
	for k, v := range patch {
		s, isString := v.(string)
		switch k {
		case "id", "tenant", "public", "readwrite", "created", "createdBy":
			// not patchable
		case "status":
			if isString {
				next.Status = s
			}
		case "disposition":
			if isString {
				next.Disposition = s
			}
		case "workflow":
			if isString {
				next.Workflow = s
			}
		case "updated":
			if isString {
				next.Updated = s
			}
		case "parentId":
			if isString {
				next.ParentID = s
			}
		case "parentIdTenant":
			if isString {
				next.ParentIDTenant = s
			}
		case "grandParentId":
			if isString {
				next.GrandParentID = s
			}
		case "grandParentIdTenant":
			if isString {
				next.GrandParentIDTenant = s
			}
		default:
			if !IsScalar(v) {
				continue
			}
			if next.Values == nil {
				next.Values = make(map[string]any)
			}
			next.Values[k] = v
		}
	}
	return next
}
