package directory

// HandleType identifies the kind of contact handle attached to a person.
type HandleType string

const (
	HandleTypeEmail HandleType = "email_address"
	HandleTypePhone HandleType = "phone_number"
)

// Handle is a contact identifier (email address or phone number) for a person.
type Handle struct {
	Type  HandleType `json:"type"`
	Value string     `json:"value"`
}

// String renders the handle in the directory's "type:value" filter form.
func (h Handle) String() string {
	return string(h.Type) + ":" + h.Value
}

// Person is a directory person record as returned by the persons API.
type Person struct {
	ID      string   `json:"person_id"`
	Handles []Handle `json:"handles,omitempty"`
	Groups  []string `json:"groups,omitempty"`
	Active  bool     `json:"active"`
}

// Organization is a directory organization (id plus fully-qualified name).
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"org_name"`
}

// PersonUpsert is the payload for creating or replacing a person record.
// The directory matches on handles, so re-supplying an existing person's
// handles updates that person in place.
type PersonUpsert struct {
	Handles []Handle `json:"handles"`
	Groups  []string `json:"groups"`
	Active  *bool    `json:"active,omitempty"`
}

// SubOrganizationCreate is the payload for creating a sub-organization.
// PersonsOrgID and GroupsOrgID point the new org at an existing person and
// group pool instead of provisioning fresh ones.
type SubOrganizationCreate struct {
	Name         string   `json:"sub_org_name"`
	Admins       []Handle `json:"admins"`
	PersonsOrgID string   `json:"persons_org_id,omitempty"`
	GroupsOrgID  string   `json:"groups_org_id,omitempty"`
}
