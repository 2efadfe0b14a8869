package directory

import "context"

// Fake is a function-field test double for Client. Methods whose function
// field is nil return zero values, so tests only stub what they exercise.
type Fake struct {
	ListPersonsFunc             func(ctx context.Context, orgID string, handle string) ([]Person, error)
	UpsertPersonFunc            func(ctx context.Context, orgID string, req PersonUpsert) (*Person, error)
	DeletePersonFunc            func(ctx context.Context, orgID, personID string) error
	GetPersonHandlesFunc        func(ctx context.Context, orgID, personID string) ([]Handle, error)
	ListPersonOrganizationsFunc func(ctx context.Context, orgID, personID string) ([]Organization, error)
	ListPersonGroupsFunc        func(ctx context.Context, orgID, personID string) ([]string, error)
	SetPersonGroupsFunc         func(ctx context.Context, orgID, personID string, groups []string) error
	CreateGroupFunc             func(ctx context.Context, orgID, name, description string) error
	ListSubOrganizationsFunc    func(ctx context.Context, orgID string) ([]string, error)
	CreateSubOrganizationFunc   func(ctx context.Context, parentOrgID string, req SubOrganizationCreate) (*Organization, error)
	GetPersonAttributesFunc     func(ctx context.Context, orgID, personID, bucket string) (map[string]string, error)
	SetPersonAttributesFunc     func(ctx context.Context, orgID, personID, bucket string, attrs map[string]string) error
	MintTokenFunc               func(ctx context.Context, orgID, personID string) (string, error)
}

var _ Client = (*Fake)(nil)

func (f *Fake) ListPersons(ctx context.Context, orgID string, handle string) ([]Person, error) {
	if f.ListPersonsFunc == nil {
		return nil, nil
	}
	return f.ListPersonsFunc(ctx, orgID, handle)
}

func (f *Fake) UpsertPerson(ctx context.Context, orgID string, req PersonUpsert) (*Person, error) {
	if f.UpsertPersonFunc == nil {
		return &Person{}, nil
	}
	return f.UpsertPersonFunc(ctx, orgID, req)
}

func (f *Fake) DeletePerson(ctx context.Context, orgID, personID string) error {
	if f.DeletePersonFunc == nil {
		return nil
	}
	return f.DeletePersonFunc(ctx, orgID, personID)
}

func (f *Fake) GetPersonHandles(ctx context.Context, orgID, personID string) ([]Handle, error) {
	if f.GetPersonHandlesFunc == nil {
		return nil, nil
	}
	return f.GetPersonHandlesFunc(ctx, orgID, personID)
}

func (f *Fake) ListPersonOrganizations(ctx context.Context, orgID, personID string) ([]Organization, error) {
	if f.ListPersonOrganizationsFunc == nil {
		return nil, nil
	}
	return f.ListPersonOrganizationsFunc(ctx, orgID, personID)
}

func (f *Fake) ListPersonGroups(ctx context.Context, orgID, personID string) ([]string, error) {
	if f.ListPersonGroupsFunc == nil {
		return nil, nil
	}
	return f.ListPersonGroupsFunc(ctx, orgID, personID)
}

func (f *Fake) SetPersonGroups(ctx context.Context, orgID, personID string, groups []string) error {
	if f.SetPersonGroupsFunc == nil {
		return nil
	}
	return f.SetPersonGroupsFunc(ctx, orgID, personID, groups)
}

func (f *Fake) CreateGroup(ctx context.Context, orgID, name, description string) error {
	if f.CreateGroupFunc == nil {
		return nil
	}
	return f.CreateGroupFunc(ctx, orgID, name, description)
}

func (f *Fake) ListSubOrganizations(ctx context.Context, orgID string) ([]string, error) {
	if f.ListSubOrganizationsFunc == nil {
		return nil, nil
	}
	return f.ListSubOrganizationsFunc(ctx, orgID)
}

func (f *Fake) CreateSubOrganization(ctx context.Context, parentOrgID string, req SubOrganizationCreate) (*Organization, error) {
	if f.CreateSubOrganizationFunc == nil {
		return &Organization{}, nil
	}
	return f.CreateSubOrganizationFunc(ctx, parentOrgID, req)
}

func (f *Fake) GetPersonAttributes(ctx context.Context, orgID, personID, bucket string) (map[string]string, error) {
	if f.GetPersonAttributesFunc == nil {
		return map[string]string{}, nil
	}
	return f.GetPersonAttributesFunc(ctx, orgID, personID, bucket)
}

func (f *Fake) SetPersonAttributes(ctx context.Context, orgID, personID, bucket string, attrs map[string]string) error {
	if f.SetPersonAttributesFunc == nil {
		return nil
	}
	return f.SetPersonAttributesFunc(ctx, orgID, personID, bucket, attrs)
}

func (f *Fake) MintToken(ctx context.Context, orgID, personID string) (string, error) {
	if f.MintTokenFunc == nil {
		return "", nil
	}
	return f.MintTokenFunc(ctx, orgID, personID)
}
