package party

// CreatePartyRequest is the JSON payload for creating a party.
type CreatePartyRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	ContactPerson string  `json:"contact_person" validate:"required,max=200"`
	Phone         string  `json:"phone" validate:"required,max=50"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	GSTIN         *string `json:"gstin,omitempty" validate:"omitempty,max=20"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdatePartyRequest mutates an existing party. Nil fields are unchanged.
type UpdatePartyRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=200"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	GSTIN         *string `json:"gstin,omitempty" validate:"omitempty,max=20"`
	Notes         *string `json:"notes,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// ListPartiesRequest narrows party listings.
type ListPartiesRequest struct {
	Search   string
	IsActive *bool
	Page     int
	PerPage  int
}
