package party

import "time"

// Party is a customer, seller or buyer entity in the ledger. Parties are
// never hard-deleted: invoices and transactions keep referencing them, so
// removal is a deactivation.
type Party struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Email         *string   `json:"email,omitempty"`
	Address       *string   `json:"address,omitempty"`
	GSTIN         *string   `json:"gstin,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
