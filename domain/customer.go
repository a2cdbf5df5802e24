package domain

// Customer is a CRM record served by the customer API. Business data lives in
// an in-memory repository only; it is a collaborator of the session core, not
// part of it.
type Customer struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	ContactPerson string   `json:"contactPerson"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Company       string   `json:"company"`
	Status        string   `json:"status"`
	Value         int      `json:"value"`
	LastContact   string   `json:"lastContact"`
	Notes         string   `json:"notes"`
	Tags          []string `json:"tags"`
}
