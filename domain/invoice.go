package domain

// Invoice statuses.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

type InvoiceItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unitPrice"`
	Total       int    `json:"total"`
}

// Invoice is a revenue record served by the invoice API.
type Invoice struct {
	ID           string        `json:"id"`
	CustomerID   int           `json:"customerId"`
	CustomerName string        `json:"customerName"`
	Amount       int           `json:"amount"`
	Currency     string        `json:"currency"`
	IssueDate    string        `json:"issueDate"`
	DueDate      string        `json:"dueDate"`
	PaidDate     string        `json:"paidDate,omitempty"`
	Status       string        `json:"status"`
	Description  string        `json:"description"`
	Items        []InvoiceItem `json:"items"`
}

// RevenueSummary aggregates invoice totals for the dashboard endpoint.
type RevenueSummary struct {
	TotalInvoiced    int `json:"totalInvoiced"`
	TotalPaid        int `json:"totalPaid"`
	TotalOutstanding int `json:"totalOutstanding"`
	InvoiceCount     int `json:"invoiceCount"`
	PaidCount        int `json:"paidCount"`
}
