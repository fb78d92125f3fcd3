package quotes

import "time"

const (
	QuoteOpen       = "open"
	QuoteInProgress = "in_progress"
	QuoteCompleted  = "completed"
	QuoteCancelled  = "cancelled"

	ProposalPending  = "pending"
	ProposalAccepted = "accepted"
	ProposalRejected = "rejected"
)

// Quote is a client's open request for custom work, answered by
// company proposals.
type Quote struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    *string   `json:"category,omitempty"`
	BudgetMin   *int64    `json:"budget_min,omitempty"`
	BudgetMax   *int64    `json:"budget_max,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	ProposalCount int `json:"proposal_count,omitempty"`
}

type Proposal struct {
	ID          string    `json:"id"`
	QuoteID     string    `json:"quote_id"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name,omitempty"`
	Price       int64     `json:"price"`
	CoverLetter *string   `json:"cover_letter,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
