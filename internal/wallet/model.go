package wallet

import "time"

const (
	TxCredit = "credit"
	TxDebit  = "debit"
)

type Wallet struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Balance        int64  `json:"balance"`
	PendingBalance int64  `json:"pending_balance"`
}

type Transaction struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	OrderID     *string   `json:"order_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PayoutDestination holds the seller's bank or PIX details as a blob.
type PayoutDestination struct {
	Method    string `json:"method"` // bank | pix
	PixKey    string `json:"pix_key,omitempty"`
	BankCode  string `json:"bank_code,omitempty"`
	Agency    string `json:"agency,omitempty"`
	Account   string `json:"account,omitempty"`
	HolderTax string `json:"holder_tax_id,omitempty"`
}
