package finance

import "time"

// Transaction is a single logged income or expense.
type Transaction struct {
	ID          int64     `json:"id,omitempty"`
	Type        string    `json:"type"` // "expense" or "income"
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	OccurredAt  time.Time `json:"occurred_at,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// CategoryTotal is one slice of the monthly breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Summary is the monthly financial summary the dashboard renders.
type Summary struct {
	Month         string          `json:"month"`
	Income        float64         `json:"income"`
	Expenses      float64         `json:"expenses"`
	Net           float64         `json:"net"`
	TopCategories []CategoryTotal `json:"top_categories"`
}

type parseRequest struct {
	Text string `json:"text"`
}
