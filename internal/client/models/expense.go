package models

// Expense mirrors the expense resource returned by the API.
type Expense struct {
	ID          int     `json:"id"`
	UserID      int     `json:"user_id,omitempty"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// Prediction is the spending forecast computed server-side.
type Prediction struct {
	Prediction float64 `json:"prediction"`
	Confidence string  `json:"confidence"`
	Message    string  `json:"message,omitempty"`
}
