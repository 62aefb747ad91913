package types

// APIError is the public error payload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps APIError for JSON responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// MessageResponse acknowledges a mutation that has no body to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// PurchaseAck acknowledges a purchase write with the affected id.
type PurchaseAck struct {
	Message    string `json:"message"`
	PurchaseID int64  `json:"purchase_id"`
}
