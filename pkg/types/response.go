package types

// SuccessEnvelope wraps every successful JSON response.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope is the error payload consumed by clients. The limit fields
// are only present on limit-exceeded rejections.
type ErrorEnvelope struct {
	Success         bool   `json:"success"`
	Error           string `json:"error"`
	Message         string `json:"message,omitempty"`
	CurrentCount    *int   `json:"current_count,omitempty"`
	Limit           *int   `json:"limit,omitempty"`
	UpgradeRequired bool   `json:"upgrade_required,omitempty"`
	Details         any    `json:"details,omitempty"`
}
