package types

// ErrorResponse is the JSON body for every failed request. Details is
// only populated for unexpected failures, as a diagnostics aid.
type ErrorResponse struct {
	Error           string `json:"error"`
	Details         string `json:"details,omitempty"`
	CooldownSeconds int    `json:"cooldownSeconds,omitempty"`
	Credits         *int   `json:"credits,omitempty"`
	Message         string `json:"message,omitempty"`
}
