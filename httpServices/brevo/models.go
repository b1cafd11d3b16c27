package brevo

// Sender identifies the configured from-address.
type Sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Recipient is a single to-address.
type Recipient struct {
	Email string `json:"email"`
}

// SendEmailRequest is the payload of POST /v3/smtp/email.
type SendEmailRequest struct {
	Sender      Sender      `json:"sender"`
	To          []Recipient `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

// SendEmailResponse is the acknowledgement returned by Brevo.
type SendEmailResponse struct {
	MessageID string `json:"messageId"`
}
