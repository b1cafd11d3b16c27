package generate

// GenerateResponse is the body of a successful generation call: the
// resulting image URL and the balance after the decrement.
type GenerateResponse struct {
	ImageURL string `json:"imageUrl"`
	Credits  int    `json:"credits"`
}
