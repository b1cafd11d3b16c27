package constants

// User roles
const (
	UserTypeOrdinary = 1
	UserTypeAdmin    = 2
)

// InitialCredits is the balance granted to accounts created on first
// successful OTP verification.
const InitialCredits = 10
