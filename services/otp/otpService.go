package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"pickabook/httpServices/brevo"
	"pickabook/models/otp"

	"gorm.io/gorm"
)

const (
	// CooldownWindow is the minimum interval between issuances for the
	// same email.
	CooldownWindow = 2 * time.Minute
	// CodeValidity is how long an issued code verifies. Expiry is
	// enforced here at verification time, not left to store-level TTL.
	CodeValidity = 10 * time.Minute
)

// ErrInvalidOrExpired covers both a wrong code and a missing/expired one.
var ErrInvalidOrExpired = errors.New("invalid or expired OTP")

// RateLimitError reports how long the caller must wait before the next
// issuance for the same email.
type RateLimitError struct {
	Seconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another OTP", e.Seconds)
}

// Sender delivers the formatted OTP email.
type Sender interface {
	SendTransactionalEmail(req brevo.SendEmailRequest) (*brevo.SendEmailResponse, error)
}

// Service handles OTP issuance and verification
type Service struct {
	DB        *gorm.DB
	Email     Sender
	FromName  string
	FromEmail string

	// Process-local cooldown state: email -> last issuance time.
	// Volatile by design; lost on restart and not shared across instances.
	mu        sync.Mutex
	cooldowns map[string]time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(db *gorm.DB, email Sender, fromName, fromEmail string) *Service {
	return &Service{
		DB:        db,
		Email:     email,
		FromName:  fromName,
		FromEmail: fromEmail,
		cooldowns: make(map[string]time.Time),
	}
}

// NormalizeEmail lowercases an address for all lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateOTP generates a uniformly random 6-digit code in 100000-999999.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// cooldownRemaining returns the seconds left on the email's cooldown,
// or 0 when a new code may be issued. Remaining time rounds up.
func (s *Service) cooldownRemaining(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.cooldowns[email]
	if !ok {
		return 0
	}

	elapsed := time.Since(last)
	if elapsed >= CooldownWindow {
		return 0
	}
	return int(math.Ceil((CooldownWindow - elapsed).Seconds()))
}

func (s *Service) setCooldown(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[email] = time.Now()
}

// Issue generates a code for the email, replaces any prior code, records
// the cooldown, and triggers delivery. The email must already be
// normalized by the caller.
func (s *Service) Issue(email string) (*otp.Otp, error) {
	if remaining := s.cooldownRemaining(email); remaining > 0 {
		return nil, &RateLimitError{Seconds: remaining}
	}

	code, err := GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	// At most one live code per email: drop everything older first.
	if err := s.DB.Where("email = ?", email).Delete(&otp.Otp{}).Error; err != nil {
		return nil, fmt.Errorf("failed to invalidate existing OTPs: %w", err)
	}

	record := &otp.Otp{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(CodeValidity),
	}
	if err := s.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create OTP record: %w", err)
	}

	s.setCooldown(email)

	if err := s.sendOTPEmail(email, code); err != nil {
		return nil, fmt.Errorf("failed to send OTP email: %w", err)
	}

	return record, nil
}

// Verify consumes the OTP matching the normalized email and exact code.
// The record is deleted on match before anything else happens, so a code
// can never be replayed even when a later step fails.
func (s *Service) Verify(email, code string) error {
	var record otp.Otp
	err := s.DB.Where("email = ? AND code = ?", email, code).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to find OTP record: %w", err)
	}

	// Single-use consumption happens first. The delete doubles as the
	// tiebreaker between racing verifications: only the caller whose
	// delete removed the row wins.
	result := s.DB.Delete(&otp.Otp{}, record.ID)
	if result.Error != nil {
		return fmt.Errorf("failed to consume OTP: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidOrExpired
	}

	if record.IsExpired() {
		return ErrInvalidOrExpired
	}

	return nil
}

// CleanupExpiredOTPs removes expired OTP records from the database
func (s *Service) CleanupExpiredOTPs() error {
	return s.DB.Where("expires_at < ?", time.Now()).Delete(&otp.Otp{}).Error
}

func (s *Service) sendOTPEmail(email, code string) error {
	htmlContent := fmt.Sprintf(`
      <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #F97316;">🎨 Pickabook Magic</h2>
        <p>Your one-time password (OTP) for login is:</p>
        <div style="background: linear-gradient(135deg, #F97316, #EA580C); color: white; font-size: 32px; font-weight: bold; padding: 20px 40px; border-radius: 12px; text-align: center; letter-spacing: 8px; margin: 20px 0;">
          %s
        </div>
        <p style="color: #666; font-size: 14px;">This OTP is valid for 10 minutes. Do not share it with anyone.</p>
        <p style="color: #999; font-size: 12px; margin-top: 30px;">If you didn't request this, please ignore this email.</p>
      </div>
    `, code)

	_, err := s.Email.SendTransactionalEmail(brevo.SendEmailRequest{
		Sender: brevo.Sender{
			Name:  s.FromName,
			Email: s.FromEmail,
		},
		To:          []brevo.Recipient{{Email: email}},
		Subject:     "Your Pickabook Login OTP",
		HTMLContent: htmlContent,
	})
	return err
}
