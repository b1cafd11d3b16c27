package otp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"pickabook/database"
	"pickabook/httpServices/brevo"
	otpModel "pickabook/models/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeSender struct {
	mu       sync.Mutex
	requests []brevo.SendEmailRequest
	fail     bool
}

func (f *fakeSender) SendTransactionalEmail(req brevo.SendEmailRequest) (*brevo.SendEmailResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, fmt.Errorf("brevo API returned non-OK status: 500")
	}
	f.requests = append(f.requests, req)
	return &brevo.SendEmailResponse{MessageID: "test-message"}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	return NewOTPService(db, sender, "Pickabook", "noreply@pickabook.test"), sender
}

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestIssueCreatesRecordAndSendsEmail(t *testing.T) {
	db := newTestDB(t)
	svc, sender := newTestService(t, db)

	record, err := svc.Issue("a@b.com")
	require.NoError(t, err)
	require.Len(t, record.Code, 6)
	assert.WithinDuration(t, time.Now().Add(CodeValidity), record.ExpiresAt, 5*time.Second)

	require.Len(t, sender.requests, 1)
	sent := sender.requests[0]
	assert.Equal(t, "a@b.com", sent.To[0].Email)
	assert.Equal(t, "Your Pickabook Login OTP", sent.Subject)
	assert.Contains(t, sent.HTMLContent, record.Code)
}

func TestIssueEnforcesCooldown(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.Issue("a@b.com")
	require.NoError(t, err)

	_, err = svc.Issue("a@b.com")
	var rateLimit *RateLimitError
	require.ErrorAs(t, err, &rateLimit)
	assert.Greater(t, rateLimit.Seconds, 0)
	assert.LessOrEqual(t, rateLimit.Seconds, int(CooldownWindow.Seconds()))

	// A different address is unaffected.
	_, err = svc.Issue("c@d.com")
	require.NoError(t, err)
}

func TestIssueAfterCooldownReplacesPriorCode(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	first, err := svc.Issue("a@b.com")
	require.NoError(t, err)

	// Simulate cooldown expiry instead of sleeping.
	svc.mu.Lock()
	svc.cooldowns["a@b.com"] = time.Now().Add(-CooldownWindow)
	svc.mu.Unlock()

	second, err := svc.Issue("a@b.com")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&otpModel.Otp{}).Where("email = ?", "a@b.com").Count(&count).Error)
	assert.Equal(t, int64(1), count, "at most one live record per email")

	// The old code no longer verifies; the new one does.
	if first.Code != second.Code {
		assert.ErrorIs(t, svc.Verify("a@b.com", first.Code), ErrInvalidOrExpired)
	}
	assert.NoError(t, svc.Verify("a@b.com", second.Code))
}

func TestIssueFailsWhenEmailDeliveryFails(t *testing.T) {
	db := newTestDB(t)
	svc, sender := newTestService(t, db)
	sender.fail = true

	_, err := svc.Issue("a@b.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send OTP email")
}

func TestVerifyConsumesCodeExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	record, err := svc.Issue("a@b.com")
	require.NoError(t, err)

	require.NoError(t, svc.Verify("a@b.com", record.Code))
	assert.ErrorIs(t, svc.Verify("a@b.com", record.Code), ErrInvalidOrExpired)
}

func TestVerifyConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	record, err := svc.Issue("a@b.com")
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	rejected := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			verifyErr := svc.Verify("a@b.com", record.Code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case verifyErr == nil:
				succeeded++
			case errors.Is(verifyErr, ErrInvalidOrExpired):
				rejected++
			default:
				t.Errorf("unexpected error: %v", verifyErr)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one verification consumes the code")
	assert.Equal(t, callers-1, rejected)
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	record, err := svc.Issue("a@b.com")
	require.NoError(t, err)

	wrong := "000000"
	if record.Code == wrong {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.Verify("a@b.com", wrong), ErrInvalidOrExpired)

	// The live code survives a wrong guess.
	assert.NoError(t, svc.Verify("a@b.com", record.Code))
}

func TestVerifyRejectsAndConsumesExpiredCode(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	expired := otpModel.Otp{
		Email:     "a@b.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&expired).Error)

	assert.ErrorIs(t, svc.Verify("a@b.com", "123456"), ErrInvalidOrExpired)

	var count int64
	require.NoError(t, db.Model(&otpModel.Otp{}).Where("email = ?", "a@b.com").Count(&count).Error)
	assert.Equal(t, int64(0), count, "expired record is consumed on the failed attempt")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.Com "))
	assert.Equal(t, "a@b.com", NormalizeEmail("a@b.com"))
}

func TestCleanupExpiredOTPs(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	require.NoError(t, db.Create(&otpModel.Otp{Email: "old@b.com", Code: "111111", ExpiresAt: time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&otpModel.Otp{Email: "new@b.com", Code: "222222", ExpiresAt: time.Now().Add(time.Hour)}).Error)

	require.NoError(t, svc.CleanupExpiredOTPs())

	var count int64
	require.NoError(t, db.Model(&otpModel.Otp{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
