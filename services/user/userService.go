package user

import (
	"errors"
	"fmt"
	"strings"

	"pickabook/constants"
	userModel "pickabook/models/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Service handles user resolution and credit bookkeeping
type Service struct {
	DB *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// FindOrCreate resolves the user for a verified email, creating one on
// first login. Username defaults to the local part of the address.
// FirstOrCreate keeps the read-then-write race upsert-shaped; a
// duplicate-key loser under concurrent first logins re-reads the winner.
func (s *Service) FindOrCreate(email, username string) (*userModel.User, error) {
	if username == "" {
		username = strings.Split(email, "@")[0]
	}

	var u userModel.User
	result := s.DB.Where(userModel.User{Email: email}).Attrs(userModel.User{
		Uuid:     uuid.NewString(),
		Username: username,
		UserType: constants.UserTypeOrdinary,
		Credits:  constants.InitialCredits,
	}).FirstOrCreate(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			var existing userModel.User
			if err := s.DB.Where("email = ?", email).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("failed to resolve user after create race: %w", err)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to resolve user: %w", result.Error)
	}

	return &u, nil
}

// GetByID loads a user by primary key.
func (s *Service) GetByID(id uint) (*userModel.User, error) {
	var u userModel.User
	if err := s.DB.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// List returns all users, newest first.
func (s *Service) List() ([]userModel.User, error) {
	var users []userModel.User
	if err := s.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetCredits overwrites a user's balance with the exact given value.
func (s *Service) SetCredits(id uint, credits int) (*userModel.User, error) {
	if credits < 0 {
		return nil, fmt.Errorf("credits must be non-negative, got %d", credits)
	}

	result := s.DB.Model(&userModel.User{}).Where("id = ?", id).Update("credits", credits)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(id)
}

// ConsumeCredit decrements the user's balance by one in a single guarded
// statement. Concurrent calls cannot both pass a stale credits > 0 check:
// the decrement and the guard travel in the same round trip.
func (s *Service) ConsumeCredit(id uint) (int, error) {
	result := s.DB.Model(&userModel.User{}).
		Where("id = ? AND credits > 0", id).
		UpdateColumn("credits", gorm.Expr("credits - ?", 1))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to consume credit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrInsufficientCredits
	}

	u, err := s.GetByID(id)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}
