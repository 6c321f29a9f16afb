// Package users manages accounts: self registration, login and the admin's
// client directory.
package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a self-service account. The first account ever created
// is granted admin.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return models.User{}, apperr.Invalid("username, email and password are required")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{Username: username, Email: &email, PasswordHash: &hash}
	err = store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureUnique(tx, username, email, 0); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		user.IsAdmin = count == 0
		return create(tx, &user)
	})
	return user, err
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if store.IsNotFound(err) {
		return models.User{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	if user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, password) {
		return models.User{}, apperr.Unauthorized("invalid credentials")
	}
	return user, nil
}

// ByEmail resolves an externally verified email to a local principal.
func (s *Service) ByEmail(ctx context.Context, email string) (auth.Principal, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if store.IsNotFound(err) {
		return auth.Principal{}, apperr.Unauthorized("no account for %s", email)
	}
	if err != nil {
		return auth.Principal{}, fmt.Errorf("failed to load user: %w", err)
	}
	return auth.Principal{UserID: user.ID, Username: user.Username, Admin: user.IsAdmin}, nil
}

// List returns every user with their orders and fulfillment details. Admin only.
func (s *Service) List(ctx context.Context, p auth.Principal) ([]models.User, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	var list []models.User
	err := s.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Orders.Info").
		Order("id").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return list, nil
}

// ClientRequest carries the fields an admin may set on a client account.
type ClientRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// CreateClient registers a customer on behalf of staff. Clients are never
// admins and may have no login credentials at all.
func (s *Service) CreateClient(ctx context.Context, p auth.Principal, req ClientRequest) (models.User, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return models.User{}, err
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = generatedUsername(req.FirstName, s.now())
	}
	user := models.User{
		Username:  username,
		Email:     optional(req.Email),
		FirstName: optional(req.FirstName),
		LastName:  optional(req.LastName),
		Phone:     optional(req.Phone),
		Address:   optional(req.Address),
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = &hash
	}

	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureUnique(tx, username, deref(user.Email), 0); err != nil {
			return err
		}
		return create(tx, &user)
	})
	return user, err
}

// UpdateClient edits contact fields; empty values keep the current ones.
// The username is not editable.
func (s *Service) UpdateClient(ctx context.Context, p auth.Principal, id uint, req ClientRequest) (models.User, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return models.User{}, err
	}
	var user models.User
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if store.IsNotFound(err) {
				return apperr.NotFound("user %d not found", id)
			}
			return fmt.Errorf("failed to load user %d: %w", id, err)
		}
		if email := optional(req.Email); email != nil && *email != deref(user.Email) {
			if err := ensureUnique(tx, "", *email, user.ID); err != nil {
				return err
			}
			user.Email = email
		}
		keep(&user.FirstName, req.FirstName)
		keep(&user.LastName, req.LastName)
		keep(&user.Phone, req.Phone)
		keep(&user.Address, req.Address)
		if err := tx.Save(&user).Error; err != nil {
			if store.IsDuplicate(err) {
				return apperr.Conflict("email already in use")
			}
			return fmt.Errorf("failed to update user %d: %w", id, err)
		}
		return nil
	})
	return user, err
}

// ensureUnique rejects a username or email already taken by another user.
func ensureUnique(tx *gorm.DB, username, email string, exceptID uint) error {
	q := tx.Model(&models.User{})
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return nil
	}
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	if count > 0 {
		if username == "" {
			return apperr.Conflict("email already in use")
		}
		return apperr.Conflict("username or email already exists")
	}
	return nil
}

func create(tx *gorm.DB, user *models.User) error {
	if err := tx.Create(user).Error; err != nil {
		if store.IsDuplicate(err) {
			return apperr.Conflict("username or email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func generatedUsername(firstName string, now time.Time) string {
	base := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(firstName), " ", ""))
	if base == "" {
		base = "cliente"
	}
	return fmt.Sprintf("%s_%d", base, now.Unix())
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func keep(field **string, value string) {
	if v := optional(value); v != nil {
		*field = v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateAdmin provisions an admin account from the command line, or promotes
// an existing account with the same username and resets its password.
func (s *Service) CreateAdmin(ctx context.Context, req RegisterRequest) (models.User, bool, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return models.User{}, false, apperr.Invalid("username and password are required")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, false, err
	}

	var (
		user    models.User
		created bool
	)
	err = store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		err := tx.Where("username = ?", username).First(&user).Error
		switch {
		case store.IsNotFound(err):
			user = models.User{Username: username, Email: optional(req.Email), PasswordHash: &hash, IsAdmin: true}
			created = true
			return create(tx, &user)
		case err != nil:
			return fmt.Errorf("failed to load user: %w", err)
		}
		user.IsAdmin = true
		user.PasswordHash = &hash
		return tx.Model(&user).Select("IsAdmin", "PasswordHash").Updates(&user).Error
	})
	return user, created, err
}
