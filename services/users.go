package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"truebite-api/events"
	"truebite-api/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	*base
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        models.UserRole
	AccountType models.AccountType
}

// Register creates a pending account; a manager approves it before it can sign in
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if strings.TrimSpace(in.Name) == "" || in.Email == "" {
		return nil, validationf("name and email are required")
	}
	if len(in.Password) < 6 {
		return nil, validationf("password must be at least 6 characters")
	}
	if in.AccountType == "" {
		in.AccountType = models.AccountCustomer
	}
	if !in.AccountType.Valid() {
		return nil, validationf("invalid account type %q", in.AccountType)
	}
	if in.Role == "" {
		in.Role = defaultRoleFor(in.AccountType)
	}
	if !roleAllowedFor(in.AccountType, in.Role) {
		return nil, validationf("role %q cannot be requested for a %s account", in.Role, in.AccountType)
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, conflictf("email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err, "lookup email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		AccountType:  in.AccountType,
		Status:       models.ApprovalPending,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, storeErr(err, "create user")
	}
	return user, nil
}

func defaultRoleFor(a models.AccountType) models.UserRole {
	switch a {
	case models.AccountManager:
		return models.RoleManager
	case models.AccountEmployee:
		return models.RoleVisitor
	}
	return models.RoleRegistered
}

func roleAllowedFor(a models.AccountType, r models.UserRole) bool {
	switch a {
	case models.AccountCustomer:
		return r == models.RoleRegistered
	case models.AccountEmployee:
		return r == models.RoleChef || r == models.RoleDelivery || r == models.RoleVisitor
	case models.AccountManager:
		return r == models.RoleManager
	}
	return false
}

// Authenticate checks credentials and that the account has been approved
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if err != nil {
		return nil, storeErr(err, "lookup user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	switch user.Status {
	case models.ApprovalPending:
		return nil, forbiddenf("account is awaiting manager approval")
	case models.ApprovalRejected:
		return nil, forbiddenf("account registration was rejected")
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, storeErr(err, "user "+id)
	}
	return &user, nil
}

// ListPending returns registrations still awaiting a decision, of any account type
func (s *UserService) ListPending(ctx context.Context, session Session) ([]models.User, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.db.WithContext(ctx).Where("status = ?", models.ApprovalPending).Order("created_at asc").Find(&users).Error
	return users, storeErr(err, "list pending users")
}

// ListEmployees returns employee accounts regardless of their current role
func (s *UserService) ListEmployees(ctx context.Context, session Session) ([]models.User, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.db.WithContext(ctx).Where("account_type = ?", models.AccountEmployee).Order("name asc").Find(&users).Error
	return users, storeErr(err, "list employees")
}

func (s *UserService) Approve(ctx context.Context, session Session, id string) (*models.User, error) {
	return s.decide(ctx, session, id, models.ApprovalApproved)
}

func (s *UserService) Reject(ctx context.Context, session Session, id string) (*models.User, error) {
	return s.decide(ctx, session, id, models.ApprovalRejected)
}

func (s *UserService) decide(ctx context.Context, session Session, id string, status models.ApprovalStatus) (*models.User, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("status", status).Error; err != nil {
		return nil, storeErr(err, "update approval")
	}
	user.Status = status
	return user, nil
}

// UpdateRole is the only way a role changes
func (s *UserService) UpdateRole(ctx context.Context, session Session, id string, role models.UserRole) (*models.User, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, validationf("invalid role %q", role)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, storeErr(err, "update role")
	}
	user.Role = role
	return user, nil
}

// SetBlacklisted restricts a customer from placing orders, or lifts the restriction
func (s *UserService) SetBlacklisted(ctx context.Context, session Session, id string, blacklisted bool) (*models.User, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("blacklisted", blacklisted).Error; err != nil {
		return nil, storeErr(err, "update blacklist")
	}
	user.Blacklisted = blacklisted
	return user, nil
}

// IssueWarning increments a user's warning counter on a manager's explicit request
func (s *UserService) IssueWarning(ctx context.Context, session Session, id, reason string) (*models.User, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := incrementWarnings(s.db.WithContext(ctx), id); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.UserWarned,
		ActorID: session.UserID,
		Payload: map[string]interface{}{"user_id": id, "warnings": user.Warnings, "reason": reason},
	})
	return user, nil
}

func incrementWarnings(tx *gorm.DB, userID string) error {
	err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("warnings", gorm.Expr("warnings + ?", 1)).Error
	return storeErr(err, "increment warnings")
}
