package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// UserService accounts, login and password management
type UserService struct {
	users       UserStore
	tokens      *utils.TokenIssuer
	emailDomain string
	validate    *validator.Validate
	now         func() time.Time
}

// NewUserService creates a user service; bare login names resolve to <name>@emailDomain
func NewUserService(users UserStore, tokens *utils.TokenIssuer, emailDomain string) *UserService {
	v := validator.New()
	// requests share the tags gin binds with
	v.SetTagName("binding")
	return &UserService{
		users:       users,
		tokens:      tokens,
		emailDomain: emailDomain,
		validate:    v,
		now:         time.Now,
	}
}

func (s *UserService) check(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return validationError("field %s failed on %s", fe.Field(), fe.Tag())
		}
		return validationError("%v", err)
	}
	return nil
}

// Login authenticates by e-mail or user name and issues a token
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	email := utils.LoginEmail(req.Login, s.emailDomain)

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.Logger.Warn().Str("email", email).Msg("login for unknown user")
			return nil, ErrInvalidLogin
		}
		return nil, err
	}
	if !utils.VerifyPassword(req.Password, user.Password) {
		utils.Logger.Warn().Str("email", email).Msg("login with wrong password")
		return nil, ErrInvalidLogin
	}

	token, err := s.tokens.GenerateToken(*user)
	if err != nil {
		return nil, err
	}
	utils.Logger.Info().Str("email", email).Str("role", string(user.Role)).Msg("user logged in")
	return &models.LoginResponse{Token: token, User: *user}, nil
}

// Me loads the profile of the caller
func (s *UserService) Me(ctx context.Context, actor Actor) (*models.UserProfile, error) {
	return s.FindProfile(ctx, actor.ID)
}

// FindProfile loads a stored profile by its hex id
func (s *UserService) FindProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return s.users.FindUserByID(ctx, oid)
}

// CreateUser registers an account; bare logins get the default e-mail domain
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.UserProfile, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.UserProfile{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     utils.LoginEmail(req.Login, s.emailDomain),
		Role:      req.Role,
		Password:  hash,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	utils.Logger.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

// ListUsers all accounts
func (s *UserService) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	return s.users.FindUsers(ctx)
}

// DeleteUser removes an account; callers cannot remove themselves
func (s *UserService) DeleteUser(ctx context.Context, userID string, actor Actor) error {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrInvalidID
	}
	if userID == actor.ID {
		return ErrSelfDeletion
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	utils.Logger.Info().Str("userId", userID).Str("by", actor.Email).Msg("user deleted")
	return nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, req models.ChangePasswordRequest) error {
	if err := s.check(req); err != nil {
		return err
	}
	user, err := s.Me(ctx, actor)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(req.CurrentPassword, user.Password) {
		return validationError("current password is incorrect")
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	utils.Logger.Info().Str("email", user.Email).Msg("password changed")
	return nil
}

// EnsureManager creates the first manager account when none exists
func (s *UserService) EnsureManager(ctx context.Context, login, password string) error {
	if login == "" || password == "" {
		return nil
	}
	count, err := s.users.CountUsersByRole(ctx, models.UserRoleManager)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = s.CreateUser(ctx, models.CreateUserRequest{
		Name:     "Gerente",
		Login:    login,
		Password: password,
		Role:     models.UserRoleManager,
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	return err
}
