// Package services contains server-side business logic: accounts and tokens
// (UserService) and the text blocks that own images (TextBlockService).
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(p models.Principal) (string, error)
}

// UserService registers accounts, checks passwords and mints access tokens.
type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	bcryptCost  int
	logger      logging.Logger

	// compared against when the login is unknown, so that a missing account
	// costs as much as a wrong password
	dummyHash []byte
}

func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, tokens TokenIssuer, bcryptCost int, logger logging.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("filekeeper-dummy-password"), bcryptCost)
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		logger:      logger.With("module", "users"),
		dummyHash:   dummy,
	}
}

func validateCredentials(login, password string) error {
	err := validation.Errors{
		"login":    validation.Validate(login, validation.Required, validation.Length(3, 64)),
		"password": validation.Validate(password, validation.Required, validation.Length(6, 72)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	return nil
}

// Register creates a ROLE_USER account and returns a token for it.
// A taken login yields common.ErrConflict.
func (s *UserService) Register(ctx context.Context, login, password string) (string, error) {
	u, err := s.create(ctx, login, password, models.RoleUser)
	if err != nil {
		return "", err
	}
	return s.issue(u)
}

func (s *UserService) create(ctx context.Context, login, password string, role models.Role) (*models.User, error) {
	if err := validateCredentials(login, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Login:        login,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

// Login checks the password and returns a fresh token. Unknown logins and
// wrong passwords are indistinguishable: both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, login, password string) (string, error) {
	u, err := s.repomanager.Users(s.db).GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	return s.issue(u)
}

func (s *UserService) issue(u *models.User) (string, error) {
	tok, err := s.tokens.Issue(*u.Principal())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

func (s *UserService) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByLogin(ctx, login)
}

// SetRole promotes or demotes an account. It takes effect on the account's
// next request, since the gate reads the role from the store.
func (s *UserService) SetRole(ctx context.Context, id int64, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidRole, role)
	}
	if err := s.repomanager.Users(s.db).UpdateRole(ctx, id, role); err != nil {
		return fmt.Errorf("set role of user %d: %w", id, err)
	}
	s.logger.Info(ctx, "user role changed", "user_id", id, "role", string(role))
	return nil
}

// EnsureAdmin creates the bootstrap administrator unless the login already
// exists. An existing account is promoted, its password is left alone.
func (s *UserService) EnsureAdmin(ctx context.Context, login, password string) error {
	u, err := s.FindByLogin(ctx, login)
	switch {
	case err == nil:
		if u.Role == models.RoleAdmin {
			return nil
		}
		return s.SetRole(ctx, u.ID, models.RoleAdmin)
	case errors.Is(err, common.ErrorNotFound):
		_, err = s.create(ctx, login, password, models.RoleAdmin)
		return err
	default:
		return fmt.Errorf("lookup admin: %w", err)
	}
}
