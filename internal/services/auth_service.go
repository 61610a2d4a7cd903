package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courtreserve/internal/auth"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	// bcrypt rejects longer inputs.
	maxPasswordLen = 72
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is what a verified token says about its holder.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService is the identity provider: password accounts and signed tokens.
type AuthService struct {
	Users           UserStore
	Tokens          auth.Tokens
	SuperAdminEmail string
	Notifier        ChangeNotifier
	Now             Clock
	NewID           IDFunc
}

func (s AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := utils.NormalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, domain.ValidationError{Field: "name", Msg: "required"}
	case email == "" || !strings.Contains(email, "@"):
		return nil, domain.ValidationError{Field: "email", Msg: "invalid email"}
	case len(in.Password) < minPasswordLen:
		return nil, domain.ValidationError{Field: "password", Msg: fmt.Sprintf("at least %d characters", minPasswordLen)}
	case len(in.Password) > maxPasswordLen:
		return nil, domain.ValidationError{Field: "password", Msg: fmt.Sprintf("at most %d bytes", maxPasswordLen)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.InternalError{Msg: "hash password", Err: err}
	}
	role := domain.RoleUser
	if s.SuperAdminEmail != "" && email == utils.NormalizeEmail(s.SuperAdminEmail) {
		role = domain.RoleSuperAdmin
	}
	u := &models.User{
		ID:           s.NewID.next(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.Now.now(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
		}
		return nil, domain.StoreError(err)
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "auth", "register", fmt.Sprintf("user=%s role=%s", u.ID, u.Role))
	notifyChanged(s.Notifier, CollectionUsers)
	return s.session(u)
}

func (s AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ValidationError{Field: "email", Msg: "email and password are required"}
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, domain.StoreError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, invalidCredentials()
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "auth", "login", fmt.Sprintf("user=%s", u.ID))
	return s.session(u)
}

func invalidCredentials() error {
	return domain.AuthorizationError{Action: "login", Err: fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)}
}

func (s AuthService) session(u *models.User) (*Session, error) {
	token, err := s.Tokens.Issue(u.ID, string(u.Role), u.Email, u.Name)
	if err != nil {
		return nil, domain.InternalError{Msg: "issue token", Err: err}
	}
	return &Session{Token: token, User: u}, nil
}

// Authenticate verifies a bearer token.
func (s AuthService) Authenticate(token string) (*Identity, error) {
	claims, err := s.Tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, domain.AuthorizationError{Action: "authenticate", Err: fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)}
	}
	return &Identity{UserID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}

// Resolve authenticates the token and loads the current profile, so role and ban
// changes apply without a new token.
func (s AuthService) Resolve(ctx context.Context, token string) (*models.User, error) {
	id, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.Get(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.AuthorizationError{Action: "authenticate", Err: domain.ErrUnauthenticated}
		}
		return nil, domain.StoreError(err)
	}
	return u, nil
}
