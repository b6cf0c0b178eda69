package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/auth"
	"github.com/Spok95/cpq/internal/domain/users"
)

const minPasswordLen = 8

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
	Team     string `json:"team"`
}

type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      users.User `json:"user"`
}

type Users struct {
	store  UserStore
	issuer *auth.Issuer
	lists  *Lists
	log    *slog.Logger
}

func NewUsers(store UserStore, issuer *auth.Issuer, lists *Lists, log *slog.Logger) *Users {
	return &Users{store: store, issuer: issuer, lists: lists, log: log}
}

// Register creates an account that waits for admin approval. The very
// first account is the admin and is approved right away.
func (s *Users) Register(ctx context.Context, r Registration) (*users.User, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return nil, apperr.Invalid("invalid email %q", r.Email)
	}
	if len(r.Password) < minPasswordLen {
		return nil, apperr.Invalid("password must be at least %d characters", minPasswordLen)
	}
	existing, err := s.store.GetByEmail(ctx, r.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("email %s is already registered", r.Email)
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := users.User{
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: hash,
		Company:      strings.TrimSpace(r.Company),
		Team:         strings.TrimSpace(r.Team),
		Role:         users.RoleSales,
	}
	if n == 0 {
		u.Role = users.RoleAdmin
		u.Approved = true
	}
	out, err := s.store.Create(ctx, u)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("email %s is already registered", r.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.lists.Invalidate(ctx, listUsers)
	s.log.Info("user registered", "user_id", out.ID, "role", out.Role, "approved", out.Approved)
	return out, nil
}

func (s *Users) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("%w: wrong email or password", apperr.ErrUnauthorized)
	}
	if !u.Approved {
		return nil, apperr.Forbidden("account %s is waiting for approval", u.Email)
	}
	token, exp, err := s.issuer.Issue(*u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: *u}, nil
}

func (s *Users) List(ctx context.Context) ([]users.User, error) {
	return cachedList(ctx, s.lists, listUsers, s.store.List)
}

func (s *Users) Get(ctx context.Context, id int64) (*users.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user", id)
	}
	return u, nil
}

// Approvers lists accounts that can be picked when submitting a quote.
func (s *Users) Approvers(ctx context.Context) ([]users.User, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []users.User{}
	for _, u := range all {
		if u.Approved && u.Role.CanApprove() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Users) save(ctx context.Context, u users.User) (*users.User, error) {
	out, err := s.store.Update(ctx, u)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("telegram account is linked to another user")
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if out == nil {
		return nil, apperr.NotFound("user", u.ID)
	}
	s.lists.Invalidate(ctx, listUsers)
	return out, nil
}

// Approve lets a registered user sign in, optionally with a new role.
func (s *Users) Approve(ctx context.Context, id int64, role users.Role) (*users.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != "" {
		if !role.Valid() {
			return nil, apperr.Invalid("unknown role %q", role)
		}
		u.Role = role
	}
	u.Approved = true
	return s.save(ctx, *u)
}

// UserPatch is what an admin may change on an account.
type UserPatch struct {
	Name       *string     `json:"name"`
	Company    *string     `json:"company"`
	Team       *string     `json:"team"`
	Role       *users.Role `json:"role"`
	Approved   *bool       `json:"approved"`
	TelegramID *int64      `json:"telegram_id"`
}

func (s *Users) Update(ctx context.Context, actorID, id int64, p UserPatch) (*users.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, apperr.Invalid("name is required")
		}
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Company != nil {
		u.Company = strings.TrimSpace(*p.Company)
	}
	if p.Team != nil {
		u.Team = strings.TrimSpace(*p.Team)
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, apperr.Invalid("unknown role %q", *p.Role)
		}
		if id == actorID && *p.Role != u.Role {
			return nil, apperr.Forbidden("you cannot change your own role")
		}
		u.Role = *p.Role
	}
	if p.Approved != nil {
		if id == actorID && !*p.Approved {
			return nil, apperr.Forbidden("you cannot revoke your own access")
		}
		u.Approved = *p.Approved
	}
	if p.TelegramID != nil {
		u.TelegramID = *p.TelegramID
	}
	return s.save(ctx, *u)
}

// ByTelegram finds the account an admin linked to a Telegram chat.
func (s *Users) ByTelegram(ctx context.Context, chatID int64) (*users.User, error) {
	return s.store.GetByTelegramID(ctx, chatID)
}

func (s *Users) Delete(ctx context.Context, actorID, id int64) error {
	if id == actorID {
		return apperr.Forbidden("you cannot delete your own account")
	}
	ok, err := s.store.Delete(ctx, id)
	if isForeignKeyViolation(err) {
		return apperr.Conflict("user %d still owns quotes or orders", id)
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return apperr.NotFound("user", id)
	}
	s.lists.Invalidate(ctx, listUsers, listCustomers)
	return nil
}
