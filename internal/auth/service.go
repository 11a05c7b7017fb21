package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = apperr.Unauthenticated("invalid credentials")

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"required,oneof=investor entrepreneur"`
}

type Session struct {
	Token     string             `json:"token"`
	ExpiresAt int64              `json:"expiresAt"`
	User      models.UserSummary `json:"user"`
}

// Service registers users and exchanges email/password for a token.
type Service struct {
	users  repository.UserRepository
	tokens *JWTManager
	log    *zap.Logger
	cost   int
}

func NewService(users repository.UserRepository, tokens *JWTManager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, log: log, cost: bcrypt.DefaultCost}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.Storage("auth.hash", err)
	}
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Connections:  []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch in.Role {
	case models.RoleEntrepreneur:
		u.EntrepreneurProfile = &models.EntrepreneurProfile{}
	case models.RoleInvestor:
		u.InvestorProfile = &models.InvestorProfile{}
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("user already exists")
		}
		return nil, apperr.Storage("users.create", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, apperr.Storage("users.find_by_email", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return s.session(u)
}

// Me resolves the user behind a verified id.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthenticated("user not found")
	}
	if err != nil {
		return nil, apperr.Storage("users.find", err)
	}
	return u, nil
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, apperr.Storage("auth.issue", err)
	}
	return &Session{Token: token, ExpiresAt: exp.Unix(), User: u.Summary()}, nil
}
