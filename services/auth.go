package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/utils"
	"go.uber.org/zap"
)

// Session is the credential pair handed to a client after login or refresh.
type Session struct {
	UserID       string
	Username     string
	AccessToken  string
	RefreshToken string
}

// AuthService manages accounts, access tokens and the refresh token lineage.
//
// A refresh token is single use: Refresh consumes the stored record with one
// atomic find-and-delete before issuing a replacement, so two concurrent
// refreshes with the same token cannot both succeed.
type AuthService struct {
	users      repositories.UserRepository
	tokens     repositories.RefreshTokenRepository
	signer     *utils.TokenSigner
	refreshTTL time.Duration
	now        func() time.Time
	recorder   Recorder
	log        *zap.Logger
}

// dummyHash keeps unknown-user logins as slow as wrong-password logins.
var dummyHash, _ = utils.HashPassword("not-a-real-password")

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, apperr.Validation("Username, email, and password are required.")
	}
	if utils.SanitizeText(username) != username || strings.ContainsAny(username, " \t\n@") {
		return nil, apperr.Validation("Username contains invalid characters.")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("Invalid email address.")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	now := s.now().UTC()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.users.Create(ctx, user)
	s.record("register", err)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.Validation("Identifier and password are required.")
	}
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			s.record("login", err)
			return nil, err
		}
		_ = utils.CheckPassword(dummyHash, password)
		s.record("login", apperr.ErrInvalidCredentials)
		return nil, apperr.ErrInvalidCredentials
	}
	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		s.record("login", apperr.ErrInvalidCredentials)
		return nil, apperr.ErrInvalidCredentials
	}

	// Lazy reaping. Other live sessions of the user are left alone.
	if err := s.tokens.DeleteExpired(ctx, user.ID, s.now()); err != nil {
		s.log.Warn("reap expired refresh tokens", zap.String("userId", user.ID.Hex()), zap.Error(err))
	}

	session, err := s.issue(ctx, user)
	s.record("login", err)
	return session, err
}

func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	session, err := s.refresh(ctx, raw)
	s.record("refresh", err)
	return session, err
}

func (s *AuthService) refresh(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated("Refresh token not found.")
	}

	stored, err := s.tokens.Consume(ctx, utils.HashRefreshToken(raw))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("Invalid refresh token.")
		}
		return nil, err
	}
	// The record is already gone, which also reaps it when expired.
	if !stored.ExpiresAt.After(s.now()) {
		return nil, apperr.Unauthenticated("Refresh token expired.")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("User not found.")
		}
		return nil, err
	}
	return s.issue(ctx, user)
}

// VerifyAccess validates an access token without touching storage.
func (s *AuthService) VerifyAccess(token string) (*utils.Claims, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("Authentication required.")
	}
	claims, err := s.signer.ValidateToken(token, s.now())
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid or expired token.")
	}
	return claims, nil
}

// Logout deletes the refresh record if there is one. It never fails for an
// unknown token.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	var err error
	if raw != "" {
		err = s.tokens.DeleteByHash(ctx, utils.HashRefreshToken(raw))
	}
	s.record("logout", err)
	return err
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*Session, error) {
	now := s.now()
	access, err := s.signer.GenerateAccessToken(user.ID.Hex(), user.Username, now)
	if err != nil {
		return nil, apperr.Internal("sign access token", err)
	}
	raw, hash, err := utils.NewRefreshToken()
	if err != nil {
		return nil, apperr.Internal("generate refresh token", err)
	}
	if err := s.tokens.Insert(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		IssuedAt:  now.UTC(),
		ExpiresAt: now.Add(s.refreshTTL).UTC(),
	}); err != nil {
		return nil, err
	}
	return &Session{
		UserID:       user.ID.Hex(),
		Username:     user.Username,
		AccessToken:  access,
		RefreshToken: raw,
	}, nil
}

func (s *AuthService) record(event string, err error) {
	if s.recorder == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	s.recorder.RecordAuth(event, outcome)
}
