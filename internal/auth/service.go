package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/controller/credential"
	"github.com/runtime-config/runtime-config/internal/db/controller/user"
	"github.com/runtime-config/runtime-config/internal/db/models"
	"github.com/runtime-config/runtime-config/internal/metrics"
)

const (
	operationIssue   = "issue"
	operationRefresh = "refresh"
	operationVerify  = "verify"
	operationRevoke  = "revoke"

	// TokenTypeBearer is the token_type reported with every pair.
	TokenTypeBearer = "bearer"
)

// Pair is an access token with the refresh token that can replace it.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenService issues and validates the tokens of identities.
type TokenService struct {
	db    *gorm.DB
	codec *Codec
}

// NewTokenService creates a token service storing refresh tokens in db.
func NewTokenService(db *gorm.DB, codec *Codec) *TokenService {
	return &TokenService{db: db, codec: codec}
}

// IssuePair mints a new pair for u and stores its refresh token, replacing
// any refresh token stored before.
func (s *TokenService) IssuePair(ctx context.Context, u *models.User) (*Pair, error) {
	pair, err := s.issue(ctx, u, func(tx *gorm.DB, refresh string) error {
		_, err := credential.Replace(tx, u.ID, refresh)
		return err
	})

	s.record(operationIssue, err)

	return pair, err
}

// RefreshPair exchanges the stored refresh token raw for a new pair. Every
// rejection is reported as ErrInvalidRefreshToken.
func (s *TokenService) RefreshPair(ctx context.Context, raw string) (*Pair, error) {
	pair, err := s.refresh(ctx, raw)

	s.record(operationRefresh, err)

	return pair, err
}

func (s *TokenService) refresh(ctx context.Context, raw string) (*Pair, error) {
	raw = strings.TrimSpace(raw)

	claims, err := s.codec.Decode(raw)
	if err != nil {
		return nil, reject(err, "refresh token does not decode")
	}

	if !claims.IsRefresh() {
		return nil, reject(nil, "token is not a refresh token")
	}

	u, err := user.GetByUsername(ctx, s.db, claims.Subject)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, reject(err, "refresh token subject is unknown")
	}

	if err != nil {
		return nil, err
	}

	if !u.Active {
		return nil, reject(ErrUserAccountDisabled, "refresh token subject is disabled")
	}

	pair, err := s.issue(ctx, u, func(tx *gorm.DB, refresh string) error {
		_, err := credential.Rotate(tx, u.ID, raw, refresh)
		return err
	})
	if errors.Is(err, credential.ErrCredentialNotFound) || errors.Is(err, credential.ErrConcurrentIssue) {
		return nil, reject(err, "refresh token is not the stored one")
	}

	return pair, err
}

// VerifyAccessToken resolves the identity named by an access token.
// Refresh tokens are not accepted.
func (s *TokenService) VerifyAccessToken(ctx context.Context, raw string) (*models.User, error) {
	u, err := s.verify(ctx, raw)

	s.record(operationVerify, err)

	return u, err
}

func (s *TokenService) verify(ctx context.Context, raw string) (*models.User, error) {
	claims, err := s.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	if claims.IsRefresh() {
		return nil, ErrInvalidToken
	}

	u, err := user.GetByUsername(ctx, s.db, claims.Subject)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}

	return u, err
}

// Revoke removes the stored refresh token of u. Access tokens already issued
// stay valid until they expire.
func (s *TokenService) Revoke(ctx context.Context, u *models.User) error {
	_, err := credential.DeleteForUser(s.db.WithContext(ctx), u.ID)

	s.record(operationRevoke, err)

	return err
}

func (s *TokenService) issue(ctx context.Context, u *models.User, store func(tx *gorm.DB, refresh string) error) (*Pair, error) {
	access, err := s.codec.EncodeAccess(u.Username)
	if err != nil {
		return nil, apperr.Internal("encode access token", err)
	}

	refresh, err := s.codec.EncodeRefresh(u.Username)
	if err != nil {
		return nil, apperr.Internal("encode refresh token", err)
	}

	if err = store(s.db.WithContext(ctx), refresh); err != nil {
		return nil, err
	}

	return &Pair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

func (s *TokenService) record(operation string, err error) {
	metrics.TokenOperations.WithLabelValues(operation, metrics.Result(err, isRejected)).Inc()

	if err != nil && errors.Is(err, apperr.ErrInternal) {
		log.Error().Err(err).Str("operation", operation).Msg("token operation failed")
	}
}

func isRejected(err error) bool {
	return errors.Is(err, apperr.ErrUnauthorized) || errors.Is(err, apperr.ErrConflict)
}

func reject(cause error, reason string) error {
	log.Info().Err(cause).Str("reason", reason).Msg("refresh rejected")

	return ErrInvalidRefreshToken
}
