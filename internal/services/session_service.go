package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/logger"
	"woodshop/internal/metrics"
	"woodshop/internal/models"
)

// Column widths of the ip_address and user_agent columns.
const (
	maxIPLength        = 45
	maxUserAgentLength = 255
)

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// sessionService persists issued tokens so they can be revoked early.
type sessionService struct {
	db          *gorm.DB
	revocations RevocationStore
	now         func() time.Time
}

// NewSessionService creates a new SessionServicer. revocations may be nil.
func NewSessionService(db *gorm.DB, revocations RevocationStore) SessionServicer {
	return &sessionService{db: db, revocations: revocations, now: time.Now}
}

// Open records a session for token. Only the digest of token is stored.
func (s *sessionService) Open(ctx context.Context, userID uint, token string, expiresAt time.Time, ip, userAgent string) (*models.Session, error) {
	if token == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "token is required")
	}

	session := &models.Session{
		UserID:    userID,
		TokenHash: HashToken(token),
		IPAddress: truncate(ip, maxIPLength),
		UserAgent: truncate(userAgent, maxUserAgentLength),
		IsActive:  true,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return session, nil
}

// IsValid reports whether a session exists for token, is active and has not
// expired. The revocation cache is consulted first when configured.
func (s *sessionService) IsValid(ctx context.Context, token string) (bool, error) {
	digest := HashToken(token)

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, digest)
		if err != nil {
			logger.Get().Warnw("revocation cache lookup failed, falling back to database", "error", err)
		} else if revoked {
			return false, nil
		}
	}

	var session models.Session
	if err := s.db.WithContext(ctx).Where("token_hash = ?", digest).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return session.IsValid(s.now()), nil
}

// Revoke deactivates the session for token. Unknown or already inactive
// sessions are not an error.
func (s *sessionService) Revoke(ctx context.Context, token string) error {
	digest := HashToken(token)

	var session models.Session
	if err := s.db.WithContext(ctx).Where("token_hash = ?", digest).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !session.IsActive {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&session).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	metrics.SessionsRevokedTotal.WithLabelValues("logout").Inc()
	s.markRevoked(ctx, session)
	return nil
}

// RevokeAll deactivates every active session owned by userID.
func (s *sessionService) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	var sessions []models.Session
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&sessions).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	metrics.SessionsRevokedTotal.WithLabelValues("revoke_all").Add(float64(result.RowsAffected))
	for _, session := range sessions {
		s.markRevoked(ctx, session)
	}
	return result.RowsAffected, nil
}

// ListActive returns the user's sessions that still accept their token.
func (s *sessionService) ListActive(ctx context.Context, userID uint) ([]models.Session, error) {
	var sessions []models.Session
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, s.now().UTC()).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sessions, nil
}

// ExpireStale deactivates sessions whose expiry has passed. Rows are kept.
func (s *sessionService) ExpireStale(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("is_active = ? AND expires_at <= ?", true, s.now().UTC()).
		Update("is_active", false)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.SessionsRevokedTotal.WithLabelValues("expired").Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *sessionService) markRevoked(ctx context.Context, session models.Session) {
	if s.revocations == nil {
		return
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if err := s.revocations.MarkRevoked(ctx, session.TokenHash, ttl); err != nil {
		logger.Get().Warnw("failed to cache session revocation", "error", err, "session_id", session.ID)
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
