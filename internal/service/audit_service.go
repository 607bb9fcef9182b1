package service

import (
	"context"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, activity entries are only written to the logger.
func NewAuditService(repo ports.ActivityRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Log records an activity entry asynchronously (fire-and-forget).
func (s *auditService) Log(ctx context.Context, entry *domain.ActivityLog) {
	go func() {
		s.log.Info().
			Str("activity_type", string(entry.Type)).
			Str("user_id", entry.UserID.String()).
			Str("entity_type", string(entry.EntityType)).
			Msg("activity")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("activity_type", string(entry.Type)).Msg("failed to persist activity log")
			}
		}
	}()
}
