package services

import (
	"context"
	"errors"

	"github.com/axellelanca/linkforge/internal/cache"
	"github.com/axellelanca/linkforge/internal/codegen"
	apperrors "github.com/axellelanca/linkforge/internal/errors"
	"github.com/axellelanca/linkforge/internal/metrics"
	"github.com/axellelanca/linkforge/internal/repository"
	"go.uber.org/zap"
)

// ClickRecorder accepts visits without making the caller wait for the writes.
type ClickRecorder interface {
	Record(ctx context.Context, code, userAgent, ipAddress string)
}

// RedirectService resolves codes on the visit path.
type RedirectService struct {
	links    repository.LinkRepository
	cache    cache.Cache
	recorder ClickRecorder
	logger   *zap.Logger
}

func NewRedirectService(links repository.LinkRepository, c cache.Cache, recorder ClickRecorder, logger *zap.Logger) *RedirectService {
	if c == nil {
		c = cache.Noop{}
	}
	return &RedirectService{links: links, cache: c, recorder: recorder, logger: logger}
}

// Resolve returns the original URL for code and hands the visit to the
// recorder. Recording never changes the outcome.
func (s *RedirectService) Resolve(ctx context.Context, code, userAgent, ipAddress string) (string, error) {
	const op = "links.resolve"

	if !codegen.IsValid(code) {
		metrics.Redirects.WithLabelValues("not_found").Inc()
		return "", apperrors.NotFound(op, "short url not found")
	}

	originalURL, ok := s.cache.Get(ctx, code)
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()

		link, err := s.links.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				metrics.Redirects.WithLabelValues("not_found").Inc()
				return "", apperrors.NotFound(op, "short url not found")
			}
			metrics.Redirects.WithLabelValues("error").Inc()
			s.logger.Error("store failure", zap.String("code", code), zap.String("operation", op), zap.Error(err))
			return "", apperrors.Internal(op, err)
		}
		originalURL = link.OriginalURL
		// Add never replaces a tombstone left by a concurrent update or delete.
		s.cache.Add(ctx, code, originalURL)
	}

	s.recorder.Record(ctx, code, userAgent, ipAddress)
	metrics.Redirects.WithLabelValues("found").Inc()
	return originalURL, nil
}
