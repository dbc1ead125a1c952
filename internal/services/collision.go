package services

import (
	"context"
	"errors"

	"github.com/axellelanca/linkforge/internal/codegen"
	apperrors "github.com/axellelanca/linkforge/internal/errors"
	"github.com/axellelanca/linkforge/internal/metrics"
	"github.com/axellelanca/linkforge/internal/models"
	"github.com/axellelanca/linkforge/internal/repository"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds code generation per create request.
const DefaultMaxAttempts = 5

// CollisionResolver turns a generated code into a stored link. The store's
// unique indexes decide every race; nothing is checked before inserting.
type CollisionResolver struct {
	generator   *codegen.Generator
	seeds       codegen.SeedSource
	links       repository.LinkRepository
	maxAttempts int
	logger      *zap.Logger
}

func NewCollisionResolver(generator *codegen.Generator, seeds codegen.SeedSource, links repository.LinkRepository, maxAttempts int, logger *zap.Logger) *CollisionResolver {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &CollisionResolver{
		generator:   generator,
		seeds:       seeds,
		links:       links,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Reserve stores the link built for a freshly generated code. A taken code
// is retried with the next seed. If the URL was registered concurrently, the
// existing link is returned with existing set.
func (r *CollisionResolver) Reserve(ctx context.Context, build func(code string) *models.ShortLink) (link *models.ShortLink, existing bool, err error) {
	const op = "links.reserve"

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		code := r.generator.Generate(r.seeds.Next())
		candidate := build(code)

		err := r.links.Create(ctx, candidate)
		switch {
		case err == nil:
			return candidate, false, nil

		case errors.Is(err, apperrors.ErrCodeTaken):
			metrics.CodeCollisions.Inc()
			r.logger.Debug("code collision, retrying",
				zap.String("code", code), zap.Int("attempt", attempt), zap.Int("max_attempts", r.maxAttempts))

		case errors.Is(err, apperrors.ErrURLTaken):
			found, ferr := r.links.FindByOriginalURL(ctx, candidate.OriginalURL)
			if ferr == nil {
				return found, true, nil
			}
			if !errors.Is(ferr, apperrors.ErrNotFound) {
				r.logger.Error("store failure", zap.String("code", code), zap.String("operation", op), zap.Error(ferr))
				return nil, false, apperrors.Internal(op, ferr)
			}
			// Deleted again before we could read it; try a fresh insert.

		default:
			r.logger.Error("store failure", zap.String("code", code), zap.String("operation", op), zap.Error(err))
			return nil, false, apperrors.Internal(op, err)
		}
	}

	metrics.CodeExhaustions.Inc()
	r.logger.Warn("code generation attempts exhausted", zap.Int("max_attempts", r.maxAttempts))
	return nil, false, apperrors.ResourceExhausted(op, "could not allocate a unique short code, try again later")
}
