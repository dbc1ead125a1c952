// Package services contains the business logic of the link registry and the
// redirect path.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/axellelanca/linkforge/internal/cache"
	"github.com/axellelanca/linkforge/internal/codegen"
	apperrors "github.com/axellelanca/linkforge/internal/errors"
	"github.com/axellelanca/linkforge/internal/metrics"
	"github.com/axellelanca/linkforge/internal/models"
	"github.com/axellelanca/linkforge/internal/repository"
	"github.com/axellelanca/linkforge/internal/validator"
	"go.uber.org/zap"
)

var errNoGenerator = errors.New("code generator is not configured")

// DefaultClickLogLimit caps the events returned by ClickLogs.
const DefaultClickLogLimit = 1000

// LinkOptions configures a LinkService.
type LinkOptions struct {
	BaseURL        string // deployment origin, e.g. https://sho.rt
	AllowAnonymous bool
	ClickLogLimit  int
}

// LinkService implements the link registry operations exposed to callers.
type LinkService struct {
	links     repository.LinkRepository
	clicks    repository.ClickRepository
	validator validator.URLValidator
	resolver  *CollisionResolver
	cache     cache.Cache
	logger    *zap.Logger
	opts      LinkOptions
}

func NewLinkService(
	links repository.LinkRepository,
	clicks repository.ClickRepository,
	urlValidator validator.URLValidator,
	resolver *CollisionResolver,
	c cache.Cache,
	logger *zap.Logger,
	opts LinkOptions,
) *LinkService {
	if c == nil {
		c = cache.Noop{}
	}
	if opts.ClickLogLimit <= 0 {
		opts.ClickLogLimit = DefaultClickLogLimit
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &LinkService{
		links:     links,
		clicks:    clicks,
		validator: urlValidator,
		resolver:  resolver,
		cache:     c,
		logger:    logger,
		opts:      opts,
	}
}

// CreateInput is a create request. An empty OwnerID means anonymous.
type CreateInput struct {
	LongURL     string
	OwnerID     string
	Title       string
	Description string
}

// CreateResult carries the link and whether it already existed.
type CreateResult struct {
	Link     *models.ShortLink
	Existing bool
}

// Create registers LongURL, or returns the existing mapping for it. Each step
// returns on failure; a URL that fails validation never reaches the generator.
func (s *LinkService) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	const op = "links.create"

	if in.OwnerID == "" && !s.opts.AllowAnonymous {
		return nil, apperrors.Unauthorized(op, "authentication required")
	}
	if s.resolver == nil {
		return nil, s.internal(op, "", errNoGenerator)
	}

	longURL := strings.TrimSpace(in.LongURL)
	if !s.validator.Validate(ctx, longURL) {
		return nil, apperrors.InvalidInput(op, "long url must be a reachable http or https url")
	}

	existing, err := s.links.FindByOriginalURL(ctx, longURL)
	switch {
	case err == nil:
		return &CreateResult{Link: existing, Existing: true}, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, s.internal(op, "", err)
	}

	var owner *string
	if in.OwnerID != "" {
		id := in.OwnerID
		owner = &id
	}
	link, found, err := s.resolver.Reserve(ctx, func(code string) *models.ShortLink {
		return &models.ShortLink{
			Code:        code,
			OriginalURL: longURL,
			ShortURL:    s.ShortURL(code),
			OwnerID:     owner,
			Title:       strings.TrimSpace(in.Title),
			Description: strings.TrimSpace(in.Description),
		}
	})
	if err != nil {
		return nil, err
	}
	if found {
		return &CreateResult{Link: link, Existing: true}, nil
	}

	metrics.LinksCreated.Inc()
	s.cache.Add(ctx, link.Code, link.OriginalURL)
	s.logger.Info("short link created", zap.String("code", link.Code), zap.Bool("anonymous", owner == nil))
	return &CreateResult{Link: link}, nil
}

// ShortURL joins the deployment origin and code.
func (s *LinkService) ShortURL(code string) string {
	return s.opts.BaseURL + "/" + code
}

// Get returns the link for code.
func (s *LinkService) Get(ctx context.Context, code string) (*models.ShortLink, error) {
	const op = "links.get"

	if !codegen.IsValid(code) {
		return nil, apperrors.NotFound(op, "short url not found")
	}
	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(op, "short url not found")
		}
		return nil, s.internal(op, code, err)
	}
	return link, nil
}

// List returns the links owned by ownerID.
func (s *LinkService) List(ctx context.Context, ownerID string) ([]models.ShortLink, error) {
	const op = "links.list"

	if ownerID == "" {
		return nil, apperrors.Unauthorized(op, "authentication required")
	}
	links, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal(op, "", err)
	}
	return links, nil
}

// Update points code at newURL. Only the owner may do this; anyone else gets
// NotFound, the same as for a code that does not exist.
func (s *LinkService) Update(ctx context.Context, code, ownerID, newURL string) (*models.ShortLink, error) {
	const op = "links.update"

	if ownerID == "" {
		return nil, apperrors.Unauthorized(op, "authentication required")
	}
	if !codegen.IsValid(code) {
		return nil, apperrors.NotFound(op, "short url not found")
	}
	newURL = strings.TrimSpace(newURL)
	if !s.validator.Validate(ctx, newURL) {
		return nil, apperrors.InvalidInput(op, "long url must be a reachable http or https url")
	}

	link, err := s.links.UpdateOriginalURL(ctx, code, ownerID, newURL)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, apperrors.NotFound(op, "short url not found")
	case errors.Is(err, apperrors.ErrURLTaken):
		return nil, apperrors.Conflict(op, "long url is already shortened by another link", err)
	default:
		return nil, s.internal(op, code, err)
	}

	s.cache.Invalidate(ctx, code)
	s.logger.Info("short link updated", zap.String("code", code))
	return link, nil
}

// Delete removes code. Its click events are kept and the code is never
// issued again.
func (s *LinkService) Delete(ctx context.Context, code, ownerID string) error {
	const op = "links.delete"

	if ownerID == "" {
		return apperrors.Unauthorized(op, "authentication required")
	}
	if !codegen.IsValid(code) {
		return apperrors.NotFound(op, "short url not found")
	}

	if err := s.links.Delete(ctx, code, ownerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound(op, "short url not found")
		}
		return s.internal(op, code, err)
	}

	s.cache.Invalidate(ctx, code)
	s.logger.Info("short link deleted", zap.String("code", code))
	return nil
}

// ClickLog is the visit history of a link.
type ClickLog struct {
	Clicks int64               `json:"clicks"`
	Events []models.ClickEvent `json:"data"`
}

// ClickLogs returns the recent events and the counter of a link owned by ownerID.
func (s *LinkService) ClickLogs(ctx context.Context, code, ownerID string) (*ClickLog, error) {
	const op = "links.click_logs"

	if ownerID == "" {
		return nil, apperrors.Unauthorized(op, "authentication required")
	}
	link, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !link.OwnedBy(ownerID) {
		return nil, apperrors.NotFound(op, "short url not found")
	}

	events, err := s.clicks.ListByCode(ctx, code, s.opts.ClickLogLimit)
	if err != nil {
		return nil, s.internal(op, code, err)
	}
	return &ClickLog{Clicks: link.Clicks, Events: events}, nil
}

func (s *LinkService) internal(op, code string, err error) error {
	s.logger.Error("store failure", zap.String("code", code), zap.String("operation", op), zap.Error(err))
	return apperrors.Internal(op, err)
}
