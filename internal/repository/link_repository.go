package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/axellelanca/linkforge/internal/errors"
	"github.com/axellelanca/linkforge/internal/models"
	"gorm.io/gorm"
)

// LinkRepository is the store behind the link registry. Lookups that match no
// row return apperrors.ErrNotFound; duplicate inserts return
// apperrors.ErrCodeTaken or apperrors.ErrURLTaken.
type LinkRepository interface {
	Create(ctx context.Context, link *models.ShortLink) error
	FindByCode(ctx context.Context, code string) (*models.ShortLink, error)
	FindByOriginalURL(ctx context.Context, originalURL string) (*models.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.ShortLink, error)
	ListAll(ctx context.Context) ([]models.ShortLink, error)
	UpdateOriginalURL(ctx context.Context, code, ownerID, newURL string) (*models.ShortLink, error)
	Delete(ctx context.Context, code, ownerID string) error
	RaiseClicks(ctx context.Context, code string, clicks int64) (bool, error)
}

// GormLinkRepository implements LinkRepository with GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

var _ LinkRepository = (*GormLinkRepository)(nil)

func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// Create reserves link.Code in short_codes and inserts the link in one
// transaction. The unique indexes decide races: a taken code yields
// ErrCodeTaken, a registered URL yields ErrURLTaken.
func (r *GormLinkRepository) Create(ctx context.Context, link *models.ShortLink) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.ShortCode{Code: link.Code}).Error; err != nil {
			if isDuplicateKey(err) {
				return apperrors.ErrCodeTaken
			}
			return fmt.Errorf("failed to reserve code %s: %w", link.Code, err)
		}
		if err := tx.Create(link).Error; err != nil {
			if isDuplicateKey(err) {
				return apperrors.ErrURLTaken
			}
			return fmt.Errorf("failed to create link: %w", err)
		}
		return nil
	})
}

func (r *GormLinkRepository) FindByCode(ctx context.Context, code string) (*models.ShortLink, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *GormLinkRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*models.ShortLink, error) {
	return r.first(ctx, "original_url = ?", originalURL)
}

func (r *GormLinkRepository) first(ctx context.Context, query string, arg any) (*models.ShortLink, error) {
	var link models.ShortLink
	if err := r.db.WithContext(ctx).Where(query, arg).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// ListByOwner returns the owner's links, newest first.
func (r *GormLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.ShortLink, error) {
	var links []models.ShortLink
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list links for owner: %w", err)
	}
	return links, nil
}

// ListAll returns every active link. Used by the background jobs.
func (r *GormLinkRepository) ListAll(ctx context.Context) ([]models.ShortLink, error) {
	var links []models.ShortLink
	if err := r.db.WithContext(ctx).Order("id").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}
	return links, nil
}

// UpdateOriginalURL changes the destination of a link owned by ownerID.
// A code/owner mismatch is reported as ErrNotFound.
func (r *GormLinkRepository) UpdateOriginalURL(ctx context.Context, code, ownerID, newURL string) (*models.ShortLink, error) {
	var updated models.ShortLink
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ShortLink{}).
			Where("code = ? AND owner_id = ?", code, ownerID).
			Updates(map[string]any{"original_url": newURL})
		if res.Error != nil {
			if isDuplicateKey(res.Error) {
				return apperrors.ErrURLTaken
			}
			return fmt.Errorf("failed to update link %s: %w", code, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return tx.Where("code = ?", code).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the link. Its short_codes row and click events are kept.
func (r *GormLinkRepository) Delete(ctx context.Context, code, ownerID string) error {
	res := r.db.WithContext(ctx).
		Where("code = ? AND owner_id = ?", code, ownerID).
		Delete(&models.ShortLink{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete link %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RaiseClicks sets the counter to clicks if it is currently lower. The counter
// never goes down. It reports whether a row changed.
func (r *GormLinkRepository) RaiseClicks(ctx context.Context, code string, clicks int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ShortLink{}).
		Where("code = ? AND clicks < ?", code, clicks).
		UpdateColumn("clicks", clicks)
	if res.Error != nil {
		return false, fmt.Errorf("failed to reconcile clicks for %s: %w", code, res.Error)
	}
	return res.RowsAffected > 0, nil
}
