package repository

import (
	"context"
	"fmt"

	"github.com/axellelanca/linkforge/internal/models"
	"gorm.io/gorm"
)

// ClickRepository stores click events.
type ClickRepository interface {
	Create(ctx context.Context, event *models.ClickEvent) error
	Record(ctx context.Context, event *models.ClickEvent) (counted bool, err error)
	ListByCode(ctx context.Context, code string, limit int) ([]models.ClickEvent, error)
	CountByCode(ctx context.Context, code string) (int64, error)
	CountsByCode(ctx context.Context) (map[string]int64, error)
}

// GormClickRepository implements ClickRepository with GORM.
type GormClickRepository struct {
	db *gorm.DB
}

func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

func (r *GormClickRepository) Create(ctx context.Context, event *models.ClickEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create click event: %w", err)
	}
	return nil
}

// Record appends event and adds one to the link counter in the same
// transaction, so the number of events never runs ahead of the counter.
// counted is false when the link no longer exists; the event is kept either
// way. The counter update skips hooks and leaves updated_at alone.
func (r *GormClickRepository) Record(ctx context.Context, event *models.ClickEvent) (counted bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to create click event: %w", err)
		}
		res := tx.Model(&models.ShortLink{}).
			Where("code = ?", event.Code).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment clicks for %s: %w", event.Code, res.Error)
		}
		counted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}

// ListByCode returns the most recent events first. A limit <= 0 returns all.
func (r *GormClickRepository) ListByCode(ctx context.Context, code string, limit int) ([]models.ClickEvent, error) {
	var events []models.ClickEvent
	q := r.db.WithContext(ctx).Where("code = ?", code).Order("occurred_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list click events for %s: %w", code, err)
	}
	return events, nil
}

func (r *GormClickRepository) CountByCode(ctx context.Context, code string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClickEvent{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count click events for %s: %w", code, err)
	}
	return count, nil
}

// CountsByCode returns the number of events per code, in one grouped query.
func (r *GormClickRepository) CountsByCode(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Code  string
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ClickEvent{}).
		Select("code, COUNT(*) AS total").
		Group("code").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count click events: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Code] = row.Total
	}
	return counts, nil
}

var _ ClickRepository = (*GormClickRepository)(nil)
