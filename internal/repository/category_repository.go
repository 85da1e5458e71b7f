package repository

import (
	"context"
	"errors"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/observability"

	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	Create(c *domain.Category) error
	// FindByNameFold matches case-insensitively, mirroring the catalog's
	// duplicate check.
	FindByNameFold(name string) (*domain.Category, error)
	ListNewestFirst() ([]domain.Category, error)
}

type GormCategoryRepository struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &GormCategoryRepository{db: db} }

func (r *GormCategoryRepository) Create(c *domain.Category) error {
	err := r.db.Create(c).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "category", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "category", "create", "success")
	return nil
}

func (r *GormCategoryRepository) FindByNameFold(name string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "category", "find_by_name", "not_found")
			return nil, ErrCategoryNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "category", "find_by_name", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "category", "find_by_name", "success")
	return &c, nil
}

func (r *GormCategoryRepository) ListNewestFirst() ([]domain.Category, error) {
	var categories []domain.Category
	err := r.db.Order("created_at DESC").Find(&categories).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "category", "list", "error")
		return categories, err
	}
	observability.RecordRepositoryOperation(context.Background(), "category", "list", "success")
	return categories, nil
}
