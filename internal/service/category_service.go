package service

import (
	"errors"
	"strings"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/repository"
	"github.com/google/uuid"
)

type CategoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil, validationError("name must be at least 3 characters")
	}

	if _, err := s.categories.FindByNameFold(name); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, err
	}

	category := &domain.Category{ID: uuid.NewString(), Name: name}
	if err := s.categories.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) List() ([]domain.Category, error) {
	return s.categories.ListNewestFirst()
}
