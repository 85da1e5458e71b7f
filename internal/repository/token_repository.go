package repository

import (
	"context"
	"errors"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/observability"

	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepository interface {
	Create(t *domain.Token) error
	// FindByIDWithUser loads the token together with its owning user.
	FindByIDWithUser(id string) (*domain.Token, error)
	// DeleteByID removes the row if present and reports how many rows went
	// away. Zero rows is not an error: logout is idempotent.
	DeleteByID(id string) (int64, error)
	// Rotate atomically deletes the old row and inserts the replacement.
	// If the old row is already gone (replayed or concurrently rotated id)
	// it returns ErrTokenNotFound and inserts nothing.
	Rotate(oldID string, replacement *domain.Token) error
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository { return &GormTokenRepository{db: db} }

func (r *GormTokenRepository) Create(t *domain.Token) error {
	err := r.db.Create(t).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "token", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "create", "success")
	return nil
}

func (r *GormTokenRepository) FindByIDWithUser(id string) (*domain.Token, error) {
	var t domain.Token
	err := r.db.Preload("User").Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "token", "find_by_id", "not_found")
			return nil, ErrTokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "token", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "find_by_id", "success")
	return &t, nil
}

func (r *GormTokenRepository) DeleteByID(id string) (int64, error) {
	res := r.db.Where("id = ?", id).Delete(&domain.Token{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "token", "delete_by_id", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "delete_by_id", "success")
	return res.RowsAffected, nil
}

func (r *GormTokenRepository) Rotate(oldID string, replacement *domain.Token) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", oldID).Delete(&domain.Token{})
		if res.Error != nil {
			return res.Error
		}
		// The unique-id delete touches at most one row. When two rotations
		// race on the same id, the loser sees zero rows here and the whole
		// transaction rolls back, so exactly one replacement ever exists.
		if res.RowsAffected == 0 {
			return ErrTokenNotFound
		}
		return tx.Create(replacement).Error
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "token", "rotate", "not_found")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "token", "rotate", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "rotate", "success")
	return nil
}
