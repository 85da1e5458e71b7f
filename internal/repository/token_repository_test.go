package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Token{}, &domain.Category{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         "Tere",
		Email:        fmt.Sprintf("tere+%s@example.com", uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         domain.RoleUser,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func refreshTokenFor(userID string) *domain.Token {
	return &domain.Token{
		ID:        uuid.NewString(),
		Type:      domain.TokenTypeRefresh,
		UserID:    userID,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestTokenRepositoryFindByIDWithUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db)

	tok := refreshTokenFor(user.ID)
	if err := repo.Create(tok); err != nil {
		t.Fatalf("create token: %v", err)
	}

	got, err := repo.FindByIDWithUser(tok.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.User.ID != user.ID || got.User.Email != user.Email {
		t.Fatalf("expected owning user to be loaded, got %+v", got.User)
	}

	if _, err := repo.FindByIDWithUser(uuid.NewString()); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestTokenRepositoryDeleteByIDIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db)

	tok := refreshTokenFor(user.ID)
	if err := repo.Create(tok); err != nil {
		t.Fatalf("create token: %v", err)
	}

	n, err := repo.DeleteByID(tok.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row deleted, got %d", n)
	}

	n, err = repo.DeleteByID(tok.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows on repeat delete, got %d", n)
	}
}

func TestTokenRepositoryRotateReplacesRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db)

	old := refreshTokenFor(user.ID)
	if err := repo.Create(old); err != nil {
		t.Fatalf("create token: %v", err)
	}

	replacement := refreshTokenFor(user.ID)
	if err := repo.Rotate(old.ID, replacement); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	if _, err := repo.FindByIDWithUser(old.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected old id gone, got %v", err)
	}
	if _, err := repo.FindByIDWithUser(replacement.ID); err != nil {
		t.Fatalf("expected replacement present, got %v", err)
	}
}

func TestTokenRepositoryRotateMissingRowInsertsNothing(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db)

	replacement := refreshTokenFor(user.ID)
	err := repo.Rotate(uuid.NewString(), replacement)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if _, err := repo.FindByIDWithUser(replacement.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Fatal("expected rolled-back rotation to leave no replacement row")
	}
}

func TestTokenRepositoryRotateReplayLoses(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db)

	old := refreshTokenFor(user.ID)
	if err := repo.Create(old); err != nil {
		t.Fatalf("create token: %v", err)
	}

	first := refreshTokenFor(user.ID)
	if err := repo.Rotate(old.ID, first); err != nil {
		t.Fatalf("first rotate: %v", err)
	}
	// Replaying the consumed id must lose: the delete inside the replay's
	// transaction touches zero rows.
	second := refreshTokenFor(user.ID)
	if err := repo.Rotate(old.ID, second); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound on replay, got %v", err)
	}
	if _, err := repo.FindByIDWithUser(second.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Fatal("expected losing rotation to insert nothing")
	}
	if _, err := repo.FindByIDWithUser(first.ID); err != nil {
		t.Fatalf("expected winning replacement to survive, got %v", err)
	}
}
