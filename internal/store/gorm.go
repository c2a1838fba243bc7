package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gotodo/internal/models"
	"gotodo/internal/password"
)

// GormUsers implements Users on a gorm handle.
type GormUsers struct {
	db *gorm.DB
}

// NewGormUsers returns a gorm-backed user store.
func NewGormUsers(db *gorm.DB) *GormUsers {
	return &GormUsers{db: db}
}

func (s *GormUsers) Create(ctx context.Context, user *models.User, plain string) error {
	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// Two registrations can race past the count above; the unique
		// index is the real arbiter.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *GormUsers) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormUsers) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormUsers) UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) (*models.User, error) {
	updates := map[string]any{}
	if username != "" {
		updates["username"] = username
	}
	if email != "" {
		updates["email"] = email
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, id)
}

func (s *GormUsers) UpdatePassword(ctx context.Context, id uuid.UUID, plain string) error {
	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormUsers) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("refresh_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormUsers) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return s.SetRefreshToken(ctx, id, "")
}

func (s *GormUsers) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormTodos implements Todos on a gorm handle.
type GormTodos struct {
	db *gorm.DB
}

// NewGormTodos returns a gorm-backed todo store.
func NewGormTodos(db *gorm.DB) *GormTodos {
	return &GormTodos{db: db}
}

func (s *GormTodos) Create(ctx context.Context, todo *models.Todo) error {
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(todo).Error
}

func (s *GormTodos) ByOwner(ctx context.Context, userID uuid.UUID) ([]models.Todo, error) {
	var todos []models.Todo
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *GormTodos) ByID(ctx context.Context, id, userID uuid.UUID) (*models.Todo, error) {
	var todo models.Todo
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&todo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &todo, nil
}

func (s *GormTodos) Update(ctx context.Context, todo *models.Todo) error {
	res := s.db.WithContext(ctx).Model(&models.Todo{}).
		Where("id = ? AND user_id = ?", todo.ID, todo.UserID).
		Updates(map[string]any{
			"title":       todo.Title,
			"description": todo.Description,
			"completed":   todo.Completed,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormTodos) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Todo{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
