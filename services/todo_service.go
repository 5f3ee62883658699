package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/SmithE65/Containerizing/database"
	"github.com/SmithE65/Containerizing/models"
	"gorm.io/gorm"
)

// TodoService 待办事项的增删改查
type TodoService struct {
	db *gorm.DB
}

func NewTodoService(db *gorm.DB) *TodoService {
	return &TodoService{db: db}
}

func (s *TodoService) List(ctx context.Context) ([]models.TodoItem, error) {
	var items []models.TodoItem
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}
	return items, nil
}

func (s *TodoService) Get(ctx context.Context, id int64) (models.TodoItem, error) {
	var item models.TodoItem
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TodoItem{}, ErrNotFound
	}
	if err != nil {
		return models.TodoItem{}, fmt.Errorf("get todo item %d: %w", id, err)
	}
	return item, nil
}

// Create 新建待办事项，id 由数据库生成
func (s *TodoService) Create(ctx context.Context, item models.TodoItem) (models.TodoItem, error) {
	if err := validateName(item.Name); err != nil {
		return models.TodoItem{}, err
	}
	created := models.TodoItem{Name: item.Name, IsComplete: item.IsComplete}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return models.TodoItem{}, fmt.Errorf("create todo item: %w", err)
	}
	return created, nil
}

// Replace 按 id 整行替换。路径 id 与请求体 id 不一致时不做任何修改。
func (s *TodoService) Replace(ctx context.Context, id int64, item models.TodoItem) error {
	if id != item.ID {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("path id %d does not match body id %d", id, item.ID)}
	}
	if err := validateName(item.Name); err != nil {
		return err
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		result := tx.Model(&models.TodoItem{}).Where("id = ?", id).Updates(map[string]any{
			"name":        item.Name,
			"is_complete": item.IsComplete,
		})
		if result.Error != nil {
			return fmt.Errorf("replace todo item %d: %w", id, result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}

		// 没有匹配的行：区分并发删除与其他冲突
		exists, err := itemExists(tx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConcurrencyConflict
	})
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TodoItem{})
	if result.Error != nil {
		return fmt.Errorf("delete todo item %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func itemExists(tx *gorm.DB, id int64) (bool, error) {
	var count int64
	if err := tx.Model(&models.TodoItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check todo item %d: %w", id, err)
	}
	return count > 0, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	// varchar(255) 按字符计长度
	if utf8.RuneCountInString(name) > 255 {
		return &ValidationError{Field: "name", Message: "name must be at most 255 characters"}
	}
	return nil
}
