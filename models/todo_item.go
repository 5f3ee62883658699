package models

// TodoItem 待办事项模型
type TodoItem struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	IsComplete bool   `gorm:"not null;default:false" json:"isComplete"`
}

// ToResponse maps the persisted row onto the wire shape.
func (t TodoItem) ToResponse() TodoItemResponse {
	return TodoItemResponse{
		ID:         t.ID,
		Name:       t.Name,
		IsComplete: t.IsComplete,
	}
}
