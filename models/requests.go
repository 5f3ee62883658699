package models

// CreateTodoItemRequest POST /api/TodoItems 请求体
type CreateTodoItemRequest struct {
	Name       string `json:"name" binding:"required"`
	IsComplete bool   `json:"isComplete"`
}

// ToModel 转换为模型，名称原样保存
func (r CreateTodoItemRequest) ToModel() TodoItem {
	return TodoItem{
		Name:       r.Name,
		IsComplete: r.IsComplete,
	}
}

// ReplaceTodoItemRequest PUT /api/TodoItems/:id 请求体，整行替换
type ReplaceTodoItemRequest struct {
	ID         int64  `json:"id"`
	Name       string `json:"name" binding:"required"`
	IsComplete bool   `json:"isComplete"`
}

func (r ReplaceTodoItemRequest) ToModel() TodoItem {
	return TodoItem{
		ID:         r.ID,
		Name:       r.Name,
		IsComplete: r.IsComplete,
	}
}
