package models

// TodoItemResponse 待办事项响应结构体
type TodoItemResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsComplete bool   `json:"isComplete"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// TodoItemsToResponse 批量转换
func TodoItemsToResponse(items []TodoItem) []TodoItemResponse {
	out := make([]TodoItemResponse, len(items))
	for i, item := range items {
		out[i] = item.ToResponse()
	}
	return out
}
