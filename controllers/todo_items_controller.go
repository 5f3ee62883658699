package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SmithE65/Containerizing/config"
	"github.com/SmithE65/Containerizing/models"
	"github.com/SmithE65/Containerizing/services"
	"github.com/gin-gonic/gin"
)

// TodoItemsController /api/TodoItems 控制器
type TodoItemsController struct {
	service *services.TodoService
}

func NewTodoItemsController(service *services.TodoService) *TodoItemsController {
	return &TodoItemsController{service: service}
}

// GetTodoItems GET /api/TodoItems
func (tc *TodoItemsController) GetTodoItems(c *gin.Context) {
	items, err := tc.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TodoItemsToResponse(items))
}

// GetTodoItem GET /api/TodoItems/:id
func (tc *TodoItemsController) GetTodoItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := tc.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item.ToResponse())
}

// PostTodoItem POST /api/TodoItems
func (tc *TodoItemsController) PostTodoItem(c *gin.Context) {
	var req models.CreateTodoItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := tc.service.Create(c.Request.Context(), req.ToModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/TodoItems/%d", item.ID))
	c.JSON(http.StatusCreated, item.ToResponse())
}

// PutTodoItem PUT /api/TodoItems/:id
func (tc *TodoItemsController) PutTodoItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.ReplaceTodoItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := tc.service.Replace(c.Request.Context(), id, req.ToModel()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteTodoItem DELETE /api/TodoItems/:id
func (tc *TodoItemsController) DeleteTodoItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := tc.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的ID"})
		return 0, false
	}
	return id, true
}

// respondError 将业务错误映射为状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		config.Logger.Errorw("请求处理失败",
			"error", err,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestID", c.GetString("requestID"),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
	}
}
