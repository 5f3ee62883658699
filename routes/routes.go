package routes

import (
	"github.com/SmithE65/Containerizing/controllers"
	"github.com/SmithE65/Containerizing/middleware"
	"github.com/SmithE65/Containerizing/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, todoController *controllers.TodoItemsController, healthController *controllers.HealthController) {
	api := r.Group("/api")
	{
		api.GET("/TodoItems", todoController.GetTodoItems)
		api.GET("/TodoItems/:id", todoController.GetTodoItem)
		api.POST("/TodoItems", todoController.PostTodoItem)
		api.PUT("/TodoItems/:id", todoController.PutTodoItem)
		api.DELETE("/TodoItems/:id", todoController.DeleteTodoItem)
	}

	r.GET("/healthz", healthController.Healthz)
	r.GET("/readyz", healthController.Readyz)

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}

// NewEngine 创建 gin 引擎并注册中间件与路由
func NewEngine(db *gorm.DB) (*gin.Engine, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	middleware.SetupMiddleware(r)

	todoController := controllers.NewTodoItemsController(services.NewTodoService(db))
	healthController := controllers.NewHealthController(sqlDB)
	RegisterRoutes(r, todoController, healthController)
	return r, nil
}
