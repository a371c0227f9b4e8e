package http

import "github.com/gin-gonic/gin"

// RegisterEmployeeRoutes registra la colección bajo /api/employees.
func RegisterEmployeeRoutes(r *gin.Engine, handler *EmployeeHandler) {
	employees := r.Group("/api/employees")
	{
		employees.GET("", handler.ListEmployees)
		employees.POST("", handler.CreateEmployee)
		employees.POST("/batch-delete", handler.DeleteEmployees)
		employees.GET("/:id", handler.GetEmployee)
		employees.PUT("/:id", handler.UpdateEmployee)
		employees.DELETE("/:id", handler.DeleteEmployee)
	}
}
