package routes

import (
	"inspection-system/internal/controllers"
	"inspection-system/pkg/constants"
	"inspection-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

// Пользователями управляет только администратор.
func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController, authMW *middleware.AuthMiddleware) {
	users := secureGroup.Group("/users", authMW.RequireRole(constants.RoleAdmin))
	users.GET("", userCtrl.GetUsers)
	users.GET("/:id", userCtrl.FindUser)
	users.POST("", userCtrl.CreateUser)
	users.PUT("/:id", userCtrl.UpdateUser)
	users.DELETE("/:id", userCtrl.DeleteUser)
}
