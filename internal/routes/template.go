package routes

import (
	"inspection-system/internal/controllers"
	"inspection-system/pkg/constants"
	"inspection-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runTemplateRouter(secureGroup *echo.Group, templateCtrl *controllers.TemplateController, authMW *middleware.AuthMiddleware) {
	adminOnly := authMW.RequireRole(constants.RoleAdmin)

	secureGroup.GET("/templates", templateCtrl.GetTemplates)
	secureGroup.GET("/templates/:id", templateCtrl.FindTemplate)
	secureGroup.POST("/templates", templateCtrl.CreateTemplate, adminOnly)
	secureGroup.PUT("/templates/:id", templateCtrl.UpdateTemplate, adminOnly)
	secureGroup.DELETE("/templates/:id", templateCtrl.DeleteTemplate, adminOnly)
}
