package app

import (
	"time"

	"github.com/scenariolabs/imagevault/internal/controllers"
	"github.com/scenariolabs/imagevault/internal/middleware"
	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	cfg := app.Config

	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := app.Engine.Group("/v1/images")

	health := controllers.NewHealthController(app.Redis)
	v1.GET("/health", health.Handle)

	auth := v1.Group("/auth")
	auth.GET("/health", health.Handle)
	login := auth.Group("/login", middleware.RateLimitLogin(app.RateLimiter, cfg))
	login.POST("/edit", controllers.NewLoginEditController(app.Issuer, cfg.LoginSecret).Handle)
	login.POST("/download", controllers.NewLoginDownloadController(app.Issuer, cfg.LoginSecret).Handle)
	auth.POST("/validate", controllers.NewValidateTokenController(app.Validator).Handle)

	upload := middleware.RequirePermission(app.Validator, token.PermissionUpload)
	remove := middleware.RequirePermission(app.Validator, token.PermissionDelete)
	download := middleware.RequirePermission(app.Validator, token.PermissionDownload)

	v1.POST("", upload, controllers.NewUploadImageController(app.Images, cfg.MaxFileSizeBytes).Handle)
	v1.PATCH("/:id/name", upload, controllers.NewRenameImageController(app.Images).Handle)
	v1.DELETE("/:id", remove, controllers.NewDeleteImageController(app.Images).Handle)

	v1.GET("/:id", download, controllers.NewGetImageController(app.Images).Handle)
	env := v1.Group("/environment/:environmentId")
	env.GET("", download, controllers.NewListImagesController(app.Images).Handle)
	env.GET("/count", download, controllers.NewCountImagesController(app.Images).Handle)
	env.GET("/name/:imageName", download, controllers.NewGetImageByNameController(app.Images).Handle)
	env.DELETE("", remove, controllers.NewDeleteEnvironmentController(app.Images).Handle)

	v1.GET("/file/:fileName", download, controllers.NewDownloadFileController(app.Images).Handle)
	v1.POST("/temp-url",
		middleware.RateLimitTempURL(app.RateLimiter, cfg),
		download,
		controllers.NewTempURLController(app.Images, app.Issuer, cfg.PublicBaseURL,
			time.Duration(cfg.TempURLTTLMinutes)*time.Minute).Handle,
	)
	v1.GET("/secure/:environmentId/:fileName", controllers.NewSecureFileController(app.Images, app.Validator).Handle)
}
