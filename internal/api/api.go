package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/ougirez/restorank/internal/api/controller"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/service/auth"
)

type APIService struct {
	router      *echo.Echo
	authService *auth.Service
}

func (svc *APIService) Serve(addr string) {
	if err := svc.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(context.Background(), err)
	}
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (svc *APIService) Handler() http.Handler {
	return svc.router
}

func NewAPIService(allowOrigins []string, authService *auth.Service, cntrl *controller.Controller) (*APIService, error) {
	svc := &APIService{router: echo.New(), authService: authService}

	svc.router.HideBanner = true
	svc.router.Logger.SetLevel(log.WARN)
	svc.router.JSONSerializer = sonicSerializer{}
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.Use(middleware.Logger())
	svc.router.Use(middleware.Recover())
	svc.router.HTTPErrorHandler = httpErrorHandler
	if len(allowOrigins) > 0 {
		svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: allowOrigins,
			AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
			AllowHeaders: []string{"Content-Type", "Authorization"},
		}))
	}

	api := svc.router.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", cntrl.LoginAdmin)

	regions := api.Group("/regions")
	regions.GET("/list", cntrl.GetRegions)
	regions.GET("/:code/top", cntrl.GetTopList)

	api.POST("/sentiment/preview", cntrl.PreviewSentiment)
	api.POST("/reviews", cntrl.SubmitReview)
	api.GET("/restaurants/:id/reviews", cntrl.ListReviews)

	admin := api.Group("/admin", svc.AdminMiddleware)
	admin.POST("/regions", cntrl.SaveRegion)
	admin.GET("/regions/:code/top", cntrl.GetCandidateList)
	admin.POST("/regions/:code/publish", cntrl.PublishTop)
	admin.POST("/regions/:code/push", cntrl.PushTop)

	admin.POST("/rankings/compute", cntrl.ComputeRankings)
	admin.POST("/rankings/rerank", cntrl.Rerank)
	admin.PUT("/rankings/:restaurant_id", cntrl.UpdateRanking)
	admin.GET("/weights", cntrl.GetWeights)
	admin.POST("/weights", cntrl.SaveWeights)

	admin.POST("/reviews/:id/analyze", cntrl.AnalyzeReview)
	admin.POST("/restaurants/:id/analyze", cntrl.AnalyzeRestaurant)
	admin.GET("/keywords", cntrl.ListKeywords)
	admin.POST("/keywords", cntrl.AddKeyword)
	admin.DELETE("/keywords/:id", cntrl.DeactivateKeyword)

	admin.POST("/imports/places", cntrl.ImportPlaces)
	admin.POST("/contacts/enrich", cntrl.EnrichEmails)

	return svc, nil
}
