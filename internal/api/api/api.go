package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"eventportal/cmd/middleware"
	"eventportal/internal/auth"
	"eventportal/internal/metrics"
	"eventportal/internal/model"
	"eventportal/internal/service"
)

type Routers struct {
	Service service.Service
	Tokens  *auth.Manager

	// AuthBurst attempts per AuthWindow are allowed per client IP on
	// signup and login.
	AuthBurst  int
	AuthWindow time.Duration
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	app.GET("/healthz", r.Service.Health)
	app.GET("/metrics", metrics.Handler())

	apiGroup := app.Group("/v1")

	limiter := middleware.NewRateLimiter(r.AuthBurst, r.AuthWindow)
	authGroup := apiGroup.Group("/auth", limiter.Middleware())
	authGroup.POST("/signup", r.Service.Signup)
	authGroup.POST("/login", r.Service.Login)

	user := apiGroup.Group("", auth.RequireAuth(r.Tokens))
	user.GET("/events", r.Service.ListEvents)
	user.GET("/events/:id", r.Service.GetEvent)
	user.POST("/events/:id/register", r.Service.Register)

	user.GET("/checkout", r.Service.GetCheckout)
	user.POST("/checkout/pay", r.Service.Pay)
	user.DELETE("/checkout", r.Service.CancelCheckout)

	user.GET("/me/registrations", r.Service.MyRegistrations)
	user.GET("/me/cards", r.Service.MyCards)
	user.POST("/me/cards", r.Service.AddCard)

	admin := user.Group("/admin", auth.RequireRole(model.RoleAdmin, model.RoleOrganizer))
	admin.POST("/events", r.Service.CreateEvent)
	admin.DELETE("/events/:id", r.Service.DeleteEvent)
	admin.GET("/events/:id/stats", r.Service.EventStats)
	admin.GET("/dashboard", r.Service.Dashboard)

	return app
}
