package router

import (
	"net/http"
	"time"

	"focustrack-go/internal/config"
	"focustrack-go/internal/handlers"
	"focustrack-go/internal/points"
	"focustrack-go/internal/services"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}
func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

func Setup(log *zap.Logger, monitor *services.Monitor, engine *points.Engine) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("focustrack", store))

	// --- Now that sessions are initialized, other middleware can use them ---
	router.Use(UserLoaderMiddleware(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	authHandler := handlers.NewAuthHandler(log)
	sessionHandler := handlers.NewSessionHandler(log, monitor, engine)
	monitorHandler := handlers.NewMonitorHandler(log, monitor)
	pointsHandler := handlers.NewPointsHandler(log, engine)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.POST("/register", limiter, authHandler.Register)
	router.POST("/login", limiter, authHandler.Login)
	router.POST("/logout", authHandler.Logout)

	authorized := router.Group("/")
	authorized.Use(AuthRequired())
	{
		sessionRoutes := authorized.Group("/sessions")
		{
			sessionRoutes.POST("", sessionHandler.Start)
			sessionRoutes.POST("/:id/finish", sessionHandler.Finish)
			sessionRoutes.POST("/:id/breaks", sessionHandler.StartBreak)
			sessionRoutes.POST("/:id/breaks/end", sessionHandler.EndBreak)
			sessionRoutes.GET("/:id/events", sessionHandler.Events)
			sessionRoutes.POST("/:id/events", sessionHandler.ImportEvents)
			sessionRoutes.GET("/:id/status", sessionHandler.Status)
			sessionRoutes.GET("/:id/stream", monitorHandler.Stream)
		}

		pointsRoutes := authorized.Group("/points")
		{
			pointsRoutes.GET("", pointsHandler.Balance)
			pointsRoutes.POST("/spend", pointsHandler.Spend)
		}
	}

	return router
}
