// internal/router/router.go
package router

import (
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"aat-go/internal/config"
	"aat-go/internal/handlers"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again in "+time.Until(info.ResetTime).Round(time.Second).String())
}

// Setup wires middleware and routes. gatherer backs the /metrics endpoint.
func Setup(log *zap.Logger, conf *config.Config, analyzeHandler *handlers.AnalyzeHandler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	// Scrapes and probes skip sessions and security headers.
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	store := cookie.NewStore([]byte(conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true behind TLS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})

	app := router.Group("/")
	app.Use(sessions.Sessions("aatsession", store))
	app.Use(NonceMiddleware())
	app.Use(func(c *gin.Context) {
		nonce := c.GetString(handlers.CSPNonceKey)
		csp := fmt.Sprintf(
			"default-src 'self'; script-src 'self' https://cdn.jsdelivr.net 'nonce-%s'; style-src 'self' 'unsafe-inline'",
			nonce,
		)
		c.Header("Content-Security-Policy", csp)
		c.Next()
	})

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	app.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	// Each analyze request parses whole uploads, so it is rate limited per client.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(conf.Server.UploadLimit),
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	app.GET("/", analyzeHandler.ShowUploadPage)
	app.POST("/analyze", limiter, analyzeHandler.Analyze)

	api := app.Group("/api")
	{
		api.POST("/analyze", limiter, analyzeHandler.AnalyzeAPI)
		api.GET("/runs/:id", analyzeHandler.GetRun)
	}

	return router
}
