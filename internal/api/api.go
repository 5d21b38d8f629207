package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/api/handlers"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/api/middleware"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/drive"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/metrics"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/service"
)

type Services struct {
	Calculation *service.CalculationService
	Defaults    service.Params
	Metrics     *metrics.Collector
	// Drive is optional; its listing routes are only mounted when set.
	Drive *drive.Handler
}

type RouterOptions struct {
	AllowedOrigins []string
	// MaxUploadBytes caps the multipart memory of a calculation request.
	MaxUploadBytes int64
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if opts.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = opts.MaxUploadBytes
	}

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Metrics != nil {
			router.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
		}

		if services.Calculation != nil {
			calcHandler := handlers.NewCalculationHandler(services.Calculation, services.Defaults)
			apiGroup.GET("/defaults", calcHandler.GetDefaults)
			apiGroup.DELETE("/cache", calcHandler.ClearCache)

			calcGroup := apiGroup.Group("/calculate")
			{
				calcGroup.POST("", calcHandler.Calculate)
				calcGroup.POST("/export", calcHandler.Export)
				calcGroup.POST("/remote", calcHandler.CalculateRemote)
			}
		}

		if services.Drive != nil {
			services.Drive.RegisterRoutes(apiGroup)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
