// Package gin exposes the workflows over HTTP.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/port/inbound"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
	"github.com/elidorascodex/tecflow/internal/utils/middleware"
)

// Handlers groups the HTTP ports. A nil port leaves its routes unregistered.
type Handlers struct {
	Images inbound.ImageHttpPort
	Airth  inbound.AirthHttpPort
	Tasks  inbound.TaskHttpPort
}

// NewRouter creates the engine with the global middleware, health and metrics endpoints
// and the API routes.
func NewRouter(
	cfg config.ServerConfig,
	debug bool,
	h *Handlers,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("http")

	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID(log))
	r.Use(middleware.Logging(log))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowOrigins...)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	if h == nil {
		return r
	}
	if h.Images != nil {
		images := v1.Group("/images")
		images.GET("", h.Images.ListVariants)
		images.POST("/:family/:variant", h.Images.Generate)
	}
	if h.Airth != nil {
		airth := v1.Group("/airth")
		airth.POST("/respond", h.Airth.Respond)
		airth.POST("/memories", h.Airth.CreateMemory)
		airth.POST("/blog-posts", h.Airth.CreateBlogPost)
	}
	if h.Tasks != nil {
		tasks := v1.Group("/tasks/:id")
		tasks.GET("/related", h.Tasks.FindRelated)
		tasks.POST("/assess", h.Tasks.Assess)
		tasks.POST("/lore-doc", h.Tasks.GenerateLoreDoc)
	}
	return r
}
