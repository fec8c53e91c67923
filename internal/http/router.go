package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/mdb-curator/internal/http/handlers"
	httpMW "github.com/yungbote/mdb-curator/internal/http/middleware"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	CurationHandler *httpH.CurationHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachCaller())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if h := cfg.CurationHandler; h != nil {
		// Terms
		api.POST("/terms/link", h.LinkTerms)
		api.GET("/terms/concepts", h.ConceptsOfTerm)
		api.DELETE("/terms", h.DeleteTerm)

		// Synonym review
		api.GET("/terms/synonyms", h.FindSynonyms)
		api.POST("/terms/synonyms/confirm", h.ConfirmSynonyms)

		// Concepts
		api.POST("/concepts/merge", h.MergeConcepts)
		api.POST("/concepts/relate", h.RelateConcepts)
		api.GET("/concepts/:nanoid/terms", h.TermsOfConcept)
		api.GET("/concepts/:nanoid/predicates", h.PredicatesOfConcept)
		api.DELETE("/concepts/:nanoid", h.DeleteConcept)

		// Predicates
		api.GET("/predicates/:nanoid", h.DescribePredicate)
		api.DELETE("/predicates/:nanoid", h.DeletePredicate)
	}

	return r
}
