package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"fuid-service/internal/config"
	fuidHnd "fuid-service/internal/fuid/handler"
	"fuid-service/internal/fuid/service"
	"fuid-service/internal/metrics"
	"fuid-service/internal/middleware"
	"fuid-service/server/http/handlers"
)

func NewRouter(cfg config.Config, svc *service.Service, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Get("/stats", fuidHnd.Stats(svc, logger))
		r.Get("/data", fuidHnd.Data(svc, logger))
		r.Post("/search", fuidHnd.Search(svc, logger))
		r.Post("/search/unified", fuidHnd.UnifiedSearch(svc, logger))
		r.Post("/generate-fuid", fuidHnd.GenerateFUID(svc, logger))
		r.Post("/extract-version", fuidHnd.ExtractVersion(svc, logger))
		r.Get("/embedding-status", fuidHnd.EmbeddingStatus(svc, logger))
		r.Post("/generate-embeddings", fuidHnd.GenerateEmbeddings(svc, logger))
		r.Post("/import", fuidHnd.Import(svc, cfg.MaxUploadMB, logger))

		r.Get("/approvals", fuidHnd.Approvals(svc, logger))
		r.Post("/approvals/update", fuidHnd.UpdateApproval(svc, logger))
		r.Get("/approvals/history", fuidHnd.ApprovalHistory(svc, logger))
		r.Get("/user-applications", fuidHnd.UserApplications(svc, logger))
	})

	return r
}
