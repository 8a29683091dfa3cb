package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"classledger/backend/internal/gateway/handlers"
	"classledger/backend/internal/gateway/util"
	"classledger/backend/internal/shared"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(clients *ServiceClients, cfg *shared.GatewayConfig) *chi.Mux {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	sectionHandler := &handlers.SectionHandler{RecordsClient: clients.RecordsClient}
	attendanceHandler := &handlers.AttendanceHandler{RecordsClient: clients.RecordsClient}
	gradingHandler := &handlers.GradingHandler{RecordsClient: clients.RecordsClient}

	// 3. Define Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			util.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
		})

		r.Get("/instructors/{instructor_id}/sections", sectionHandler.ListSections)

		r.Route("/sections/{assign_course_id}", func(r chi.Router) {
			r.Get("/", sectionHandler.GetSection)
			r.Get("/export", sectionHandler.ExportSection)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/dates", attendanceHandler.ListDates)
				r.Get("/latest", attendanceHandler.GetLatest)
				r.Get("/{date}", attendanceHandler.GetAttendance)
				r.Put("/{date}", attendanceHandler.SaveAttendance)
			})

			r.Post("/grading", gradingHandler.OpenGrading)
		})

		r.Route("/grading/{session_id}", func(r chi.Router) {
			r.Get("/", gradingHandler.GradingStatus)
			r.Delete("/", gradingHandler.CloseGrading)
			r.Post("/save", gradingHandler.SaveGrading)

			r.Post("/criteria", gradingHandler.AddCriterion)
			r.Patch("/criteria/{assessment}", gradingHandler.EditCriterion)
			r.Delete("/criteria/{assessment}", gradingHandler.DeleteCriterion)
			r.Post("/criteria/{assessment}/edit", gradingHandler.StartEdit)

			r.Post("/edit/save", gradingHandler.SaveEdit)
			r.Post("/edit/cancel", gradingHandler.CancelEdit)

			r.Put("/marks/{assessment}", gradingHandler.SetMarks)
			r.Post("/marks/{assessment}/add", gradingHandler.AddUpMarks)
			r.Put("/grades/{student_id}", gradingHandler.SetGrade)
		})
	})

	return r
}
