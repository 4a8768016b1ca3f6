package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"nexus-backend/internal/config"
	"nexus-backend/internal/handlers"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	ChatHandler          *handlers.ChatHandlers
	ProjectHandler       *handlers.ProjectHandlers
	UserHandler          *handlers.UserHandlers
	CatalogHandler       *handlers.CatalogHandlers
	QuestionnaireHandler *handlers.QuestionnaireHandlers
	HistoryHandler       *handlers.HistoryHandlers
	Config               *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)                 // Inject request ID into context
	r.Use(middleware.RealIP)                    // Use X-Forwarded-For or X-Real-IP
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics, return 500
	r.Use(middleware.Timeout(60 * time.Second)) // Set a request timeout

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		if deps.Config.JWTSecret != "" {
			r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))
		} else {
			log.Println("WARN: SUPABASE_JWT_SECRET is not set, /v1 routes are unauthenticated.")
		}

		// --- Mount Chat Routes ---
		if deps.ChatHandler != nil {
			r.Route("/chat", func(r chi.Router) {
				r.Post("/", deps.ChatHandler.HandleChat)
				r.Get("/messages", deps.ChatHandler.HandleListMessages)
				r.Post("/messages", deps.ChatHandler.HandleSaveMessages)
				r.Post("/execute", deps.ChatHandler.HandleExecute)
				r.Post("/send", deps.ChatHandler.HandleSend)
				r.Get("/status", deps.ChatHandler.HandleStatus)
			})
		} else {
			log.Println("WARN: ChatHandler dependency is nil, skipping /v1/chat routes.")
		}

		// --- Mount Project Routes ---
		if deps.ProjectHandler != nil {
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", deps.ProjectHandler.ListProjects)
				r.Post("/", deps.ProjectHandler.CreateProject)
				r.Get("/{projectID}", deps.ProjectHandler.GetProject)
			})
		} else {
			log.Println("WARN: ProjectHandler dependency is nil, skipping /v1/projects routes.")
		}

		if deps.UserHandler != nil {
			r.Post("/users", deps.UserHandler.FindOrCreateUser)
		} else {
			log.Println("WARN: UserHandler dependency is nil, skipping /v1/users routes.")
		}

		// --- Mount Catalog Routes ---
		if deps.CatalogHandler != nil {
			r.Get("/experts", deps.CatalogHandler.ListExperts)
			r.Get("/experts/{expertID}/sub-experts", deps.CatalogHandler.ListSubExperts)
			r.Route("/sub-experts/{subExpertID}", func(r chi.Router) {
				r.Get("/", deps.CatalogHandler.GetSubExpert)
				r.Get("/questions", deps.CatalogHandler.ListSubExpertQuestions)
			})
		} else {
			log.Println("WARN: CatalogHandler dependency is nil, skipping /v1/experts routes.")
		}

		// --- Mount Questionnaire Routes ---
		if deps.QuestionnaireHandler != nil {
			r.Get("/questions", deps.QuestionnaireHandler.ListQuestions)
			r.Post("/questionnaire/responses", deps.QuestionnaireHandler.SaveResponses)
			r.Post("/questionnaire/recommendation", deps.QuestionnaireHandler.Recommend)
		} else {
			log.Println("WARN: QuestionnaireHandler dependency is nil, skipping /v1/questionnaire routes.")
		}

		// --- Mount History Routes ---
		if deps.HistoryHandler != nil {
			r.Route("/history", func(r chi.Router) {
				r.Get("/", deps.HistoryHandler.ListEntries)
				r.Post("/", deps.HistoryHandler.CreateEntry)
				r.Post("/{entryID}/archive", deps.HistoryHandler.ArchiveEntry)
			})
		} else {
			log.Println("WARN: HistoryHandler dependency is nil, skipping /v1/history routes.")
		}
	})

	return r
}
