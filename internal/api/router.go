package api

import (
	"net/http"
	"time"

	"mjmgmt/internal/api/handler"
	"mjmgmt/internal/api/middleware"
	"mjmgmt/internal/common/security"
	"mjmgmt/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(
	authHandler *handler.AuthHandler,
	listingHandler *handler.ListingHandler,
	tokens *security.TokenService,
	userRepo repository.UserRepository,
	revocations repository.RevocationLedger,
	uploadsDir string,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// The frontend lives on another origin and authenticates via cookie,
	// so credentials must be allowed for the listed origins only.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// The Authentication Gate: cookie extraction + verification, identity
	// resolution, then the revocation check with its distinct 401.
	verify := middleware.Verifier(tokens)
	authenticate := middleware.Authenticator(userRepo)
	checkBlacklist := middleware.CheckBlacklist(revocations)

	// Uploaded images are public once stored.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.With(verify, authenticate, checkBlacklist).Get("/protected-route", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Access granted to protected route"))
	})

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", authHandler.Register)
		ar.Post("/login", authHandler.Login)
		ar.With(verify, authenticate, checkBlacklist).Post("/logout", authHandler.Logout)
	})

	r.Route("/listings", func(lr chi.Router) {
		lr.Group(func(gated chi.Router) {
			gated.Use(verify, authenticate, checkBlacklist)
			gated.Post("/add", listingHandler.Create)
			gated.Get("/", listingHandler.FetchAll)
			gated.Put("/{id}", listingHandler.Update)
			gated.Delete("/{id}", listingHandler.Delete)
			gated.Delete("/{id}/images/{image}", listingHandler.RemoveImage)
		})

		lr.With(verify, middleware.OptionalAuthenticator(userRepo, revocations)).
			Get("/{id}", listingHandler.FetchByID)
	})

	return r
}
