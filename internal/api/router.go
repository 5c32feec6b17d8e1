package api

import (
	"net/http"
	"time"

	"shelfwise/internal/api/handler"
	"shelfwise/internal/api/middleware"
	"shelfwise/internal/app/service"
	"shelfwise/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	authzService *service.AuthzService,
	bookService *service.BookService,
	borrowService *service.BorrowService,
	announcementService *service.AnnouncementService,
	userService *service.UserService,
	ratingService *service.RatingService,
	recommendService *service.RecommendService,
) http.Handler {
	r := chi.NewRouter()

	// Base middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token if present and puts claims in context.
	// The route guard decides per route whether a valid token is required.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	guard := middleware.NewGuard(authzService)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(auth chi.Router) {
			authHandler.RegisterRoutes(auth, guard)
		})

		bookHandler := handler.NewBookHandler(bookService)
		v1.Route("/books", func(books chi.Router) {
			bookHandler.RegisterRoutes(books, guard)
		})
		v1.Route("/authors", func(authors chi.Router) {
			bookHandler.RegisterAuthorRoutes(authors, guard)
		})
		v1.Route("/categories", func(categories chi.Router) {
			bookHandler.RegisterCategoryRoutes(categories, guard)
		})

		borrowHandler := handler.NewBorrowHandler(borrowService)
		v1.Route("/borrow-records", func(borrow chi.Router) {
			borrowHandler.RegisterRoutes(borrow, guard)
		})

		announcementHandler := handler.NewAnnouncementHandler(announcementService)
		v1.Route("/announcements", func(ann chi.Router) {
			announcementHandler.RegisterRoutes(ann, guard)
		})

		userHandler := handler.NewUserHandler(userService)
		v1.Route("/users", func(users chi.Router) {
			userHandler.RegisterRoutes(users, guard)
		})

		ratingHandler := handler.NewRatingHandler(ratingService)
		v1.Route("/ratings", func(ratings chi.Router) {
			ratingHandler.RegisterRoutes(ratings, guard)
		})

		recommendHandler := handler.NewRecommendHandler(recommendService)
		v1.Route("/recommendations", func(rec chi.Router) {
			recommendHandler.RegisterRoutes(rec, guard)
		})
	})

	return r
}
