package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"studentmarket/internal/handler/mw"
	"studentmarket/internal/service"
	"studentmarket/internal/service/mailer"
)

var validate = validator.New()

type Handler struct {
	router  *chi.Mux
	service *service.Service
	mail    *mailer.Client
}

func NewHandler(svc *service.Service, mail *mailer.Client) *Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	h := &Handler{
		router:  router,
		service: svc,
		mail:    mail,
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)
	})

	h.router.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/emails", h.EmailsByUserIDs)

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTAuthMiddleware)
			r.Put("/update", h.UpdateProfile)
			r.Post("/add_balance", h.AddBalance)
			r.Get("/balance", h.GetBalance)
		})
	})

	h.router.Route("/items", func(r chi.Router) {
		r.Get("/all", h.ListItems)
		r.Get("/{id}", h.GetItem)

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTAuthMiddleware)
			r.Post("/add", h.AddItem)
			r.Put("/edit", h.EditItem)
			r.Post("/unavailable", h.MarkUnavailable)
			r.Post("/add_comment", h.AddComments)
		})
	})

	h.router.Route("/orders", func(r chi.Router) {
		r.Use(mw.JWTAuthMiddleware)
		r.Post("/add", h.PlaceOrder)
		r.Get("/get", h.OrdersByUser)
	})

	h.router.Route("/ratings", func(r chi.Router) {
		r.Get("/{sellerID}", h.SellerRating)

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTAuthMiddleware)
			r.Post("/add", h.AddRating)
		})
	})

	h.router.Route("/email", func(r chi.Router) {
		r.Use(mw.JWTAuthMiddleware)
		r.Post("/text", h.SendTextEmail)
		r.Post("/html", h.SendHTMLEmail)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
