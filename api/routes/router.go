package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmstandhq/farmstand-backend/api/controllers"
	"github.com/farmstandhq/farmstand-backend/api/middleware"
	"github.com/farmstandhq/farmstand-backend/internal/cart"
	"github.com/farmstandhq/farmstand-backend/internal/farmers"
	"github.com/farmstandhq/farmstand-backend/internal/favorites"
	"github.com/farmstandhq/farmstand-backend/internal/messaging"
	"github.com/farmstandhq/farmstand-backend/internal/orders"
	"github.com/farmstandhq/farmstand-backend/internal/products"
	"github.com/farmstandhq/farmstand-backend/internal/reviews"
	"github.com/farmstandhq/farmstand-backend/internal/users"
	"github.com/farmstandhq/farmstand-backend/pkg/config"
	"github.com/farmstandhq/farmstand-backend/pkg/db"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
	"github.com/farmstandhq/farmstand-backend/pkg/metrics"
	"github.com/farmstandhq/farmstand-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	userService users.Service,
	farmerService farmers.Service,
	productService products.Service,
	cartService cart.Service,
	orderService orders.Service,
	reviewService reviews.Service,
	favoriteService favorites.Service,
	messagingService messaging.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// Public catalog and auth endpoints.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/api/v1/users", func(r chi.Router) {
			r.Post("/signup", controllers.Signup(userService, logg))
			r.Post("/login", controllers.Login(userService, logg))
		})

		r.Get("/api/v1/products", controllers.ProductList(productService, logg))
		r.Get("/api/v1/products/{productId}", controllers.ProductGet(productService, logg))
		r.Get("/api/v1/products/{productId}/reviews", controllers.ReviewList(reviewService, logg))
		r.Get("/api/v1/farmers", controllers.FarmerList(farmerService, logg))
		r.Get("/api/v1/farmers/{farmerId}", controllers.FarmerGet(farmerService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users/me", func(r chi.Router) {
			r.Get("/", controllers.Me(userService, logg))
			r.Patch("/", controllers.UpdateMe(userService, logg))
		})

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Post("/", controllers.CartReplace(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.Checkout(orderService, logg))
			r.Get("/", controllers.OrderList(orderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(orderService, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleFarmer), logg)).
				Patch("/{orderId}", controllers.FarmerOrderStatusUpdate(orderService, logg))
		})

		r.Post("/v1/products/{productId}/reviews", controllers.ReviewCreate(reviewService, userService, logg))
		r.Get("/v1/products/{productId}/can-review", controllers.CanReview(reviewService, userService, logg))
		r.Route("/v1/reviews/{reviewId}", func(r chi.Router) {
			r.Put("/", controllers.ReviewUpdate(reviewService, logg))
			r.Delete("/", controllers.ReviewDelete(reviewService, logg))
		})

		r.Route("/v1/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoriteList(favoriteService, logg))
			r.Get("/{productId}", controllers.FavoriteCheck(favoriteService, logg))
			r.Post("/{productId}", controllers.FavoriteAdd(favoriteService, logg))
			r.Delete("/{productId}", controllers.FavoriteRemove(favoriteService, logg))
		})

		r.Post("/v1/messages", controllers.MessageSend(messagingService, logg))
		r.Route("/v1/conversations", func(r chi.Router) {
			r.Get("/", controllers.ConversationList(messagingService, logg))
			r.Get("/{conversationId}/messages", controllers.MessageList(messagingService, logg))
		})

		r.Route("/v1/farmers/me", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleFarmer), logg))
			r.Get("/", controllers.FarmerMe(farmerService, logg))
			r.Put("/", controllers.FarmerUpdateMe(farmerService, logg))
			r.Get("/products", controllers.FarmerProductList(productService, logg))
			r.Get("/orders", controllers.FarmerOrderList(orderService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleFarmer), logg))
			r.Post("/v1/products", controllers.ProductCreate(productService, logg))
			r.Patch("/v1/products/{productId}", controllers.ProductUpdate(productService, logg))
			r.Delete("/v1/products/{productId}", controllers.ProductDelete(productService, logg))
		})
	})

	return r
}
