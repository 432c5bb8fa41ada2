package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
	cartsvc "storefront-cart/internal/service/cart"
	customersvc "storefront-cart/internal/service/customer"
)

// CustomerService is the auth surface used by the handlers.
type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	Logout(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

type CartService interface {
	Get(ctx context.Context, customerID string) (*cartsvc.View, error)
	AddItem(ctx context.Context, customerID, productID string) error
	RemoveItem(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
	ApplyPromotion(ctx context.Context, customerID, code string) (domain.PromotionResult, error)
	RemovePromotion(ctx context.Context, customerID string) error
	ValidatePromotion(ctx context.Context, code string) (domain.PromotionResult, error)
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// Deps are the services behind the routes.
type Deps struct {
	CustomerSvc CustomerService
	CartSvc     CartService
	ProductSvc  ProductService
}

type Options struct {
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.CustomerSvc == nil || deps.CartSvc == nil || deps.ProductSvc == nil {
		return nil, errors.New("httpserver: customer, cart and product services are required")
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestID(), requestLogger(logger), gin.CustomRecovery(recoverer(logger)))
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	var readiness pinger
	if db != nil {
		readiness = db
	}
	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(readiness))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api")
	api.POST("/auth/signup", h.signup)
	api.POST("/auth/token", h.token)
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/promotions/:code", h.validatePromotion)

	authed := api.Group("", authMiddleware(deps.CustomerSvc))
	authed.POST("/auth/logout", h.logout)
	authed.GET("/cart", h.getCart)
	authed.DELETE("/cart", h.clearCart)
	authed.POST("/cart/items", h.addItem)
	authed.DELETE("/cart/items/:productId", h.removeItem)
	authed.POST("/cart/promotion", h.applyPromotion)
	authed.DELETE("/cart/promotion", h.removePromotion)

	return router, nil
}
