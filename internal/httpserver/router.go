package httpserver

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"storefront/internal/coupon"
	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/service/checkout"
	"storefront/internal/service/identity"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CartService interface {
	Get(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	AddItem(ctx context.Context, owner domain.CartOwner, productID string, quantity int, variantID *string) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, owner domain.CartOwner, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner domain.CartOwner, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	ApplyCoupon(ctx context.Context, owner domain.CartOwner, code string) (*domain.Cart, decimal.Decimal, coupon.DiscountType, error)
	RemoveCoupon(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	Merge(ctx context.Context, userID, sessionID string) (*domain.Cart, error)
}

type CheckoutService interface {
	CreateFromCart(ctx context.Context, userID, sessionID string, in checkout.CheckoutInput) (*domain.Order, error)
	CreateGuest(ctx context.Context, in checkout.GuestCheckoutInput) (*domain.Order, error)
	ProcessPayment(ctx context.Context, userID, orderID string, details checkout.PaymentDetails) (*domain.Order, string, error)
	GetOrder(ctx context.Context, userID string, admin bool, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateFulfillment(ctx context.Context, orderID string, in checkout.FulfillmentUpdate) (*domain.Order, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, bearer, sessionID string) (identity.Identity, error)
}

type Deps struct {
	CartSvc     CartService
	CheckoutSvc CheckoutService
	Identity    IdentityResolver
	Metrics     *metrics.Metrics
	DevMode     bool
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "x-session-id"},
	}))
	if deps.Metrics != nil {
		router.Use(metricsMiddleware(deps.Metrics))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/", identityMiddleware(deps))

	cartGroup := api.Group("/cart")
	cartGroup.GET("", h.getCart)
	cartGroup.POST("/add", h.addItem)
	cartGroup.PUT("/update/:itemId", h.updateItem)
	cartGroup.DELETE("/remove/:itemId", h.removeItem)
	cartGroup.DELETE("/clear", h.clearCart)
	cartGroup.POST("/apply-coupon", h.applyCoupon)
	cartGroup.DELETE("/remove-coupon", h.removeCoupon)
	cartGroup.POST("/merge", h.mergeCart)

	orderGroup := api.Group("/orders")
	orderGroup.GET("", h.listOrders)
	orderGroup.GET("/:orderId", h.getOrder)
	orderGroup.POST("/create-from-cart", h.createFromCart)
	orderGroup.POST("/create-guest", h.createGuest)
	orderGroup.POST("/:orderId/process-payment", h.processPayment)
	orderGroup.PATCH("/:orderId/fulfillment", h.updateFulfillment)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

const identityKey = "identity"

// identityMiddleware resolves the caller to a user (bearer token) or an
// anonymous session (x-session-id header or sessionId cookie). Requests with
// neither proceed unidentified; handlers that need an identity reject them.
func identityMiddleware(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			bearer = strings.TrimPrefix(auth, "Bearer ")
		}
		sessionID := c.GetHeader("x-session-id")
		if sessionID == "" {
			if cookie, err := c.Cookie("sessionId"); err == nil {
				sessionID = cookie
			}
		}

		id, err := deps.Identity.Resolve(c.Request.Context(), bearer, sessionID)
		if err != nil {
			respondError(c, deps.DevMode, err)
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func callerIdentity(c *gin.Context) identity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(identity.Identity); ok {
			return id
		}
	}
	return identity.Identity{}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.Requests.WithLabelValues(handler, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}
