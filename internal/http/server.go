package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"grocery/internal/service"
)

// Services сервисы, которые обслуживает HTTP API
type Services struct {
	Products  *service.ProductService
	Carts     *service.CartService
	Checkout  *service.CheckoutService
	Orders    *service.OrderService
	Addresses *service.AddressService
}

type Server struct {
	engine    *gin.Engine
	products  *service.ProductService
	carts     *service.CartService
	checkout  *service.CheckoutService
	orders    *service.OrderService
	addresses *service.AddressService
	logger    *zap.Logger
}

func NewServer(svc Services, logger *zap.Logger, requestTimeout time.Duration) *Server {
	r := gin.New()
	r.Use(recovery(logger), requestLogger(logger), timeout(requestTimeout))
	s := &Server{
		engine:    r,
		products:  svc.Products,
		carts:     svc.Carts,
		checkout:  svc.Checkout,
		orders:    svc.Orders,
		addresses: svc.Addresses,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	{
		products := v1.Group("/products")
		products.GET("", s.listProducts)
		products.GET("/suggestions", s.suggestProducts)
		products.GET("/:id", s.getProduct)
		v1.GET("/categories", s.listCategories)

		cart := v1.Group("/cart")
		cart.POST("/add", s.addToCart)
		cart.PUT("/update", s.updateCartItem)
		cart.DELETE("/remove/:customerId/:lineId", s.removeCartItem)
		cart.GET("/:customerId", s.getCart)

		v1.POST("/checkout", s.placeOrder)
		v1.GET("/orders/:customerId", s.listOrders)
		v1.GET("/order/:orderNumber", s.getOrder)

		addresses := v1.Group("/customers/:customerId/addresses")
		addresses.GET("", s.listAddresses)
		addresses.POST("", s.addAddress)
		addresses.PUT("/:addressId", s.updateAddress)
		addresses.DELETE("/:addressId", s.deleteAddress)

		admin := v1.Group("/admin")
		admin.GET("/products", s.adminListProducts)
		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)
		admin.PUT("/products/:id/stock", s.setStock)
		admin.GET("/categories", s.listCategories)
		admin.POST("/categories", s.createCategory)
		admin.GET("/orders", s.adminListOrders)
		admin.PUT("/orders/:orderNumber", s.advanceOrderStatus)
		admin.GET("/reconciliation", s.listReconciliation)
	}
}

// recovery логирует панику и отвечает 500
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.String("error", fmt.Sprintf("%v", recovered)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Message: "internal error"})
	})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
