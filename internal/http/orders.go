package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grocery/internal/domain"
	"grocery/internal/service"
)

const idempotencyKeyHeader = "Idempotency-Key"

type checkoutReq struct {
	CustomerID     string                `json:"customerId" binding:"required"`
	Address        *domain.Address       `json:"address"`
	AddressID      string                `json:"addressId"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod" binding:"required"`
	ShippingMethod domain.ShippingMethod `json:"shippingMethod"`
}

// @Summary Place order from cart
// @Tags checkout
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param input body checkoutReq true "Checkout"
// @Success 201 {object} domain.Order
// @Success 200 {object} domain.Order "Replayed by Idempotency-Key"
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Failure 422 {object} errorBody
// @Router /checkout [post]
func (s *Server) placeOrder(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	o, replayed, err := s.checkout.PlaceOrder(c.Request.Context(), service.CheckoutRequest{
		CustomerID:     req.CustomerID,
		Address:        req.Address,
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		IdempotencyKey: c.GetHeader(idempotencyKeyHeader),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if replayed {
		c.JSON(http.StatusOK, o)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary Order history, newest first
// @Tags orders
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {array} domain.Order
// @Router /orders/{customerId} [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.orders.ListOrders(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by number
// @Tags orders
// @Produce json
// @Param orderNumber path string true "Order number"
// @Success 200 {object} domain.Order
// @Failure 404 {object} errorBody
// @Router /order/{orderNumber} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.GetOrder(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary List all orders
// @Tags admin
// @Produce json
// @Param status query string false "Processing, Shipped or Delivered"
// @Success 200 {array} domain.Order
// @Failure 400 {object} errorBody
// @Router /admin/orders [get]
func (s *Server) adminListOrders(c *gin.Context) {
	list, err := s.orders.ListAll(c.Request.Context(), domain.OrderStatus(c.Query("status")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type statusReq struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// @Summary Advance order status
// @Tags admin
// @Accept json
// @Produce json
// @Param orderNumber path string true "Order number"
// @Param input body statusReq true "Next status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /admin/orders/{orderNumber} [put]
func (s *Server) advanceOrderStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	o, err := s.orders.AdvanceStatus(c.Request.Context(), c.Param("orderNumber"), req.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Stock decrements that failed after an order was placed
// @Tags admin
// @Produce json
// @Success 200 {array} domain.ReconciliationEntry
// @Router /admin/reconciliation [get]
func (s *Server) listReconciliation(c *gin.Context) {
	list, err := s.orders.Reconciliation(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Address book

// @Summary List saved addresses
// @Tags addresses
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {array} domain.Address
// @Router /customers/{customerId}/addresses [get]
func (s *Server) listAddresses(c *gin.Context) {
	list, err := s.addresses.List(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Save address
// @Tags addresses
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param input body domain.Address true "Address"
// @Success 201 {object} domain.Address
// @Failure 400 {object} errorBody
// @Router /customers/{customerId}/addresses [post]
func (s *Server) addAddress(c *gin.Context) {
	var req domain.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	a, err := s.addresses.Add(c.Request.Context(), c.Param("customerId"), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// @Summary Update address
// @Tags addresses
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param addressId path string true "Address ID"
// @Param input body domain.Address true "Address"
// @Success 200 {object} domain.Address
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /customers/{customerId}/addresses/{addressId} [put]
func (s *Server) updateAddress(c *gin.Context) {
	var req domain.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	a, err := s.addresses.Update(c.Request.Context(), c.Param("customerId"), c.Param("addressId"), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary Delete address
// @Tags addresses
// @Param customerId path string true "Customer ID"
// @Param addressId path string true "Address ID"
// @Success 204
// @Failure 404 {object} errorBody
// @Router /customers/{customerId}/addresses/{addressId} [delete]
func (s *Server) deleteAddress(c *gin.Context) {
	if err := s.addresses.Delete(c.Request.Context(), c.Param("customerId"), c.Param("addressId")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
