package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"grocery/internal/domain"
)

// addToCartReq строку можно указать lineId, парой productId + size
// или старым форматом productId "<id>-<size>" без size
type addToCartReq struct {
	CustomerID string `json:"customerId" binding:"required"`
	LineID     string `json:"lineId"`
	ProductID  string `json:"productId"`
	Size       string `json:"size"`
	Quantity   int64  `json:"quantity" binding:"required,min=1"`
}

// @Summary Add item to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addToCartReq true "Line"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /cart/add [post]
func (s *Server) addToCart(c *gin.Context) {
	var req addToCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	key := domain.LineKey{ProductID: req.ProductID, Size: req.Size}
	lineID := req.LineID
	if lineID == "" && req.Size == "" && strings.Contains(req.ProductID, "-") {
		lineID = req.ProductID
	}
	if lineID != "" {
		parsed, err := domain.ParseLineID(lineID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		key = parsed
	}
	cart, err := s.carts.AddItem(c.Request.Context(), req.CustomerID, key, req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type updateCartReq struct {
	CustomerID string `json:"customerId" binding:"required"`
	LineID     string `json:"lineId" binding:"required"`
	Quantity   *int64 `json:"quantity" binding:"required"`
}

// @Summary Set line quantity, below 1 removes the line
// @Tags cart
// @Accept json
// @Produce json
// @Param input body updateCartReq true "Line"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /cart/update [put]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	cart, err := s.carts.UpdateQuantity(c.Request.Context(), req.CustomerID, req.LineID, *req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Remove line from cart
// @Tags cart
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param lineId path string true "Line ID"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} errorBody
// @Router /cart/remove/{customerId}/{lineId} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	cart, err := s.carts.RemoveItem(c.Request.Context(), c.Param("customerId"), c.Param("lineId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Get cart
// @Tags cart
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {object} domain.Cart
// @Router /cart/{customerId} [get]
func (s *Server) getCart(c *gin.Context) {
	cart, err := s.carts.Get(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
