package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"grocery/internal/domain"
	"grocery/internal/repository"
	"grocery/internal/service"
)

// @Summary List products
// @Tags catalog
// @Produce json
// @Param q query string false "Name contains"
// @Param category query string false "Category"
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Success 200 {array} domain.Product
// @Failure 400 {object} errorBody
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{
		NameSubstring: strings.TrimSpace(c.Query("q")),
		Category:      strings.TrimSpace(c.Query("category")),
	}
	for param, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			badRequest(c, "invalid "+param)
			return
		}
		*dst = &d
	}
	list, err := s.products.List(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Product name suggestions
// @Tags catalog
// @Produce json
// @Param q query string true "Name prefix or fragment"
// @Success 200 {array} domain.Product
// @Router /products/suggestions [get]
func (s *Server) suggestProducts(c *gin.Context) {
	list, err := s.products.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} errorBody
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
// @Router /admin/categories [get]
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.products.Categories(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Admin: products
type productReq struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Images      []string           `json:"images"`
	Variations  []domain.Variation `json:"variations" binding:"required,min=1"`
}

func (r productReq) input() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Images:      r.Images,
		Variations:  r.Variations,
	}
}

// @Summary List products with live stock
// @Tags admin
// @Produce json
// @Success 200 {array} domain.Product
// @Router /admin/products [get]
func (s *Server) adminListProducts(c *gin.Context) {
	list, err := s.products.AdminList(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create product
// @Tags admin
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} errorBody
// @Router /admin/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	p, err := s.products.Create(c.Request.Context(), req.input())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /admin/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	p, err := s.products.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags admin
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} errorBody
// @Router /admin/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setStockReq struct {
	Size  string `json:"size" binding:"required"`
	Stock *int64 `json:"stock" binding:"required"`
}

// @Summary Set variation stock
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body setStockReq true "Absolute stock"
// @Success 200 {object} domain.Product
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /admin/products/{id}/stock [put]
func (s *Server) setStock(c *gin.Context) {
	var req setStockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json: "+err.Error())
		return
	}
	p, err := s.products.SetStock(c.Request.Context(), c.Param("id"), req.Size, *req.Stock)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type categoryReq struct {
	Name string `json:"name" binding:"required"`
}

// @Summary Create category
// @Tags admin
// @Accept json
// @Produce json
// @Param input body categoryReq true "Category"
// @Success 201 {object} domain.Category
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /admin/categories [post]
func (s *Server) createCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	cat, err := s.products.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}
