package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/tiendalab/internal/product/application"
	"github.com/davicafu/tiendalab/internal/product/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
)

// ProductHandler encapsula los endpoints HTTP relacionados con Product
type ProductHandler struct {
	service *application.ProductService
}

// NewProductHandler crea un nuevo ProductHandler
func NewProductHandler(service *application.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// ---------------- Handlers ----------------

// CreateProduct endpoint POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Price       int64  `json:"price" binding:"required"`
		Category    string `json:"category" binding:"required"`
		Season      string `json:"season"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(),
		req.Name, req.Description, req.Price, domain.Category(req.Category), req.Season)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProduct) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct endpoint GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts endpoint GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var criterias []sharedDomain.Criteria

	// --- Filtros desde query params ---
	if category := c.Query("category"); category != "" {
		criterias = append(criterias, domain.CategoryCriteria{Category: domain.Category(category)})
	}
	if name := c.Query("name"); name != "" {
		criterias = append(criterias, domain.NameLikeCriteria{Name: name})
	}
	if season := c.Query("season"); season != "" {
		criterias = append(criterias, domain.SeasonCriteria{Season: season})
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	products, err := h.service.ListProducts(c.Request.Context(),
		sharedDomain.And(criterias...),
		sharedQuery.OffsetPagination{Limit: limit, Offset: offset},
		sharedQuery.Sort{Field: "created_at", Desc: true},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, products)
}
