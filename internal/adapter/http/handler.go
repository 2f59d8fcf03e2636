package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/gomarket/catalog-service/internal/middleware"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"github.com/gomarket/catalog-service/internal/usecase"
	"go.uber.org/zap"
)

// Handler exposes the catalog over REST.
type Handler struct {
	catalog *usecase.CatalogUsecase
	reviews *usecase.ReviewUsecase
	admin   *usecase.AdminUsecase
	logger  *logger.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(catalog *usecase.CatalogUsecase, reviews *usecase.ReviewUsecase, admin *usecase.AdminUsecase, log *logger.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		reviews: reviews,
		admin:   admin,
		logger:  log.Named("HTTPHandler"),
	}
}

type reviewResponse struct {
	UserID    string    `json:"user"`
	Name      string    `json:"name"`
	Rating    int32     `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type productResponse struct {
	ID           string           `json:"_id"`
	UserID       string           `json:"user"`
	Name         string           `json:"name"`
	Image        string           `json:"image"`
	Brand        string           `json:"brand"`
	Category     string           `json:"category"`
	Description  string           `json:"description"`
	Price        float64          `json:"price"`
	CountInStock int32            `json:"countInStock"`
	NumReviews   int32            `json:"numReviews"`
	Rating       float64          `json:"rating"`
	Reviews      []reviewResponse `json:"reviews"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type productListResponse struct {
	Products []productResponse `json:"products"`
	Page     int32             `json:"page"`
	Pages    int32             `json:"pages"`
}

type updateProductRequest struct {
	Name         *string  `json:"name" binding:"required"`
	Price        *float64 `json:"price" binding:"required"`
	Description  *string  `json:"description" binding:"required"`
	Image        *string  `json:"image" binding:"required"`
	Brand        *string  `json:"brand" binding:"required"`
	Category     *string  `json:"category" binding:"required"`
	CountInStock *int32   `json:"countInStock" binding:"required"`
}

type createReviewRequest struct {
	Rating  *int32 `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toProductResponse(p *domain.Product) productResponse {
	reviews := make([]reviewResponse, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, reviewResponse{
			UserID:    r.UserID,
			Name:      r.Name,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}
	return productResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Name:         p.Name,
		Image:        p.Image,
		Brand:        p.Brand,
		Category:     p.Category,
		Description:  p.Description,
		Price:        p.Price,
		CountInStock: p.CountInStock,
		NumReviews:   p.NumReviews,
		Rating:       p.Rating,
		Reviews:      reviews,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// respondError maps domain errors to HTTP outcomes. Unexpected errors become
// a generic 500 so storage details never leak to clients.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "product not found"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, errorResponse{Error: "product already reviewed"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "temporary conflict, please retry"})
	default:
		h.logger.Error("Unexpected error handling request",
			zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// ListProducts handles GET /api/products?keyword=&pageNumber=.
// A missing or non-numeric pageNumber falls back to the first page.
func (h *Handler) ListProducts(c *gin.Context) {
	keyword := c.Query("keyword")

	page := int32(1)
	if raw := c.Query("pageNumber"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 {
			page = int32(parsed)
		}
	}

	result, err := h.catalog.SearchProducts(c.Request.Context(), keyword, page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	products := make([]productResponse, 0, len(result.Items))
	for _, p := range result.Items {
		products = append(products, toProductResponse(p))
	}
	c.JSON(http.StatusOK, productListResponse{
		Products: products,
		Page:     result.Page,
		Pages:    result.Pages,
	})
}

// TopProducts handles GET /api/products/top.
func (h *Handler) TopProducts(c *gin.Context) {
	products, err := h.catalog.TopProducts(c.Request.Context(), 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]productResponse, 0, len(products))
	for _, p := range products {
		response = append(response, toProductResponse(p))
	}
	c.JSON(http.StatusOK, response)
}

// GetProduct handles GET /api/products/:id.
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// CreateProduct handles POST /api/products (admin). It creates a stub record
// owned by the caller and returns it for subsequent editing.
func (h *Handler) CreateProduct(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "user authentication required"})
		return
	}

	product, err := h.admin.CreateProduct(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

// UpdateProduct handles PUT /api/products/:id (admin). The request must carry
// the full field set; omitting any field is a validation error rather than a
// silent partial merge.
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "all product fields are required: name, price, description, image, brand, category, countInStock"})
		return
	}

	product, err := h.admin.UpdateProduct(c.Request.Context(), c.Param("id"), usecase.UpdateProductInput{
		Name:         *req.Name,
		Price:        *req.Price,
		Description:  *req.Description,
		Image:        *req.Image,
		Brand:        *req.Brand,
		Category:     *req.Category,
		CountInStock: *req.CountInStock,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// DeleteProduct handles DELETE /api/products/:id (admin).
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.admin.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product removed"})
}

// CreateReview handles POST /api/products/:id/reviews (authenticated).
// Callers get an acknowledgment, not the updated product.
func (h *Handler) CreateReview(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "user authentication required"})
		return
	}

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "rating and comment are required"})
		return
	}

	err := h.reviews.SubmitReview(c.Request.Context(), c.Param("id"), user, *req.Rating, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "review added"})
}
