package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CatalogQueries is the read side of the catalog
type CatalogQueries interface {
	Browse(ctx context.Context, req appcatalog.BrowseRequest) (*appcatalog.ProductPageResponse, error)
	GetProduct(ctx context.Context, id int64) (*appcatalog.ProductResponse, error)
	ListCategories(ctx context.Context, parentID *int64) ([]appcatalog.CategoryResponse, error)
}

// CatalogHandler serves catalog reads
type CatalogHandler struct {
	BaseHandler
	catalog CatalogQueries
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog CatalogQueries) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts returns one page of products matching q and category_id.
//
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Param        category_id query int false "Category ID"
// @Param        q query string false "Case-insensitive text filter on name and description"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size, 0 for all" default(5)
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var req appcatalog.BrowseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.catalog.Browse(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Products, int64(page.Total), page.Page, page.PageSize)
}

// GetProduct returns a product by id.
//
// @Summary      Get a product
// @Tags         catalog
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidInput, "Invalid product ID"))
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListCategories returns top-level categories, or the children of parent_id.
//
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Param        parent_id query int false "Parent category ID"
// @Success      200 {object} dto.Response{data=[]catalog.CategoryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	var parentID *int64
	if raw := c.Query("parent_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.HandleError(c, shared.NewDomainError(shared.CodeInvalidInput, "Invalid parent ID"))
			return
		}
		parentID = &id
	}

	categories, err := h.catalog.ListCategories(c.Request.Context(), parentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}
