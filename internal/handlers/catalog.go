package handlers

import (
	"net/http"
	"strconv"

	"bakery-storefront/internal/models"
	"bakery-storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// productFilter reads the shared product list query parameters.
func productFilter(c echo.Context) (services.ProductFilter, error) {
	filter := services.ProductFilter{
		PromotionType: models.PromotionType(c.QueryParam("promotion_type")),
		Search:        c.QueryParam("search"),
		Page:          pageParams(c),
	}
	filter.FeaturedOnly, _ = strconv.ParseBool(c.QueryParam("featured"))

	if filter.PromotionType != "" && !filter.PromotionType.Valid() {
		return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid promotion_type")
	}

	var err error
	if filter.StoreID, err = queryID(c, "store_id"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryID(c, "category_id"); err != nil {
		return filter, err
	}
	if filter.SubcategoryID, err = queryID(c, "subcategory_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogService.ListCategories(c.Request().Context(), true)
	if err != nil {
		return toHTTPError(err, "failed to list categories")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

func (h *CatalogHandler) ListSubcategories(c echo.Context) error {
	categoryID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	subcategories, err := h.catalogService.ListSubcategories(c.Request().Context(), &categoryID, true)
	if err != nil {
		return toHTTPError(err, "failed to list subcategories")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"subcategories": subcategories,
	})
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return err
	}
	filter.ActiveOnly = true

	result, err := h.catalogService.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return toHTTPError(err, "failed to list products")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.catalogService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, "failed to get product")
	}
	if !product.IsActive {
		return toHTTPError(services.ErrProductNotFound, "")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) SimilarProducts(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	products, err := h.catalogService.SimilarProducts(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, "failed to list similar products")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"products": products,
	})
}

func (h *CatalogHandler) AdminListCategories(c echo.Context) error {
	categories, err := h.catalogService.ListCategories(c.Request().Context(), false)
	if err != nil {
		return toHTTPError(err, "failed to list categories")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var input services.CategoryInput
	if err := bind(c, &input); err != nil {
		return err
	}

	category, err := h.catalogService.CreateCategory(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to create category")
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.CategoryInput
	if err := bind(c, &input); err != nil {
		return err
	}

	category, err := h.catalogService.UpdateCategory(c.Request().Context(), id, input)
	if err != nil {
		return toHTTPError(err, "failed to update category")
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	return mutateByID(c, h.catalogService.DeleteCategory, "failed to delete category")
}

func (h *CatalogHandler) ToggleCategory(c echo.Context) error {
	return mutateByID(c, h.catalogService.ToggleCategory, "failed to toggle category")
}

func (h *CatalogHandler) AdminListSubcategories(c echo.Context) error {
	categoryID, err := queryID(c, "category_id")
	if err != nil {
		return err
	}

	subcategories, err := h.catalogService.ListSubcategories(c.Request().Context(), categoryID, false)
	if err != nil {
		return toHTTPError(err, "failed to list subcategories")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"subcategories": subcategories,
	})
}

func (h *CatalogHandler) CreateSubcategory(c echo.Context) error {
	var input services.SubcategoryInput
	if err := bind(c, &input); err != nil {
		return err
	}

	subcategory, err := h.catalogService.CreateSubcategory(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to create subcategory")
	}
	return c.JSON(http.StatusCreated, subcategory)
}

func (h *CatalogHandler) UpdateSubcategory(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.SubcategoryInput
	if err := bind(c, &input); err != nil {
		return err
	}

	subcategory, err := h.catalogService.UpdateSubcategory(c.Request().Context(), id, input)
	if err != nil {
		return toHTTPError(err, "failed to update subcategory")
	}
	return c.JSON(http.StatusOK, subcategory)
}

func (h *CatalogHandler) DeleteSubcategory(c echo.Context) error {
	return mutateByID(c, h.catalogService.DeleteSubcategory, "failed to delete subcategory")
}

func (h *CatalogHandler) ToggleSubcategory(c echo.Context) error {
	return mutateByID(c, h.catalogService.ToggleSubcategory, "failed to toggle subcategory")
}

func (h *CatalogHandler) AdminListProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return err
	}

	result, err := h.catalogService.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return toHTTPError(err, "failed to list products")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *CatalogHandler) AdminGetProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.catalogService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, "failed to get product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var input services.ProductInput
	if err := bind(c, &input); err != nil {
		return err
	}

	product, err := h.catalogService.CreateProduct(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to create product")
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.ProductInput
	if err := bind(c, &input); err != nil {
		return err
	}

	product, err := h.catalogService.UpdateProduct(c.Request().Context(), id, input)
	if err != nil {
		return toHTTPError(err, "failed to update product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	return mutateByID(c, h.catalogService.DeleteProduct, "failed to delete product")
}

func (h *CatalogHandler) ToggleProductActive(c echo.Context) error {
	return mutateByID(c, h.catalogService.ToggleProductActive, "failed to toggle product")
}

func (h *CatalogHandler) ToggleProductFeatured(c echo.Context) error {
	return mutateByID(c, h.catalogService.ToggleProductFeatured, "failed to toggle featured")
}
