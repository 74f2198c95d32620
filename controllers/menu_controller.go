package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
	"github.com/kendall-kelly/restaurant-pos-api/services"
)

// MenuController serves the public, read-only menu
type MenuController struct {
	menu   repository.MenuStore
	images services.ImageService
	logger *slog.Logger
}

// NewMenuController creates a menu controller. images may be nil when image
// uploads are disabled.
func NewMenuController(menu repository.MenuStore, images services.ImageService, logger *slog.Logger) *MenuController {
	return &MenuController{menu: menu, images: images, logger: logger}
}

// ListCategories handles GET /api/categories - categories in display order
func (mc *MenuController) ListCategories(c *gin.Context) {
	categories, err := mc.menu.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, mc.logger, err, "Failed to retrieve categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
	})
}

// ListMenuItems handles GET /api/menu-items
func (mc *MenuController) ListMenuItems(c *gin.Context) {
	items, err := mc.menu.ListMenuItems(c.Request.Context())
	if err != nil {
		respondServiceError(c, mc.logger, err, "Failed to retrieve menu items")
		return
	}
	mc.attachImageURLs(c.Request.Context(), items)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// ListCategoryItems handles GET /api/categories/:id/items
func (mc *MenuController) ListCategoryItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := mc.menu.GetCategory(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
			return
		}
		respondServiceError(c, mc.logger, err, "Failed to retrieve category")
		return
	}

	items, err := mc.menu.ListMenuItemsByCategory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, mc.logger, err, "Failed to retrieve menu items")
		return
	}
	mc.attachImageURLs(c.Request.Context(), items)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// attachImageURLs fills ImageURL for items with an uploaded image. A URL
// that can't be generated is left empty rather than failing the listing.
func (mc *MenuController) attachImageURLs(ctx context.Context, items []models.MenuItem) {
	for i := range items {
		attachImageURL(ctx, mc.images, mc.logger, &items[i])
	}
}

func attachImageURL(ctx context.Context, images services.ImageService, logger *slog.Logger, item *models.MenuItem) {
	if images == nil || item.ImageKey == nil || *item.ImageKey == "" {
		return
	}
	url, err := images.GetImageURL(ctx, *item.ImageKey)
	if err != nil {
		logger.Warn("failed to resolve image url", "menu_item_id", item.ID, "error", err)
		return
	}
	item.ImageURL = &url
}
