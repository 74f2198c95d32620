package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/restaurant-pos-api/middleware"
	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
	"github.com/kendall-kelly/restaurant-pos-api/services"
	"github.com/kendall-kelly/restaurant-pos-api/utils"
)

// LoginRequest represents the request body for the admin login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// CategoryRequest represents the request body for creating or replacing a category
type CategoryRequest struct {
	Name         string `json:"name" binding:"required,max=50"`
	Icon         string `json:"icon" binding:"max=16"`
	DisplayOrder int    `json:"displayOrder" binding:"gte=0"`
}

// MenuItemRequest represents the request body for creating or replacing a menu item
type MenuItemRequest struct {
	CategoryID     uint     `json:"categoryId" binding:"required"`
	Name           string   `json:"name" binding:"required,max=100"`
	Description    *string  `json:"description" binding:"omitempty,max=500"`
	Price          int64    `json:"price" binding:"gte=0"`
	Available      *bool    `json:"available"`
	MealPrice      *int64   `json:"mealPrice" binding:"omitempty,gte=0"`
	HasFlavors     bool     `json:"hasFlavors"`
	Flavors        []string `json:"flavors" binding:"max=20,dive,required,max=50"`
	HasMealOption  bool     `json:"hasMealOption"`
	HasSpicyOption bool     `json:"hasSpicyOption"`
	HasToppings    bool     `json:"hasToppings"`
	Toppings       []string `json:"toppings" binding:"max=20,dive,required,max=50"`
}

// apply copies the request onto item, leaving its identity and image alone
func (r *MenuItemRequest) apply(item *models.MenuItem) {
	item.CategoryID = r.CategoryID
	item.Name = r.Name
	item.Description = r.Description
	item.Price = r.Price
	item.Available = r.Available == nil || *r.Available
	item.MealPrice = r.MealPrice
	item.HasFlavors = r.HasFlavors
	item.Flavors = r.Flavors
	item.HasMealOption = r.HasMealOption
	item.HasSpicyOption = r.HasSpicyOption
	item.HasToppings = r.HasToppings
	item.Toppings = r.Toppings
}

// AdminStore is the persistence the admin panel needs
type AdminStore interface {
	repository.MenuStore
	repository.StatsStore
}

// AdminController serves the password-protected admin panel
type AdminController struct {
	auth        *services.AuthService
	store       AdminStore
	images      services.ImageService
	housekeeper *services.Housekeeper
	logger      *slog.Logger
}

// NewAdminController creates an admin controller
func NewAdminController(auth *services.AuthService, store AdminStore, images services.ImageService, housekeeper *services.Housekeeper, logger *slog.Logger) *AdminController {
	return &AdminController{
		auth:        auth,
		store:       store,
		images:      images,
		housekeeper: housekeeper,
		logger:      logger,
	}
}

// Login handles POST /api/admin/login - exchanges the admin password for a bearer token
func (ac *AdminController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token, err := ac.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
			return
		}
		respondServiceError(c, ac.logger, err, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    token,
	})
}

// Session handles GET /api/admin/session - describes the token in use
func (ac *AdminController) Session(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "INVALID_TOKEN", err.Error())
		return
	}

	role := ""
	if custom, ok := claims.CustomClaims.(*middleware.CustomClaims); ok {
		role = custom.Role
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"username":  claims.RegisteredClaims.Subject,
			"role":      role,
			"expiresAt": time.Unix(claims.RegisteredClaims.Expiry, 0).UTC(),
		},
	})
}

// CreateCategory handles POST /api/admin/categories
func (ac *AdminController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category := models.Category{
		Name:         req.Name,
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
	}
	if err := ac.store.CreateCategory(c.Request.Context(), &category); err != nil {
		respondServiceError(c, ac.logger, err, "Failed to create category")
		return
	}

	ac.logger.Info("category created", "admin", adminSubject(c), "category_id", category.ID, "name", category.Name)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    category,
	})
}

// UpdateCategory handles PUT /api/admin/categories/:id
func (ac *AdminController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category := models.Category{
		ID:           id,
		Name:         req.Name,
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
	}
	if err := ac.store.UpdateCategory(c.Request.Context(), &category); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
			return
		}
		respondServiceError(c, ac.logger, err, "Failed to update category")
		return
	}

	updated, err := ac.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, ac.logger, err, "Failed to load category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// DeleteCategory handles DELETE /api/admin/categories/:id. Categories that
// still have menu items can't be deleted.
func (ac *AdminController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := ac.store.DeleteCategory(c.Request.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
		return
	case errors.Is(err, repository.ErrCategoryInUse):
		respondServiceError(c, ac.logger,
			&services.ValidationError{Field: "id", Message: "category still has menu items"}, "")
		return
	default:
		respondServiceError(c, ac.logger, err, "Failed to delete category")
		return
	}

	ac.logger.Info("category deleted", "admin", adminSubject(c), "category_id", id)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Category deleted",
	})
}

// CreateMenuItem handles POST /api/admin/menu-items
func (ac *AdminController) CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var item models.MenuItem
	req.apply(&item)
	if err := ac.store.CreateMenuItem(c.Request.Context(), &item); err != nil {
		ac.respondMenuItemError(c, err, "Failed to create menu item")
		return
	}

	ac.logger.Info("menu item created", "admin", adminSubject(c), "menu_item_id", item.ID, "name", item.Name)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// UpdateMenuItem handles PUT /api/admin/menu-items/:id. The uploaded image is kept.
func (ac *AdminController) UpdateMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := ac.store.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		ac.respondMenuItemError(c, err, "Failed to load menu item")
		return
	}

	req.apply(item)
	if err := ac.store.UpdateMenuItem(c.Request.Context(), item); err != nil {
		ac.respondMenuItemError(c, err, "Failed to update menu item")
		return
	}
	attachImageURL(c.Request.Context(), ac.images, ac.logger, item)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// DeleteMenuItem handles DELETE /api/admin/menu-items/:id and removes its image
func (ac *AdminController) DeleteMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := ac.store.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		ac.respondMenuItemError(c, err, "Failed to load menu item")
		return
	}

	if err := ac.store.DeleteMenuItem(c.Request.Context(), id); err != nil {
		ac.respondMenuItemError(c, err, "Failed to delete menu item")
		return
	}
	ac.deleteImage(c, item.ImageKey)

	ac.logger.Info("menu item deleted", "admin", adminSubject(c), "menu_item_id", id)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Menu item deleted",
	})
}

// UploadMenuItemImage handles POST /api/admin/menu-items/:id/image (multipart field "image")
func (ac *AdminController) UploadMenuItemImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := ac.store.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		ac.respondMenuItemError(c, err, "Failed to load menu item")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "An image file is required in the \"image\" field")
		return
	}

	key, err := ac.images.UploadImage(c.Request.Context(), fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		ac.logger.Error("failed to store image", "menu_item_id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store image")
		return
	}

	previous := item.ImageKey
	item.ImageKey = &key
	if err := ac.store.UpdateMenuItem(c.Request.Context(), item); err != nil {
		ac.deleteImage(c, &key)
		ac.respondMenuItemError(c, err, "Failed to update menu item")
		return
	}
	ac.deleteImage(c, previous)
	attachImageURL(c.Request.Context(), ac.images, ac.logger, item)

	ac.logger.Info("menu item image uploaded", "admin", adminSubject(c), "menu_item_id", id, "image_key", key)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// Stats handles GET /api/admin/stats - today's running totals plus the daily rollups
func (ac *AdminController) Stats(c *gin.Context) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	current, err := ac.store.SummarizeOrders(c.Request.Context(), today, today.AddDate(0, 0, 1))
	if err != nil {
		respondServiceError(c, ac.logger, err, "Failed to summarize orders")
		return
	}

	daily, err := ac.store.ListDailyStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, ac.logger, err, "Failed to retrieve statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"today": current,
			"daily": daily,
		},
	})
}

// RunHousekeeping handles POST /api/admin/housekeeping/run - runs the daily job now
func (ac *AdminController) RunHousekeeping(c *gin.Context) {
	result, err := ac.housekeeper.RunOnce(c.Request.Context(), time.Now())
	if err != nil {
		respondServiceError(c, ac.logger, err, "Housekeeping failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func (ac *AdminController) respondMenuItemError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found")
	case errors.Is(err, repository.ErrUnknownCategory):
		respondServiceError(c, ac.logger,
			&services.ValidationError{Field: "categoryId", Message: "does not exist"}, "")
	default:
		respondServiceError(c, ac.logger, err, message)
	}
}

// adminSubject names the authenticated admin in audit logs
func adminSubject(c *gin.Context) string {
	subject, err := middleware.GetSubject(c)
	if err != nil {
		return "unknown"
	}
	return subject
}

// deleteImage removes a replaced or orphaned image; failures only leave a stray file
func (ac *AdminController) deleteImage(c *gin.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := ac.images.DeleteImage(c.Request.Context(), *key); err != nil {
		ac.logger.Warn("failed to delete image", "image_key", *key, "error", err)
	}
}
