package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/restaurant-pos-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of a gorm connection (SQLite or PostgreSQL)
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DB exposes the underlying connection
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// --- categories ---

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("display_order ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *GormStore) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, "failed to get category")
	}
	return &category, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := s.db.WithContext(ctx).Model(category).
		Select("name", "icon", "display_order").
		Updates(category)
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteCategory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return fmt.Errorf("failed to count menu items: %w", err)
		}
		if inUse > 0 {
			return ErrCategoryInUse
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// --- menu items ---

func (s *GormStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

func (s *GormStore) ListMenuItemsByCategory(ctx context.Context, categoryID uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

func (s *GormStore) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "failed to get menu item")
	}
	return &item, nil
}

func (s *GormStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := s.requireCategory(ctx, item.CategoryID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := s.requireCategory(ctx, item.CategoryID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(item).
		Select("category_id", "name", "description", "price", "available", "meal_price",
			"has_flavors", "flavors", "has_meal_option", "has_spicy_option", "has_toppings",
			"toppings", "image_key").
		Updates(item)
	if res.Error != nil {
		return fmt.Errorf("failed to update menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteMenuItem(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) requireCategory(ctx context.Context, id uint) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnknownCategory
		}
		return err
	}
	return nil
}

// --- orders ---

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if len(order.Items) > 0 {
			if err := tx.Create(&order.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		order.ID = 0
		if isDuplicateKey(err) {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *GormStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, notFound(err, "failed to get order")
	}
	return &order, nil
}

func (s *GormStore) GetFullOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.withItems(ctx).First(&order, id).Error; err != nil {
		return nil, notFound(err, "failed to get order")
	}
	return &order, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetFullOrder(ctx, id)
}

func (s *GormStore) ListOrdersByStatus(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.withItems(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *GormStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := s.withItems(ctx).Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *GormStore) PopularItems(ctx context.Context, since time.Time, limit int) ([]models.PopularItem, error) {
	popular := []models.PopularItem{}
	q := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_items.menu_item_id AS menu_item_id, MAX(order_items.name) AS name, "+
			"SUM(order_items.quantity) AS quantity, SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.status <> ?", since.UTC(), models.StatusCancelled).
		Group("order_items.menu_item_id").
		Order("quantity DESC, name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&popular).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate popular items: %w", err)
	}
	return popular, nil
}

// withItems preloads line items in insertion order
func (s *GormStore) withItems(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
}

// --- stats ---

func (s *GormStore) SummarizeOrders(ctx context.Context, from, to time.Time) (models.DailyStat, error) {
	stat := models.DailyStat{Date: from.UTC().Format(models.DateLayout)}
	from, to = from.UTC(), to.UTC()

	var totals struct {
		OrderCount     int64
		CancelledCount int64
		Revenue        int64
	}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS order_count, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS cancelled_count, "+
			"COALESCE(SUM(CASE WHEN status <> ? THEN total_amount ELSE 0 END), 0) AS revenue",
			models.StatusCancelled, models.StatusCancelled).
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&totals).Error
	if err != nil {
		return stat, fmt.Errorf("failed to summarize orders: %w", err)
	}

	var itemCount int64
	err = s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status <> ?", from, to, models.StatusCancelled).
		Scan(&itemCount).Error
	if err != nil {
		return stat, fmt.Errorf("failed to summarize order items: %w", err)
	}

	stat.OrderCount = totals.OrderCount
	stat.CancelledCount = totals.CancelledCount
	stat.Revenue = totals.Revenue
	stat.ItemCount = itemCount
	return stat, nil
}

func (s *GormStore) SaveDailyStat(ctx context.Context, stat *models.DailyStat) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"order_count", "item_count", "revenue", "cancelled_count", "updated_at"}),
	}).Create(stat).Error
	if err != nil {
		return fmt.Errorf("failed to save daily stat: %w", err)
	}
	return nil
}

func (s *GormStore) ListDailyStats(ctx context.Context) ([]models.DailyStat, error) {
	stats := []models.DailyStat{}
	if err := s.db.WithContext(ctx).Order("date DESC").Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}
	return stats, nil
}

func (s *GormStore) DeleteOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	cutoff = cutoff.UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Order{}).Select("id").Where("created_at < ?", cutoff)
		if err := tx.Where("order_id IN (?)", expired).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("created_at < ?", cutoff).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune orders: %w", err)
	}
	return deleted, nil
}

// --- users ---

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "failed to get user")
	}
	return &user, nil
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// notFound maps gorm's not-found error onto ErrNotFound and wraps the rest
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// isDuplicateKey works with both PostgreSQL and SQLite, with or without
// gorm's error translation enabled
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

var _ Store = (*GormStore)(nil)
