package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kendall-kelly/restaurant-pos-api/models"
)

// MemoryStore is a map-backed Store. All methods are safe for concurrent use
// and return copies, so callers can't mutate stored rows.
type MemoryStore struct {
	mu sync.RWMutex

	categories map[uint]models.Category
	menuItems  map[uint]models.MenuItem
	orders     map[uint]models.Order // Items included
	numbers    map[string]uint
	stats      map[string]models.DailyStat
	users      map[string]models.User

	lastCategoryID  uint
	lastMenuItemID  uint
	lastOrderID     uint
	lastOrderItemID uint
	lastStatID      uint
	lastUserID      uint

	now func() time.Time
}

// NewEmptyMemoryStore creates a store with no rows
func NewEmptyMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[uint]models.Category),
		menuItems:  make(map[uint]models.MenuItem),
		orders:     make(map[uint]models.Order),
		numbers:    make(map[string]uint),
		stats:      make(map[string]models.DailyStat),
		users:      make(map[string]models.User),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewMemoryStore creates a store preloaded with the default menu
func NewMemoryStore() (*MemoryStore, error) {
	store := NewEmptyMemoryStore()
	menu, err := DefaultSeedMenu()
	if err != nil {
		return nil, err
	}
	if _, err := Seed(context.Background(), store, menu); err != nil {
		return nil, err
	}
	return store, nil
}

// SetClock overrides the time source used for timestamps (tests)
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// --- categories ---

func (s *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].DisplayOrder != categories[j].DisplayOrder {
			return categories[i].DisplayOrder < categories[j].DisplayOrder
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastCategoryID++
	now := s.now()
	category.ID = s.lastCategoryID
	category.CreatedAt = now
	category.UpdatedAt = now
	s.categories[category.ID] = *category
	return nil
}

func (s *MemoryStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok {
		return ErrNotFound
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = s.now()
	s.categories[category.ID] = *category
	return nil
}

func (s *MemoryStore) DeleteCategory(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	for _, item := range s.menuItems {
		if item.CategoryID == id {
			return ErrCategoryInUse
		}
	}
	delete(s.categories, id)
	return nil
}

// --- menu items ---

func (s *MemoryStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return s.filterMenuItems(func(models.MenuItem) bool { return true }), nil
}

func (s *MemoryStore) ListMenuItemsByCategory(ctx context.Context, categoryID uint) ([]models.MenuItem, error) {
	return s.filterMenuItems(func(item models.MenuItem) bool { return item.CategoryID == categoryID }), nil
}

func (s *MemoryStore) filterMenuItems(keep func(models.MenuItem) bool) []models.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.MenuItem, 0, len(s.menuItems))
	for _, item := range s.menuItems {
		if keep(item) {
			items = append(items, copyMenuItem(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *MemoryStore) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.menuItems[id]
	if !ok {
		return nil, ErrNotFound
	}
	item = copyMenuItem(item)
	return &item, nil
}

func (s *MemoryStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[item.CategoryID]; !ok {
		return ErrUnknownCategory
	}
	s.lastMenuItemID++
	now := s.now()
	item.ID = s.lastMenuItemID
	item.CreatedAt = now
	item.UpdatedAt = now
	item.ImageURL = nil
	s.menuItems[item.ID] = copyMenuItem(*item)
	return nil
}

func (s *MemoryStore) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.menuItems[item.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.categories[item.CategoryID]; !ok {
		return ErrUnknownCategory
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.now()
	stored := copyMenuItem(*item)
	stored.ImageURL = nil
	s.menuItems[item.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteMenuItem(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menuItems[id]; !ok {
		return ErrNotFound
	}
	delete(s.menuItems, id)
	return nil
}

// --- orders ---

func (s *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.numbers[order.OrderNumber]; taken {
		return ErrDuplicateOrderNumber
	}

	s.lastOrderID++
	now := s.now()
	order.ID = s.lastOrderID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		s.lastOrderItemID++
		order.Items[i].ID = s.lastOrderItemID
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = order.CreatedAt
	}

	s.orders[order.ID] = copyOrder(*order)
	s.numbers[order.OrderNumber] = order.ID
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.GetFullOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = nil
	return order, nil
}

func (s *MemoryStore) GetFullOrder(ctx context.Context, id uint) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order = copyOrder(order)
	return &order, nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = s.now()
	s.orders[id] = order

	updated := copyOrder(order)
	return &updated, nil
}

func (s *MemoryStore) ListOrdersByStatus(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	wanted := make(map[models.OrderStatus]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	return s.filterOrders(func(o models.Order) bool { return wanted[o.Status] }), nil
}

func (s *MemoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.filterOrders(func(models.Order) bool { return true }), nil
}

func (s *MemoryStore) filterOrders(keep func(models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	sortNewestFirst(orders)
	return orders
}

func (s *MemoryStore) PopularItems(ctx context.Context, since time.Time, limit int) ([]models.PopularItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byItem := make(map[uint]*models.PopularItem)
	for _, o := range s.orders {
		if o.CreatedAt.Before(since) || o.Status == models.StatusCancelled {
			continue
		}
		for _, item := range o.Items {
			p, ok := byItem[item.MenuItemID]
			if !ok {
				p = &models.PopularItem{MenuItemID: item.MenuItemID}
				byItem[item.MenuItemID] = p
			}
			if item.Name > p.Name {
				p.Name = item.Name
			}
			p.Quantity += int64(item.Quantity)
			p.Revenue += item.LineTotal()
		}
	}

	popular := make([]models.PopularItem, 0, len(byItem))
	for _, p := range byItem {
		popular = append(popular, *p)
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Quantity != popular[j].Quantity {
			return popular[i].Quantity > popular[j].Quantity
		}
		return popular[i].Name < popular[j].Name
	})
	if limit > 0 && len(popular) > limit {
		popular = popular[:limit]
	}
	return popular, nil
}

// --- stats ---

func (s *MemoryStore) SummarizeOrders(ctx context.Context, from, to time.Time) (models.DailyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stat := models.DailyStat{Date: from.UTC().Format(models.DateLayout)}
	for _, o := range s.orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		stat.OrderCount++
		if o.Status == models.StatusCancelled {
			stat.CancelledCount++
			continue
		}
		stat.Revenue += o.TotalAmount
		for _, item := range o.Items {
			stat.ItemCount += int64(item.Quantity)
		}
	}
	return stat, nil
}

func (s *MemoryStore) SaveDailyStat(ctx context.Context, stat *models.DailyStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.stats[stat.Date]; ok {
		stat.ID = existing.ID
		stat.CreatedAt = existing.CreatedAt
	} else {
		s.lastStatID++
		stat.ID = s.lastStatID
		stat.CreatedAt = now
	}
	stat.UpdatedAt = now
	s.stats[stat.Date] = *stat
	return nil
}

func (s *MemoryStore) ListDailyStats(ctx context.Context) ([]models.DailyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]models.DailyStat, 0, len(s.stats))
	for _, st := range s.stats {
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date > stats[j].Date })
	return stats, nil
}

func (s *MemoryStore) DeleteOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, o := range s.orders {
		if o.CreatedAt.Before(cutoff) {
			delete(s.orders, id)
			delete(s.numbers, o.OrderNumber)
			deleted++
		}
	}
	return deleted, nil
}

// --- users ---

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.users[user.Username]; ok {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	} else {
		s.lastUserID++
		user.ID = s.lastUserID
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.Username] = *user
	return nil
}

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = copyOrderItem(item)
	}
	o.Items = items
	return o
}

func copyOrderItem(item models.OrderItem) models.OrderItem {
	if item.Notes != nil {
		notes := *item.Notes
		item.Notes = &notes
	}
	if item.Customization != nil {
		c := *item.Customization
		if c.Toppings != nil {
			c.Toppings = append([]string(nil), c.Toppings...)
		}
		item.Customization = &c
	}
	return item
}

func copyMenuItem(item models.MenuItem) models.MenuItem {
	if item.Flavors != nil {
		item.Flavors = append([]string(nil), item.Flavors...)
	}
	if item.Toppings != nil {
		item.Toppings = append([]string(nil), item.Toppings...)
	}
	return item
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

var _ Store = (*MemoryStore)(nil)
