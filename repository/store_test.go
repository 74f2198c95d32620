package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
	"github.com/kendall-kelly/restaurant-pos-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachStore runs fn against an empty MemoryStore and an empty GormStore
func forEachStore(t *testing.T, fn func(t *testing.T, store repository.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, repository.NewEmptyMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, repository.NewGormStore(testutil.NewTestDB(t)))
	})
}

func seedCategory(t *testing.T, store repository.Store, name string, order int) models.Category {
	t.Helper()
	c := models.Category{Name: name, Icon: "*", DisplayOrder: order}
	require.NoError(t, store.CreateCategory(context.Background(), &c))
	return c
}

func seedMenuItem(t *testing.T, store repository.Store, categoryID uint, name string, price int64) models.MenuItem {
	t.Helper()
	item := models.MenuItem{CategoryID: categoryID, Name: name, Price: price, Available: true}
	require.NoError(t, store.CreateMenuItem(context.Background(), &item))
	return item
}

func newOrder(number string, status models.OrderStatus, items ...models.OrderItem) *models.Order {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return &models.Order{OrderNumber: number, Status: status, TotalAmount: total, Items: items}
}

func TestCategories(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		drinks := seedCategory(t, store, "Drinks", 2)
		burgers := seedCategory(t, store, "Burgers", 1)

		categories, err := store.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "Burgers", categories[0].Name, "sorted by display order")
		assert.Equal(t, "Drinks", categories[1].Name)

		drinks.Name = "Cold Drinks"
		drinks.DisplayOrder = 0
		require.NoError(t, store.UpdateCategory(ctx, &drinks))
		got, err := store.GetCategory(ctx, drinks.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cold Drinks", got.Name)
		assert.Equal(t, 0, got.DisplayOrder)

		seedMenuItem(t, store, burgers.ID, "Classic Burger", 650)
		assert.ErrorIs(t, store.DeleteCategory(ctx, burgers.ID), repository.ErrCategoryInUse)

		require.NoError(t, store.DeleteCategory(ctx, drinks.ID))
		_, err = store.GetCategory(ctx, drinks.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, store.DeleteCategory(ctx, drinks.ID), repository.ErrNotFound)

		missing := models.Category{ID: 999, Name: "Ghost"}
		assert.ErrorIs(t, store.UpdateCategory(ctx, &missing), repository.ErrNotFound)
	})
}

func TestMenuItems(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		sides := seedCategory(t, store, "Sides", 1)
		drinks := seedCategory(t, store, "Drinks", 2)

		chips := seedMenuItem(t, store, sides.ID, "Chips", 250)
		seedMenuItem(t, store, drinks.ID, "Cola", 150)

		all, err := store.ListMenuItems(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		bySides, err := store.ListMenuItemsByCategory(ctx, sides.ID)
		require.NoError(t, err)
		require.Len(t, bySides, 1)
		assert.Equal(t, "Chips", bySides[0].Name)

		orphan := models.MenuItem{CategoryID: 404, Name: "Orphan", Price: 1}
		assert.ErrorIs(t, store.CreateMenuItem(ctx, &orphan), repository.ErrUnknownCategory)

		meal := int64(450)
		chips.Price = 275
		chips.Available = false
		chips.MealPrice = &meal
		chips.HasFlavors = true
		chips.Flavors = []string{"Salted", "Peri Peri"}
		require.NoError(t, store.UpdateMenuItem(ctx, &chips))

		got, err := store.GetMenuItem(ctx, chips.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(275), got.Price)
		assert.False(t, got.Available)
		require.NotNil(t, got.MealPrice)
		assert.Equal(t, int64(450), *got.MealPrice)
		assert.Equal(t, []string{"Salted", "Peri Peri"}, got.Flavors)

		require.NoError(t, store.DeleteMenuItem(ctx, chips.ID))
		_, err = store.GetMenuItem(ctx, chips.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, store.DeleteMenuItem(ctx, chips.ID), repository.ErrNotFound)
	})
}

func TestCreateOrder_WithItems(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		notes := "no salt"
		order := newOrder("100001", models.StatusNew,
			models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 2, Notes: &notes},
			models.OrderItem{MenuItemID: 2, Name: "Cola", Price: 150, Quantity: 1,
				Customization: &models.Customization{Flavor: "Cherry"}},
		)
		require.NoError(t, store.CreateOrder(ctx, order))
		assert.NotZero(t, order.ID)
		assert.False(t, order.CreatedAt.IsZero())

		full, err := store.GetFullOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "100001", full.OrderNumber)
		assert.Equal(t, int64(650), full.TotalAmount)
		require.Len(t, full.Items, 2)
		assert.Equal(t, order.ID, full.Items[0].OrderID)
		assert.Equal(t, "Chips", full.Items[0].Name)
		require.NotNil(t, full.Items[0].Notes)
		assert.Equal(t, "no salt", *full.Items[0].Notes)
		require.NotNil(t, full.Items[1].Customization)
		assert.Equal(t, "Cherry", full.Items[1].Customization.Flavor)

		row, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, row.Items)

		_, err = store.GetFullOrder(ctx, 9999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestOrdersAreReturnedByValue(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		notes := "no onions"
		order := newOrder("000000001", models.StatusNew, models.OrderItem{
			MenuItemID: 1, Name: "Loaded Burger", Price: 900, Quantity: 1,
			Notes:         &notes,
			Customization: &models.Customization{Flavor: "BBQ", Toppings: []string{"Cheese", "Bacon"}},
		})
		require.NoError(t, store.CreateOrder(ctx, order))

		// the caller's copy is not the stored row
		notes = "extra onions"
		order.Items[0].Customization.Toppings[0] = "Jalapeno"

		first, err := store.GetFullOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, first.Items, 1)
		assert.Equal(t, "no onions", *first.Items[0].Notes)
		assert.Equal(t, []string{"Cheese", "Bacon"}, first.Items[0].Customization.Toppings)

		*first.Items[0].Notes = "changed"
		first.Items[0].Customization.Flavor = "Plain"
		first.Items[0].Customization.Toppings[1] = "Egg"

		active, err := store.ListOrdersByStatus(ctx, []models.OrderStatus{models.StatusNew})
		require.NoError(t, err)
		require.Len(t, active, 1)
		item := active[0].Items[0]
		assert.Equal(t, "no onions", *item.Notes)
		assert.Equal(t, "BBQ", item.Customization.Flavor)
		assert.Equal(t, []string{"Cheese", "Bacon"}, item.Customization.Toppings)
	})
}

func TestCreateOrder_DuplicateNumber(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		item := models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 1}
		require.NoError(t, store.CreateOrder(ctx, newOrder("42", models.StatusNew, item)))

		dup := newOrder("42", models.StatusNew, item)
		err := store.CreateOrder(ctx, dup)
		assert.ErrorIs(t, err, repository.ErrDuplicateOrderNumber)
		assert.Zero(t, dup.ID)

		orders, err := store.ListOrders(ctx)
		require.NoError(t, err)
		assert.Len(t, orders, 1, "the rejected order must not leave rows behind")
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		order := newOrder("7", models.StatusNew, models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 1})
		require.NoError(t, store.CreateOrder(ctx, order))

		updated, err := store.UpdateOrderStatus(ctx, order.ID, models.StatusReady)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReady, updated.Status)
		assert.Len(t, updated.Items, 1)

		_, err = store.UpdateOrderStatus(ctx, 12345, models.StatusReady)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestListOrdersByStatus_NewestFirst(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		item := models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 1}

		statuses := []models.OrderStatus{models.StatusNew, models.StatusPreparing, models.StatusServed, models.StatusReady, models.StatusCancelled}
		for i, st := range statuses {
			o := newOrder(string(rune('a'+i)), st, item)
			o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, store.CreateOrder(ctx, o))
		}

		active, err := store.ListOrdersByStatus(ctx, models.ActiveStatuses)
		require.NoError(t, err)
		require.Len(t, active, 3)
		assert.Equal(t, models.StatusReady, active[0].Status)
		assert.Equal(t, models.StatusPreparing, active[1].Status)
		assert.Equal(t, models.StatusNew, active[2].Status)
		for _, o := range active {
			assert.Len(t, o.Items, 1)
		}

		all, err := store.ListOrders(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)
		assert.Equal(t, models.StatusCancelled, all[0].Status)
	})
}

func TestPopularItems(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		now := time.Now().UTC()

		recent := newOrder("1", models.StatusServed,
			models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 3},
			models.OrderItem{MenuItemID: 2, Name: "Cola", Price: 150, Quantity: 1},
		)
		recent.CreatedAt = now.Add(-time.Hour)
		require.NoError(t, store.CreateOrder(ctx, recent))

		another := newOrder("2", models.StatusNew, models.OrderItem{MenuItemID: 2, Name: "Cola", Price: 150, Quantity: 1})
		another.CreatedAt = now.Add(-2 * time.Hour)
		require.NoError(t, store.CreateOrder(ctx, another))

		cancelled := newOrder("3", models.StatusCancelled, models.OrderItem{MenuItemID: 2, Name: "Cola", Price: 150, Quantity: 10})
		cancelled.CreatedAt = now.Add(-time.Hour)
		require.NoError(t, store.CreateOrder(ctx, cancelled))

		old := newOrder("4", models.StatusServed, models.OrderItem{MenuItemID: 3, Name: "Burger", Price: 650, Quantity: 20})
		old.CreatedAt = now.Add(-30 * 24 * time.Hour)
		require.NoError(t, store.CreateOrder(ctx, old))

		popular, err := store.PopularItems(ctx, now.Add(-7*24*time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, popular, 2)
		assert.Equal(t, "Chips", popular[0].Name)
		assert.Equal(t, int64(3), popular[0].Quantity)
		assert.Equal(t, int64(750), popular[0].Revenue)
		assert.Equal(t, "Cola", popular[1].Name)
		assert.Equal(t, int64(2), popular[1].Quantity)

		limited, err := store.PopularItems(ctx, now.Add(-7*24*time.Hour), 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}

func TestStatsAndPruning(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

		served := newOrder("s1", models.StatusServed,
			models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 2},
			models.OrderItem{MenuItemID: 2, Name: "Cola", Price: 150, Quantity: 1})
		served.CreatedAt = day.Add(9 * time.Hour)
		require.NoError(t, store.CreateOrder(ctx, served))

		cancelled := newOrder("s2", models.StatusCancelled, models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 4})
		cancelled.CreatedAt = day.Add(10 * time.Hour)
		require.NoError(t, store.CreateOrder(ctx, cancelled))

		nextDay := newOrder("s3", models.StatusNew, models.OrderItem{MenuItemID: 1, Name: "Chips", Price: 250, Quantity: 1})
		nextDay.CreatedAt = day.Add(26 * time.Hour)
		require.NoError(t, store.CreateOrder(ctx, nextDay))

		stat, err := store.SummarizeOrders(ctx, day, day.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "2026-05-10", stat.Date)
		assert.Equal(t, int64(2), stat.OrderCount)
		assert.Equal(t, int64(1), stat.CancelledCount)
		assert.Equal(t, int64(650), stat.Revenue)
		assert.Equal(t, int64(3), stat.ItemCount)

		require.NoError(t, store.SaveDailyStat(ctx, &stat))
		stat.Revenue = 999
		again := stat
		again.ID = 0
		require.NoError(t, store.SaveDailyStat(ctx, &again))

		stats, err := store.ListDailyStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 1, "saving the same date twice replaces the row")
		assert.Equal(t, int64(999), stats[0].Revenue)

		deleted, err := store.DeleteOrdersBefore(ctx, day.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		remaining, err := store.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "s3", remaining[0].OrderNumber)
	})
}

func TestUsers(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		_, err := store.GetUserByUsername(ctx, "admin")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		require.NoError(t, store.SaveUser(ctx, &models.User{Username: "admin", PasswordHash: "h1", Role: models.RoleAdmin}))
		require.NoError(t, store.SaveUser(ctx, &models.User{Username: "admin", PasswordHash: "h2", Role: models.RoleAdmin}))

		user, err := store.GetUserByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, "h2", user.PasswordHash)
	})
}

func TestSeed(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		ctx := context.Background()
		menu, err := repository.DefaultSeedMenu()
		require.NoError(t, err)

		seeded, err := repository.Seed(ctx, store, menu)
		require.NoError(t, err)
		assert.True(t, seeded)

		seeded, err = repository.Seed(ctx, store, menu)
		require.NoError(t, err)
		assert.False(t, seeded, "a store with categories is left alone")

		categories, err := store.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, len(menu.Categories))

		chips, err := store.GetMenuItem(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Chips", chips.Name)
		assert.Equal(t, int64(250), chips.Price)
	})
}

func TestParseSeedMenu_Invalid(t *testing.T) {
	_, err := repository.ParseSeedMenu([]byte("categories:\n  - icon: x\n"))
	assert.Error(t, err)

	_, err = repository.ParseSeedMenu([]byte("categories: [oops"))
	assert.Error(t, err)
}

func TestNewMemoryStore_IsSeeded(t *testing.T) {
	store, err := repository.NewMemoryStore()
	require.NoError(t, err)

	items, err := store.ListMenuItems(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, items)
}
