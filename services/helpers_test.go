package services

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"truebite-api/config"
	"truebite-api/events"
	"truebite-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db  *gorm.DB
	svc *Services
}

func newTestEnv(t *testing.T, pub events.Publisher) *testEnv {
	t.Helper()
	db, err := config.OpenDB(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "truebite.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if pub == nil {
		pub = events.NewLogPublisher(logger)
	}
	svc := New(db, Options{
		Publisher:          pub,
		Logger:             logger,
		Now:                func() time.Time { return fixedNow },
		DefaultDeliveryFee: decimal.RequireFromString("5"),
	})
	return &testEnv{db: db, svc: svc}
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// createUser inserts an approved account directly
func (e *testEnv) createUser(t *testing.T, name string, role models.UserRole, deposit string) *models.User {
	t.Helper()
	account := models.AccountCustomer
	switch role {
	case models.RoleChef, models.RoleDelivery, models.RoleVisitor:
		account = models.AccountEmployee
	case models.RoleManager:
		account = models.AccountManager
	}
	u := &models.User{
		Name:         name,
		Email:        name + "@truebite.test",
		PasswordHash: "not-a-real-hash",
		Role:         role,
		AccountType:  account,
		Status:       models.ApprovalApproved,
		Deposit:      money(deposit),
	}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return u
}

func (e *testEnv) createDish(t *testing.T, chef *models.User, name, price string) *models.Dish {
	t.Helper()
	d := &models.Dish{ChefID: chef.ID, Name: name, Price: money(price), Available: true}
	if err := e.db.Create(d).Error; err != nil {
		t.Fatalf("Failed to create dish %s: %v", name, err)
	}
	return d
}

func (e *testEnv) reloadUser(t *testing.T, id string) *models.User {
	t.Helper()
	var u models.User
	if err := e.db.First(&u, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload user %s: %v", id, err)
	}
	return &u
}

func (e *testEnv) reloadOrder(t *testing.T, id string) *models.Order {
	t.Helper()
	var o models.Order
	if err := e.db.First(&o, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload order %s: %v", id, err)
	}
	return &o
}

func sessionOf(u *models.User) Session {
	return Session{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// kitchen is a chef with two dishes totalling 42.00 for a cart of 2×A + 1×B
type kitchen struct {
	chef  *models.User
	dishA *models.Dish
	dishB *models.Dish
}

func (e *testEnv) newKitchen(t *testing.T) kitchen {
	t.Helper()
	chef := e.createUser(t, "chef", models.RoleChef, "0")
	return kitchen{
		chef:  chef,
		dishA: e.createDish(t, chef, "Ramen", "12.50"),
		dishB: e.createDish(t, chef, "Gyoza", "17.00"),
	}
}

func (k kitchen) cart() []CartLine {
	return []CartLine{{DishID: k.dishA.ID, Quantity: 2}, {DishID: k.dishB.ID, Quantity: 1}}
}

// readyOrder checks out the kitchen's cart and walks it to READY_FOR_DELIVERY
func (e *testEnv) readyOrder(t *testing.T, k kitchen, customer *models.User) *models.Order {
	t.Helper()
	ctx := t.Context()
	order, err := e.svc.Orders.Checkout(ctx, sessionOf(customer), k.cart(), "1 Main St")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	for _, next := range []models.OrderStatus{models.StatusInKitchen, models.StatusReadyForDelivery} {
		if _, err := e.svc.Orders.UpdateStatus(ctx, sessionOf(k.chef), order.ID, next, ""); err != nil {
			t.Fatalf("Failed to move order to %s: %v", next, err)
		}
	}
	return e.reloadOrder(t, order.ID)
}
