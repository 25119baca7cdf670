package services

import (
	"errors"
	"testing"

	"truebite-api/models"
)

func TestCheckout_InsufficientDepositAddsWarning(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "alice", models.RoleRegistered, "40")

	order, err := env.svc.Orders.Checkout(t.Context(), sessionOf(customer), k.cart(), "1 Main St")
	if !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("Expected ErrInsufficientDeposit, got %v", err)
	}
	if order != nil {
		t.Fatalf("Expected no order, got %+v", order)
	}

	after := env.reloadUser(t, customer.ID)
	if after.Warnings != 1 {
		t.Errorf("Expected 1 warning, got %d", after.Warnings)
	}
	if !after.Deposit.Equal(money("40")) {
		t.Errorf("Expected deposit to stay 40, got %s", after.Deposit)
	}

	var count int64
	env.db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no orders persisted, got %d", count)
	}
}

func TestCheckout_DeductsDeposit(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "bob", models.RoleRegistered, "50")

	order, err := env.svc.Orders.Checkout(t.Context(), sessionOf(customer), k.cart(), "2 Side St")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if order.Status != models.StatusCreated {
		t.Errorf("Expected status CREATED, got %s", order.Status)
	}
	if !order.TotalPrice.Equal(money("42")) {
		t.Errorf("Expected total 42, got %s", order.TotalPrice)
	}
	if !order.TotalPrice.Equal(models.CalculateTotal(order.Items)) {
		t.Errorf("Expected total to equal the sum of its lines, got %s", order.TotalPrice)
	}

	after := env.reloadUser(t, customer.ID)
	if !after.Deposit.Equal(money("8")) {
		t.Errorf("Expected deposit 8, got %s", after.Deposit)
	}
	if after.OrderCount != 1 || !after.TotalSpent.Equal(money("42")) {
		t.Errorf("Expected 1 order and 42 spent, got %d and %s", after.OrderCount, after.TotalSpent)
	}

	var txs []models.Transaction
	env.db.Where("user_id = ?", customer.ID).Find(&txs)
	if len(txs) != 1 || txs[0].Type != models.TransactionPayment {
		t.Fatalf("Expected one PAYMENT ledger entry, got %+v", txs)
	}
	if !txs[0].BalanceBefore.Equal(money("50")) || !txs[0].BalanceAfter.Equal(money("8")) {
		t.Errorf("Expected balance 50 -> 8, got %s -> %s", txs[0].BalanceBefore, txs[0].BalanceAfter)
	}
}

func TestCheckout_RestrictedCustomer(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	manager := env.createUser(t, "boss", models.RoleManager, "0")
	customer := env.createUser(t, "mallory", models.RoleRegistered, "100")

	if _, err := env.svc.Users.SetBlacklisted(t.Context(), sessionOf(manager), customer.ID, true); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	_, err := env.svc.Orders.Checkout(t.Context(), sessionOf(customer), k.cart(), "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
	after := env.reloadUser(t, customer.ID)
	if !after.Deposit.Equal(money("100")) || after.OrderCount != 0 || after.Warnings != 0 {
		t.Errorf("Expected account untouched, got deposit %s, %d orders, %d warnings", after.Deposit, after.OrderCount, after.Warnings)
	}

	if _, err := env.svc.Users.SetBlacklisted(t.Context(), sessionOf(manager), customer.ID, false); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := env.svc.Orders.Checkout(t.Context(), sessionOf(customer), k.cart(), ""); err != nil {
		t.Errorf("Expected checkout after lifting the restriction, got %v", err)
	}

	if _, err := env.svc.Users.SetBlacklisted(t.Context(), sessionOf(customer), customer.ID, false); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected customers to be unable to change restrictions, got %v", err)
	}
}

func TestCheckout_VIPOnlyDish(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	vipOnly := true
	if _, err := env.svc.Dishes.Update(t.Context(), sessionOf(k.chef), k.dishB.ID, DishUpdate{VIPOnly: &vipOnly}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	regular := env.createUser(t, "rita", models.RoleRegistered, "100")
	vip := env.createUser(t, "victor", models.RoleVIP, "100")

	if _, err := env.svc.Orders.Checkout(t.Context(), sessionOf(regular), k.cart(), ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for a regular customer, got %v", err)
	}
	if after := env.reloadUser(t, regular.ID); !after.Deposit.Equal(money("100")) {
		t.Errorf("Expected regular deposit to stay 100, got %s", after.Deposit)
	}

	if _, err := env.svc.Orders.Checkout(t.Context(), sessionOf(vip), k.cart(), ""); err != nil {
		t.Fatalf("Expected VIP checkout to succeed, got %v", err)
	}
	if after := env.reloadUser(t, vip.ID); after.OrderCount != 1 || !after.TotalSpent.Equal(money("42")) {
		t.Errorf("Expected 1 order and 42 spent, got %d and %s", after.OrderCount, after.TotalSpent)
	}
}

func TestCheckout_ItemsKeepCartOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "carol", models.RoleVIP, "100")

	created, err := env.svc.Orders.Checkout(t.Context(), sessionOf(customer), k.cart(), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	order, err := env.svc.Orders.Get(t.Context(), sessionOf(customer), created.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(order.Items))
	}
	if order.Items[0].DishID != k.dishA.ID || order.Items[1].DishID != k.dishB.ID {
		t.Errorf("Expected items in cart order, got %s, %s", order.Items[0].Name, order.Items[1].Name)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].ToStatus != models.StatusCreated {
		t.Errorf("Expected a single CREATED history entry, got %+v", order.StatusHistory)
	}
}

func TestCheckout_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "dave", models.RoleRegistered, "100")
	ctx := t.Context()

	if _, err := env.svc.Orders.Checkout(ctx, sessionOf(customer), nil, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty cart, got %v", err)
	}
	bad := []CartLine{{DishID: k.dishA.ID, Quantity: 0}}
	if _, err := env.svc.Orders.Checkout(ctx, sessionOf(customer), bad, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for zero quantity, got %v", err)
	}
	missing := []CartLine{{DishID: "no-such-dish", Quantity: 1}}
	if _, err := env.svc.Orders.Checkout(ctx, sessionOf(customer), missing, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown dish, got %v", err)
	}

	env.db.Model(k.dishB).Update("available", false)
	if _, err := env.svc.Orders.Checkout(ctx, sessionOf(customer), k.cart(), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for unavailable dish, got %v", err)
	}
	if _, err := env.svc.Orders.Checkout(ctx, sessionOf(k.chef), k.cart(), ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for chef checkout, got %v", err)
	}

	if after := env.reloadUser(t, customer.ID); !after.Deposit.Equal(money("100")) {
		t.Errorf("Expected failed checkouts to leave the deposit alone, got %s", after.Deposit)
	}
}

func TestUpdateStatus_ChefCannotDeliver(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "erin", models.RoleRegistered, "100")
	order, err := env.svc.Orders.Checkout(t.Context(), sessionOf(customer), k.cart(), "")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	_, err = env.svc.Orders.UpdateStatus(t.Context(), sessionOf(k.chef), order.ID, models.StatusDelivered, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
	if got := env.reloadOrder(t, order.ID).Status; got != models.StatusCreated {
		t.Errorf("Expected status to remain CREATED, got %s", got)
	}
}

func TestUpdateStatus_AssignedOnlyThroughBids(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "fay", models.RoleRegistered, "100")
	manager := env.createUser(t, "boss", models.RoleManager, "0")
	order := env.readyOrder(t, k, customer)

	_, err := env.svc.Orders.UpdateStatus(t.Context(), sessionOf(manager), order.ID, models.StatusAssigned, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateStatus_TerminalOrdersAreFrozen(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "gus", models.RoleRegistered, "100")
	manager := env.createUser(t, "boss", models.RoleManager, "0")
	ctx := t.Context()

	order, err := env.svc.Orders.Checkout(ctx, sessionOf(customer), k.cart(), "")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if _, err := env.svc.Orders.UpdateStatus(ctx, sessionOf(customer), order.ID, models.StatusCancelled, "changed my mind"); err != nil {
		t.Fatalf("Expected customer cancel to succeed, got: %v", err)
	}

	for _, target := range []models.OrderStatus{models.StatusInKitchen, models.StatusFailedDelivery, models.StatusCancelled} {
		_, err := env.svc.Orders.UpdateStatus(ctx, sessionOf(manager), order.ID, target, "")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition moving cancelled order to %s, got %v", target, err)
		}
	}
}

func TestUpdateStatus_CancelRefunds(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	customer := env.createUser(t, "hana", models.RoleRegistered, "50")
	ctx := t.Context()

	order, err := env.svc.Orders.Checkout(ctx, sessionOf(customer), k.cart(), "")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if _, err := env.svc.Orders.UpdateStatus(ctx, sessionOf(k.chef), order.ID, models.StatusInKitchen, ""); err != nil {
		t.Fatalf("Failed to start cooking: %v", err)
	}
	if _, err := env.svc.Orders.UpdateStatus(ctx, sessionOf(customer), order.ID, models.StatusCancelled, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected customer to be unable to cancel a cooking order, got %v", err)
	}

	updated, err := env.svc.Orders.UpdateStatus(ctx, sessionOf(k.chef), order.ID, models.StatusCancelled, "out of noodles")
	if err != nil {
		t.Fatalf("Expected chef cancel to succeed, got: %v", err)
	}
	if updated.Status != models.StatusCancelled {
		t.Errorf("Expected CANCELLED, got %s", updated.Status)
	}
	if after := env.reloadUser(t, customer.ID); !after.Deposit.Equal(money("50")) {
		t.Errorf("Expected deposit refunded to 50, got %s", after.Deposit)
	}

	var refunds int64
	env.db.Model(&models.Transaction{}).Where("user_id = ? AND type = ?", customer.ID, models.TransactionRefund).Count(&refunds)
	if refunds != 1 {
		t.Errorf("Expected 1 refund entry, got %d", refunds)
	}
}

func TestUpdateStatus_CustomerOwnership(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	owner := env.createUser(t, "ivy", models.RoleRegistered, "100")
	other := env.createUser(t, "jon", models.RoleRegistered, "100")
	ctx := t.Context()

	order, err := env.svc.Orders.Checkout(ctx, sessionOf(owner), k.cart(), "")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if _, err := env.svc.Orders.UpdateStatus(ctx, sessionOf(other), order.ID, models.StatusCancelled, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if _, err := env.svc.Orders.Get(ctx, sessionOf(other), order.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden reading another customer's order, got %v", err)
	}
}

func TestOrderList_Filters(t *testing.T) {
	env := newTestEnv(t, nil)
	k := env.newKitchen(t)
	a := env.createUser(t, "kim", models.RoleRegistered, "200")
	b := env.createUser(t, "lee", models.RoleRegistered, "200")
	ctx := t.Context()

	env.readyOrder(t, k, a)
	if _, err := env.svc.Orders.Checkout(ctx, sessionOf(b), k.cart(), ""); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	ready, err := env.svc.Orders.ListReadyForBidding(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(ready) != 1 || ready[0].CustomerID != a.ID {
		t.Errorf("Expected only kim's order ready for bidding, got %d orders", len(ready))
	}

	mine, err := env.svc.Orders.List(ctx, OrderFilter{CustomerID: b.ID})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != models.StatusCreated {
		t.Errorf("Expected one CREATED order for lee, got %+v", mine)
	}
}
