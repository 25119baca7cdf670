package routes

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"truebite-api/config"
	"truebite-api/handlers"
	"truebite-api/models"
	"truebite-api/services"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testSecret = []byte("test-secret")

type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDB(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "api.db")})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := services.New(db, services.Options{Logger: logger, DefaultDeliveryFee: decimal.NewFromInt(5)})
	r := gin.New()
	SetupRoutes(r, handlers.New(svc, testSecret, time.Hour, logger), testSecret, svc.Users)
	return &apiEnv{db: db, router: r}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, out
}

// account creates an approved user and logs in, returning the user and its token
func (e *apiEnv) account(t *testing.T, name string, role models.UserRole, deposit int64) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	account := models.AccountCustomer
	switch role {
	case models.RoleChef, models.RoleDelivery:
		account = models.AccountEmployee
	case models.RoleManager:
		account = models.AccountManager
	}
	u := &models.User{
		Name:         name,
		Email:        name + "@truebite.test",
		PasswordHash: string(hash),
		Role:         role,
		AccountType:  account,
		Status:       models.ApprovalApproved,
		Deposit:      decimal.NewFromInt(deposit),
	}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	code, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": u.Email, "password": "password1",
	})
	if code != http.StatusOK {
		t.Fatalf("Expected login 200, got %d: %v", code, body)
	}
	return u, body["token"].(string)
}

func field(t *testing.T, body map[string]any, key string) map[string]any {
	t.Helper()
	v, ok := body[key].(map[string]any)
	if !ok {
		t.Fatalf("Expected object under %q, got %v", key, body)
	}
	return v
}

func TestHealthAndStateMachine(t *testing.T) {
	env := newAPIEnv(t)

	if code, _ := env.do(t, http.MethodGet, "/health", "", nil); code != http.StatusOK {
		t.Errorf("Expected 200, got %d", code)
	}
	code, body := env.do(t, http.MethodGet, "/api/state-machine", "", nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if terminal, _ := body["terminal_states"].([]any); len(terminal) != 3 {
		t.Errorf("Expected 3 terminal states, got %v", body["terminal_states"])
	}
}

func TestRegistrationNeedsApproval(t *testing.T) {
	env := newAPIEnv(t)
	_, managerToken := env.account(t, "boss", models.RoleManager, 0)

	code, body := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Lena", "email": "lena@example.com", "password": "secret1",
	})
	if code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %v", code, body)
	}
	userID := field(t, body, "user")["id"].(string)

	login := map[string]string{"email": "lena@example.com", "password": "secret1"}
	if code, _ := env.do(t, http.MethodPost, "/api/auth/login", "", login); code != http.StatusForbidden {
		t.Fatalf("Expected 403 before approval, got %d", code)
	}
	if code, _ := env.do(t, http.MethodPut, "/api/manager/users/"+userID+"/approve", managerToken, nil); code != http.StatusOK {
		t.Fatalf("Expected approval 200, got %d", code)
	}
	code, body = env.do(t, http.MethodPost, "/api/auth/login", "", login)
	if code != http.StatusOK || body["token"] == "" {
		t.Fatalf("Expected login with token, got %d: %v", code, body)
	}
}

func TestAuthGuards(t *testing.T) {
	env := newAPIEnv(t)
	_, customerToken := env.account(t, "cara", models.RoleRegistered, 0)

	if code, _ := env.do(t, http.MethodGet, "/api/profile", "", nil); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", code)
	}
	if code, _ := env.do(t, http.MethodGet, "/api/profile", "garbage", nil); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a bad token, got %d", code)
	}
	if code, _ := env.do(t, http.MethodGet, "/api/manager/dashboard", customerToken, nil); code != http.StatusForbidden {
		t.Errorf("Expected 403 for a customer on a manager route, got %d", code)
	}
	code, body := env.do(t, http.MethodGet, "/api/profile", customerToken, nil)
	if code != http.StatusOK || field(t, body, "user")["name"] != "cara" {
		t.Errorf("Expected own profile, got %d: %v", code, body)
	}
}

func TestRoleChangesApplyToIssuedTokens(t *testing.T) {
	env := newAPIEnv(t)
	_, managerToken := env.account(t, "boss", models.RoleManager, 0)
	chef, chefToken := env.account(t, "remy", models.RoleChef, 0)
	dish := map[string]any{"name": "Ratatouille", "price": "14.00"}

	if code, body := env.do(t, http.MethodPost, "/api/chef/dishes", chefToken, dish); code != http.StatusCreated {
		t.Fatalf("Expected 201 before demotion, got %d: %v", code, body)
	}

	code, _ := env.do(t, http.MethodPut, "/api/manager/users/"+chef.ID+"/role", managerToken, map[string]string{"role": "visitor"})
	if code != http.StatusOK {
		t.Fatalf("Expected role change 200, got %d", code)
	}
	if code, body := env.do(t, http.MethodPost, "/api/chef/dishes", chefToken, dish); code != http.StatusForbidden {
		t.Errorf("Expected 403 with the pre-demotion token, got %d: %v", code, body)
	}

	code, body := env.do(t, http.MethodGet, "/api/profile", chefToken, nil)
	if code != http.StatusOK || field(t, body, "user")["role"] != "visitor" {
		t.Errorf("Expected profile to show the stored role, got %d: %v", code, body)
	}

	if code, _ := env.do(t, http.MethodPut, "/api/manager/users/"+chef.ID+"/reject", managerToken, nil); code != http.StatusOK {
		t.Fatalf("Expected reject 200, got %d", code)
	}
	if code, _ := env.do(t, http.MethodGet, "/api/profile", chefToken, nil); code != http.StatusForbidden {
		t.Errorf("Expected 403 for a rejected account, got %d", code)
	}
}

func TestCheckoutWithoutFunds(t *testing.T) {
	env := newAPIEnv(t)
	chef, _ := env.account(t, "chef", models.RoleChef, 0)
	_, customerToken := env.account(t, "dina", models.RoleRegistered, 5)
	dish := &models.Dish{ChefID: chef.ID, Name: "Curry", Price: decimal.NewFromInt(12), Available: true}
	env.db.Create(dish)

	code, body := env.do(t, http.MethodPost, "/api/customer/checkout", customerToken, map[string]any{
		"items": []map[string]any{{"dish_id": dish.ID, "quantity": 1}},
	})
	if code != http.StatusPaymentRequired {
		t.Fatalf("Expected 402, got %d: %v", code, body)
	}
}

func TestOrderLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	_, chefToken := env.account(t, "chef", models.RoleChef, 0)
	_, customerToken := env.account(t, "emma", models.RoleRegistered, 0)
	rider, riderToken := env.account(t, "rider", models.RoleDelivery, 0)
	_, managerToken := env.account(t, "boss", models.RoleManager, 0)

	code, body := env.do(t, http.MethodPost, "/api/chef/dishes", chefToken, map[string]any{
		"name": "Bibimbap", "category": "rice", "price": "14.00",
	})
	if code != http.StatusCreated {
		t.Fatalf("Expected dish 201, got %d: %v", code, body)
	}
	dishID := field(t, body, "dish")["id"].(string)

	if code, body := env.do(t, http.MethodPost, "/api/customer/deposit", customerToken, map[string]any{"amount": 30}); code != http.StatusOK {
		t.Fatalf("Expected deposit 200, got %d: %v", code, body)
	}
	code, body = env.do(t, http.MethodPost, "/api/customer/checkout", customerToken, map[string]any{
		"delivery_address": "9 Elm St",
		"items":            []map[string]any{{"dish_id": dishID, "quantity": 2}},
	})
	if code != http.StatusCreated {
		t.Fatalf("Expected checkout 201, got %d: %v", code, body)
	}
	orderID := field(t, body, "order")["id"].(string)

	code, body = env.do(t, http.MethodPut, "/api/chef/orders/"+orderID+"/status", chefToken, map[string]string{"status": "DELIVERED"})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for chef delivering, got %d: %v", code, body)
	}
	if body["current_status"] != "CREATED" {
		t.Errorf("Expected current_status CREATED, got %v", body["current_status"])
	}

	for _, status := range []string{"IN_KITCHEN", "READY_FOR_DELIVERY"} {
		if code, body := env.do(t, http.MethodPut, "/api/chef/orders/"+orderID+"/status", chefToken, map[string]string{"status": status}); code != http.StatusOK {
			t.Fatalf("Expected chef to set %s, got %d: %v", status, code, body)
		}
	}

	code, body = env.do(t, http.MethodPost, "/api/delivery/orders/"+orderID+"/bids", riderToken, map[string]any{"estimated_time": 20})
	if code != http.StatusCreated {
		t.Fatalf("Expected bid 201, got %d: %v", code, body)
	}
	bidID := field(t, body, "bid")["id"].(string)

	code, body = env.do(t, http.MethodPost, "/api/manager/orders/"+orderID+"/assign", managerToken, map[string]string{"bid_id": bidID})
	if code != http.StatusOK {
		t.Fatalf("Expected assign 200, got %d: %v", code, body)
	}
	if got := field(t, body, "order")["assigned_driver_id"]; got != rider.ID {
		t.Errorf("Expected rider assigned, got %v", got)
	}

	for _, status := range []string{"OUT_FOR_DELIVERY", "DELIVERED"} {
		if code, body := env.do(t, http.MethodPut, "/api/delivery/orders/"+orderID+"/status", riderToken, map[string]string{"status": status}); code != http.StatusOK {
			t.Fatalf("Expected rider to set %s, got %d: %v", status, code, body)
		}
	}

	code, _ = env.do(t, http.MethodPut, "/api/customer/orders/"+orderID+"/cancel", customerToken, nil)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 cancelling a delivered order, got %d", code)
	}

	code, body = env.do(t, http.MethodPost, "/api/customer/complaints", customerToken, map[string]string{
		"order_id": orderID, "target_type": "DELIVERY", "description": "Box was crushed",
	})
	if code != http.StatusCreated {
		t.Fatalf("Expected complaint 201, got %d: %v", code, body)
	}
	complaintID := field(t, body, "complaint")["id"].(string)

	resolve := "/api/manager/complaints/" + complaintID + "/resolve"
	if code, _ := env.do(t, http.MethodPut, resolve, managerToken, map[string]string{"resolution": "RESOLVED_NO_ACTION"}); code != http.StatusBadRequest {
		t.Errorf("Expected 400 without notes, got %d", code)
	}
	if code, _ := env.do(t, http.MethodPut, resolve, managerToken, map[string]string{"resolution": "RESOLVED_NO_ACTION", "manager_notes": "Packaging issue"}); code != http.StatusOK {
		t.Errorf("Expected 200 resolving, got %d", code)
	}
	if code, _ := env.do(t, http.MethodPut, resolve, managerToken, map[string]string{"resolution": "RESOLVED_REFUND", "manager_notes": "again"}); code != http.StatusConflict {
		t.Errorf("Expected 409 resolving twice, got %d", code)
	}

	code, body = env.do(t, http.MethodGet, "/api/customer/transactions", customerToken, nil)
	if code != http.StatusOK || body["count"] != float64(2) {
		t.Errorf("Expected deposit and payment entries, got %d: %v", code, body)
	}
}

func TestDepositPrecision(t *testing.T) {
	env := newAPIEnv(t)
	_, customerToken := env.account(t, "penny", models.RoleRegistered, 0)

	if code, body := env.do(t, http.MethodPost, "/api/customer/deposit", customerToken, map[string]any{"amount": "1.234"}); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a sub-cent deposit, got %d: %v", code, body)
	}
	code, body := env.do(t, http.MethodPost, "/api/customer/deposit", customerToken, map[string]any{"amount": "12.30"})
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, body)
	}
	deposit, err := decimal.NewFromString(body["deposit"].(string))
	if err != nil || !deposit.Equal(decimal.RequireFromString("12.30")) {
		t.Errorf("Expected deposit 12.30, got %v", body["deposit"])
	}
}
