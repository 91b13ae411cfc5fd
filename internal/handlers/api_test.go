package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwalther/equipcore/internal/config"
	"github.com/mwalther/equipcore/internal/database"
	"github.com/mwalther/equipcore/internal/models"
	"github.com/mwalther/equipcore/internal/services/assets"
	"github.com/mwalther/equipcore/internal/utils"
	ws "github.com/mwalther/equipcore/internal/websocket"
)

const testSecret = "test-secret"

type stubGenerator struct{}

func (stubGenerator) Receipt(data assets.DocumentData) ([]byte, error) {
	return []byte("%PDF-receipt " + data.Item.AssetTag), nil
}

func (stubGenerator) ReturnForm(data assets.DocumentData) ([]byte, error) {
	return []byte("%PDF-return " + data.Item.AssetTag), nil
}

func setupRouter(t *testing.T) (*Router, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "api.sqlite")
	gormDB, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.HistoryEvent{},
		&models.Document{},
		&models.Category{},
		&models.CompanySettings{},
		&models.RefreshToken{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	prober := assets.NewProber(gormDB, time.Minute)
	if !prober.EnsureAvailable(assets.HistoryReturnColumns) {
		t.Fatal("provisioning return columns failed")
	}
	prober.EnsureAvailable(assets.RefreshTokenColumns)

	cfg := &config.Config{AppEnv: "test", JWTSecret: testSecret}
	db := &database.DB{DB: gormDB}
	hub := ws.NewHub()
	svc := assets.NewService(gormDB, stubGenerator{}, hub)

	return NewRouter(cfg, db, svc, prober, hub), gormDB
}

func seedAccount(t *testing.T, db *gorm.DB, role string) (models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{
		ID:       uuid.NewString(),
		Username: role + "-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	token, _, err := utils.GenerateTokens(&user, testSecret)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return user, token
}

func doJSON(t *testing.T, router *Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func itemBody(serial string) map[string]interface{} {
	return map[string]interface{}{
		"category":     "Notebook",
		"type":         "Laptop",
		"manufacturer": "Lenovo",
		"model":        "X1",
		"serialNumber": serial,
		"purchaseDate": "2024-01-01T00:00:00Z",
		"warrantyEnd":  "2025-01-01T00:00:00Z",
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, "GET", "/api/items", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestItemLifecycleOverHTTP(t *testing.T) {
	router, db := setupRouter(t)
	_, adminToken := seedAccount(t, db, models.RoleAdmin)
	employee, _ := seedAccount(t, db, models.RoleProduct)

	// Preview the tag, then create.
	rec := doJSON(t, router, "GET", "/api/items/meta/next-asset-tag", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next-asset-tag status = %d: %s", rec.Code, rec.Body.String())
	}
	var preview map[string]string
	json.Unmarshal(rec.Body.Bytes(), &preview)
	if preview["nextAssetTag"] != "#000001" {
		t.Errorf("preview = %q, want #000001", preview["nextAssetTag"])
	}

	rec = doJSON(t, router, "POST", "/api/items", adminToken, itemBody("SN-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var item models.Item
	json.Unmarshal(rec.Body.Bytes(), &item)
	if item.AssetTag != "#000001" || item.Status != models.StatusAvailable {
		t.Fatalf("created item = %+v", item)
	}

	// Assign and download the receipt.
	rec = doJSON(t, router, "POST", "/api/items/"+item.ID+"/assign", adminToken,
		map[string]string{"userId": employee.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status = %d: %s", rec.Code, rec.Body.String())
	}
	var assignResp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &assignResp)
	if assignResp["documentId"] == "" {
		t.Fatal("no document ID returned")
	}

	rec = doJSON(t, router, "GET", "/api/documents/"+assignResp["documentId"]+"/download", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Errorf("document body = %q", rec.Body.String())
	}

	// Return, then verify history shape.
	rec = doJSON(t, router, "POST", "/api/items/"+item.ID+"/return", adminToken,
		map[string]interface{}{"notes": "ok"})
	if rec.Code != http.StatusOK {
		t.Fatalf("return status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/items/"+item.ID+"/history", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var events []models.HistoryEvent
	json.Unmarshal(rec.Body.Bytes(), &events)
	if len(events) != 3 {
		t.Fatalf("history length = %d, want 3", len(events))
	}

	// A second return conflicts: no active assignment.
	rec = doJSON(t, router, "POST", "/api/items/"+item.ID+"/return", adminToken, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("double return status = %d, want 409", rec.Code)
	}
}

func TestPermissionsOverHTTP(t *testing.T) {
	router, db := setupRouter(t)
	_, productToken := seedAccount(t, db, models.RoleProduct)

	rec := doJSON(t, router, "POST", "/api/items", productToken, itemBody("SN-1"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("create as product: status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/items/meta/next-asset-tag", productToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("preview as product: status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/items", productToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("list as product: status = %d, want 200", rec.Code)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	router, db := setupRouter(t)
	user, _ := seedAccount(t, db, models.RoleAdmin)

	rec := doJSON(t, router, "POST", "/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tokens map[string]string `json:"tokens"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Tokens["accessToken"] == "" || resp.Tokens["refreshToken"] == "" {
		t.Fatal("missing tokens in login response")
	}

	rec = doJSON(t, router, "POST", "/auth/refresh", "", map[string]string{
		"refreshToken": resp.Tokens["refreshToken"],
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}

	// Revoked tokens stop refreshing.
	rec = doJSON(t, router, "POST", "/auth/logout", "", map[string]string{
		"refreshToken": resp.Tokens["refreshToken"],
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = doJSON(t, router, "POST", "/auth/refresh", "", map[string]string{
		"refreshToken": resp.Tokens["refreshToken"],
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "nope",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}
