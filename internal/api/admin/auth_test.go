package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/auth"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

func newTestTokenService(t *testing.T) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(auth.Config{
		Secret:     "test-secret-test-secret-test-secret!",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func userColumns() []string {
	return []string{"id", "username", "full_name", "password_hash", "role", "active", "created_at", "updated_at", "last_login_at"}
}

func TestLoginHandler_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword("parol123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("aziza").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("user-1", "aziza", "Aziza Karimova", hash, models.RoleManager, true, now, now, nil))
	mock.ExpectExec("UPDATE users SET last_login_at").
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tokens := newTestTokenService(t)
	router := gin.New()
	router.POST("/auth/login", NewAuthHandlers(db, tokens).LoginHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username": "aziza", "password": "parol123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			User   models.User    `json:"user"`
			Tokens auth.TokenPair `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.Data.User.Username != "aziza" {
		t.Errorf("username = %q, want aziza", resp.Data.User.Username)
	}
	if resp.Data.Tokens.AccessToken == "" || resp.Data.Tokens.RefreshToken == "" {
		t.Error("expected a full token pair")
	}

	claims, err := tokens.ValidateAccessToken(resp.Data.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not validate: %v", err)
	}
	if claims.Role != models.RoleManager {
		t.Errorf("role = %q, want %q", claims.Role, models.RoleManager)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	hash, _ := auth.HashPassword("parol123")
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("user-1", "aziza", "Aziza Karimova", hash, models.RoleManager, true, now, now, nil))

	router := gin.New()
	router.POST("/auth/login", NewAuthHandlers(db, newTestTokenService(t)).LoginHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username": "aziza", "password": "xato"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLoginHandler_InactiveUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	hash, _ := auth.HashPassword("parol123")
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("user-1", "aziza", "Aziza Karimova", hash, models.RoleManager, false, now, now, nil))

	router := gin.New()
	router.POST("/auth/login", NewAuthHandlers(db, newTestTokenService(t)).LoginHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username": "aziza", "password": "parol123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLoginHandler_UnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	router := gin.New()
	router.POST("/auth/login", NewAuthHandlers(db, newTestTokenService(t)).LoginHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username": "yoq", "password": "parol123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLoginHandler_MissingFields(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	router := gin.New()
	router.POST("/auth/login", NewAuthHandlers(db, newTestTokenService(t)).LoginHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username": "aziza"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRefreshHandler_RotatesPair(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	tokens := newTestTokenService(t)
	pair, err := tokens.GenerateTokenPair("user-1", "aziza", models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	router := gin.New()
	router.POST("/auth/refresh", NewAuthHandlers(db, tokens).RefreshHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh",
		strings.NewReader(`{"refreshToken": "`+pair.RefreshToken+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := tokens.ValidateAccessToken(resp.Data.AccessToken); err != nil {
		t.Errorf("rotated access token does not validate: %v", err)
	}
}

func TestRefreshHandler_RejectsAccessToken(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	tokens := newTestTokenService(t)
	pair, err := tokens.GenerateTokenPair("user-1", "aziza", models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	router := gin.New()
	router.POST("/auth/refresh", NewAuthHandlers(db, tokens).RefreshHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh",
		strings.NewReader(`{"refreshToken": "`+pair.AccessToken+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestMeHandler(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("user-1", "aziza", "Aziza Karimova", "hash", models.RoleManager, true, now, now, &now))

	router := gin.New()
	router.GET("/auth/me", asUser("user-1", "aziza"), NewAuthHandlers(db, newTestTokenService(t)).MeHandler())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"username":"aziza"`) {
		t.Errorf("body missing user: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "hash") {
		t.Error("password hash leaked into the response")
	}
}
