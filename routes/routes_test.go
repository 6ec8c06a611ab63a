package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/config"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/services"
	"github.com/maskyy/caketruth/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := config.OpenDB(config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	require.NoError(t, config.Seed(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	tokens := &utils.TokenIssuer{Secret: []byte("test"), TTL: time.Hour}
	hub := services.NewRealtimeHub()
	notifier := services.NewNotifier(db, hub, nil)
	r := SetupRouter(Deps{
		Tokens:    tokens,
		Auth:      services.NewAuthService(db, tokens),
		Users:     services.NewUserService(db),
		Catalog:   services.NewCatalogService(db, notifier),
		Taxonomy:  services.NewTaxonomyService(db),
		Meals:     services.NewMealService(db),
		Diary:     services.NewDiaryService(db, notifier),
		Analytics: services.NewAnalyticsService(db),
		Realtime:  hub,
	})
	return &testAPI{t: t, db: db, router: r}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

// signup registers and logs in a user, optionally promoting them first.
func (a *testAPI) signup(name string, role models.RoleID) (string, uint) {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": name + "@example.com", "username": name, "password": "pw-" + name, "password_confirm": "pw-" + name,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(body["id"].(float64))
	if role != models.RoleUser {
		require.NoError(a.t, a.db.Model(&models.User{}).Where("id = ?", id).Update("role_id", role).Error)
	}
	w, body = a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": name + "@example.com", "password": "pw-" + name})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string), id
}

func (a *testAPI) product(token, name string, calories float64) uint {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/products", token, gin.H{
		"name": name, "calories": calories, "proteins": 10, "fats": 5, "carbs": 20, "ethanol": 0,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(body["id"].(float64))
}

func TestCatalogAndDiaryFlow(t *testing.T) {
	api := newTestAPI(t)
	alice, _ := api.signup("alice", models.RoleUser)
	bob, _ := api.signup("bob", models.RoleUser)

	a := api.product(alice, "A", 200)
	b := api.product(alice, "B", 100)

	w, recipe := api.do(http.MethodPost, "/api/recipes", alice, gin.H{
		"name": "Mix", "directions": "Stir.", "mass": 100,
		"products": []gin.H{{"product": a, "mass": 50}, {"product": b, "mass": 50}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 150.0, recipe["calories"])
	recipeID := uint(recipe["id"].(float64))

	w, body := api.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d", recipeID), bob, gin.H{"name": "Stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "cannot change other users' recipes", body["error"])

	w, body = api.do(http.MethodPost, "/api/recipes", alice, gin.H{
		"name": "Dup", "directions": "x", "mass": 100,
		"products": []gin.H{{"product": a, "mass": 50}, {"product": a, "mass": 30}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["errors"], "products")

	w, meal := api.do(http.MethodPost, "/api/meals", bob, gin.H{"name": "Dinner"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, body = api.do(http.MethodPost, "/api/diary", alice, gin.H{"meal": meal["id"], "food": recipeID, "mass": 200})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"meal": []any{"cannot use other users' meals"}}, body["errors"])

	w, entry := api.do(http.MethodPost, "/api/diary", alice, gin.H{"food": recipeID, "mass": 200})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 300.0, entry["calc_calories"])
	assert.NotContains(t, entry, "food")
	assert.NotContains(t, entry, "product")
	require.Contains(t, entry, "recipe")

	w, _ = api.do(http.MethodGet, fmt.Sprintf("/api/diary/%v", entry["id"]), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnonymousAccess(t *testing.T) {
	api := newTestAPI(t)
	alice, _ := api.signup("alice", models.RoleUser)
	id := api.product(alice, "A", 200)

	w, _ := api.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, body := api.do(http.MethodGet, fmt.Sprintf("/api/products/%d", id), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A", body["name"])

	w, _ = api.do(http.MethodPost, "/api/products", "", gin.H{"name": "B"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = api.do(http.MethodGet, "/api/diary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = api.do(http.MethodGet, "/api/products/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaxonomyAndUserRoutes(t *testing.T) {
	api := newTestAPI(t)
	user, uid := api.signup("carol", models.RoleUser)
	mod, _ := api.signup("dave", models.RoleModerator)

	w, _ := api.do(http.MethodPost, "/api/product-brands", user, gin.H{"title": "Acme"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, brand := api.do(http.MethodPost, "/api/product-brands", mod, gin.H{"title": "Acme"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Acme", brand["title"])

	w, body := api.do(http.MethodPost, "/api/recipe-categories", mod, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"title": []any{"this field is required"}}, body["errors"])

	w, me := api.do(http.MethodGet, "/api/users/me", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, uid, me["id"])

	w, body = api.do(http.MethodPatch, fmt.Sprintf("/api/users/%d", uid), mod, gin.H{"blocked_until": "2099-01-01T00:00:00Z"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2099-01-01T00:00:00Z", body["blocked_until"])

	w, _ = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "carol@example.com", "password": "pw-carol"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "carol@example.com", "username": "carol2", "password": "x", "password_confirm": "x",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = api.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["errors"], "email")
	assert.Contains(t, body["errors"], "username")
}

func TestDiarySummaryRoute(t *testing.T) {
	api := newTestAPI(t)
	alice, _ := api.signup("alice", models.RoleUser)
	p := api.product(alice, "A", 200)

	w, _ := api.do(http.MethodPost, "/api/diary", alice, gin.H{"food": p, "mass": 50, "added_date": "2024-05-01T12:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body := api.do(http.MethodGet, "/api/diary-summary?from=2024-05-01&to=2024-05-02", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	days := body["days"].([]any)
	require.Len(t, days, 2)
	assert.Equal(t, 100.0, days[0].(map[string]any)["calories"])

	w, _ = api.do(http.MethodGet, "/api/diary-summary?from=yesterday", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
