package Controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/shopfloor-app/controllers"
	"github.com/yeremiapane/shopfloor-app/database"
	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/utils"
)

func setupUserRouter(t *testing.T) *gin.Engine {
	db := setupTestDB(t)
	require.NoError(t, database.SeedAdmin(db, "admin@example.com", "password123"))

	userCtrl := controllers.NewUserController(db, time.Hour)
	router := gin.New()
	router.POST("/login", userCtrl.Login)
	router.POST("/users", userCtrl.CreateUser)
	router.GET("/users", userCtrl.GetAllUsers)
	router.GET("/profile", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		userCtrl.GetProfile(c)
	})
	return router
}

func TestLoginIssuesToken(t *testing.T) {
	router := setupUserRouter(t)

	w, resp := performJSON(t, router, "POST", "/login", map[string]string{
		"email":    "Admin@Example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Status)

	var data struct {
		Token    string `json:"token"`
		UserRole string `json:"user_role"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, models.RoleAdmin, data.UserRole)

	claims, err := utils.ParseToken(data.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router := setupUserRouter(t)

	w, resp := performJSON(t, router, "POST", "/login", map[string]string{
		"email":    "admin@example.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Status)
}

func TestCreateUser(t *testing.T) {
	router := setupUserRouter(t)

	payload := map[string]string{
		"name":     "Line Supervisor",
		"email":    "sup@example.com",
		"password": "password123",
		"role":     models.RoleSupervisor,
	}
	w, resp := performJSON(t, router, "POST", "/users", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, string(resp.Data), "password")

	w, _ = performJSON(t, router, "POST", "/users", payload)
	assert.Equal(t, http.StatusConflict, w.Code)

	payload["email"] = "other@example.com"
	payload["role"] = "chef"
	w, _ = performJSON(t, router, "POST", "/users", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = performJSON(t, router, "GET", "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(resp.Data, &users))
	assert.Len(t, users, 2)
}

func TestGetProfile(t *testing.T) {
	router := setupUserRouter(t)

	w, resp := performJSON(t, router, "GET", "/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	assert.Equal(t, "admin@example.com", user.Email)
}
