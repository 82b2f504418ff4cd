package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/utils"
)

var errInvalidCredentials = errors.New("invalid credentials")

type UserController struct {
	DB       *gorm.DB
	TokenTTL time.Duration
}

func NewUserController(db *gorm.DB, tokenTTL time.Duration) *UserController {
	return &UserController{DB: db, TokenTTL: tokenTTL}
}

// CreateUser adds a back-office account. Only admins reach this handler.
func (uc *UserController) CreateUser(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required,oneof=admin supervisor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Name:     utils.CleanText(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     req.Role,
	}

	if err := uc.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, http.StatusConflict, errors.New("email already registered"))
			return
		}
		utils.ErrorLogger.Printf("Error creating user: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
		return
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Email, user.Role)
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

// Login exchanges credentials for a JWT.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := uc.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, uc.TokenTTL)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Email, user.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": user.Role,
	})
}

// Logout revokes the bearer token used for this request.
func (uc *UserController) Logout(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	expiresAt := time.Now().Add(uc.TokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.RevokeToken(tokenString, expiresAt)

	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", user)
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.WithContext(c.Request.Context()).Order("id ASC").Find(&users).Error; err != nil {
		utils.ErrorLogger.Printf("Error listing users: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Users retrieved", users)
}
