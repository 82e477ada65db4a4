package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rich-wisdom/SetList/internal/service"
	"github.com/rich-wisdom/SetList/pkg/response"
	"github.com/rich-wisdom/SetList/pkg/validator"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input service.RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var avatar *service.AvatarFile
	if fileHeader, err := c.FormFile("profile_image"); err == nil && fileHeader != nil {
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read profile image"})
			return
		}
		defer f.Close()
		avatar = &service.AvatarFile{Reader: f, FileName: fileHeader.Filename}
	}

	resp, err := h.service.Register(c.Request.Context(), input, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	tokenID := c.GetString("token_id")

	expiresAt := time.Now()
	if v, exists := c.Get("token_expires_at"); exists {
		if t, ok := v.(time.Time); ok {
			expiresAt = t
		}
	}

	if err := h.service.Logout(c.Request.Context(), tokenID, expiresAt); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, h.service.GoogleLogin())
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	resp, err := h.service.GoogleCallback(c.Request.Context(), code)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
