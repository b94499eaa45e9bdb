package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register — POST /auth/register {email, password} → 201 {id, email}.
func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, "Register", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// token — POST /auth/token. Форма username/password (OAuth2 password flow) или JSON {email, password}.
func (h *Handler) token(c *gin.Context) {
	var req credentialsRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			badBody(c, err)
			return
		}
	} else {
		req.Email = c.PostForm("username")
		req.Password = c.PostForm("password")
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}
