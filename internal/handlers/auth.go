package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scribemarket/api/internal/models"
	"scribemarket/api/internal/routes"
	"scribemarket/api/internal/session"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	// From is the guarded path the visitor was originally headed to.
	From string `json:"from"`
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
	FullName string `json:"fullName" binding:"required"`
}

type resetRequest struct {
	Email string `json:"email" binding:"required"`
}

type identityResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FullName  string `json:"fullName"`
	CreatedAt string `json:"createdAt"`
}

func toIdentityResponse(identity *models.Identity) identityResponse {
	return identityResponse{
		ID:        identity.ID,
		Email:     identity.Email,
		Role:      string(identity.Role),
		FullName:  identity.FullName,
		CreatedAt: identity.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *HandlerSet) UserSignIn(c *gin.Context)        { h.signIn(c, h.userStore) }
func (h *HandlerSet) AdminSignIn(c *gin.Context)       { h.signIn(c, h.adminStore) }
func (h *HandlerSet) UserSignUp(c *gin.Context)        { h.signUp(c, h.userStore) }
func (h *HandlerSet) AdminSignUp(c *gin.Context)       { h.signUp(c, h.adminStore) }
func (h *HandlerSet) UserSignOut(c *gin.Context)       { h.signOut(c, h.userStore) }
func (h *HandlerSet) AdminSignOut(c *gin.Context)      { h.signOut(c, h.adminStore) }
func (h *HandlerSet) UserResetPassword(c *gin.Context) { h.resetPassword(c, h.userStore) }
func (h *HandlerSet) AdminResetPassword(c *gin.Context) {
	h.resetPassword(c, h.adminStore)
}

func (h *HandlerSet) signIn(c *gin.Context, store *session.Store) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := store.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		status, code := authErrorStatus(err)
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}

	identity := store.Identity()
	redirect := req.From
	if redirect == "" {
		redirect = routes.HomePath(identity.Role)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     toIdentityResponse(identity),
		"redirect": redirect,
	})
}

func (h *HandlerSet) signUp(c *gin.Context, store *session.Store) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := store.SignUp(c.Request.Context(), session.SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
		FullName: req.FullName,
	})
	if err != nil {
		status, code := authErrorStatus(err)
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}

	// No session yet: the account needs email verification first.
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully! Please check your email to verify your account.",
	})
}

func (h *HandlerSet) signOut(c *gin.Context, store *session.Store) {
	if err := store.SignOut(c.Request.Context()); err != nil {
		// Local state is already cleared; report but do not block.
		c.JSON(http.StatusOK, gin.H{
			"signedOut": true,
			"warning":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signedOut": true})
}

func (h *HandlerSet) resetPassword(c *gin.Context, store *session.Store) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := store.ResetPassword(c.Request.Context(), req.Email); err != nil {
		status, code := authErrorStatus(err)
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset instructions have been sent to your email.",
	})
}

func authErrorStatus(err error) (int, string) {
	var (
		valErr  *session.ValidationError
		authErr *session.AuthenticationError
		roleErr *session.UnauthorizedRoleError
		regErr  *session.RegistrationError
	)
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest, "validation_failed"
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, "authentication_failed"
	case errors.As(err, &roleErr):
		return http.StatusForbidden, "unauthorized_role"
	case errors.As(err, &regErr):
		return http.StatusConflict, "registration_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
