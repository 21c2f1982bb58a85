package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NordCoder/checkin/internal/domain/user"
	"github.com/NordCoder/checkin/internal/services/api-gateway/auth"
	"github.com/NordCoder/checkin/internal/services/api-gateway/status"
)

type StatusService interface {
	Status(ctx context.Context, q status.Query) (status.Result, error)
}

type Authenticator interface {
	TokenParser
	SignIn(ctx context.Context, email, password string) (*user.User, string, error)
}

type statusQuery struct {
	Limit *int `form:"limit" binding:"omitempty,min=1,max=50"`
	Hours *int `form:"hours" binding:"omitempty,min=1,max=720"`
}

func (h *handlers) reminderStatus(c *gin.Context) {
	var q statusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, validationError(bindingMessage(err, "limit must be an integer 1-50 and hours an integer 1-720")))
		return
	}
	query := status.Query{UserID: c.GetString(ctxUserID), Limit: status.DefaultLimit, Hours: status.DefaultHours}
	if q.Limit != nil {
		query.Limit = *q.Limit
	}
	if q.Hours != nil {
		query.Hours = *q.Hours
	}

	res, err := h.status.Status(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// runReminders executes one dispatch batch. Per-user failures are part of the summary.
func (h *handlers) runReminders(c *gin.Context) {
	sum, err := h.jobs.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validationError(bindingMessage(err, "malformed login request")))
		return
	}
	_, token, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(c, unauthorized("invalid email or password"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{AccessToken: token})
}
