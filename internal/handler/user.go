package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
)

// UserHandler lets admins list accounts and switch them on or off.
type UserHandler struct {
	Users UserStore
	Log   *zap.Logger
}

func NewUserHandler(u UserStore, log *zap.Logger) *UserHandler {
	return &UserHandler{Users: u, Log: log.Named("users")}
}

// List returns every account, oldest first.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("list users", zap.Error(err))
		return serverError(c, "list users failed")
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type activeReq struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SetActive enables or disables an account.  Admins cannot disable
// themselves.
func (h *UserHandler) SetActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req activeReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if self, _ := getUserID(c); self == id && !*req.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate your own account"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Users.SetActive(ctx, id, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound(c, "user")
		}
		h.Log.Error("set active", zap.Uint64("user_id", id), zap.Error(err))
		return serverError(c, "update user failed")
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return serverError(c, "load user failed")
	}
	h.Log.Info("account status changed", zap.Uint64("user_id", id), zap.Bool("active", u.IsActive))
	return c.JSON(http.StatusOK, u)
}
