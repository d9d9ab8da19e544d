package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaultworks/mythicalvault/internal/ledger"
)

// GET /admin/users
func ListUsers(c echo.Context) error {
	accounts, err := store.ListAccounts(context.Background())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch accounts"})
	}
	return c.JSON(http.StatusOK, echo.Map{"accounts": accounts})
}

type CreateUserRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	InitialBalance int64  `json:"initial_balance"`
	IsAdmin        bool   `json:"is_admin"`
}

// POST /admin/users
func CreateUser(c echo.Context) error {
	req := new(CreateUserRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username is required"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}
	if req.InitialBalance < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "initial balance cannot be negative"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	account, err := store.CreateAccount(context.Background(), req.Username, string(hashed), req.InitialBalance, req.IsAdmin)
	if errors.Is(err, ledger.ErrDuplicateUsername) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "account creation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"account": account})
}
