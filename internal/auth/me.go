package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaultworks/mythicalvault/internal/ledger"
)

// Me returns the authenticated account with its live coin balance, so the
// client can reconcile any optimistic balance it is holding.
func Me(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	account, err := store.GetAccount(context.Background(), uid)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch account"})
	}

	return c.JSON(http.StatusOK, account)
}
