package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaultworks/mythicalvault/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var accounts, pending, completed int
	var coinsOutstanding, coinsRedeemed int64

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&accounts)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM redemption_requests WHERE status = 'pending'`).Scan(&pending)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM redemption_requests WHERE status = 'completed'`).Scan(&completed)
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(coin_balance), 0) FROM accounts`).Scan(&coinsOutstanding)
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM redemption_requests WHERE status = 'completed'`).Scan(&coinsRedeemed)

	return c.JSON(http.StatusOK, echo.Map{
		"accounts":           accounts,
		"pending_requests":   pending,
		"completed_requests": completed,
		"coins_outstanding":  coinsOutstanding,
		"coins_redeemed":     coinsRedeemed,
	})
}
