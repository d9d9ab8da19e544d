package redeem

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vaultworks/mythicalvault/internal/alerts"
	"github.com/vaultworks/mythicalvault/internal/ledger"
	"github.com/vaultworks/mythicalvault/internal/messaging"
)

var (
	store    ledger.Store
	workflow *ledger.Workflow
	cost     int64
)

// Init wires the redemption workflow. The coin cost of a redemption is a
// configured constant, independent of whatever reward copy the UI shows.
func Init(s ledger.Store) {
	store = s
	workflow = ledger.NewWorkflow(s)
	cost = ledger.DefaultRedeemCost
	if v := os.Getenv("REDEEM_COST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cost = n
		}
	}
}

type CreateRequest struct {
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
}

// Create submits a redemption request for the authenticated user and debits
// the redemption cost from their balance.
func Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	created, err := workflow.CreateRequest(context.Background(), uid, ledger.RequestKind(req.Kind), req.Recipient, cost)
	if err != nil {
		var verr *ledger.ValidationError
		var pf *ledger.PartialFailure
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "field": verr.Field})
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("you need %d coins to redeem", cost)})
		case errors.Is(err, ledger.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		case errors.As(err, &pf):
			// The request exists but the coins were never removed. Flag it
			// for operator reconciliation; never present it as a plain error.
			log.Printf("[redeem][RECONCILE] %v", pf)
			_ = alerts.EnqueueOperatorAlert(pf.RequestID,
				fmt.Sprintf("redemption request %s was created but the debit of %d coins failed: %v", pf.RequestID, cost, pf.Err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":      "your request was recorded but your balance failed to update; support has been notified",
				"request_id": pf.RequestID,
			})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit redemption request"})
		}
	}

	messaging.BroadcastRedemptionCreated(created)

	return c.JSON(http.StatusCreated, echo.Map{
		"request": created,
		"message": "request submitted; rewards are processed manually within 24 hours",
	})
}

// MyRequests returns the caller's redemption history, newest first
func MyRequests(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	requests, err := store.ListRequestsByAccount(context.Background(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests, "cost": cost})
}
