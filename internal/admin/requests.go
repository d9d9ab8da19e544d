package admin

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaultworks/mythicalvault/internal/alerts"
	"github.com/vaultworks/mythicalvault/internal/ledger"
	"github.com/vaultworks/mythicalvault/internal/messaging"
)

var (
	store    ledger.Store
	workflow *ledger.Workflow
)

// Init wires the admin handlers to the store.
func Init(s ledger.Store) {
	store = s
	workflow = ledger.NewWorkflow(s)
}

// GET /admin/requests?status=pending|completed
func ListRequests(c echo.Context) error {
	status := ledger.RequestStatus(c.QueryParam("status"))
	if status == "" {
		status = ledger.StatusPending
	}
	if status != ledger.StatusPending && status != ledger.StatusCompleted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending or completed"})
	}

	requests, err := workflow.ListRequests(context.Background(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

type ProcessRequestBody struct {
	FulfillmentCode string `json:"fulfillment_code"`
}

// POST /admin/requests/:id/process
func ProcessRequest(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "request id required"})
	}

	body := new(ProcessRequestBody)
	if err := c.Bind(body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	completed, err := workflow.ProcessRequest(context.Background(), requestID, body.FulfillmentCode)
	if err != nil {
		var verr *ledger.ValidationError
		switch {
		case errors.Is(err, ledger.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, ledger.ErrAlreadyCompleted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "request already completed"})
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "field": verr.Field})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not process request"})
		}
	}

	// Completing only records fulfillment; the reward itself goes out through
	// the mail queue for google_play codes and manually for upi payouts.
	if completed.Kind == ledger.KindGooglePlay {
		if err := alerts.EnqueueRedemptionFulfilled(completed); err != nil {
			log.Printf("[admin] fulfillment email enqueue failed for request %s: %v", completed.ID, err)
		}
	}
	messaging.BroadcastRedemptionCompleted(completed)

	return c.JSON(http.StatusOK, echo.Map{"request": completed})
}
