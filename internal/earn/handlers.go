package earn

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/vaultworks/mythicalvault/internal/ledger"
)

var engine *ledger.Engine

// Init builds the earning engine over the account store.
func Init(store ledger.Store) {
	engine = ledger.NewEngine(store, variantsFromEnv())
}

// variantsFromEnv overlays the configured ad-network URLs onto the default
// two-placement rotation. Rewards stay at their defaults (10 and 20 coins).
func variantsFromEnv() []ledger.AdVariant {
	variants := ledger.DefaultAdVariants()
	if u := os.Getenv("AD_URL_PRIMARY"); u != "" {
		variants[0].URL = u
	}
	if u := os.Getenv("AD_URL_SECONDARY"); u != "" {
		variants[1].URL = u
	}
	return variants
}

// NextAd returns the placement the next ad view will be scored against, so
// the client can open the right ad link before calling CompleteAd.
func NextAd(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	v := engine.NextVariant()
	return c.JSON(http.StatusOK, echo.Map{
		"variant": v.ID,
		"url":     v.URL,
		"reward":  v.Reward,
	})
}

// CompleteAd credits the caller for one finished ad view
func CompleteAd(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	v, balance, err := engine.CompleteAdView(context.Background(), uid)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	}
	if err != nil {
		// Nothing was credited; the client must revert its optimistic balance
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not credit coins"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"variant":  v.ID,
		"credited": v.Reward,
		"balance":  balance,
	})
}

// CompleteLink credits the fixed link-task reward. The reward page calls this
// once after the external redirect confirms completion.
func CompleteLink(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	credited, balance, err := engine.CompleteLinkTask(context.Background(), uid)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not credit coins"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"credited": credited,
		"balance":  balance,
	})
}
