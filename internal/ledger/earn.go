package ledger

import (
	"context"
	"sync"
)

// AdVariant is one ad placement in the earn rotation.
type AdVariant struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Reward int64  `json:"reward"`
}

// LinkTaskReward is credited once the external link task redirects back.
const LinkTaskReward = 10

// DefaultAdVariants mirrors the two alternating placements on the earn page:
// the first pays 10 coins, the second 20. URLs are filled in from config.
func DefaultAdVariants() []AdVariant {
	return []AdVariant{
		{ID: "placement_a", Reward: 10},
		{ID: "placement_b", Reward: 20},
	}
}

// Engine applies the reward schedule and credits accounts through the store.
// It keeps no per-account state; its only state is the rotation cursor over
// ad variants. It does not prevent duplicate credits for a single ad view —
// there is no server-side proof an ad was actually watched.
type Engine struct {
	store    Store
	variants []AdVariant

	mu   sync.Mutex
	next int
}

func NewEngine(store Store, variants []AdVariant) *Engine {
	if len(variants) == 0 {
		variants = DefaultAdVariants()
	}
	return &Engine{store: store, variants: variants}
}

// NextVariant returns the placement the next ad view will be scored against,
// without advancing the rotation.
func (e *Engine) NextVariant() AdVariant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.variants[e.next]
}

// CompleteAdView credits the account for one ad view. Successive calls rotate
// round-robin over the configured variants, so repeated use exposes every
// placement. On store failure nothing is credited, the placement is not
// consumed, and the error is returned so the caller can revert any optimistic
// balance it is showing.
func (e *Engine) CompleteAdView(ctx context.Context, accountID string) (AdVariant, int64, error) {
	e.mu.Lock()
	idx := e.next
	v := e.variants[idx]
	e.mu.Unlock()

	balance, err := e.store.Credit(ctx, accountID, v.Reward)
	if err != nil {
		return AdVariant{}, 0, err
	}

	// Advance only once the credit lands; a failed view is retried against
	// the same placement.
	e.mu.Lock()
	e.next = (idx + 1) % len(e.variants)
	e.mu.Unlock()

	return v, balance, nil
}

// CompleteLinkTask credits the fixed link-task reward. It is meant to be
// called once by the redirect landing page after the external task confirms.
func (e *Engine) CompleteLinkTask(ctx context.Context, accountID string) (int64, int64, error) {
	balance, err := e.store.Credit(ctx, accountID, LinkTaskReward)
	if err != nil {
		return 0, 0, err
	}
	return LinkTaskReward, balance, nil
}
