package orderstatus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
	"github.com/farmstandhq/farmstand-backend/pkg/types"
)

const (
	// DefaultTTL bounds how long an override masks the authoritative status.
	DefaultTTL = 5 * time.Minute

	// DefaultPersistDebounce batches rapid recordings into one snapshot write.
	DefaultPersistDebounce = 2 * time.Second
)

// Overlay masks read-after-write staleness for order status. A status
// change is recorded here the moment the write succeeds; reads overlay the
// recorded status onto fetched orders until the entry expires or the
// authoritative read catches up.
//
// Keys are orderId, or orderId::farmerEmail when the change is scoped to
// one farmer of a multi-farmer order.
type Overlay struct {
	mu       sync.Mutex
	entries  map[string]Entry
	ttl      time.Duration
	debounce time.Duration
	now      func() time.Time
	store    Store
	logg     *logger.Logger
	timer    *time.Timer
}

// Option adjusts overlay construction.
type Option func(*Overlay)

// WithTTL overrides the expiry window.
func WithTTL(ttl time.Duration) Option {
	return func(o *Overlay) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithPersistDebounce overrides the snapshot debounce interval.
func WithPersistDebounce(debounce time.Duration) Option {
	return func(o *Overlay) {
		if debounce > 0 {
			o.debounce = debounce
		}
	}
}

// WithClock injects the time source, so expiry is testable without timers.
func WithClock(now func() time.Time) Option {
	return func(o *Overlay) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOverlay builds an overlay seeded from the store's last snapshot.
// Expired snapshot entries are dropped on load.
func NewOverlay(ctx context.Context, store Store, logg *logger.Logger, opts ...Option) (*Overlay, error) {
	if store == nil {
		return nil, fmt.Errorf("overlay requires a store")
	}
	if logg == nil {
		return nil, fmt.Errorf("overlay requires a logger")
	}

	o := &Overlay{
		entries:  map[string]Entry{},
		ttl:      DefaultTTL,
		debounce: DefaultPersistDebounce,
		now:      time.Now,
		store:    store,
		logg:     logg,
	}
	for _, opt := range opts {
		opt(o)
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for key, entry := range snapshot {
		if !o.expired(entry) {
			o.entries[key] = entry
		}
	}
	return o, nil
}

// Record stores an override for the order, scoped to the farmer when given.
// The write is mirrored to the store after a debounce.
func (o *Overlay) Record(orderID uuid.UUID, status enums.OrderStatus, farmerEmail string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry := Entry{Status: status, RecordedAt: o.now()}
	o.entries[overrideKey(orderID, farmerEmail)] = entry

	o.pruneLocked()
	o.schedulePersistLocked()
}

// Get looks up the unexpired override for the order, composite key first,
// falling back to the bare order key.
func (o *Overlay) Get(orderID uuid.UUID, farmerEmail string) (enums.OrderStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lookupLocked(orderID, farmerEmail)
}

// Apply overlays recorded statuses onto the fetched orders without mutating
// them. When a farmer key is given, that farmer's entry in the per-farmer
// status map is patched; the top-level status is overwritten too unless the
// order is mixed, where the other farmers' statuses still count. Orders
// without a matching unexpired override pass through unchanged.
func (o *Overlay) Apply(orders []models.Order, farmerEmail string) []models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]models.Order, len(orders))
	for i := range orders {
		order := orders[i]

		status, ok := o.lookupLocked(order.ID, farmerEmail)
		if !ok {
			out[i] = order
			continue
		}

		patchedFarmer := false
		if farmerEmail != "" && order.FarmerStatuses != nil {
			statuses := order.FarmerStatuses.Clone()
			statuses.Set(farmerEmail, status)
			order.FarmerStatuses = statuses
			patchedFarmer = true
		}
		if order.Status != enums.OrderStatusMixed || !patchedFarmer {
			order.Status = status
		}
		out[i] = order
	}
	return out
}

// Clear drops every override, in memory and in the store.
func (o *Overlay) Clear(ctx context.Context) error {
	o.mu.Lock()
	o.entries = map[string]Entry{}
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.mu.Unlock()
	return o.store.Clear(ctx)
}

// Flush persists the current snapshot immediately, dropping expired
// entries. Called on shutdown and from tests.
func (o *Overlay) Flush(ctx context.Context) error {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.pruneLocked()
	snapshot := make(map[string]Entry, len(o.entries))
	for k, v := range o.entries {
		snapshot[k] = v
	}
	o.mu.Unlock()

	return o.store.Persist(ctx, snapshot)
}

func (o *Overlay) lookupLocked(orderID uuid.UUID, farmerEmail string) (enums.OrderStatus, bool) {
	if farmerEmail != "" {
		if entry, ok := o.entries[overrideKey(orderID, farmerEmail)]; ok && !o.expired(entry) {
			return entry.Status, true
		}
	}
	if entry, ok := o.entries[overrideKey(orderID, "")]; ok && !o.expired(entry) {
		return entry.Status, true
	}
	return "", false
}

func (o *Overlay) expired(entry Entry) bool {
	return o.now().Sub(entry.RecordedAt) > o.ttl
}

func (o *Overlay) pruneLocked() {
	for key, entry := range o.entries {
		if o.expired(entry) {
			delete(o.entries, key)
		}
	}
}

func (o *Overlay) schedulePersistLocked() {
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.debounce, func() {
		if err := o.Flush(context.Background()); err != nil {
			o.logg.Error(context.Background(), "persisting order status overrides", err)
		}
	})
}

func overrideKey(orderID uuid.UUID, farmerEmail string) string {
	if farmerEmail == "" {
		return orderID.String()
	}
	return orderID.String() + "::" + types.NormalizeEmail(farmerEmail)
}
