// Package catalog owns the client's product list: fetching it, filtering it,
// marking favorites and submitting new products.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
	"product-catalog-client/internal/store"
	"product-catalog-client/internal/transport"
	"product-catalog-client/internal/validation"
)

// TopicStateChanged is published on the coordinator's bus with a State after every change.
const TopicStateChanged = "catalog:state-changed"

// Remote is the catalog API as the coordinator uses it. *transport.Client implements it.
type Remote interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SubmitProduct(ctx context.Context, sr transport.SubmitRequest) (*domain.AddProductResult, error)
}

// Options tunes coordinator behaviour.
type Options struct {
	// PersistSubmissions records every accepted submission in the local store.
	PersistSubmissions bool
}

// Coordinator is the single owner of the authoritative product list and the
// observable state. All state mutations happen under mu; network calls run in
// their own goroutines and hand their results back through finish* methods.
type Coordinator struct {
	remote    Remote
	store     store.LocalStore
	validator *validation.Validator
	bus       EventBus.Bus
	logger    *zap.Logger
	opts      Options

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	all        []domain.Product
	state      State
	refreshSeq uint64
	submitting int
	closed     bool

	// pubMu orders deliveries; published is the newest version handed to the bus.
	pubMu     sync.Mutex
	published uint64
}

// New creates a coordinator in the Idle state with an empty list and a fresh draft.
func New(remote Remote, local store.LocalStore, opts Options, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		remote:    remote,
		store:     local,
		validator: validation.New(),
		bus:       EventBus.New(),
		logger:    logger.Named("catalog"),
		opts:      opts,
		root:      root,
		cancel:    cancel,
		state: State{
			Status:   StatusIdle,
			Products: []domain.Product{},
			Draft:    domain.NewDraft(),
		},
	}
}

// Snapshot returns a copy of the current observable state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive new States. Handlers see strictly increasing
// versions: a state committed before one already delivered is skipped, so the last
// state a handler sees is always the newest. Handlers run synchronously on the
// goroutine that changed the state, while the bus is locked: they must not block
// and must not call methods that change the state.
// The returned function removes the subscription.
func (c *Coordinator) Subscribe(fn func(State)) (func(), error) {
	if err := c.bus.Subscribe(TopicStateChanged, fn); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "catalog: subscribe")
	}
	return func() {
		_ = c.bus.Unsubscribe(TopicStateChanged, fn)
	}, nil
}

// Refresh starts fetching the catalog and returns immediately.
// The fetch is abandoned when ctx or the coordinator is canceled. Only the most
// recently started fetch may change the state; earlier completions are dropped.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.refreshSeq++
	seq := c.refreshSeq
	c.state.Status = StatusLoading
	c.state.IsLoading = true
	c.clearMessagesLocked()
	c.wg.Add(1)
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)

	runCtx, cancel := c.operationContext(ctx)
	go func() {
		defer c.wg.Done()
		defer cancel()

		c.logger.Debug("refresh started", zap.Uint64("seq", seq))
		products, err := c.remote.ListProducts(runCtx)
		c.finishRefresh(seq, products, err)
	}()
}

func (c *Coordinator) finishRefresh(seq uint64, products []domain.Product, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if seq != c.refreshSeq {
		c.mu.Unlock()
		c.logger.Debug("stale refresh discarded", zap.Uint64("seq", seq))
		return
	}

	c.state.IsLoading = false
	c.clearMessagesLocked()
	if err != nil {
		// The previous list stays visible.
		c.state.Status = StatusFailed
		c.state.ErrorMessage = domainerrors.UserMessage(err)
		c.logger.Warn("refresh failed", zap.Uint64("seq", seq), zap.Error(err))
	} else {
		c.all = products
		c.state.Status = StatusLoaded
		c.state.SuccessMessage = fmt.Sprintf("Loaded %d products", len(products))
		c.logger.Info("refresh completed", zap.Uint64("seq", seq), zap.Int("count", len(products)))
	}
	c.reprojectLocked()
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)
}

// SetSearchText changes the filter applied to the visible projection.
func (c *Coordinator) SetSearchText(text string) {
	c.mu.Lock()
	c.state.SearchText = text
	c.reprojectLocked()
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)
}

// ToggleFavorite flips the favorite flag of the product with the given id.
// It reports whether such a product exists; an unknown id changes nothing.
func (c *Coordinator) ToggleFavorite(productID string) bool {
	c.mu.Lock()
	idx := -1
	for i := range c.all {
		if c.all[i].ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}

	c.all[idx].IsFavorite = !c.all[idx].IsFavorite
	c.reprojectLocked()
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)
	return true
}

// Products returns a copy of the authoritative list in fetch order.
func (c *Coordinator) Products() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Product, len(c.all))
	copy(out, c.all)
	return out
}

// Wait blocks until every refresh and submission started so far has completed.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight work and waits for it to unwind.
// Results that arrive after Close are dropped.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.logger.Debug("coordinator closed")
	return nil
}

// operationContext derives the context of one async unit: it ends when the caller's
// ctx ends or when the coordinator is closed, whichever comes first.
func (c *Coordinator) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(c.root)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (c *Coordinator) reprojectLocked() {
	c.state.Products = Project(c.all, c.state.SearchText)
}

func (c *Coordinator) clearMessagesLocked() {
	c.state.ErrorMessage = ""
	c.state.SuccessMessage = ""
}

// commitLocked bumps the version and returns a copy for publishing.
func (c *Coordinator) commitLocked() State {
	c.state.Version++
	return c.state.clone()
}

// publish hands st to the bus unless a newer version got there first.
func (c *Coordinator) publish(st State) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if st.Version <= c.published {
		return
	}
	c.published = st.Version
	c.bus.Publish(TopicStateChanged, st)
}
