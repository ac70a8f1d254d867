package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPushTimeout = 3 * time.Second
	maxConcurrentPush  = 32
)

// DispatchResult lists connection ids by push outcome. Stale connections were
// gone and have been deregistered.
type DispatchResult struct {
	Successful []string
	Stale      []string
	Failed     []string
}

// BroadcastEventCommandHandler fans an event out to the WebSocket clients of
// its tenant plus the customer who owns the order. Every push runs on its own
// with a timeout; one failing client never blocks the others.
type BroadcastEventCommandHandler struct {
	registry    ports.ConnectionRegistry
	pusher      ports.SocketPusher
	pushTimeout time.Duration
	logger      *slog.Logger
}

func NewBroadcastEventCommandHandler(
	registry ports.ConnectionRegistry,
	pusher ports.SocketPusher,
	pushTimeout time.Duration,
	logger *slog.Logger,
) BroadcastEventCommandHandler {
	if pushTimeout <= 0 {
		pushTimeout = DefaultPushTimeout
	}
	return BroadcastEventCommandHandler{
		registry:    registry,
		pusher:      pusher,
		pushTimeout: pushTimeout,
		logger:      logger.With("component", "BroadcastEventCommandHandler"),
	}
}

func (h BroadcastEventCommandHandler) Handle(ctx context.Context, command BroadcastEventCommand) (DispatchResult, error) {
	if err := command.Validate(); err != nil {
		return DispatchResult{}, err
	}

	e := command.Event()
	targets, customers, err := h.targets(ctx, e)
	if err != nil {
		return DispatchResult{}, err
	}
	if len(targets) == 0 {
		return DispatchResult{}, nil
	}

	customerPayload, err := json.Marshal(BuildNotification(e, true))
	if err != nil {
		return DispatchResult{}, err
	}
	staffPayload, err := json.Marshal(BuildNotification(e, false))
	if err != nil {
		return DispatchResult{}, err
	}

	var (
		mu     sync.Mutex
		result DispatchResult
	)

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentPush)
	for _, id := range targets {
		payload := staffPayload
		if customers[id] {
			payload = customerPayload
		}

		g.Go(func() error {
			pushCtx, cancel := context.WithTimeout(ctx, h.pushTimeout)
			defer cancel()

			pushErr := h.pusher.Push(pushCtx, id, payload)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case pushErr == nil:
				result.Successful = append(result.Successful, id)
			case errors.Is(pushErr, errs.ErrGone):
				result.Stale = append(result.Stale, id)
			default:
				h.logger.WarnContext(ctx, "push failed", "connection_id", id, "error", pushErr)
				result.Failed = append(result.Failed, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, id := range result.Stale {
		if err = h.registry.Deregister(ctx, id); err != nil {
			h.logger.WarnContext(ctx, "failed to remove stale connection", "connection_id", id, "error", err)
		}
	}

	sort.Strings(result.Successful)
	sort.Strings(result.Stale)
	sort.Strings(result.Failed)

	h.logger.InfoContext(ctx, "event broadcast",
		"event_type", string(e.EventType()),
		"order_id", e.EventHeader().OrderID,
		"successful", len(result.Successful),
		"stale", len(result.Stale),
		"failed", len(result.Failed),
	)

	return result, nil
}

// targets returns the deduplicated connection ids in scope, sorted, and the
// subset owned by the order's customer.
func (h BroadcastEventCommandHandler) targets(ctx context.Context, e event.Event) ([]string, map[string]bool, error) {
	header := e.EventHeader()
	scope := event.Scope(e)

	var (
		scoped []string
		err    error
	)
	if scope == event.ScopeAll {
		scoped, err = h.registry.ListAll(ctx)
	} else {
		scoped, err = h.registry.ListByTenant(ctx, scope)
	}
	if err != nil {
		return nil, nil, err
	}

	customers := make(map[string]bool)
	if header.CustomerID != "" {
		owned, listErr := h.registry.ListByUser(ctx, header.CustomerID)
		if listErr != nil {
			return nil, nil, listErr
		}
		for _, id := range owned {
			customers[id] = true
		}
	}

	seen := make(map[string]struct{}, len(scoped)+len(customers))
	ids := make([]string, 0, len(scoped)+len(customers))
	for _, id := range scoped {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for id := range customers {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return ids, customers, nil
}
