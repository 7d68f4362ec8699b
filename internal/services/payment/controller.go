package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/questforge/pigateway/internal/dependencies/clock"
	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/pinet"
	"github.com/questforge/pigateway/internal/storage"
)

// CreateRequest is a validated payment creation request
type CreateRequest struct {
	Amount   decimal.Decimal
	Memo     string
	Metadata map[string]any
	// LocalID is the caller-supplied idempotency key; generated when
	// empty
	LocalID model.LocalID
}

// Controller drives a payment's lifecycle from creation through a
// terminal state. It is the only component that mutates
// PaymentRecords.
type Controller struct {
	storage storage.Storage
	network pinet.Client
	clock   clock.Clock
	locks   *keyedLocks

	// inFlightCreates deduplicates concurrent create calls sharing an
	// idempotency key before the first attempt has settled
	createMu        sync.Mutex
	inFlightCreates map[createKey]chan struct{}

	// inFlightCompletes shares one confirmation's outcome with every
	// caller that arrived while it ran, so concurrent completes issue
	// at most one status check upstream
	completeMu        sync.Mutex
	inFlightCompletes map[model.PaymentID]*completeResult
}

// completeResult carries a confirmation outcome to waiting callers
type completeResult struct {
	done   chan struct{}
	record *model.PaymentRecord
	err    error
}

type createKey struct {
	playerID model.PlayerID
	localID  model.LocalID
}

// NewController creates a payment controller
func NewController(storage storage.Storage, network pinet.Client, clk clock.Clock) *Controller {
	return &Controller{
		storage:           storage,
		network:           network,
		clock:             clk,
		locks:             newKeyedLocks(),
		inFlightCreates:   make(map[createKey]chan struct{}),
		inFlightCompletes: make(map[model.PaymentID]*completeResult),
	}
}

// Create validates the request, registers the payment with the
// Network and persists a CREATED record. Retries carrying the same
// idempotency key observe the original record instead of creating a
// duplicate Network-side payment, even while the first attempt is
// still in flight.
func (c *Controller) Create(ctx context.Context, playerID model.PlayerID, req CreateRequest) (*model.PaymentRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, errWrap(model.ErrInvalidPaymentRequest, "amount must be positive")
	}
	if req.Memo == "" {
		return nil, errWrap(model.ErrInvalidPaymentRequest, "memo is required")
	}
	if req.Metadata == nil {
		return nil, errWrap(model.ErrInvalidPaymentRequest, "metadata is required")
	}
	if _, err := c.storage.GetPlayer(ctx, playerID); err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, errWrap(model.ErrInvalidPaymentRequest, "unknown player")
		}
		return nil, err
	}

	localID := req.LocalID
	if localID == "" {
		localID = model.LocalID(uuid.NewString())
	} else {
		// A supplied key may refer to an already-settled create
		existing, err := c.storage.GetPaymentByLocalID(ctx, playerID, localID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, model.ErrPaymentNotFound) {
			return nil, err
		}
	}

	key := createKey{playerID, localID}
	var done chan struct{}
	for done == nil {
		c.createMu.Lock()
		if waiting, inFlight := c.inFlightCreates[key]; inFlight {
			c.createMu.Unlock()

			// Another call with this key is mid-create; wait for it
			// to settle and observe its result
			select {
			case <-waiting:
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			existing, err := c.storage.GetPaymentByLocalID(ctx, playerID, localID)
			if err == nil {
				return existing, nil
			}
			if !errors.Is(err, model.ErrPaymentNotFound) {
				return nil, err
			}
			// First attempt failed before persisting; take over
			continue
		}
		done = make(chan struct{})
		c.inFlightCreates[key] = done
		c.createMu.Unlock()
	}

	defer func() {
		c.createMu.Lock()
		delete(c.inFlightCreates, key)
		c.createMu.Unlock()
		close(done)
	}()

	// Re-check under the slot: a previous holder of this key may have
	// settled between the first lookup and now
	if req.LocalID != "" {
		existing, err := c.storage.GetPaymentByLocalID(ctx, playerID, localID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, model.ErrPaymentNotFound) {
			return nil, err
		}
	}

	paymentID, err := c.network.CreatePayment(ctx, pinet.CreatePaymentRequest{
		Amount:   req.Amount,
		Memo:     req.Memo,
		Metadata: req.Metadata,
		UID:      string(playerID),
	})
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	record := &model.PaymentRecord{
		PaymentID: model.PaymentID(paymentID),
		LocalID:   localID,
		PlayerID:  playerID,
		Amount:    req.Amount,
		Memo:      req.Memo,
		Metadata:  req.Metadata,
		State:     model.PaymentStateCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.storage.CreatePayment(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Approve marks a CREATED payment as server-approved
func (c *Controller) Approve(ctx context.Context, id model.PaymentID) (*model.PaymentRecord, error) {
	c.locks.lock(id)
	defer c.locks.unlock(id)

	record, err := c.storage.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.State.CanTransitionTo(model.PaymentStateApproved) {
		return nil, model.ErrInvalidTransition
	}

	if err := c.network.ApprovePayment(ctx, string(id)); err != nil {
		c.failOnRejection(ctx, id, record.State, err)
		return nil, err
	}

	return c.storage.UpdatePaymentState(ctx, id, record.State, model.PaymentStateApproved, "", c.clock.Now())
}

// Submit asks the Network to broadcast the payment and records the
// transaction id. Permitted from CREATED or APPROVED only.
func (c *Controller) Submit(ctx context.Context, id model.PaymentID) (string, error) {
	c.locks.lock(id)
	defer c.locks.unlock(id)

	record, err := c.storage.GetPayment(ctx, id)
	if err != nil {
		return "", err
	}
	if !record.State.CanTransitionTo(model.PaymentStateSubmitted) {
		return "", model.ErrInvalidTransition
	}

	txid, err := c.network.SubmitPayment(ctx, string(id))
	if err != nil {
		c.failOnRejection(ctx, id, record.State, err)
		return "", err
	}

	if _, err := c.storage.UpdatePaymentState(ctx, id, record.State, model.PaymentStateSubmitted, txid, c.clock.Now()); err != nil {
		return "", err
	}
	return txid, nil
}

// Complete confirms a SUBMITTED payment against the Network. If the
// Network reports "completed" the record becomes COMPLETED and
// immutable; any other status yields ErrPaymentNotComplete with the
// record unchanged (the expected polling pattern). Re-completing an
// already-COMPLETED record returns the stored record without
// contacting the Network, and callers arriving while a confirmation
// is already in flight observe its outcome instead of issuing a
// status check of their own.
func (c *Controller) Complete(ctx context.Context, id model.PaymentID, txid string) (*model.PaymentRecord, error) {
	c.completeMu.Lock()
	if waiting, inFlight := c.inFlightCompletes[id]; inFlight {
		c.completeMu.Unlock()

		select {
		case <-waiting.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if waiting.err != nil {
			return nil, waiting.err
		}
		if txid != "" && waiting.record.TxID != "" && txid != waiting.record.TxID {
			return nil, errWrap(model.ErrInvalidPaymentRequest, "txid does not match the submitted transaction")
		}
		return waiting.record, nil
	}
	result := &completeResult{done: make(chan struct{})}
	c.inFlightCompletes[id] = result
	c.completeMu.Unlock()

	record, err := c.confirm(ctx, id, txid)

	c.completeMu.Lock()
	delete(c.inFlightCompletes, id)
	c.completeMu.Unlock()
	result.record, result.err = record, err
	close(result.done)

	return record, err
}

func (c *Controller) confirm(ctx context.Context, id model.PaymentID, txid string) (*model.PaymentRecord, error) {
	c.locks.lock(id)
	defer c.locks.unlock(id)

	record, err := c.storage.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	// Idempotent re-entry: no second confirmation call, no
	// double-credit
	if record.State == model.PaymentStateCompleted {
		return record, nil
	}
	if record.State != model.PaymentStateSubmitted {
		return nil, model.ErrInvalidTransition
	}
	if txid != "" && record.TxID != "" && txid != record.TxID {
		return nil, errWrap(model.ErrInvalidPaymentRequest, "txid does not match the submitted transaction")
	}

	status, err := c.network.GetPayment(ctx, string(id))
	if err != nil {
		// Unknown outcome; the record stays SUBMITTED and the caller
		// re-polls
		return nil, err
	}
	if status.Status != pinet.StatusCompleted {
		return nil, model.ErrPaymentNotComplete
	}

	confirmedTxID := txid
	if status.TxID != "" {
		confirmedTxID = status.TxID
	}
	return c.storage.UpdatePaymentState(ctx, id, model.PaymentStateSubmitted, model.PaymentStateCompleted, confirmedTxID, c.clock.Now())
}

// Cancel cancels a payment that has not been broadcast. Cancellation
// after broadcast is impossible and is rejected, not silently
// accepted.
func (c *Controller) Cancel(ctx context.Context, id model.PaymentID) (*model.PaymentRecord, error) {
	c.locks.lock(id)
	defer c.locks.unlock(id)

	record, err := c.storage.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.State.CanTransitionTo(model.PaymentStateCancelled) {
		return nil, model.ErrInvalidTransition
	}

	if err := c.network.CancelPayment(ctx, string(id)); err != nil {
		c.failOnRejection(ctx, id, record.State, err)
		return nil, err
	}

	return c.storage.UpdatePaymentState(ctx, id, record.State, model.PaymentStateCancelled, "", c.clock.Now())
}

// Get returns the local record for a payment
func (c *Controller) Get(ctx context.Context, id model.PaymentID) (*model.PaymentRecord, error) {
	return c.storage.GetPayment(ctx, id)
}

func errWrap(sentinel error, msg string) error {
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// failOnRejection moves a payment to FAILED when the Network
// rejected a mutating call outright. A timeout or transport error is
// an unknown outcome and leaves the record in its last known-good
// state for the caller to re-check.
func (c *Controller) failOnRejection(ctx context.Context, id model.PaymentID, from model.PaymentState, err error) {
	if !errors.Is(err, model.ErrUpstreamError) {
		return
	}
	_, _ = c.storage.UpdatePaymentState(ctx, id, from, model.PaymentStateFailed, "", c.clock.Now())
}
