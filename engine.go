// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements the guarded spend vault coordinator: guardian
// memberships, quorum-gated spending requests, time-locked withdrawals
// and emergency freeze voting over a shared persistent state.
package vault

import (
	"errors"
	"sync"
	"time"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/luxfi/metric"
	"github.com/luxfi/version"

	"github.com/luxfi/vault/config"
	"github.com/luxfi/vault/event"
	"github.com/luxfi/vault/freeze"
	"github.com/luxfi/vault/metrics"
	"github.com/luxfi/vault/quorum"
	"github.com/luxfi/vault/registry"
	"github.com/luxfi/vault/state"
	"github.com/luxfi/vault/timelock"
	"github.com/luxfi/vault/utils/timer/mockable"
)

// VaultTarget is the withdrawal id that addresses the vault itself in
// freeze votes. Withdrawal ids assigned by Queue start at 1, so the
// value never collides with a queued withdrawal.
const VaultTarget uint64 = 0

var (
	Version = &version.Semantic{
		Major: 1,
		Minor: 0,
		Patch: 0,
	}

	// ErrVaultNotFound is returned when the vault id does not exist.
	ErrVaultNotFound = errors.New("vault not found")

	// ErrWithdrawalNotFound is returned when the withdrawal id does not
	// exist under the vault.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// ErrNotOwner is returned when an owner-only operation is attempted
	// by any other address.
	ErrNotOwner = errors.New("caller is not the vault owner")

	// ErrLargeTransfer is returned when a direct spend reaches the
	// large-transaction threshold. Such transfers must go through a
	// signature request and the withdrawal queue.
	ErrLargeTransfer = errors.New("transfer at or above threshold must be queued")

	errInvalidOwner = errors.New("vault owner must not be the zero address")
)

// Engine is the single entry point for every vault operation. Each call
// runs in its own critical section: all state mutations and the emitted
// event commit together or not at all.
type Engine struct {
	log      log.Logger
	clock    mockable.Clock
	metrics  metrics.Metrics
	state    *state.State
	registry *registry.Registry
	verifier quorum.Verifier

	lock sync.RWMutex
}

// New builds an engine over [db]. A nil [verifier] defaults to secp256k1
// signature recovery.
func New(
	db database.Database,
	logger log.Logger,
	registerer metric.Registerer,
	verifier quorum.Verifier,
) (*Engine, error) {
	m, err := metrics.New(registerer)
	if err != nil {
		return nil, err
	}
	if verifier == nil {
		verifier = quorum.NewSecp256k1Verifier()
	}

	st := state.New(db)
	return &Engine{
		log:      logger,
		metrics:  m,
		state:    st,
		registry: registry.New(st),
		verifier: verifier,
	}, nil
}

// Clock returns the engine's time source. Tests use it to control
// maturation of queued withdrawals.
func (e *Engine) Clock() *mockable.Clock {
	return &e.clock
}

func (e *Engine) Close() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.state.Close()
}

// commit finishes a critical section: on success every buffered write
// lands atomically, on failure all of them are discarded.
func (e *Engine) commit(err error) error {
	if err != nil {
		e.state.Abort()
		return err
	}
	if err := e.state.Commit(); err != nil {
		e.state.Abort()
		return err
	}
	return nil
}

// emit appends [payload] to the vault's activity log. The caller must
// persist [v] afterwards so the advanced event index survives.
func (e *Engine) emit(v *state.Vault, payload event.Event) error {
	env := &event.Envelope{
		Index:     v.NextEventIndex,
		Timestamp: e.clock.Unix(),
		Payload:   payload,
	}
	v.NextEventIndex++
	return e.state.AddEvent(v.ID, env)
}

func (e *Engine) getVault(vaultID ids.ID) (*state.Vault, error) {
	v, err := e.state.GetVault(vaultID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrVaultNotFound
	}
	return v, err
}

func (e *Engine) getOwnedVault(vaultID ids.ID, caller ids.ShortID) (*state.Vault, error) {
	v, err := e.getVault(vaultID)
	if err != nil {
		return nil, err
	}
	if v.Owner != caller {
		return nil, ErrNotOwner
	}
	return v, nil
}

func (e *Engine) getWithdrawal(vaultID ids.ID, withdrawalID uint64) (*timelock.Withdrawal, error) {
	w, err := e.state.GetWithdrawal(vaultID, withdrawalID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrWithdrawalNotFound
	}
	return w, err
}

func (e *Engine) getRequest(requestID ids.ID) (*quorum.Request, error) {
	r, err := e.state.GetRequest(requestID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, quorum.ErrNotFound
	}
	return r, err
}

/*
 * Vault lifecycle
 */

// CreateVault registers a new vault for [owner] with policy [cfg] and
// returns its id.
func (e *Engine) CreateVault(owner ids.ShortID, cfg config.Config) (ids.ID, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	vaultID, err := e.createVault(owner, cfg)
	return vaultID, e.commit(err)
}

func (e *Engine) createVault(owner ids.ShortID, cfg config.Config) (ids.ID, error) {
	if owner == ids.ShortEmpty {
		return ids.Empty, errInvalidOwner
	}
	if err := cfg.Validate(); err != nil {
		return ids.Empty, err
	}

	seq, err := e.state.NextVaultSeq()
	if err != nil {
		return ids.Empty, err
	}
	preimage := make([]byte, len(owner)+8)
	copy(preimage, owner[:])
	for i := 0; i < 8; i++ {
		preimage[len(owner)+i] = byte(seq >> (56 - 8*i))
	}
	vaultID := ids.ID(hash.ComputeHash256Array(preimage))

	v := &state.Vault{
		ID:        vaultID,
		Owner:     owner,
		Config:    cfg,
		CreatedAt: e.clock.Unix(),

		// Withdrawal id 0 is reserved for whole-vault freeze votes.
		NextWithdrawalID: 1,
	}
	if err := e.state.PutVault(v); err != nil {
		return ids.Empty, err
	}

	e.log.Info("vault created",
		log.Stringer("vaultID", vaultID),
		log.Stringer("owner", owner),
	)
	return vaultID, nil
}

// GetVault returns the vault record.
func (e *Engine) GetVault(vaultID ids.ID) (*state.Vault, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.getVault(vaultID)
}

/*
 * Guardian registry
 */

// MintGuardian grants [guardian] a soulbound membership in the vault.
// Only the vault owner may mint. Duplicate memberships for the same
// guardian are permitted; each burns independently.
func (e *Engine) MintGuardian(vaultID ids.ID, guardian ids.ShortID, caller ids.ShortID) (*registry.Membership, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	m, err := e.mintGuardian(vaultID, guardian, caller)
	return m, e.commit(err)
}

func (e *Engine) mintGuardian(vaultID ids.ID, guardian ids.ShortID, caller ids.ShortID) (*registry.Membership, error) {
	v, err := e.getOwnedVault(vaultID, caller)
	if err != nil {
		return nil, err
	}

	m, err := e.registry.Mint(vaultID, guardian, e.clock.Unix())
	if err != nil {
		return nil, err
	}

	if err := e.emit(v, &event.GuardianMinted{
		Vault:        vaultID,
		Guardian:     guardian,
		MembershipID: m.ID,
	}); err != nil {
		return nil, err
	}
	return m, e.state.PutVault(v)
}

// BurnGuardian revokes the membership. Only the vault owner may burn.
func (e *Engine) BurnGuardian(vaultID ids.ID, membershipID uint64, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.burnGuardian(vaultID, membershipID, caller))
}

func (e *Engine) burnGuardian(vaultID ids.ID, membershipID uint64, caller ids.ShortID) error {
	v, err := e.getOwnedVault(vaultID, caller)
	if err != nil {
		return err
	}

	m, err := e.registry.Burn(vaultID, membershipID)
	if err != nil {
		return err
	}

	if err := e.emit(v, &event.GuardianBurned{
		Vault:        vaultID,
		Guardian:     m.Guardian,
		MembershipID: m.ID,
	}); err != nil {
		return err
	}
	return e.state.PutVault(v)
}

// GetVaultsForGuardian returns every vault the address currently guards.
func (e *Engine) GetVaultsForGuardian(guardian ids.ShortID) (set.Set[ids.ID], error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.registry.GetVaultsForGuardian(guardian)
}

// GetGuardiansForVault returns the vault's current guardian set.
func (e *Engine) GetGuardiansForVault(vaultID ids.ID) (set.Set[ids.ShortID], error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.registry.GetGuardiansForVault(vaultID)
}

// isGuardian fails with registry.ErrNotGuardian unless [addr] holds a
// membership in the vault right now.
func (e *Engine) isGuardian(vaultID ids.ID, addr ids.ShortID) error {
	ok, err := e.registry.IsGuardian(vaultID, addr)
	if err != nil {
		return err
	}
	if !ok {
		return registry.ErrNotGuardian
	}
	return nil
}

/*
 * Signature requests
 */

// CreateRequest opens a signature request for a spending intent. The
// required quorum is snapshotted from the vault configuration in force
// now; later configuration changes do not affect it.
func (e *Engine) CreateRequest(
	vaultID ids.ID,
	token ids.ID,
	amount uint64,
	recipient ids.ShortID,
	reason string,
	category string,
	creator ids.ShortID,
) (*quorum.Request, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	r, err := e.createRequest(vaultID, token, amount, recipient, reason, category, creator)
	return r, e.commit(err)
}

func (e *Engine) createRequest(
	vaultID ids.ID,
	token ids.ID,
	amount uint64,
	recipient ids.ShortID,
	reason string,
	category string,
	creator ids.ShortID,
) (*quorum.Request, error) {
	v, err := e.getVault(vaultID)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, timelock.ErrInvalidAmount
	}

	intent := quorum.Intent{
		Vault:     vaultID,
		Token:     token,
		Amount:    amount,
		Recipient: recipient,
		Reason:    reason,
		Category:  category,
		Nonce:     v.NextNonce,
	}
	v.NextNonce++

	signedBytes, err := state.IntentBytes(&intent)
	if err != nil {
		return nil, err
	}
	requestID := ids.ID(hash.ComputeHash256Array(signedBytes))

	r, err := quorum.NewRequest(requestID, intent, v.Config.RequiredQuorum, creator, e.clock.Unix())
	if err != nil {
		return nil, err
	}
	if err := e.state.PutRequest(r); err != nil {
		return nil, err
	}

	if err := e.emit(v, &event.RequestCreated{
		Request: requestID,
		Vault:   vaultID,
		Creator: creator,
		Quorum:  r.RequiredQuorum,
	}); err != nil {
		return nil, err
	}
	if err := e.state.PutVault(v); err != nil {
		return nil, err
	}

	e.log.Info("signature request created",
		log.Stringer("vaultID", vaultID),
		log.Stringer("requestID", requestID),
		log.Uint32("requiredQuorum", r.RequiredQuorum),
	)
	return r, nil
}

// SignedBytes returns the canonical bytes a guardian must sign to
// approve the request.
func (e *Engine) SignedBytes(requestID ids.ID) ([]byte, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	r, err := e.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	return state.IntentBytes(&r.Intent)
}

// AddSignature records one guardian approval on a pending request. The
// signature must recover to [signer], and [signer] must currently be a
// guardian of the request's vault. The transition to approved happens in
// the same call that reaches quorum.
func (e *Engine) AddSignature(requestID ids.ID, signer ids.ShortID, signature []byte) (*quorum.Request, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	r, err := e.addSignature(requestID, signer, signature)
	return r, e.commit(err)
}

func (e *Engine) addSignature(requestID ids.ID, signer ids.ShortID, signature []byte) (*quorum.Request, error) {
	r, err := e.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	v, err := e.getVault(r.Intent.Vault)
	if err != nil {
		return nil, err
	}

	signedBytes, err := state.IntentBytes(&r.Intent)
	if err != nil {
		return nil, err
	}
	recovered, err := e.verifier.Verify(signedBytes, signature)
	if err != nil {
		return nil, err
	}
	if recovered != signer {
		return nil, quorum.ErrInvalidSignature
	}
	if err := e.isGuardian(r.Intent.Vault, signer); err != nil {
		return nil, err
	}

	approved, err := r.AddSignature(signer, signature)
	if err != nil {
		return nil, err
	}
	if err := e.state.PutRequest(r); err != nil {
		return nil, err
	}

	signatures := uint32(len(r.Signatures))
	if err := e.emit(v, &event.SignatureAdded{
		Request:    requestID,
		Signer:     signer,
		Signatures: signatures,
		Quorum:     r.RequiredQuorum,
	}); err != nil {
		return nil, err
	}
	if approved {
		if err := e.emit(v, &event.RequestApproved{
			Request:    requestID,
			Signatures: signatures,
		}); err != nil {
			return nil, err
		}
		e.metrics.IncRequestsApproved()
		e.log.Info("signature request approved",
			log.Stringer("requestID", requestID),
			log.Uint32("signatures", signatures),
		)
	}
	if err := e.state.PutVault(v); err != nil {
		return nil, err
	}

	e.metrics.IncSignaturesAdded()
	return r, nil
}

// RejectRequest permanently rejects a pending request. Only the vault
// owner may reject.
func (e *Engine) RejectRequest(requestID ids.ID, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.rejectRequest(requestID, caller))
}

func (e *Engine) rejectRequest(requestID ids.ID, caller ids.ShortID) error {
	r, err := e.getRequest(requestID)
	if err != nil {
		return err
	}
	v, err := e.getOwnedVault(r.Intent.Vault, caller)
	if err != nil {
		return err
	}

	if err := r.Reject(); err != nil {
		return err
	}
	if err := e.state.PutRequest(r); err != nil {
		return err
	}

	if err := e.emit(v, &event.RequestRejected{
		Request: requestID,
		Caller:  caller,
	}); err != nil {
		return err
	}
	if err := e.state.PutVault(v); err != nil {
		return err
	}

	e.metrics.IncRequestsRejected()
	return nil
}

// GetRequest returns the signature request.
func (e *Engine) GetRequest(requestID ids.ID) (*quorum.Request, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.getRequest(requestID)
}

/*
 * Withdrawal queue
 */

// Queue turns an approved request into a time-locked withdrawal and
// returns the withdrawal id. Anyone may call; authorization already
// happened through the quorum. The maturation delay is snapshotted from
// the vault configuration at queue time.
func (e *Engine) Queue(vaultID ids.ID, requestID ids.ID) (uint64, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	id, err := e.queue(vaultID, requestID)
	return id, e.commit(err)
}

func (e *Engine) queue(vaultID ids.ID, requestID ids.ID) (uint64, error) {
	v, err := e.getVault(vaultID)
	if err != nil {
		return 0, err
	}
	r, err := e.getRequest(requestID)
	if err != nil {
		return 0, err
	}
	if r.Intent.Vault != vaultID {
		return 0, quorum.ErrNotFound
	}
	if r.Status != quorum.StatusApproved {
		return 0, timelock.ErrInsufficientQuorum
	}

	withdrawalID := v.NextWithdrawalID
	v.NextWithdrawalID++

	now := e.clock.Unix()
	w, err := timelock.New(
		vaultID,
		withdrawalID,
		r.Intent.Token,
		r.Intent.Amount,
		r.Intent.Recipient,
		r.Intent.Reason,
		r.Intent.Category,
		r.Signers(),
		now,
		v.Config.TimeLockDelay,
	)
	if err != nil {
		return 0, err
	}
	if err := r.MarkExecuted(withdrawalID); err != nil {
		return 0, err
	}

	if err := e.state.PutWithdrawal(w); err != nil {
		return 0, err
	}
	if err := e.state.PutRequest(r); err != nil {
		return 0, err
	}

	if err := e.emit(v, &event.WithdrawalQueued{
		Vault:        vaultID,
		WithdrawalID: withdrawalID,
		Token:        w.Token,
		Amount:       w.Amount,
		Recipient:    w.Recipient,
		ReadyAt:      w.ReadyAt,
	}); err != nil {
		return 0, err
	}
	if err := e.emit(v, &event.RequestExecuted{
		Request:      requestID,
		WithdrawalID: withdrawalID,
	}); err != nil {
		return 0, err
	}
	if err := e.state.PutVault(v); err != nil {
		return 0, err
	}

	e.metrics.IncWithdrawalsQueued()
	e.log.Info("withdrawal queued",
		log.Stringer("vaultID", vaultID),
		log.Uint64("withdrawalID", withdrawalID),
		log.Uint64("readyAt", w.ReadyAt),
	)
	return withdrawalID, nil
}

// Execute releases a matured withdrawal. Anyone may call. The freeze
// state of the withdrawal and of the vault is re-read inside the
// critical section, so a freeze that landed after maturation still
// blocks release.
func (e *Engine) Execute(vaultID ids.ID, withdrawalID uint64, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.execute(vaultID, withdrawalID, caller))
}

func (e *Engine) execute(vaultID ids.ID, withdrawalID uint64, caller ids.ShortID) error {
	v, err := e.getVault(vaultID)
	if err != nil {
		return err
	}
	w, err := e.getWithdrawal(vaultID, withdrawalID)
	if err != nil {
		return err
	}

	vaultFrozen, err := e.targetFrozen(vaultID, VaultTarget)
	if err != nil {
		return err
	}
	if err := w.Execute(e.clock.Unix(), vaultFrozen); err != nil {
		if errors.Is(err, timelock.ErrNotReady) || errors.Is(err, timelock.ErrFrozen) {
			e.metrics.IncDeclinedExecutes()
		}
		return err
	}

	balance, err := e.state.GetBalance(vaultID, w.Token)
	if err != nil {
		return err
	}
	if balance < w.Amount {
		return timelock.ErrInsufficientFunds
	}

	// The debit and the executed flag land in the same batch, so funds
	// can never leave twice for one withdrawal.
	if err := e.state.PutBalance(vaultID, w.Token, balance-w.Amount); err != nil {
		return err
	}
	if err := e.state.PutWithdrawal(w); err != nil {
		return err
	}
	if err := e.state.DeleteBallot(vaultID, withdrawalID); err != nil {
		return err
	}

	if err := e.emit(v, &event.WithdrawalExecuted{
		Vault:        vaultID,
		WithdrawalID: withdrawalID,
		Token:        w.Token,
		Amount:       w.Amount,
		Recipient:    w.Recipient,
		Caller:       caller,
	}); err != nil {
		return err
	}
	if err := e.state.PutVault(v); err != nil {
		return err
	}

	e.metrics.IncWithdrawalsExecuted()
	e.log.Info("withdrawal executed",
		log.Stringer("vaultID", vaultID),
		log.Uint64("withdrawalID", withdrawalID),
		log.Uint64("amount", w.Amount),
		log.Stringer("recipient", w.Recipient),
	)
	return nil
}

// Cancel voids a queued withdrawal. Only the vault owner may cancel.
// Cancellation works on frozen withdrawals too; it is the owner's escape
// hatch for requests that should never release.
func (e *Engine) Cancel(vaultID ids.ID, withdrawalID uint64, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.cancel(vaultID, withdrawalID, caller))
}

func (e *Engine) cancel(vaultID ids.ID, withdrawalID uint64, caller ids.ShortID) error {
	v, err := e.getOwnedVault(vaultID, caller)
	if err != nil {
		return err
	}
	w, err := e.getWithdrawal(vaultID, withdrawalID)
	if err != nil {
		return err
	}

	if err := w.Cancel(); err != nil {
		return err
	}
	if err := e.state.PutWithdrawal(w); err != nil {
		return err
	}
	if err := e.state.DeleteBallot(vaultID, withdrawalID); err != nil {
		return err
	}

	if err := e.emit(v, &event.WithdrawalCancelled{
		Vault:        vaultID,
		WithdrawalID: withdrawalID,
		Caller:       caller,
	}); err != nil {
		return err
	}
	if err := e.state.PutVault(v); err != nil {
		return err
	}

	e.metrics.IncWithdrawalsCancelled()
	return nil
}

// GetWithdrawal returns one withdrawal record.
func (e *Engine) GetWithdrawal(vaultID ids.ID, withdrawalID uint64) (*timelock.Withdrawal, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.getWithdrawal(vaultID, withdrawalID)
}

// GetWithdrawals returns every withdrawal of the vault in queue order.
func (e *Engine) GetWithdrawals(vaultID ids.ID) ([]*timelock.Withdrawal, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if _, err := e.getVault(vaultID); err != nil {
		return nil, err
	}
	return e.state.GetWithdrawals(vaultID)
}

/*
 * Freeze voting
 */

// targetFrozen reads the current frozen flag of a vote target without
// creating a ballot.
func (e *Engine) targetFrozen(vaultID ids.ID, withdrawalID uint64) (bool, error) {
	rec, err := e.state.GetBallot(vaultID, withdrawalID)
	switch {
	case err == nil:
		return rec.Frozen, nil
	case errors.Is(err, database.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// getBallot loads the vote state of a target, creating a fresh ballot
// with the vault's current thresholds when none exists.
func (e *Engine) getBallot(v *state.Vault, withdrawalID uint64) (*freeze.Ballot, error) {
	rec, err := e.state.GetBallot(v.ID, withdrawalID)
	switch {
	case err == nil:
		return freeze.FromRecord(rec), nil
	case errors.Is(err, database.ErrNotFound):
		return freeze.New(v.Config.FreezeThreshold, v.Config.UnfreezeThreshold), nil
	default:
		return nil, err
	}
}

// checkVoteTarget validates that the target of a freeze or unfreeze vote
// exists and is not terminal, and returns the withdrawal when the target
// is one ([VaultTarget] resolves to nil).
func (e *Engine) checkVoteTarget(vaultID ids.ID, withdrawalID uint64) (*timelock.Withdrawal, error) {
	if withdrawalID == VaultTarget {
		return nil, nil
	}
	w, err := e.getWithdrawal(vaultID, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Executed {
		return nil, timelock.ErrAlreadyExecuted
	}
	if w.Cancelled {
		return nil, timelock.ErrAlreadyCancelled
	}
	return w, nil
}

// VoteFreeze casts a guardian's freeze vote against a withdrawal, or
// against the vault itself when [withdrawalID] is [VaultTarget]. The
// target freezes in the same call that reaches the threshold, and the
// flip clears both vote sets.
func (e *Engine) VoteFreeze(vaultID ids.ID, withdrawalID uint64, guardian ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.voteFreeze(vaultID, withdrawalID, guardian))
}

func (e *Engine) voteFreeze(vaultID ids.ID, withdrawalID uint64, guardian ids.ShortID) error {
	v, err := e.getVault(vaultID)
	if err != nil {
		return err
	}
	if err := e.isGuardian(vaultID, guardian); err != nil {
		return err
	}
	w, err := e.checkVoteTarget(vaultID, withdrawalID)
	if err != nil {
		return err
	}

	ballot, err := e.getBallot(v, withdrawalID)
	if err != nil {
		return err
	}
	froze, err := ballot.VoteFreeze(guardian)
	if err != nil {
		return err
	}
	if err := e.state.PutBallot(vaultID, withdrawalID, ballot.Record()); err != nil {
		return err
	}

	if w != nil {
		if err := w.SetFrozen(ballot.Frozen(), ballot.FreezeVotes()); err != nil {
			return err
		}
		if err := e.state.PutWithdrawal(w); err != nil {
			return err
		}
	}

	if err := e.emit(v, &event.FreezeVoteCast{
		Vault:        vaultID,
		WithdrawalID: withdrawalID,
		Guardian:     guardian,
		Votes:        ballot.FreezeVotes(),
		Threshold:    ballot.FreezeThreshold(),
		Frozen:       ballot.Frozen(),
	}); err != nil {
		return err
	}
	if err := e.state.PutVault(v); err != nil {
		return err
	}

	e.metrics.IncFreezeVotes()
	if froze {
		e.log.Info("target frozen",
			log.Stringer("vaultID", vaultID),
			log.Uint64("withdrawalID", withdrawalID),
		)
	}
	return nil
}

// VoteUnfreeze is a guardian's vote in the other direction. While the
// target is not frozen it retracts the guardian's own freeze vote; while
// frozen it accumulates toward the unfreeze threshold, and the target
// unfreezes in the call that reaches it. Returns the outcome of the
// vote.
func (e *Engine) VoteUnfreeze(vaultID ids.ID, withdrawalID uint64, guardian ids.ShortID) (freeze.UnfreezeOutcome, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	outcome, err := e.voteUnfreeze(vaultID, withdrawalID, guardian)
	return outcome, e.commit(err)
}

func (e *Engine) voteUnfreeze(vaultID ids.ID, withdrawalID uint64, guardian ids.ShortID) (freeze.UnfreezeOutcome, error) {
	v, err := e.getVault(vaultID)
	if err != nil {
		return 0, err
	}
	if err := e.isGuardian(vaultID, guardian); err != nil {
		return 0, err
	}
	w, err := e.checkVoteTarget(vaultID, withdrawalID)
	if err != nil {
		return 0, err
	}

	ballot, err := e.getBallot(v, withdrawalID)
	if err != nil {
		return 0, err
	}
	outcome, err := ballot.VoteUnfreeze(guardian)
	if err != nil {
		return 0, err
	}
	if err := e.state.PutBallot(vaultID, withdrawalID, ballot.Record()); err != nil {
		return 0, err
	}

	if w != nil {
		if err := w.SetFrozen(ballot.Frozen(), ballot.FreezeVotes()); err != nil {
			return 0, err
		}
		if err := e.state.PutWithdrawal(w); err != nil {
			return 0, err
		}
	}

	var payload event.Event
	if outcome == freeze.Retracted {
		payload = &event.FreezeVoteRetracted{
			Vault:        vaultID,
			WithdrawalID: withdrawalID,
			Guardian:     guardian,
			Votes:        ballot.FreezeVotes(),
		}
	} else {
		payload = &event.UnfreezeVoteCast{
			Vault:        vaultID,
			WithdrawalID: withdrawalID,
			Guardian:     guardian,
			Votes:        ballot.UnfreezeVotes(),
			Threshold:    v.Config.UnfreezeThreshold,
			Unfrozen:     outcome == freeze.Unfrozen,
		}
	}
	if err := e.emit(v, payload); err != nil {
		return 0, err
	}
	if err := e.state.PutVault(v); err != nil {
		return 0, err
	}

	e.metrics.IncUnfreezeVotes()
	if outcome == freeze.Unfrozen {
		e.log.Info("target unfrozen",
			log.Stringer("vaultID", vaultID),
			log.Uint64("withdrawalID", withdrawalID),
		)
	}
	return outcome, nil
}

// Frozen reports whether the withdrawal, or the vault itself for
// [VaultTarget], is currently frozen.
func (e *Engine) Frozen(vaultID ids.ID, withdrawalID uint64) (bool, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if _, err := e.getVault(vaultID); err != nil {
		return false, err
	}
	return e.targetFrozen(vaultID, withdrawalID)
}

/*
 * Balances
 */

// Deposit credits the vault's balance of [token]. Anyone may deposit.
func (e *Engine) Deposit(vaultID ids.ID, token ids.ID, amount uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.deposit(vaultID, token, amount))
}

func (e *Engine) deposit(vaultID ids.ID, token ids.ID, amount uint64) error {
	v, err := e.getVault(vaultID)
	if err != nil {
		return err
	}
	if amount == 0 {
		return timelock.ErrInvalidAmount
	}

	balance, err := e.state.GetBalance(vaultID, token)
	if err != nil {
		return err
	}
	if balance+amount < balance {
		return timelock.ErrInvalidAmount
	}
	if err := e.state.PutBalance(vaultID, token, balance+amount); err != nil {
		return err
	}

	if err := e.emit(v, &event.Deposited{
		Vault:  vaultID,
		Token:  token,
		Amount: amount,
	}); err != nil {
		return err
	}
	return e.state.PutVault(v)
}

// Spend transfers funds out immediately, bypassing the queue. Only the
// vault owner may spend, and only amounts strictly below the
// large-transaction threshold; anything at or above it must go through a
// signature request and the time-locked queue.
func (e *Engine) Spend(vaultID ids.ID, token ids.ID, amount uint64, recipient ids.ShortID, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.spend(vaultID, token, amount, recipient, caller))
}

func (e *Engine) spend(vaultID ids.ID, token ids.ID, amount uint64, recipient ids.ShortID, caller ids.ShortID) error {
	v, err := e.getOwnedVault(vaultID, caller)
	if err != nil {
		return err
	}
	if amount == 0 {
		return timelock.ErrInvalidAmount
	}
	if amount >= v.Config.LargeTxThreshold {
		return ErrLargeTransfer
	}

	vaultFrozen, err := e.targetFrozen(vaultID, VaultTarget)
	if err != nil {
		return err
	}
	if vaultFrozen {
		return timelock.ErrFrozen
	}

	balance, err := e.state.GetBalance(vaultID, token)
	if err != nil {
		return err
	}
	if balance < amount {
		return timelock.ErrInsufficientFunds
	}
	if err := e.state.PutBalance(vaultID, token, balance-amount); err != nil {
		return err
	}

	if err := e.emit(v, &event.Spent{
		Vault:     vaultID,
		Token:     token,
		Amount:    amount,
		Recipient: recipient,
	}); err != nil {
		return err
	}
	return e.state.PutVault(v)
}

// GetBalance returns the vault's balance of [token]. Missing entries
// read as zero.
func (e *Engine) GetBalance(vaultID ids.ID, token ids.ID) (uint64, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if _, err := e.getVault(vaultID); err != nil {
		return 0, err
	}
	return e.state.GetBalance(vaultID, token)
}

/*
 * Configuration
 */

type configUpdate struct {
	parameter string
	value     uint64
	apply     func(*config.Config)
}

// setConfig applies one owner-only policy change. Changes affect future
// requests, withdrawals and ballots only; anything already created keeps
// the values snapshotted at its creation.
func (e *Engine) setConfig(vaultID ids.ID, caller ids.ShortID, update configUpdate) error {
	v, err := e.getOwnedVault(vaultID, caller)
	if err != nil {
		return err
	}

	cfg := v.Config
	update.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	v.Config = cfg

	if err := e.emit(v, &event.ConfigChanged{
		Vault:     vaultID,
		Parameter: update.parameter,
		Value:     update.value,
	}); err != nil {
		return err
	}
	if err := e.state.PutVault(v); err != nil {
		return err
	}

	e.log.Info("vault config changed",
		log.Stringer("vaultID", vaultID),
		log.String("parameter", update.parameter),
		log.Uint64("value", update.value),
	)
	return nil
}

// SetTimeLockDelay changes the maturation delay for future withdrawals.
func (e *Engine) SetTimeLockDelay(vaultID ids.ID, delay time.Duration, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.setConfig(vaultID, caller, configUpdate{
		parameter: "timeLockDelay",
		value:     uint64(delay / time.Second),
		apply:     func(c *config.Config) { c.TimeLockDelay = delay },
	}))
}

// SetLargeTxThreshold changes the direct-spend ceiling.
func (e *Engine) SetLargeTxThreshold(vaultID ids.ID, threshold uint64, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.setConfig(vaultID, caller, configUpdate{
		parameter: "largeTxThreshold",
		value:     threshold,
		apply:     func(c *config.Config) { c.LargeTxThreshold = threshold },
	}))
}

// SetFreezeThreshold changes the freeze vote threshold for future
// ballots.
func (e *Engine) SetFreezeThreshold(vaultID ids.ID, threshold uint32, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.setConfig(vaultID, caller, configUpdate{
		parameter: "freezeThreshold",
		value:     uint64(threshold),
		apply:     func(c *config.Config) { c.FreezeThreshold = threshold },
	}))
}

// SetUnfreezeThreshold changes the unfreeze vote threshold for future
// ballots.
func (e *Engine) SetUnfreezeThreshold(vaultID ids.ID, threshold uint32, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.setConfig(vaultID, caller, configUpdate{
		parameter: "unfreezeThreshold",
		value:     uint64(threshold),
		apply:     func(c *config.Config) { c.UnfreezeThreshold = threshold },
	}))
}

// SetRequiredQuorum changes the signature quorum for future requests.
func (e *Engine) SetRequiredQuorum(vaultID ids.ID, requiredQuorum uint32, caller ids.ShortID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.commit(e.setConfig(vaultID, caller, configUpdate{
		parameter: "requiredQuorum",
		value:     uint64(requiredQuorum),
		apply:     func(c *config.Config) { c.RequiredQuorum = requiredQuorum },
	}))
}

/*
 * Event log
 */

// GetEvents returns up to [maxCount] activity log entries of the vault
// starting at log index [start].
func (e *Engine) GetEvents(vaultID ids.ID, start uint64, maxCount int) ([]*event.Envelope, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if _, err := e.getVault(vaultID); err != nil {
		return nil, err
	}
	return e.state.GetEvents(vaultID, start, maxCount)
}
