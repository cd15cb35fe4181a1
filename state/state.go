// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists every record family of the vault coordinator.
//
// All writes land in a versioned overlay over the base database and only
// reach disk on Commit. The engine runs one operation per critical
// section: mutate through this package, then Commit on success or Abort
// on failure, so every operation is all-or-nothing including its event.
package state

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"

	"github.com/luxfi/vault/config"
	"github.com/luxfi/vault/event"
	"github.com/luxfi/vault/freeze"
	"github.com/luxfi/vault/quorum"
	"github.com/luxfi/vault/registry"
	"github.com/luxfi/vault/timelock"
)

var (
	vaultPrefix         = []byte("vault")
	withdrawalPrefix    = []byte("withdrawal")
	requestPrefix       = []byte("request")
	ballotPrefix        = []byte("ballot")
	balancePrefix       = []byte("balance")
	membershipPrefix    = []byte("membership")
	guardianIndexPrefix = []byte("guardian_index")
	vaultIndexPrefix    = []byte("vault_index")
	eventPrefix         = []byte("event")
	singletonPrefix     = []byte("singleton")

	membershipCounterKey = []byte("next_membership_id")
	vaultCounterKey      = []byte("next_vault_seq")

	_ registry.State = (*State)(nil)
)

// Vault is the root record of one vault: its owner, policy configuration
// and monotonic counters.
type Vault struct {
	ID        ids.ID        `serialize:"true" json:"id"`
	Owner     ids.ShortID   `serialize:"true" json:"owner"`
	Config    config.Config `serialize:"true" json:"config"`
	CreatedAt uint64        `serialize:"true" json:"createdAt"`

	// NextWithdrawalID starts at 1; withdrawal id 0 addresses the vault
	// itself in freeze votes.
	NextWithdrawalID uint64 `serialize:"true" json:"nextWithdrawalID"`
	NextEventIndex   uint64 `serialize:"true" json:"nextEventIndex"`
	NextNonce        uint64 `serialize:"true" json:"nextNonce"`
}

// State is the persistence layer of the vault coordinator.
type State struct {
	baseDB database.Database
	db     *versiondb.Database

	vaultDB         database.Database
	withdrawalDB    database.Database
	requestDB       database.Database
	ballotDB        database.Database
	balanceDB       database.Database
	membershipDB    database.Database
	guardianIndexDB database.Database
	vaultIndexDB    database.Database
	eventDB         database.Database
	singletonDB     database.Database
}

func New(db database.Database) *State {
	vdb := versiondb.New(db)
	return &State{
		baseDB:          db,
		db:              vdb,
		vaultDB:         prefixdb.New(vaultPrefix, vdb),
		withdrawalDB:    prefixdb.New(withdrawalPrefix, vdb),
		requestDB:       prefixdb.New(requestPrefix, vdb),
		ballotDB:        prefixdb.New(ballotPrefix, vdb),
		balanceDB:       prefixdb.New(balancePrefix, vdb),
		membershipDB:    prefixdb.New(membershipPrefix, vdb),
		guardianIndexDB: prefixdb.New(guardianIndexPrefix, vdb),
		vaultIndexDB:    prefixdb.New(vaultIndexPrefix, vdb),
		eventDB:         prefixdb.New(eventPrefix, vdb),
		singletonDB:     prefixdb.New(singletonPrefix, vdb),
	}
}

// Commit atomically writes every change since the last Commit or Abort to
// the base database.
func (s *State) Commit() error {
	return s.db.Commit()
}

// Abort discards every change since the last Commit.
func (s *State) Abort() {
	s.db.Abort()
}

func (s *State) Close() error {
	return s.db.Close()
}

/*
 * Vaults
 */

func (s *State) PutVault(v *Vault) error {
	bytes, err := Codec.Marshal(CodecVersion, v)
	if err != nil {
		return fmt.Errorf("failed to serialize vault: %w", err)
	}
	return s.vaultDB.Put(v.ID[:], bytes)
}

func (s *State) GetVault(vaultID ids.ID) (*Vault, error) {
	bytes, err := s.vaultDB.Get(vaultID[:])
	if err != nil {
		return nil, err
	}
	v := &Vault{}
	if _, err := Codec.Unmarshal(bytes, v); err != nil {
		return nil, fmt.Errorf("failed to deserialize vault: %w", err)
	}
	return v, nil
}

/*
 * Withdrawals
 */

func vaultScopedKey(vaultID ids.ID, n uint64) []byte {
	key := make([]byte, len(vaultID)+8)
	copy(key, vaultID[:])
	binary.BigEndian.PutUint64(key[len(vaultID):], n)
	return key
}

func (s *State) PutWithdrawal(w *timelock.Withdrawal) error {
	bytes, err := Codec.Marshal(CodecVersion, w)
	if err != nil {
		return fmt.Errorf("failed to serialize withdrawal: %w", err)
	}
	return s.withdrawalDB.Put(vaultScopedKey(w.Vault, w.ID), bytes)
}

func (s *State) GetWithdrawal(vaultID ids.ID, withdrawalID uint64) (*timelock.Withdrawal, error) {
	bytes, err := s.withdrawalDB.Get(vaultScopedKey(vaultID, withdrawalID))
	if err != nil {
		return nil, err
	}
	w := &timelock.Withdrawal{}
	if _, err := Codec.Unmarshal(bytes, w); err != nil {
		return nil, fmt.Errorf("failed to deserialize withdrawal: %w", err)
	}
	return w, nil
}

// GetWithdrawals returns every withdrawal of [vaultID] in queue order.
func (s *State) GetWithdrawals(vaultID ids.ID) ([]*timelock.Withdrawal, error) {
	iter := s.withdrawalDB.NewIteratorWithPrefix(vaultID[:])
	defer iter.Release()

	var withdrawals []*timelock.Withdrawal
	for iter.Next() {
		w := &timelock.Withdrawal{}
		if _, err := Codec.Unmarshal(iter.Value(), w); err != nil {
			return nil, fmt.Errorf("failed to deserialize withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, iter.Error()
}

/*
 * Signature requests
 */

func (s *State) PutRequest(r *quorum.Request) error {
	bytes, err := Codec.Marshal(CodecVersion, r)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	return s.requestDB.Put(r.ID[:], bytes)
}

func (s *State) GetRequest(requestID ids.ID) (*quorum.Request, error) {
	bytes, err := s.requestDB.Get(requestID[:])
	if err != nil {
		return nil, err
	}
	r := &quorum.Request{}
	if _, err := Codec.Unmarshal(bytes, r); err != nil {
		return nil, fmt.Errorf("failed to deserialize request: %w", err)
	}
	return r, nil
}

/*
 * Freeze ballots
 */

func (s *State) PutBallot(vaultID ids.ID, withdrawalID uint64, r *freeze.Record) error {
	bytes, err := Codec.Marshal(CodecVersion, r)
	if err != nil {
		return fmt.Errorf("failed to serialize ballot: %w", err)
	}
	return s.ballotDB.Put(vaultScopedKey(vaultID, withdrawalID), bytes)
}

func (s *State) GetBallot(vaultID ids.ID, withdrawalID uint64) (*freeze.Record, error) {
	bytes, err := s.ballotDB.Get(vaultScopedKey(vaultID, withdrawalID))
	if err != nil {
		return nil, err
	}
	r := &freeze.Record{}
	if _, err := Codec.Unmarshal(bytes, r); err != nil {
		return nil, fmt.Errorf("failed to deserialize ballot: %w", err)
	}
	return r, nil
}

// DeleteBallot clears the vote state of a target, used when its
// withdrawal reaches a terminal state.
func (s *State) DeleteBallot(vaultID ids.ID, withdrawalID uint64) error {
	return s.ballotDB.Delete(vaultScopedKey(vaultID, withdrawalID))
}

/*
 * Balances
 */

func balanceKey(vaultID ids.ID, token ids.ID) []byte {
	key := make([]byte, len(vaultID)+len(token))
	copy(key, vaultID[:])
	copy(key[len(vaultID):], token[:])
	return key
}

// GetBalance returns the vault's balance of [token]. Missing entries read
// as zero.
func (s *State) GetBalance(vaultID ids.ID, token ids.ID) (uint64, error) {
	bytes, err := s.balanceDB.Get(balanceKey(vaultID, token))
	switch err {
	case nil:
		return binary.BigEndian.Uint64(bytes), nil
	case database.ErrNotFound:
		return 0, nil
	default:
		return 0, err
	}
}

func (s *State) PutBalance(vaultID ids.ID, token ids.ID, balance uint64) error {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, balance)
	return s.balanceDB.Put(balanceKey(vaultID, token), bytes)
}

/*
 * Guardian memberships
 *
 * Memberships are indexed three ways: by membership id for burns, by
 * guardian for getVaultsForGuardian and by vault for
 * getGuardiansForVault. The three buckets are only ever mutated together
 * by AddMembership and DeleteMembership.
 */

func membershipIDKey(membershipID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, membershipID)
	return key
}

func guardianIndexKey(guardian ids.ShortID, membershipID uint64) []byte {
	key := make([]byte, len(guardian)+8)
	copy(key, guardian[:])
	binary.BigEndian.PutUint64(key[len(guardian):], membershipID)
	return key
}

func (s *State) AddMembership(m *registry.Membership) error {
	bytes, err := Codec.Marshal(CodecVersion, m)
	if err != nil {
		return fmt.Errorf("failed to serialize membership: %w", err)
	}
	if err := s.membershipDB.Put(membershipIDKey(m.ID), bytes); err != nil {
		return err
	}
	if err := s.guardianIndexDB.Put(guardianIndexKey(m.Guardian, m.ID), m.Vault[:]); err != nil {
		return err
	}
	return s.vaultIndexDB.Put(vaultScopedKey(m.Vault, m.ID), m.Guardian[:])
}

func (s *State) GetMembership(membershipID uint64) (*registry.Membership, error) {
	bytes, err := s.membershipDB.Get(membershipIDKey(membershipID))
	if err != nil {
		return nil, err
	}
	m := &registry.Membership{}
	if _, err := Codec.Unmarshal(bytes, m); err != nil {
		return nil, fmt.Errorf("failed to deserialize membership: %w", err)
	}
	return m, nil
}

func (s *State) DeleteMembership(m *registry.Membership) error {
	if err := s.membershipDB.Delete(membershipIDKey(m.ID)); err != nil {
		return err
	}
	if err := s.guardianIndexDB.Delete(guardianIndexKey(m.Guardian, m.ID)); err != nil {
		return err
	}
	return s.vaultIndexDB.Delete(vaultScopedKey(m.Vault, m.ID))
}

func (s *State) GetVaultsForGuardian(guardian ids.ShortID) (set.Set[ids.ID], error) {
	iter := s.guardianIndexDB.NewIteratorWithPrefix(guardian[:])
	defer iter.Release()

	vaults := set.Set[ids.ID]{}
	for iter.Next() {
		vaultID, err := ids.ToID(iter.Value())
		if err != nil {
			return nil, err
		}
		vaults.Add(vaultID)
	}
	return vaults, iter.Error()
}

func (s *State) GetGuardiansForVault(vaultID ids.ID) (set.Set[ids.ShortID], error) {
	iter := s.vaultIndexDB.NewIteratorWithPrefix(vaultID[:])
	defer iter.Release()

	guardians := set.Set[ids.ShortID]{}
	for iter.Next() {
		guardian, err := ids.ToShortID(iter.Value())
		if err != nil {
			return nil, err
		}
		guardians.Add(guardian)
	}
	return guardians, iter.Error()
}

// nextCounter returns the next value of a global counter and advances
// it. The advance is part of the surrounding operation's version batch,
// so an aborted operation does not burn a value.
func (s *State) nextCounter(key []byte) (uint64, error) {
	var next uint64
	bytes, err := s.singletonDB.Get(key)
	switch err {
	case nil:
		next = binary.BigEndian.Uint64(bytes)
	case database.ErrNotFound:
		next = 1
	default:
		return 0, err
	}

	updated := make([]byte, 8)
	binary.BigEndian.PutUint64(updated, next+1)
	if err := s.singletonDB.Put(key, updated); err != nil {
		return 0, err
	}
	return next, nil
}

// NextMembershipID advances the global membership id counter.
func (s *State) NextMembershipID() (uint64, error) {
	return s.nextCounter(membershipCounterKey)
}

// NextVaultSeq advances the global vault creation counter. The sequence
// number seeds the new vault's id.
func (s *State) NextVaultSeq() (uint64, error) {
	return s.nextCounter(vaultCounterKey)
}

/*
 * Event log
 */

// AddEvent appends [env] to the vault's activity log at its assigned
// index.
func (s *State) AddEvent(vaultID ids.ID, env *event.Envelope) error {
	bytes, err := Codec.Marshal(CodecVersion, env)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	return s.eventDB.Put(vaultScopedKey(vaultID, env.Index), bytes)
}

// GetEvents returns up to [maxCount] events of [vaultID] starting at log
// index [start].
func (s *State) GetEvents(vaultID ids.ID, start uint64, maxCount int) ([]*event.Envelope, error) {
	iter := s.eventDB.NewIteratorWithStartAndPrefix(vaultScopedKey(vaultID, start), vaultID[:])
	defer iter.Release()

	var events []*event.Envelope
	for len(events) < maxCount && iter.Next() {
		env := &event.Envelope{}
		if _, err := Codec.Unmarshal(iter.Value(), env); err != nil {
			return nil, fmt.Errorf("failed to deserialize event: %w", err)
		}
		events = append(events, env)
	}
	return events, iter.Error()
}
