// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the vault engine over JSON-RPC.
package api

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/luxfi/ids"

	vault "github.com/luxfi/vault"
	"github.com/luxfi/vault/config"
	"github.com/luxfi/vault/quorum"
	"github.com/luxfi/vault/utils/json"
)

// Service provides the RPC API for the vault engine.
type Service struct {
	engine *vault.Engine
}

// NewService creates a new API service over [engine].
func NewService(engine *vault.Engine) *Service {
	return &Service{engine: engine}
}

func parseShortID(field, str string) (ids.ShortID, error) {
	addr, err := ids.ShortFromString(str)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("invalid %s: %w", field, err)
	}
	return addr, nil
}

func parseID(field, str string) (ids.ID, error) {
	id, err := ids.FromString(str)
	if err != nil {
		return ids.Empty, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}

// PingArgs is the argument for the Ping API.
type PingArgs struct{}

// PingReply is the reply for the Ping API.
type PingReply struct {
	Success bool `json:"success"`
}

// Ping returns a simple health check response.
func (*Service) Ping(_ *http.Request, _ *PingArgs, reply *PingReply) error {
	reply.Success = true
	return nil
}

// VersionArgs is the argument for the Version API.
type VersionArgs struct{}

// VersionReply is the reply for the Version API.
type VersionReply struct {
	Version string `json:"version"`
}

// Version returns the engine version.
func (*Service) Version(_ *http.Request, _ *VersionArgs, reply *VersionReply) error {
	reply.Version = vault.Version.String()
	return nil
}

// CreateVaultArgs is the argument for the CreateVault API.
type CreateVaultArgs struct {
	Owner             string      `json:"owner"`
	TimeLockDelay     json.Uint64 `json:"timeLockDelay"` // seconds
	LargeTxThreshold  json.Uint64 `json:"largeTxThreshold"`
	FreezeThreshold   json.Uint32 `json:"freezeThreshold"`
	UnfreezeThreshold json.Uint32 `json:"unfreezeThreshold"`
	RequiredQuorum    json.Uint32 `json:"requiredQuorum"`
}

// CreateVaultReply is the reply for the CreateVault API.
type CreateVaultReply struct {
	VaultID string `json:"vaultID"`
}

// CreateVault registers a new vault and returns its id.
func (s *Service) CreateVault(_ *http.Request, args *CreateVaultArgs, reply *CreateVaultReply) error {
	owner, err := parseShortID("owner", args.Owner)
	if err != nil {
		return err
	}

	cfg := config.Config{
		TimeLockDelay:     time.Duration(args.TimeLockDelay) * time.Second,
		LargeTxThreshold:  uint64(args.LargeTxThreshold),
		FreezeThreshold:   uint32(args.FreezeThreshold),
		UnfreezeThreshold: uint32(args.UnfreezeThreshold),
		RequiredQuorum:    uint32(args.RequiredQuorum),
	}

	vaultID, err := s.engine.CreateVault(owner, cfg)
	if err != nil {
		return err
	}
	reply.VaultID = vaultID.String()
	return nil
}

// GetVaultArgs is the argument for the GetVault API.
type GetVaultArgs struct {
	VaultID string `json:"vaultID"`
}

// GetVaultReply is the reply for the GetVault API.
type GetVaultReply struct {
	VaultID           string      `json:"vaultID"`
	Owner             string      `json:"owner"`
	CreatedAt         json.Uint64 `json:"createdAt"`
	TimeLockDelay     json.Uint64 `json:"timeLockDelay"` // seconds
	LargeTxThreshold  json.Uint64 `json:"largeTxThreshold"`
	FreezeThreshold   json.Uint32 `json:"freezeThreshold"`
	UnfreezeThreshold json.Uint32 `json:"unfreezeThreshold"`
	RequiredQuorum    json.Uint32 `json:"requiredQuorum"`
	Frozen            bool        `json:"frozen"`
}

// GetVault returns a vault's owner, configuration and freeze state.
func (s *Service) GetVault(_ *http.Request, args *GetVaultArgs, reply *GetVaultReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}

	v, err := s.engine.GetVault(vaultID)
	if err != nil {
		return err
	}
	frozen, err := s.engine.Frozen(vaultID, vault.VaultTarget)
	if err != nil {
		return err
	}

	reply.VaultID = v.ID.String()
	reply.Owner = v.Owner.String()
	reply.CreatedAt = json.Uint64(v.CreatedAt)
	reply.TimeLockDelay = json.Uint64(v.Config.TimeLockDelay / time.Second)
	reply.LargeTxThreshold = json.Uint64(v.Config.LargeTxThreshold)
	reply.FreezeThreshold = json.Uint32(v.Config.FreezeThreshold)
	reply.UnfreezeThreshold = json.Uint32(v.Config.UnfreezeThreshold)
	reply.RequiredQuorum = json.Uint32(v.Config.RequiredQuorum)
	reply.Frozen = frozen
	return nil
}

// MintGuardianArgs is the argument for the MintGuardian API.
type MintGuardianArgs struct {
	VaultID  string `json:"vaultID"`
	Guardian string `json:"guardian"`
	Caller   string `json:"caller"`
}

// MintGuardianReply is the reply for the MintGuardian API.
type MintGuardianReply struct {
	MembershipID json.Uint64 `json:"membershipID"`
}

// MintGuardian grants a guardian membership in the vault.
func (s *Service) MintGuardian(_ *http.Request, args *MintGuardianArgs, reply *MintGuardianReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	guardian, err := parseShortID("guardian", args.Guardian)
	if err != nil {
		return err
	}
	caller, err := parseShortID("caller", args.Caller)
	if err != nil {
		return err
	}

	m, err := s.engine.MintGuardian(vaultID, guardian, caller)
	if err != nil {
		return err
	}
	reply.MembershipID = json.Uint64(m.ID)
	return nil
}

// BurnGuardianArgs is the argument for the BurnGuardian API.
type BurnGuardianArgs struct {
	VaultID      string      `json:"vaultID"`
	MembershipID json.Uint64 `json:"membershipID"`
	Caller       string      `json:"caller"`
}

// BurnGuardianReply is the reply for the BurnGuardian API.
type BurnGuardianReply struct {
	Success bool `json:"success"`
}

// BurnGuardian revokes a guardian membership.
func (s *Service) BurnGuardian(_ *http.Request, args *BurnGuardianArgs, reply *BurnGuardianReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	caller, err := parseShortID("caller", args.Caller)
	if err != nil {
		return err
	}

	if err := s.engine.BurnGuardian(vaultID, uint64(args.MembershipID), caller); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// GetGuardiansArgs is the argument for the GetGuardians API.
type GetGuardiansArgs struct {
	VaultID string `json:"vaultID"`
}

// GetGuardiansReply is the reply for the GetGuardians API.
type GetGuardiansReply struct {
	Guardians []string `json:"guardians"`
}

// GetGuardians returns the vault's current guardian set.
func (s *Service) GetGuardians(_ *http.Request, args *GetGuardiansArgs, reply *GetGuardiansReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}

	guardians, err := s.engine.GetGuardiansForVault(vaultID)
	if err != nil {
		return err
	}
	reply.Guardians = make([]string, 0, guardians.Len())
	for _, guardian := range guardians.List() {
		reply.Guardians = append(reply.Guardians, guardian.String())
	}
	return nil
}

// GetVaultsForGuardianArgs is the argument for the GetVaultsForGuardian
// API.
type GetVaultsForGuardianArgs struct {
	Guardian string `json:"guardian"`
}

// GetVaultsForGuardianReply is the reply for the GetVaultsForGuardian
// API.
type GetVaultsForGuardianReply struct {
	Vaults []string `json:"vaults"`
}

// GetVaultsForGuardian returns every vault the address guards.
func (s *Service) GetVaultsForGuardian(_ *http.Request, args *GetVaultsForGuardianArgs, reply *GetVaultsForGuardianReply) error {
	guardian, err := parseShortID("guardian", args.Guardian)
	if err != nil {
		return err
	}

	vaults, err := s.engine.GetVaultsForGuardian(guardian)
	if err != nil {
		return err
	}
	reply.Vaults = make([]string, 0, vaults.Len())
	for _, vaultID := range vaults.List() {
		reply.Vaults = append(reply.Vaults, vaultID.String())
	}
	return nil
}

// CreateRequestArgs is the argument for the CreateRequest API.
type CreateRequestArgs struct {
	VaultID   string      `json:"vaultID"`
	Token     string      `json:"token"`
	Amount    json.Uint64 `json:"amount"`
	Recipient string      `json:"recipient"`
	Reason    string      `json:"reason"`
	Category  string      `json:"category"`
	Creator   string      `json:"creator"`
}

// CreateRequestReply is the reply for the CreateRequest API.
type CreateRequestReply struct {
	RequestID      string      `json:"requestID"`
	RequiredQuorum json.Uint32 `json:"requiredQuorum"`
	SignedBytes    string      `json:"signedBytes"` // hex
}

// CreateRequest opens a signature request for a spending intent and
// returns the bytes guardians must sign.
func (s *Service) CreateRequest(_ *http.Request, args *CreateRequestArgs, reply *CreateRequestReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	token, err := parseID("token", args.Token)
	if err != nil {
		return err
	}
	recipient, err := parseShortID("recipient", args.Recipient)
	if err != nil {
		return err
	}
	creator, err := parseShortID("creator", args.Creator)
	if err != nil {
		return err
	}

	r, err := s.engine.CreateRequest(vaultID, token, uint64(args.Amount), recipient, args.Reason, args.Category, creator)
	if err != nil {
		return err
	}
	signedBytes, err := s.engine.SignedBytes(r.ID)
	if err != nil {
		return err
	}

	reply.RequestID = r.ID.String()
	reply.RequiredQuorum = json.Uint32(r.RequiredQuorum)
	reply.SignedBytes = hex.EncodeToString(signedBytes)
	return nil
}

// GetRequestArgs is the argument for the GetRequest API.
type GetRequestArgs struct {
	RequestID string `json:"requestID"`
}

// GetRequestReply is the reply for the GetRequest API.
type GetRequestReply struct {
	RequestID      string      `json:"requestID"`
	VaultID        string      `json:"vaultID"`
	Token          string      `json:"token"`
	Amount         json.Uint64 `json:"amount"`
	Recipient      string      `json:"recipient"`
	Reason         string      `json:"reason"`
	Category       string      `json:"category"`
	Status         string      `json:"status"`
	Signers        []string    `json:"signers"`
	RequiredQuorum json.Uint32 `json:"requiredQuorum"`
	CreatedAt      json.Uint64 `json:"createdAt"`
	CreatedBy      string      `json:"createdBy"`
	WithdrawalID   json.Uint64 `json:"withdrawalID,omitempty"`
}

// GetRequest returns a signature request and its collected signers.
func (s *Service) GetRequest(_ *http.Request, args *GetRequestArgs, reply *GetRequestReply) error {
	requestID, err := parseID("request ID", args.RequestID)
	if err != nil {
		return err
	}

	r, err := s.engine.GetRequest(requestID)
	if err != nil {
		return err
	}

	reply.RequestID = r.ID.String()
	reply.VaultID = r.Intent.Vault.String()
	reply.Token = r.Intent.Token.String()
	reply.Amount = json.Uint64(r.Intent.Amount)
	reply.Recipient = r.Intent.Recipient.String()
	reply.Reason = r.Intent.Reason
	reply.Category = r.Intent.Category
	reply.Status = r.Status.String()
	reply.RequiredQuorum = json.Uint32(r.RequiredQuorum)
	reply.CreatedAt = json.Uint64(r.CreatedAt)
	reply.CreatedBy = r.CreatedBy.String()
	reply.WithdrawalID = json.Uint64(r.ExecutionRef)

	signers := r.Signers()
	reply.Signers = make([]string, len(signers))
	for i, signer := range signers {
		reply.Signers[i] = signer.String()
	}
	return nil
}

// AddSignatureArgs is the argument for the AddSignature API.
type AddSignatureArgs struct {
	RequestID string `json:"requestID"`
	Signer    string `json:"signer"`
	Signature string `json:"signature"` // hex
}

// AddSignatureReply is the reply for the AddSignature API.
type AddSignatureReply struct {
	Signatures json.Uint32 `json:"signatures"`
	Approved   bool        `json:"approved"`
}

// AddSignature records one guardian approval on a pending request.
func (s *Service) AddSignature(_ *http.Request, args *AddSignatureArgs, reply *AddSignatureReply) error {
	requestID, err := parseID("request ID", args.RequestID)
	if err != nil {
		return err
	}
	signer, err := parseShortID("signer", args.Signer)
	if err != nil {
		return err
	}
	signature, err := hex.DecodeString(args.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	r, err := s.engine.AddSignature(requestID, signer, signature)
	if err != nil {
		return err
	}
	reply.Signatures = json.Uint32(uint32(len(r.Signatures)))
	reply.Approved = r.Status == quorum.StatusApproved
	return nil
}

// RejectRequestArgs is the argument for the RejectRequest API.
type RejectRequestArgs struct {
	RequestID string `json:"requestID"`
	Caller    string `json:"caller"`
}

// RejectRequestReply is the reply for the RejectRequest API.
type RejectRequestReply struct {
	Success bool `json:"success"`
}

// RejectRequest permanently rejects a pending request.
func (s *Service) RejectRequest(_ *http.Request, args *RejectRequestArgs, reply *RejectRequestReply) error {
	requestID, err := parseID("request ID", args.RequestID)
	if err != nil {
		return err
	}
	caller, err := parseShortID("caller", args.Caller)
	if err != nil {
		return err
	}

	if err := s.engine.RejectRequest(requestID, caller); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// QueueArgs is the argument for the Queue API.
type QueueArgs struct {
	VaultID   string `json:"vaultID"`
	RequestID string `json:"requestID"`
}

// QueueReply is the reply for the Queue API.
type QueueReply struct {
	WithdrawalID json.Uint64 `json:"withdrawalID"`
	ReadyAt      json.Uint64 `json:"readyAt"`
}

// Queue turns an approved request into a time-locked withdrawal.
func (s *Service) Queue(_ *http.Request, args *QueueArgs, reply *QueueReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	requestID, err := parseID("request ID", args.RequestID)
	if err != nil {
		return err
	}

	withdrawalID, err := s.engine.Queue(vaultID, requestID)
	if err != nil {
		return err
	}
	w, err := s.engine.GetWithdrawal(vaultID, withdrawalID)
	if err != nil {
		return err
	}

	reply.WithdrawalID = json.Uint64(withdrawalID)
	reply.ReadyAt = json.Uint64(w.ReadyAt)
	return nil
}

// ExecuteArgs is the argument for the Execute API.
type ExecuteArgs struct {
	VaultID      string      `json:"vaultID"`
	WithdrawalID json.Uint64 `json:"withdrawalID"`
	Caller       string      `json:"caller"`
}

// ExecuteReply is the reply for the Execute API.
type ExecuteReply struct {
	Success bool `json:"success"`
}

// Execute releases a matured withdrawal.
func (s *Service) Execute(_ *http.Request, args *ExecuteArgs, reply *ExecuteReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	caller, err := parseShortID("caller", args.Caller)
	if err != nil {
		return err
	}

	if err := s.engine.Execute(vaultID, uint64(args.WithdrawalID), caller); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// CancelArgs is the argument for the Cancel API.
type CancelArgs struct {
	VaultID      string      `json:"vaultID"`
	WithdrawalID json.Uint64 `json:"withdrawalID"`
	Caller       string      `json:"caller"`
}

// CancelReply is the reply for the Cancel API.
type CancelReply struct {
	Success bool `json:"success"`
}

// Cancel voids a queued withdrawal.
func (s *Service) Cancel(_ *http.Request, args *CancelArgs, reply *CancelReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	caller, err := parseShortID("caller", args.Caller)
	if err != nil {
		return err
	}

	if err := s.engine.Cancel(vaultID, uint64(args.WithdrawalID), caller); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// WithdrawalView is one withdrawal in GetWithdrawals replies.
type WithdrawalView struct {
	WithdrawalID  json.Uint64 `json:"withdrawalID"`
	Token         string      `json:"token"`
	Amount        json.Uint64 `json:"amount"`
	Recipient     string      `json:"recipient"`
	Reason        string      `json:"reason"`
	Category      string      `json:"category"`
	Status        string      `json:"status"`
	QueuedAt      json.Uint64 `json:"queuedAt"`
	ReadyAt       json.Uint64 `json:"readyAt"`
	TimeRemaining json.Uint64 `json:"timeRemaining"`
	FreezeVotes   json.Uint32 `json:"freezeVotes"`
	Signers       []string    `json:"signers"`
}

// GetWithdrawalsArgs is the argument for the GetWithdrawals API.
type GetWithdrawalsArgs struct {
	VaultID string `json:"vaultID"`
}

// GetWithdrawalsReply is the reply for the GetWithdrawals API.
type GetWithdrawalsReply struct {
	Withdrawals []WithdrawalView `json:"withdrawals"`
}

// GetWithdrawals returns every withdrawal of the vault in queue order,
// with the status each would report right now.
func (s *Service) GetWithdrawals(_ *http.Request, args *GetWithdrawalsArgs, reply *GetWithdrawalsReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}

	withdrawals, err := s.engine.GetWithdrawals(vaultID)
	if err != nil {
		return err
	}

	now := s.engine.Clock().Unix()
	reply.Withdrawals = make([]WithdrawalView, len(withdrawals))
	for i, w := range withdrawals {
		signers := make([]string, len(w.Signers))
		for j, signer := range w.Signers {
			signers[j] = signer.String()
		}
		reply.Withdrawals[i] = WithdrawalView{
			WithdrawalID:  json.Uint64(w.ID),
			Token:         w.Token.String(),
			Amount:        json.Uint64(w.Amount),
			Recipient:     w.Recipient.String(),
			Reason:        w.Reason,
			Category:      w.Category,
			Status:        w.Status(now).String(),
			QueuedAt:      json.Uint64(w.QueuedAt),
			ReadyAt:       json.Uint64(w.ReadyAt),
			TimeRemaining: json.Uint64(w.TimeRemaining(now)),
			FreezeVotes:   json.Uint32(w.FreezeVotes),
			Signers:       signers,
		}
	}
	return nil
}

// VoteFreezeArgs is the argument for the VoteFreeze API.
type VoteFreezeArgs struct {
	VaultID      string      `json:"vaultID"`
	WithdrawalID json.Uint64 `json:"withdrawalID"` // 0 targets the vault itself
	Guardian     string      `json:"guardian"`
}

// VoteFreezeReply is the reply for the VoteFreeze API.
type VoteFreezeReply struct {
	Frozen bool `json:"frozen"`
}

// VoteFreeze casts a guardian's freeze vote against a withdrawal or the
// vault itself.
func (s *Service) VoteFreeze(_ *http.Request, args *VoteFreezeArgs, reply *VoteFreezeReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	guardian, err := parseShortID("guardian", args.Guardian)
	if err != nil {
		return err
	}

	if err := s.engine.VoteFreeze(vaultID, uint64(args.WithdrawalID), guardian); err != nil {
		return err
	}
	frozen, err := s.engine.Frozen(vaultID, uint64(args.WithdrawalID))
	if err != nil {
		return err
	}
	reply.Frozen = frozen
	return nil
}

// VoteUnfreezeArgs is the argument for the VoteUnfreeze API.
type VoteUnfreezeArgs struct {
	VaultID      string      `json:"vaultID"`
	WithdrawalID json.Uint64 `json:"withdrawalID"`
	Guardian     string      `json:"guardian"`
}

// VoteUnfreezeReply is the reply for the VoteUnfreeze API.
type VoteUnfreezeReply struct {
	Outcome string `json:"outcome"`
	Frozen  bool   `json:"frozen"`
}

// VoteUnfreeze retracts the guardian's freeze vote, or votes toward
// unfreezing when the target is frozen.
func (s *Service) VoteUnfreeze(_ *http.Request, args *VoteUnfreezeArgs, reply *VoteUnfreezeReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	guardian, err := parseShortID("guardian", args.Guardian)
	if err != nil {
		return err
	}

	outcome, err := s.engine.VoteUnfreeze(vaultID, uint64(args.WithdrawalID), guardian)
	if err != nil {
		return err
	}
	frozen, err := s.engine.Frozen(vaultID, uint64(args.WithdrawalID))
	if err != nil {
		return err
	}
	reply.Outcome = outcome.String()
	reply.Frozen = frozen
	return nil
}

// DepositArgs is the argument for the Deposit API.
type DepositArgs struct {
	VaultID string      `json:"vaultID"`
	Token   string      `json:"token"`
	Amount  json.Uint64 `json:"amount"`
}

// DepositReply is the reply for the Deposit API.
type DepositReply struct {
	Balance json.Uint64 `json:"balance"`
}

// Deposit credits the vault's balance of a token.
func (s *Service) Deposit(_ *http.Request, args *DepositArgs, reply *DepositReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	token, err := parseID("token", args.Token)
	if err != nil {
		return err
	}

	if err := s.engine.Deposit(vaultID, token, uint64(args.Amount)); err != nil {
		return err
	}
	balance, err := s.engine.GetBalance(vaultID, token)
	if err != nil {
		return err
	}
	reply.Balance = json.Uint64(balance)
	return nil
}

// SpendArgs is the argument for the Spend API.
type SpendArgs struct {
	VaultID   string      `json:"vaultID"`
	Token     string      `json:"token"`
	Amount    json.Uint64 `json:"amount"`
	Recipient string      `json:"recipient"`
	Caller    string      `json:"caller"`
}

// SpendReply is the reply for the Spend API.
type SpendReply struct {
	Balance json.Uint64 `json:"balance"`
}

// Spend transfers funds out immediately, below the large-transaction
// threshold only.
func (s *Service) Spend(_ *http.Request, args *SpendArgs, reply *SpendReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	token, err := parseID("token", args.Token)
	if err != nil {
		return err
	}
	recipient, err := parseShortID("recipient", args.Recipient)
	if err != nil {
		return err
	}
	caller, err := parseShortID("caller", args.Caller)
	if err != nil {
		return err
	}

	if err := s.engine.Spend(vaultID, token, uint64(args.Amount), recipient, caller); err != nil {
		return err
	}
	balance, err := s.engine.GetBalance(vaultID, token)
	if err != nil {
		return err
	}
	reply.Balance = json.Uint64(balance)
	return nil
}

// GetBalanceArgs is the argument for the GetBalance API.
type GetBalanceArgs struct {
	VaultID string `json:"vaultID"`
	Token   string `json:"token"`
}

// GetBalanceReply is the reply for the GetBalance API.
type GetBalanceReply struct {
	Balance json.Uint64 `json:"balance"`
}

// GetBalance returns the vault's balance of a token.
func (s *Service) GetBalance(_ *http.Request, args *GetBalanceArgs, reply *GetBalanceReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}
	token, err := parseID("token", args.Token)
	if err != nil {
		return err
	}

	balance, err := s.engine.GetBalance(vaultID, token)
	if err != nil {
		return err
	}
	reply.Balance = json.Uint64(balance)
	return nil
}

// EventView is one activity log entry in GetEvents replies.
type EventView struct {
	Index     json.Uint64 `json:"index"`
	Timestamp json.Uint64 `json:"timestamp"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
}

// GetEventsArgs is the argument for the GetEvents API.
type GetEventsArgs struct {
	VaultID  string      `json:"vaultID"`
	Start    json.Uint64 `json:"start"`
	MaxCount json.Uint32 `json:"maxCount"`
}

// GetEventsReply is the reply for the GetEvents API.
type GetEventsReply struct {
	Events []EventView `json:"events"`
}

// GetEvents returns activity log entries of the vault starting at the
// given log index.
func (s *Service) GetEvents(_ *http.Request, args *GetEventsArgs, reply *GetEventsReply) error {
	vaultID, err := parseID("vault ID", args.VaultID)
	if err != nil {
		return err
	}

	maxCount := int(args.MaxCount)
	if maxCount == 0 {
		maxCount = 100
	}

	events, err := s.engine.GetEvents(vaultID, uint64(args.Start), maxCount)
	if err != nil {
		return err
	}
	reply.Events = make([]EventView, len(events))
	for i, env := range events {
		reply.Events[i] = EventView{
			Index:     json.Uint64(env.Index),
			Timestamp: json.Uint64(env.Timestamp),
			Type:      env.Payload.Type(),
			Payload:   env.Payload,
		}
	}
	return nil
}
