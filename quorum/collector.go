// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum accumulates guardian signatures on withdrawal intents
// until a quorum threshold is met.
//
// The collector enforces signer uniqueness, counting and status
// transitions. Cryptographic validity of a signature is a precondition the
// caller satisfies through a Verifier before the signature reaches
// AddSignature.
package quorum

import (
	"errors"

	"github.com/luxfi/ids"
)

var (
	// ErrInvalidQuorum is returned when a request is created with a
	// quorum below 1.
	ErrInvalidQuorum = errors.New("required quorum must be at least 1")

	// ErrDuplicateSigner is returned when a signer already has a
	// signature on the request.
	ErrDuplicateSigner = errors.New("signer already present on request")

	// ErrNotFound is returned when the request does not exist.
	ErrNotFound = errors.New("signature request not found")

	// ErrInvalidStatus is returned when an operation is not valid from
	// the request's current status.
	ErrInvalidStatus = errors.New("operation not valid for request status")
)

// Status is the lifecycle state of a signature request. Transitions only
// move forward: pending→approved→executed, or pending→rejected.
type Status uint8

const (
	StatusPending Status = iota
	StatusApproved
	StatusRejected
	StatusExecuted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

// Intent is the withdrawal a request collects signatures over. Its
// canonical encoding (state codec, version 0) is what guardians sign.
type Intent struct {
	Vault     ids.ID      `serialize:"true" json:"vault"`
	Token     ids.ID      `serialize:"true" json:"token"`
	Amount    uint64      `serialize:"true" json:"amount"`
	Recipient ids.ShortID `serialize:"true" json:"recipient"`
	Reason    string      `serialize:"true" json:"reason"`
	Category  string      `serialize:"true" json:"category"`
	// Nonce distinguishes otherwise identical intents so each request
	// hashes to a unique id.
	Nonce uint64 `serialize:"true" json:"nonce"`
}

// Signature is one guardian's signature on a request's intent.
type Signature struct {
	Signer    ids.ShortID `serialize:"true" json:"signer"`
	Signature []byte      `serialize:"true" json:"signature"`
}

// Request is a pending withdrawal awaiting guardian quorum.
type Request struct {
	ID             ids.ID      `serialize:"true" json:"id"`
	Intent         Intent      `serialize:"true" json:"intent"`
	Signatures     []Signature `serialize:"true" json:"signatures"`
	RequiredQuorum uint32      `serialize:"true" json:"requiredQuorum"`
	Status         Status      `serialize:"true" json:"status"`
	CreatedAt      uint64      `serialize:"true" json:"createdAt"`
	CreatedBy      ids.ShortID `serialize:"true" json:"createdBy"`
	// ExecutionRef is the withdrawal id the approved request was queued
	// as. Only meaningful once Status is executed.
	ExecutionRef uint64 `serialize:"true" json:"executionRef"`
}

// NewRequest creates a pending request over [intent] requiring
// [requiredQuorum] unique signatures. [id] is the hash of the intent's
// canonical encoding.
func NewRequest(id ids.ID, intent Intent, requiredQuorum uint32, creator ids.ShortID, now uint64) (*Request, error) {
	if requiredQuorum < 1 {
		return nil, ErrInvalidQuorum
	}
	return &Request{
		ID:             id,
		Intent:         intent,
		RequiredQuorum: requiredQuorum,
		Status:         StatusPending,
		CreatedAt:      now,
		CreatedBy:      creator,
	}, nil
}

// HasSigner reports whether [signer] already signed this request.
func (r *Request) HasSigner(signer ids.ShortID) bool {
	for _, sig := range r.Signatures {
		if sig.Signer == signer {
			return true
		}
	}
	return false
}

// Signers returns the addresses that have signed, in signing order.
func (r *Request) Signers() []ids.ShortID {
	signers := make([]ids.ShortID, len(r.Signatures))
	for i, sig := range r.Signatures {
		signers[i] = sig.Signer
	}
	return signers
}

// AddSignature records [signer]'s signature. The transition to approved
// happens in the same call that reaches the quorum; there is no window
// where the quorum is met but the request is still pending. Returns true
// when this signature approved the request.
func (r *Request) AddSignature(signer ids.ShortID, signature []byte) (bool, error) {
	if r.Status != StatusPending {
		return false, ErrInvalidStatus
	}
	if r.HasSigner(signer) {
		return false, ErrDuplicateSigner
	}

	r.Signatures = append(r.Signatures, Signature{
		Signer:    signer,
		Signature: signature,
	})

	if uint32(len(r.Signatures)) >= r.RequiredQuorum {
		r.Status = StatusApproved
		return true, nil
	}
	return false, nil
}

// Reject moves a pending request to rejected.
func (r *Request) Reject() error {
	if r.Status != StatusPending {
		return ErrInvalidStatus
	}
	r.Status = StatusRejected
	return nil
}

// MarkExecuted moves an approved request to its terminal executed state,
// recording the withdrawal id it was queued as.
func (r *Request) MarkExecuted(executionRef uint64) error {
	if r.Status != StatusApproved {
		return ErrInvalidStatus
	}
	r.Status = StatusExecuted
	r.ExecutionRef = executionRef
	return nil
}
