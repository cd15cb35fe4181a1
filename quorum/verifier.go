// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"errors"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/ids"
)

// ErrInvalidSignature is returned when a signature does not verify
// against the request's signed bytes for the claimed signer.
var ErrInvalidSignature = errors.New("invalid signature")

// Verifier checks a guardian signature over a request's signed bytes and
// returns the signer address it authenticates. The engine matches the
// returned address against both the claimed signer and the vault's
// guardian registry; the collector itself never inspects signatures.
type Verifier interface {
	Verify(signedBytes []byte, signature []byte) (ids.ShortID, error)
}

// secp256k1Verifier recovers the signer from a 65-byte recoverable
// secp256k1 signature over the sha256 of the signed bytes.
type secp256k1Verifier struct{}

// NewSecp256k1Verifier returns the default production Verifier.
func NewSecp256k1Verifier() Verifier {
	return secp256k1Verifier{}
}

func (secp256k1Verifier) Verify(signedBytes []byte, signature []byte) (ids.ShortID, error) {
	pk, err := secp256k1.RecoverPublicKeyFromHash(hash.ComputeHash256(signedBytes), signature)
	if err != nil {
		return ids.ShortEmpty, ErrInvalidSignature
	}
	return pk.Address(), nil
}
