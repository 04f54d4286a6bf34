// Package tendermint verifies Tendermint BFT headers against a trusted
// consensus state.
//
// Signature and quorum checks are delegated to the tendermint types package.
// This package only decides which validator set has to sign and which hashes
// have to line up with the trusted state.
package tendermint

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	tmmath "github.com/tendermint/tendermint/libs/math"
	"github.com/tendermint/tendermint/light"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/cosmos/lightcore/core/codec"
)

// Verifier checks Tendermint headers.
type Verifier struct {
	// TrustLevel is the fraction of the trusted validator set's voting power
	// that must have signed a non-adjacent header.
	TrustLevel tmmath.Fraction

	// Now is the local clock that trusting periods and clock drift are measured against.
	Now func() time.Time
}

// NewVerifier returns a Verifier using the light client's default trust level of 1/3.
func NewVerifier() *Verifier {
	return &Verifier{TrustLevel: light.DefaultTrustLevel, Now: time.Now}
}

// VerifyHeader checks that header was committed by a quorum of its validator
// set, and that this validator set descends from the one trusted by the
// consensus state. The header must belong to the chain the client tracks, the
// trusted state must still be within the trusting period, and the header may
// not be ahead of the local clock by more than the allowed drift.
func (v *Verifier) VerifyHeader(clientState codec.ClientState, trusted codec.ConsensusState, header codec.Header) error {
	client, ok := clientState.(*codec.TendermintClientState)
	if !ok {
		return fmt.Errorf("client state is of type %s, expected %s", clientState.ClientType(), codec.Tendermint)
	}
	cs, ok := trusted.(*codec.TendermintConsensusState)
	if !ok {
		return fmt.Errorf("trusted consensus state is of type %s, expected %s", trusted.ClientType(), codec.Tendermint)
	}
	h, ok := header.(*codec.TendermintHeader)
	if !ok {
		return fmt.Errorf("header is of type %s, expected %s", header.ClientType(), codec.Tendermint)
	}

	raw := h.Raw
	if raw.ValidatorSet == nil {
		return errors.New("header is missing its validator set")
	}
	if raw.TrustedValidators == nil {
		return errors.New("header is missing its trusted validator set")
	}

	signedHeader, err := tmtypes.SignedHeaderFromProto(raw.SignedHeader)
	if err != nil {
		return fmt.Errorf("invalid signed header: %w", err)
	}
	valSet, err := tmtypes.ValidatorSetFromProto(raw.ValidatorSet)
	if err != nil {
		return fmt.Errorf("invalid validator set: %w", err)
	}
	trustedVals, err := tmtypes.ValidatorSetFromProto(raw.TrustedValidators)
	if err != nil {
		return fmt.Errorf("invalid trusted validator set: %w", err)
	}

	chainID := client.Raw.ChainId
	if signedHeader.ChainID != chainID {
		return fmt.Errorf("header is from chain %s, client tracks %s", signedHeader.ChainID, chainID)
	}
	if err := signedHeader.ValidateBasic(chainID); err != nil {
		return fmt.Errorf("invalid signed header: %w", err)
	}

	now := v.Now()
	if expires := cs.Raw.Timestamp.Add(client.Raw.TrustingPeriod); !expires.After(now) {
		return fmt.Errorf("trusted consensus state expired at %s", expires)
	}
	if limit := now.Add(client.Raw.MaxClockDrift); signedHeader.Time.After(limit) {
		return fmt.Errorf("header time %s is past the allowed clock drift %s", signedHeader.Time, limit)
	}

	if !signedHeader.Time.After(cs.Raw.Timestamp) {
		return fmt.Errorf("header time %s is not after trusted time %s", signedHeader.Time, cs.Raw.Timestamp)
	}

	if !bytes.Equal(trustedVals.Hash(), cs.Raw.NextValidatorsHash) {
		return fmt.Errorf(
			"trusted validators hash %X does not match trusted next validators hash %X",
			trustedVals.Hash(), cs.Raw.NextValidatorsHash,
		)
	}

	if !bytes.Equal(signedHeader.ValidatorsHash, valSet.Hash()) {
		return fmt.Errorf(
			"header validators hash %X does not match validator set hash %X",
			signedHeader.ValidatorsHash, valSet.Hash(),
		)
	}

	if raw.TrustedHeight.RevisionHeight+1 == uint64(signedHeader.Height) {
		// Adjacent headers must be signed by the validator set the trusted
		// header announced.
		if !bytes.Equal(signedHeader.ValidatorsHash, cs.Raw.NextValidatorsHash) {
			return fmt.Errorf(
				"adjacent header validators hash %X does not match trusted next validators hash %X",
				signedHeader.ValidatorsHash, cs.Raw.NextValidatorsHash,
			)
		}
	} else if err := trustedVals.VerifyCommitLightTrusting(chainID, signedHeader.Commit, v.TrustLevel); err != nil {
		return fmt.Errorf("insufficient trusted voting power: %w", err)
	}

	if err := valSet.VerifyCommitLight(chainID, signedHeader.Commit.BlockID, signedHeader.Height, signedHeader.Commit); err != nil {
		return fmt.Errorf("invalid commit: %w", err)
	}

	return nil
}
