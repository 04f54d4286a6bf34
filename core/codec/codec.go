// Package codec is the type registry and envelope codec shared by every light
// client implementation.
//
// Headers, client states and consensus states travel as type-tagged
// envelopes (codectypes.Any). Each supported consensus algorithm contributes
// one variant of each kind plus one entry per kind in the static tables of
// registry.go. The variant interfaces are sealed, so the set of variants is
// closed and every consumer can switch over it exhaustively.
package codec

import (
	"bytes"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	ibcexported "github.com/cosmos/ibc-go/v3/modules/core/exported"
)

const (
	// Tendermint is the client type of the Tendermint BFT light client.
	Tendermint = ibcexported.Tendermint

	// Mock is the client type of the test-only mock light client.
	Mock = "9999-mock"
)

// Type URLs of the envelopes. These are wire identifiers and must never be
// reassigned.
const (
	TendermintHeaderTypeURL         = "/ibc.lightclients.tendermint.v1.Header"
	TendermintClientStateTypeURL    = "/ibc.lightclients.tendermint.v1.ClientState"
	TendermintConsensusStateTypeURL = "/ibc.lightclients.tendermint.v1.ConsensusState"

	MockHeaderTypeURL         = "/ibc.mock.Header"
	MockClientStateTypeURL    = "/ibc.mock.ClientState"
	MockConsensusStateTypeURL = "/ibc.mock.ConsensusState"
)

// Header is a header of one of the supported consensus algorithms.
type Header interface {
	ClientType() string
	GetHeight() clienttypes.Height
	// ConsensusState is the consensus state a client holds after verifying the header.
	ConsensusState() ConsensusState

	isHeader()
}

// ClientState is one chain's knowledge of a counterparty chain.
// A non-zero frozen height marks the client as frozen.
type ClientState interface {
	ClientType() string
	GetLatestHeight() clienttypes.Height
	GetFrozenHeight() clienttypes.Height
	IsFrozen() bool

	// WithLatestHeight returns a copy of the client state at the given height.
	WithLatestHeight(height clienttypes.Height) ClientState
	// WithFrozenHeight returns a copy of the client state frozen at the given height.
	WithFrozenHeight(height clienttypes.Height) ClientState

	isClientState()
}

// ConsensusState is the snapshot of a counterparty chain a client needs to
// verify the next header.
type ConsensusState interface {
	ClientType() string
	// GetTimestamp returns the block time in unix nanoseconds.
	GetTimestamp() uint64

	isConsensusState()
}

// ConsensusStatesEqual reports whether two consensus states have identical
// envelopes.
func ConsensusStatesEqual(a, b ConsensusState) bool {
	ea, eb := EncodeConsensusState(a), EncodeConsensusState(b)
	return ea.TypeUrl == eb.TypeUrl && bytes.Equal(ea.Value, eb.Value)
}
