package client

import (
	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/lightclients/mock"
	"github.com/cosmos/lightcore/core/lightclients/tendermint"
)

// Verifier decides whether a header may advance a client that trusts a
// consensus state. Implementations only see client states, headers and
// consensus states of their own client type.
type Verifier interface {
	VerifyHeader(clientState codec.ClientState, trusted codec.ConsensusState, header codec.Header) error
}

// VerifierFunc adapts a function to a Verifier.
type VerifierFunc func(clientState codec.ClientState, trusted codec.ConsensusState, header codec.Header) error

func (f VerifierFunc) VerifyHeader(clientState codec.ClientState, trusted codec.ConsensusState, header codec.Header) error {
	return f(clientState, trusted, header)
}

// Verifiers maps a client type to the verifier of its headers.
type Verifiers map[string]Verifier

// DefaultVerifiers returns a verifier for every client type.
func DefaultVerifiers() Verifiers {
	return Verifiers{
		codec.Tendermint: tendermint.NewVerifier(),
		codec.Mock:       mock.NewVerifier(),
	}
}
