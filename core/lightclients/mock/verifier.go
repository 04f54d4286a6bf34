// Package mock implements header verification for the mock light client.
package mock

import (
	"fmt"

	"github.com/cosmos/lightcore/core/codec"
)

// Verifier accepts every well-typed mock header. Height monotonicity is
// enforced by the client keeper, not here.
type Verifier struct{}

// NewVerifier returns a mock header verifier.
func NewVerifier() Verifier {
	return Verifier{}
}

func (Verifier) VerifyHeader(clientState codec.ClientState, trusted codec.ConsensusState, header codec.Header) error {
	if _, ok := clientState.(*codec.MockClientState); !ok {
		return fmt.Errorf("client state is of type %s, expected %s", clientState.ClientType(), codec.Mock)
	}
	if _, ok := trusted.(*codec.MockConsensusState); !ok {
		return fmt.Errorf("trusted consensus state is of type %s, expected %s", trusted.ClientType(), codec.Mock)
	}
	if _, ok := header.(*codec.MockHeader); !ok {
		return fmt.Errorf("header is of type %s, expected %s", header.ClientType(), codec.Mock)
	}
	return nil
}
