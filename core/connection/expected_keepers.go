package connection

import (
	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"

	"github.com/cosmos/lightcore/core/codec"
)

// ClientKeeper is the part of the client subsystem the handshake reads.
type ClientKeeper interface {
	GetClientState(clientID string) (codec.ClientState, bool, error)
	HasConsensusState(clientID string, height clienttypes.Height) (bool, error)
}

// Host reports the current height of the local chain.
type Host interface {
	LatestHeight() clienttypes.Height
}
