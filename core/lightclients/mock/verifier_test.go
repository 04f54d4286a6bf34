package mock_test

import (
	"testing"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	"github.com/stretchr/testify/require"

	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/lightclients/mock"
)

func TestVerifier(t *testing.T) {
	v := mock.NewVerifier()
	clientState := &codec.MockClientState{LatestHeight: clienttypes.NewHeight(0, 1)}
	trusted := &codec.MockConsensusState{Timestamp: 1}
	header := &codec.MockHeader{Height: clienttypes.NewHeight(0, 2), Timestamp: 2}

	require.NoError(t, v.VerifyHeader(clientState, trusted, header))
	require.Error(t, v.VerifyHeader(clientState, &codec.TendermintConsensusState{}, header))
	require.Error(t, v.VerifyHeader(&codec.TendermintClientState{}, trusted, header))
}
