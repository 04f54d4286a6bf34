package store_test

import (
	"testing"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	commitmenttypes "github.com/cosmos/ibc-go/v3/modules/core/23-commitment/types"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/store"
)

func newStore() *store.Store {
	return store.New(dbm.NewMemDB(), codec.TestRegistry())
}

func TestEmptyStore(t *testing.T) {
	s := newStore()

	_, found, err := s.ClientState("9999-mock-0")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = s.ConsensusState("9999-mock-0", clienttypes.NewHeight(0, 1))
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = s.Connection("connection-0")
	require.NoError(t, err)
	require.False(t, found)

	conns, err := s.ClientConnections("9999-mock-0")
	require.NoError(t, err)
	require.Empty(t, conns)

	seq, err := s.NextClientSequence()
	require.NoError(t, err)
	require.Zero(t, seq)
}

func TestBatchRoundTrip(t *testing.T) {
	s := newStore()
	height := clienttypes.NewHeight(0, 7)
	clientState := &codec.MockClientState{LatestHeight: height}
	consensusState := &codec.MockConsensusState{Timestamp: 7}
	end := connectiontypes.NewConnectionEnd(
		connectiontypes.INIT,
		"9999-mock-0",
		connectiontypes.NewCounterparty("9999-mock-1", "", commitmenttypes.NewMerklePrefix([]byte("ibc"))),
		[]*connectiontypes.Version{connectiontypes.DefaultIBCVersion},
		0,
	)

	b := s.NewBatch()
	b.SetClientState("9999-mock-0", clientState)
	b.SetConsensusState("9999-mock-0", height, consensusState)
	b.SetConnection("connection-0", end)
	b.SetClientConnections("9999-mock-0", []string{"connection-0"})
	b.SetNextClientSequence(1)
	b.SetNextConnectionSequence(1)
	require.NoError(t, b.Write())
	require.NoError(t, b.Close())

	gotClient, found, err := s.ClientState("9999-mock-0")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, clientState, gotClient)

	gotConsensus, found, err := s.ConsensusState("9999-mock-0", height)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, consensusState, gotConsensus)

	ok, err := s.HasConsensusState("9999-mock-0", height)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasConsensusState("9999-mock-0", clienttypes.NewHeight(0, 8))
	require.NoError(t, err)
	require.False(t, ok)

	gotEnd, found, err := s.Connection("connection-0")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, end, gotEnd)

	conns, err := s.ClientConnections("9999-mock-0")
	require.NoError(t, err)
	require.Equal(t, []string{"connection-0"}, conns)

	seq, err := s.NextConnectionSequence()
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)
}

func TestUnwrittenBatchIsDiscarded(t *testing.T) {
	s := newStore()

	b := s.NewBatch()
	b.SetClientState("9999-mock-0", &codec.MockClientState{LatestHeight: clienttypes.NewHeight(0, 1)})
	b.SetNextClientSequence(1)
	require.NoError(t, b.Close())

	_, found, err := s.ClientState("9999-mock-0")
	require.NoError(t, err)
	require.False(t, found)

	seq, err := s.NextClientSequence()
	require.NoError(t, err)
	require.Zero(t, seq)
}

func TestUninstalledClientTypeOnRead(t *testing.T) {
	db := dbm.NewMemDB()
	writer := store.New(db, codec.TestRegistry())

	b := writer.NewBatch()
	b.SetClientState("9999-mock-0", &codec.MockClientState{LatestHeight: clienttypes.NewHeight(0, 1)})
	require.NoError(t, b.Write())
	require.NoError(t, b.Close())

	reader := store.New(db, codec.DefaultRegistry())
	_, _, err := reader.ClientState("9999-mock-0")
	require.ErrorIs(t, err, codec.ErrUnknownClientStateType)
}
