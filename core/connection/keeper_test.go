package connection_test

import (
	"testing"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	commitmenttypes "github.com/cosmos/ibc-go/v3/modules/core/23-commitment/types"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"
	"go.uber.org/zap/zaptest"

	"github.com/cosmos/lightcore/core/client"
	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/connection"
	"github.com/cosmos/lightcore/core/store"
)

type fixedHost struct {
	height clienttypes.Height
}

func (h fixedHost) LatestHeight() clienttypes.Height { return h.height }

type testChain struct {
	store   *store.Store
	clients *client.Keeper
	keeper  *connection.Keeper
}

func height(h uint64) clienttypes.Height {
	return clienttypes.NewHeight(0, h)
}

// newTestChain returns a chain at height 10 with client 9999-mock-0, which has
// verified heights 3 and 5, and client 9999-mock-1 at height 2.
func newTestChain(t *testing.T) *testChain {
	t.Helper()

	log := zaptest.NewLogger(t)
	s := store.New(dbm.NewMemDB(), codec.TestRegistry())
	clients := client.NewKeeper(log, s, client.DefaultVerifiers())

	_, err := clients.CreateClient(&codec.MockClientState{LatestHeight: height(3)}, &codec.MockConsensusState{Timestamp: 3})
	require.NoError(t, err)
	_, err = clients.UpdateClient("9999-mock-0", codec.EncodeHeader(&codec.MockHeader{Height: height(5), Timestamp: 5}))
	require.NoError(t, err)
	_, err = clients.CreateClient(&codec.MockClientState{LatestHeight: height(2)}, &codec.MockConsensusState{Timestamp: 2})
	require.NoError(t, err)

	return &testChain{
		store:   s,
		clients: clients,
		keeper:  connection.NewKeeper(log, s, clients, fixedHost{height: height(10)}),
	}
}

func counterparty(clientID, connectionID string) connectiontypes.Counterparty {
	return connectiontypes.NewCounterparty(clientID, connectionID, commitmenttypes.NewMerklePrefix([]byte("ibc")))
}

func defaultVersions() []*connectiontypes.Version {
	return []*connectiontypes.Version{connectiontypes.DefaultIBCVersion}
}

func (c *testChain) requireState(t *testing.T, connectionID string, want connectiontypes.State) connectiontypes.ConnectionEnd {
	t.Helper()
	end, found, err := c.keeper.GetConnection(connectionID)
	require.NoError(t, err)
	require.True(t, found, "connection %s not found", connectionID)
	require.Equal(t, want, end.State)
	return end
}

func TestConnOpenInit(t *testing.T) {
	c := newTestChain(t)

	connectionID, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
		ClientID:     "9999-mock-0",
		Counterparty: counterparty("9999-mock-4", ""),
	})
	require.NoError(t, err)
	require.Equal(t, "connection-0", connectionID)

	end := c.requireState(t, connectionID, connectiontypes.INIT)
	require.Equal(t, "9999-mock-0", end.ClientId)
	require.Equal(t, "9999-mock-4", end.Counterparty.ClientId)
	require.Equal(t, defaultVersions(), end.Versions)

	connectionID, err = c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
		ClientID:     "9999-mock-0",
		Counterparty: counterparty("9999-mock-4", ""),
	})
	require.NoError(t, err)
	require.Equal(t, "connection-1", connectionID)

	conns, err := c.keeper.GetClientConnections("9999-mock-0")
	require.NoError(t, err)
	require.Equal(t, []string{"connection-0", "connection-1"}, conns)
}

func TestConnOpenInitMissingClient(t *testing.T) {
	c := newTestChain(t)
	require.NoError(t, c.clients.Freeze("9999-mock-1"))

	for _, clientID := range []string{"9999-mock-7", "9999-mock-1"} {
		_, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
			ClientID:     clientID,
			Counterparty: counterparty("9999-mock-4", ""),
		})
		require.ErrorIs(t, err, connection.ErrMissingClient)
	}

	_, found, err := c.keeper.GetConnection("connection-0")
	require.NoError(t, err)
	require.False(t, found)

	seq, err := c.store.NextConnectionSequence()
	require.NoError(t, err)
	require.Zero(t, seq)
}

func TestConnOpenInitUnsupportedVersion(t *testing.T) {
	c := newTestChain(t)

	_, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
		ClientID:     "9999-mock-0",
		Counterparty: counterparty("9999-mock-4", ""),
		Version:      connectiontypes.NewVersion("2", nil),
	})
	require.ErrorIs(t, err, connection.ErrInvalidVersion)
}

func TestConnOpenTry(t *testing.T) {
	c := newTestChain(t)

	connectionID, err := c.keeper.ConnOpenTry(connection.MsgConnectionOpenTry{
		ClientID:             "9999-mock-0",
		Counterparty:         counterparty("9999-mock-4", "connection-3"),
		CounterpartyVersions: defaultVersions(),
		ProofHeight:          height(5),
	})
	require.NoError(t, err)
	require.Equal(t, "connection-0", connectionID)

	end := c.requireState(t, connectionID, connectiontypes.TRYOPEN)
	require.Equal(t, "connection-3", end.Counterparty.ConnectionId)
}

func TestConnOpenTryOnInitRecord(t *testing.T) {
	c := newTestChain(t)

	connectionID, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
		ClientID:     "9999-mock-0",
		Counterparty: counterparty("9999-mock-4", ""),
	})
	require.NoError(t, err)

	tryID, err := c.keeper.ConnOpenTry(connection.MsgConnectionOpenTry{
		PreviousConnectionID: connectionID,
		ClientID:             "9999-mock-0",
		Counterparty:         counterparty("9999-mock-4", "connection-3"),
		CounterpartyVersions: defaultVersions(),
		ProofHeight:          height(3),
	})
	require.NoError(t, err)
	require.Equal(t, connectionID, tryID)

	end := c.requireState(t, connectionID, connectiontypes.TRYOPEN)
	require.Equal(t, "connection-3", end.Counterparty.ConnectionId)

	seq, err := c.store.NextConnectionSequence()
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)
}

func TestConnOpenTryFailureLeavesStateUnchanged(t *testing.T) {
	valid := connection.MsgConnectionOpenTry{
		PreviousConnectionID: "connection-0",
		ClientID:             "9999-mock-0",
		Counterparty:         counterparty("9999-mock-4", "connection-3"),
		CounterpartyVersions: defaultVersions(),
		ProofHeight:          height(5),
	}

	tests := map[string]struct {
		modify  func(msg *connection.MsgConnectionOpenTry)
		wantErr error
	}{
		"previous connection absent": {
			modify:  func(msg *connection.MsgConnectionOpenTry) { msg.PreviousConnectionID = "connection-9" },
			wantErr: connection.ErrConnectionNotFound,
		},
		"previous connection on another client": {
			modify:  func(msg *connection.MsgConnectionOpenTry) { msg.ClientID = "9999-mock-1" },
			wantErr: connection.ErrConnectionMismatch,
		},
		"previous connection with another counterparty client": {
			modify:  func(msg *connection.MsgConnectionOpenTry) { msg.Counterparty.ClientId = "9999-mock-5" },
			wantErr: connection.ErrConnectionMismatch,
		},
		"previous connection with another delay period": {
			modify:  func(msg *connection.MsgConnectionOpenTry) { msg.DelayPeriod = 10 },
			wantErr: connection.ErrConnectionMismatch,
		},
		"previous connection not in init": {
			modify:  func(msg *connection.MsgConnectionOpenTry) { msg.PreviousConnectionID = "connection-1" },
			wantErr: connection.ErrConnectionMismatch,
		},
		"proof height above host height": {
			modify:  func(msg *connection.MsgConnectionOpenTry) { msg.ProofHeight = height(11) },
			wantErr: connection.ErrInvalidConsensusHeight,
		},
		"proof height not verified by client": {
			modify:  func(msg *connection.MsgConnectionOpenTry) { msg.ProofHeight = height(4) },
			wantErr: connection.ErrInvalidConsensusHeight,
		},
		"missing client": {
			modify: func(msg *connection.MsgConnectionOpenTry) {
				msg.PreviousConnectionID = ""
				msg.ClientID = "9999-mock-7"
			},
			wantErr: connection.ErrMissingClient,
		},
		"unsupported counterparty versions": {
			modify: func(msg *connection.MsgConnectionOpenTry) {
				msg.CounterpartyVersions = []*connectiontypes.Version{connectiontypes.NewVersion("2", nil)}
			},
			wantErr: connection.ErrInvalidVersion,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			c := newTestChain(t)

			_, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
				ClientID:     "9999-mock-0",
				Counterparty: counterparty("9999-mock-4", ""),
			})
			require.NoError(t, err)
			_, err = c.keeper.ConnOpenTry(connection.MsgConnectionOpenTry{
				ClientID:             "9999-mock-0",
				Counterparty:         counterparty("9999-mock-4", "connection-3"),
				CounterpartyVersions: defaultVersions(),
				ProofHeight:          height(5),
			})
			require.NoError(t, err)

			before := snapshot(t, c)

			msg := valid
			msg.Counterparty = counterparty("9999-mock-4", "connection-3")
			tc.modify(&msg)
			_, err = c.keeper.ConnOpenTry(msg)
			require.ErrorIs(t, err, tc.wantErr)

			require.Equal(t, before, snapshot(t, c))
		})
	}
}

type chainSnapshot struct {
	connections map[string]connectiontypes.ConnectionEnd
	byClient    []string
	sequence    uint64
}

func snapshot(t *testing.T, c *testChain) chainSnapshot {
	t.Helper()

	s := chainSnapshot{connections: make(map[string]connectiontypes.ConnectionEnd)}
	for _, id := range []string{"connection-0", "connection-1", "connection-2"} {
		end, found, err := c.keeper.GetConnection(id)
		require.NoError(t, err)
		if found {
			s.connections[id] = end
		}
	}

	var err error
	s.byClient, err = c.keeper.GetClientConnections("9999-mock-0")
	require.NoError(t, err)
	s.sequence, err = c.store.NextConnectionSequence()
	require.NoError(t, err)
	return s
}

func TestConnOpenAck(t *testing.T) {
	c := newTestChain(t)

	connectionID, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
		ClientID:     "9999-mock-0",
		Counterparty: counterparty("9999-mock-4", ""),
	})
	require.NoError(t, err)

	ack := connection.MsgConnectionOpenAck{
		ConnectionID:             connectionID,
		CounterpartyConnectionID: "connection-3",
		Version:                  connectiontypes.DefaultIBCVersion,
		ProofHeight:              height(5),
	}

	bad := ack
	bad.ProofHeight = height(4)
	require.ErrorIs(t, c.keeper.ConnOpenAck(bad), connection.ErrInvalidConsensusHeight)
	c.requireState(t, connectionID, connectiontypes.INIT)

	require.NoError(t, c.keeper.ConnOpenAck(ack))
	end := c.requireState(t, connectionID, connectiontypes.OPEN)
	require.Equal(t, "connection-3", end.Counterparty.ConnectionId)

	require.ErrorIs(t, c.keeper.ConnOpenAck(ack), connection.ErrInvalidConnectionState)

	ack.ConnectionID = "connection-9"
	require.ErrorIs(t, c.keeper.ConnOpenAck(ack), connection.ErrConnectionNotFound)
}

func TestConnOpenAckFrozenClient(t *testing.T) {
	c := newTestChain(t)

	connectionID, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
		ClientID:     "9999-mock-0",
		Counterparty: counterparty("9999-mock-4", ""),
	})
	require.NoError(t, err)
	require.NoError(t, c.clients.Freeze("9999-mock-0"))

	err = c.keeper.ConnOpenAck(connection.MsgConnectionOpenAck{
		ConnectionID:             connectionID,
		CounterpartyConnectionID: "connection-3",
		Version:                  connectiontypes.DefaultIBCVersion,
		ProofHeight:              height(5),
	})
	require.ErrorIs(t, err, connection.ErrMissingClient)
	c.requireState(t, connectionID, connectiontypes.INIT)
}

func TestConnOpenAckOnTryOpenRecord(t *testing.T) {
	c := newTestChain(t)

	tryID, err := c.keeper.ConnOpenTry(connection.MsgConnectionOpenTry{
		ClientID:             "9999-mock-0",
		Counterparty:         counterparty("9999-mock-4", "connection-3"),
		CounterpartyVersions: defaultVersions(),
		ProofHeight:          height(5),
	})
	require.NoError(t, err)
	c.requireState(t, tryID, connectiontypes.TRYOPEN)

	ack := connection.MsgConnectionOpenAck{
		ConnectionID:             tryID,
		CounterpartyConnectionID: "connection-3",
		Version:                  connectiontypes.DefaultIBCVersion,
		ProofHeight:              height(5),
	}
	require.NoError(t, c.keeper.ConnOpenAck(ack))
	end := c.requireState(t, tryID, connectiontypes.OPEN)
	require.Equal(t, "connection-3", end.Counterparty.ConnectionId)

	require.ErrorIs(t, c.keeper.ConnOpenAck(ack), connection.ErrInvalidConnectionState)
}

func TestConnOpenConfirm(t *testing.T) {
	c := newTestChain(t)

	initID, err := c.keeper.ConnOpenInit(connection.MsgConnectionOpenInit{
		ClientID:     "9999-mock-0",
		Counterparty: counterparty("9999-mock-4", ""),
	})
	require.NoError(t, err)

	err = c.keeper.ConnOpenConfirm(connection.MsgConnectionOpenConfirm{ConnectionID: initID, ProofHeight: height(5)})
	require.ErrorIs(t, err, connection.ErrInvalidConnectionState)

	tryID, err := c.keeper.ConnOpenTry(connection.MsgConnectionOpenTry{
		ClientID:             "9999-mock-0",
		Counterparty:         counterparty("9999-mock-4", "connection-3"),
		CounterpartyVersions: defaultVersions(),
		ProofHeight:          height(5),
	})
	require.NoError(t, err)

	require.NoError(t, c.keeper.ConnOpenConfirm(connection.MsgConnectionOpenConfirm{ConnectionID: tryID, ProofHeight: height(5)}))
	c.requireState(t, tryID, connectiontypes.OPEN)
}

func TestValidateBasic(t *testing.T) {
	tests := map[string]struct {
		msg     interface{ ValidateBasic() error }
		wantErr error
	}{
		"init ok": {
			msg: connection.MsgConnectionOpenInit{ClientID: "9999-mock-0", Counterparty: counterparty("9999-mock-1", "")},
		},
		"init with counterparty connection": {
			msg:     connection.MsgConnectionOpenInit{ClientID: "9999-mock-0", Counterparty: counterparty("9999-mock-1", "connection-0")},
			wantErr: connection.ErrInvalidCounterparty,
		},
		"init with malformed counterparty client": {
			msg:     connection.MsgConnectionOpenInit{ClientID: "9999-mock-0", Counterparty: counterparty("x", "")},
			wantErr: connection.ErrInvalidCounterparty,
		},
		"try without versions": {
			msg: connection.MsgConnectionOpenTry{
				ClientID:     "9999-mock-0",
				Counterparty: counterparty("9999-mock-1", "connection-0"),
				ProofHeight:  height(1),
			},
			wantErr: connection.ErrInvalidVersion,
		},
		"try at zero height": {
			msg: connection.MsgConnectionOpenTry{
				ClientID:             "9999-mock-0",
				Counterparty:         counterparty("9999-mock-1", "connection-0"),
				CounterpartyVersions: defaultVersions(),
			},
			wantErr: connection.ErrInvalidConsensusHeight,
		},
		"ack without version": {
			msg: connection.MsgConnectionOpenAck{
				ConnectionID:             "connection-0",
				CounterpartyConnectionID: "connection-1",
				ProofHeight:              height(1),
			},
			wantErr: connection.ErrInvalidVersion,
		},
		"confirm with malformed connection": {
			msg:     connection.MsgConnectionOpenConfirm{ConnectionID: "conn", ProofHeight: height(1)},
			wantErr: connection.ErrConnectionNotFound,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			err := tc.msg.ValidateBasic()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
