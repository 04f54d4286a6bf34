// Package chain simulates the runtime of a single chain: it owns the chain's
// record store, routes messages to the client and connection keepers, and
// advances the chain height after every message it accepts.
package chain

import (
	"fmt"
	"sync"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	dbm "github.com/tendermint/tm-db"
	"go.uber.org/zap"

	"github.com/cosmos/lightcore/core/client"
	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/connection"
	"github.com/cosmos/lightcore/core/store"
	"github.com/cosmos/lightcore/internal/coremetrics"
)

// Msg is a message a chain can deliver.
type Msg interface {
	ValidateBasic() error
}

// Result describes the records a delivered message created or advanced.
type Result struct {
	ClientID     string
	ConnectionID string
	// ClientHeight is the latest height of ClientID after the message.
	ClientHeight clienttypes.Height
}

// Chain is a single simulated chain. Messages delivered to the same chain are
// applied one at a time, in delivery order.
type Chain struct {
	log     *zap.Logger
	metrics *coremetrics.Metrics

	chainID string
	db      dbm.DB
	store   *store.Store

	clients     *client.Keeper
	connections *connection.Keeper

	mu     sync.Mutex
	height clienttypes.Height
}

// New returns a chain at the given height, storing its records in db.
// metrics may be nil.
func New(
	log *zap.Logger,
	chainID string,
	height uint64,
	db dbm.DB,
	registry *codec.Registry,
	verifiers client.Verifiers,
	metrics *coremetrics.Metrics,
) *Chain {
	log = log.With(zap.String("chain_id", chainID))
	s := store.New(db, registry)

	c := &Chain{
		log:     log,
		metrics: metrics,
		chainID: chainID,
		db:      db,
		store:   s,
		height:  clienttypes.NewHeight(clienttypes.ParseChainID(chainID), height),
	}
	c.clients = client.NewKeeper(log, s, verifiers)
	c.connections = connection.NewKeeper(log, s, c.clients, host{c})

	if metrics != nil {
		metrics.SetHostHeight(chainID, height)
	}
	return c
}

// host exposes the chain height to the connection keeper. It is only called
// while the chain lock is held.
type host struct {
	c *Chain
}

func (h host) LatestHeight() clienttypes.Height {
	return h.c.height
}

// ChainID returns the identifier of the chain.
func (c *Chain) ChainID() string {
	return c.chainID
}

// Height returns the current height of the chain.
func (c *Chain) Height() clienttypes.Height {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Deliver applies msg. The chain height advances by one if and only if msg is accepted.
func (c *Chain) Deliver(msg Msg) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgType := MsgType(msg)
	res, err := c.deliver(msg)
	if err != nil {
		c.log.Debug(
			"Message rejected",
			zap.String("msg_type", msgType),
			zap.Stringer("height", c.height),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.IncDeliveredMessages(c.chainID, msgType, coremetrics.ResultFailure)
		}
		return Result{}, err
	}

	c.height = clienttypes.NewHeight(c.height.RevisionNumber, c.height.RevisionHeight+1)

	c.log.Debug(
		"Message delivered",
		zap.String("msg_type", msgType),
		zap.Stringer("height", c.height),
	)
	if c.metrics != nil {
		c.metrics.IncDeliveredMessages(c.chainID, msgType, coremetrics.ResultSuccess)
		c.metrics.SetHostHeight(c.chainID, c.height.RevisionHeight)
		if res.ClientID != "" && !res.ClientHeight.IsZero() {
			c.metrics.SetClientHeight(c.chainID, res.ClientID, res.ClientHeight.RevisionHeight)
		}
		if msgType == MsgTypeSubmitMisbehaviour {
			c.metrics.IncFrozenClients(c.chainID, res.ClientID)
		}
	}
	return res, nil
}

func (c *Chain) deliver(msg Msg) (Result, error) {
	if err := msg.ValidateBasic(); err != nil {
		return Result{}, err
	}

	switch msg := msg.(type) {
	case client.MsgCreateClient:
		registry := c.store.Registry()
		clientState, err := registry.DecodeClientState(msg.ClientState)
		if err != nil {
			return Result{}, err
		}
		consensusState, err := registry.DecodeConsensusState(msg.ConsensusState)
		if err != nil {
			return Result{}, err
		}
		clientID, err := c.clients.CreateClient(clientState, consensusState)
		if err != nil {
			return Result{}, err
		}
		return Result{ClientID: clientID, ClientHeight: clientState.GetLatestHeight()}, nil

	case client.MsgUpdateClient:
		height, err := c.clients.UpdateClient(msg.ClientID, msg.Header)
		if err != nil {
			return Result{}, err
		}
		return Result{ClientID: msg.ClientID, ClientHeight: height}, nil

	case client.MsgSubmitMisbehaviour:
		if err := c.clients.SubmitMisbehaviour(msg.ClientID, msg.Header1, msg.Header2); err != nil {
			return Result{}, err
		}
		return Result{ClientID: msg.ClientID}, nil

	case connection.MsgConnectionOpenInit:
		connectionID, err := c.connections.ConnOpenInit(msg)
		if err != nil {
			return Result{}, err
		}
		return Result{ClientID: msg.ClientID, ConnectionID: connectionID}, nil

	case connection.MsgConnectionOpenTry:
		connectionID, err := c.connections.ConnOpenTry(msg)
		if err != nil {
			return Result{}, err
		}
		return Result{ClientID: msg.ClientID, ConnectionID: connectionID}, nil

	case connection.MsgConnectionOpenAck:
		if err := c.connections.ConnOpenAck(msg); err != nil {
			return Result{}, err
		}
		return Result{ConnectionID: msg.ConnectionID}, nil

	case connection.MsgConnectionOpenConfirm:
		if err := c.connections.ConnOpenConfirm(msg); err != nil {
			return Result{}, err
		}
		return Result{ConnectionID: msg.ConnectionID}, nil

	default:
		return Result{}, fmt.Errorf("unrecognized message type %T", msg)
	}
}

// ClientState returns the client state of clientID, if any.
func (c *Chain) ClientState(clientID string) (codec.ClientState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clients.GetClientState(clientID)
}

// Connection returns the connection end of connectionID, if any.
func (c *Chain) Connection(connectionID string) (connectiontypes.ConnectionEnd, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connections.GetConnection(connectionID)
}

// Close releases the chain's database.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
