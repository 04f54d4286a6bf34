// Package connection implements the connection handshake of a chain.
//
// A connection end moves INIT -> TRYOPEN -> OPEN, or INIT -> OPEN on the
// chain that started the handshake. Every step checks all of its
// preconditions before it writes anything, and commits its writes in a single
// batch, so a rejected step leaves the chain's records untouched.
package connection

import (
	"bytes"
	"fmt"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	"go.uber.org/zap"

	"github.com/cosmos/lightcore/core/store"
)

// Keeper owns the connection records of one chain.
//
// Keeper is not safe for concurrent use; callers serialize access per chain.
type Keeper struct {
	log     *zap.Logger
	store   *store.Store
	clients ClientKeeper
	host    Host
}

// NewKeeper returns a connection keeper over s.
func NewKeeper(log *zap.Logger, s *store.Store, clients ClientKeeper, host Host) *Keeper {
	return &Keeper{
		log:     log,
		store:   s,
		clients: clients,
		host:    host,
	}
}

// ConnOpenInit creates a connection end in INIT and returns its identifier.
func (k *Keeper) ConnOpenInit(msg MsgConnectionOpenInit) (string, error) {
	if err := k.requireActiveClient(msg.ClientID); err != nil {
		return "", err
	}

	versions := []*connectiontypes.Version{connectiontypes.DefaultIBCVersion}
	if msg.Version != nil {
		if msg.Version.GetIdentifier() != connectiontypes.DefaultIBCVersionIdentifier {
			return "", sdkerrors.Wrapf(ErrInvalidVersion, "unsupported version %s", msg.Version.GetIdentifier())
		}
		versions = []*connectiontypes.Version{msg.Version}
	}

	end := connectiontypes.NewConnectionEnd(connectiontypes.INIT, msg.ClientID, msg.Counterparty, versions, msg.DelayPeriod)
	connectionID, err := k.createConnection(end)
	if err != nil {
		return "", err
	}

	k.log.Info(
		"Connection handshake initialized",
		zap.String("connection_id", connectionID),
		zap.String("client_id", msg.ClientID),
		zap.String("counterparty_client_id", msg.Counterparty.ClientId),
	)
	return connectionID, nil
}

// ConnOpenTry moves a handshake to TRYOPEN, either on a new connection end or
// on the INIT end named by msg.PreviousConnectionID.
func (k *Keeper) ConnOpenTry(msg MsgConnectionOpenTry) (string, error) {
	var previous *connectiontypes.ConnectionEnd
	if msg.PreviousConnectionID != "" {
		end, err := k.connection(msg.PreviousConnectionID)
		if err != nil {
			return "", err
		}
		if err := checkPrevious(msg, end); err != nil {
			return "", err
		}
		previous = &end
	}

	if err := k.checkProofHeight(msg.ClientID, msg.ProofHeight); err != nil {
		return "", err
	}

	version, err := negotiateVersion(msg.CounterpartyVersions)
	if err != nil {
		return "", err
	}

	end := connectiontypes.NewConnectionEnd(
		connectiontypes.TRYOPEN,
		msg.ClientID,
		msg.Counterparty,
		[]*connectiontypes.Version{version},
		msg.DelayPeriod,
	)

	connectionID := msg.PreviousConnectionID
	if previous == nil {
		connectionID, err = k.createConnection(end)
	} else {
		err = k.setConnection(connectionID, end)
	}
	if err != nil {
		return "", err
	}

	k.log.Info(
		"Connection handshake tried",
		zap.String("connection_id", connectionID),
		zap.String("client_id", msg.ClientID),
		zap.String("counterparty_connection_id", msg.Counterparty.ConnectionId),
		zap.Stringer("proof_height", msg.ProofHeight),
	)
	return connectionID, nil
}

// ConnOpenAck opens a connection end once the counterparty has tried it. The
// end is INIT, or TRYOPEN when both chains started the handshake.
func (k *Keeper) ConnOpenAck(msg MsgConnectionOpenAck) error {
	end, err := k.connection(msg.ConnectionID)
	if err != nil {
		return err
	}
	if end.State != connectiontypes.INIT && end.State != connectiontypes.TRYOPEN {
		return sdkerrors.Wrapf(
			ErrInvalidConnectionState,
			"connection %s is in state %s, expected %s or %s",
			msg.ConnectionID, end.State, connectiontypes.INIT, connectiontypes.TRYOPEN,
		)
	}

	if err := k.checkProofHeight(end.ClientId, msg.ProofHeight); err != nil {
		return err
	}

	if !hasVersion(end.Versions, msg.Version) {
		return sdkerrors.Wrapf(
			ErrInvalidVersion,
			"version %s was not proposed by connection %s", msg.Version.GetIdentifier(), msg.ConnectionID,
		)
	}

	end.State = connectiontypes.OPEN
	end.Versions = []*connectiontypes.Version{msg.Version}
	end.Counterparty.ConnectionId = msg.CounterpartyConnectionID
	if err := k.setConnection(msg.ConnectionID, end); err != nil {
		return err
	}

	k.log.Info(
		"Connection opened",
		zap.String("connection_id", msg.ConnectionID),
		zap.String("counterparty_connection_id", msg.CounterpartyConnectionID),
	)
	return nil
}

// ConnOpenConfirm opens a TRYOPEN connection end once the counterparty has opened its end.
func (k *Keeper) ConnOpenConfirm(msg MsgConnectionOpenConfirm) error {
	end, err := k.connection(msg.ConnectionID)
	if err != nil {
		return err
	}
	if end.State != connectiontypes.TRYOPEN {
		return sdkerrors.Wrapf(
			ErrInvalidConnectionState,
			"connection %s is in state %s, expected %s", msg.ConnectionID, end.State, connectiontypes.TRYOPEN,
		)
	}

	if err := k.checkProofHeight(end.ClientId, msg.ProofHeight); err != nil {
		return err
	}

	end.State = connectiontypes.OPEN
	if err := k.setConnection(msg.ConnectionID, end); err != nil {
		return err
	}

	k.log.Info(
		"Connection opened",
		zap.String("connection_id", msg.ConnectionID),
		zap.String("counterparty_connection_id", end.Counterparty.ConnectionId),
	)
	return nil
}

// GetConnection returns the connection end of connectionID, if any.
func (k *Keeper) GetConnection(connectionID string) (connectiontypes.ConnectionEnd, bool, error) {
	return k.store.Connection(connectionID)
}

// GetClientConnections returns the identifiers of the connections built on clientID.
func (k *Keeper) GetClientConnections(clientID string) ([]string, error) {
	return k.store.ClientConnections(clientID)
}

func (k *Keeper) connection(connectionID string) (connectiontypes.ConnectionEnd, error) {
	end, found, err := k.store.Connection(connectionID)
	if err != nil {
		return end, err
	}
	if !found {
		return end, sdkerrors.Wrap(ErrConnectionNotFound, connectionID)
	}
	return end, nil
}

func (k *Keeper) requireActiveClient(clientID string) error {
	clientState, found, err := k.clients.GetClientState(clientID)
	if err != nil {
		return err
	}
	if !found {
		return sdkerrors.Wrapf(ErrMissingClient, "client %s does not exist", clientID)
	}
	if clientState.IsFrozen() {
		return sdkerrors.Wrapf(ErrMissingClient, "client %s is frozen", clientID)
	}
	return nil
}

// checkProofHeight rejects proof heights above the host height and heights at
// which clientID holds no verified consensus state. clientID must also be active.
func (k *Keeper) checkProofHeight(clientID string, proofHeight clienttypes.Height) error {
	if hostHeight := k.host.LatestHeight(); proofHeight.GT(hostHeight) {
		return sdkerrors.Wrapf(
			ErrInvalidConsensusHeight,
			"proof height %s is greater than the current height %s", proofHeight, hostHeight,
		)
	}

	if err := k.requireActiveClient(clientID); err != nil {
		return err
	}

	ok, err := k.clients.HasConsensusState(clientID, proofHeight)
	if err != nil {
		return err
	}
	if !ok {
		return sdkerrors.Wrapf(
			ErrInvalidConsensusHeight,
			"client %s has not verified height %s", clientID, proofHeight,
		)
	}
	return nil
}

func (k *Keeper) createConnection(end connectiontypes.ConnectionEnd) (string, error) {
	seq, err := k.store.NextConnectionSequence()
	if err != nil {
		return "", err
	}
	connections, err := k.store.ClientConnections(end.ClientId)
	if err != nil {
		return "", err
	}
	connectionID := connectiontypes.FormatConnectionIdentifier(seq)

	b := k.store.NewBatch()
	defer b.Close()

	b.SetConnection(connectionID, end)
	b.SetClientConnections(end.ClientId, append(connections, connectionID))
	b.SetNextConnectionSequence(seq + 1)
	if err := b.Write(); err != nil {
		return "", err
	}
	return connectionID, nil
}

func (k *Keeper) setConnection(connectionID string, end connectiontypes.ConnectionEnd) error {
	b := k.store.NewBatch()
	defer b.Close()

	b.SetConnection(connectionID, end)
	return b.Write()
}

// checkPrevious checks that the INIT end a try builds on describes the same connection.
func checkPrevious(msg MsgConnectionOpenTry, end connectiontypes.ConnectionEnd) error {
	var mismatch string
	switch {
	case end.State != connectiontypes.INIT:
		mismatch = fmt.Sprintf("state is %s, expected %s", end.State, connectiontypes.INIT)
	case end.ClientId != msg.ClientID:
		mismatch = fmt.Sprintf("client is %s, try names %s", end.ClientId, msg.ClientID)
	case end.Counterparty.ClientId != msg.Counterparty.ClientId:
		mismatch = fmt.Sprintf("counterparty client is %s, try names %s", end.Counterparty.ClientId, msg.Counterparty.ClientId)
	case end.Counterparty.ConnectionId != "" && end.Counterparty.ConnectionId != msg.Counterparty.ConnectionId:
		mismatch = fmt.Sprintf("counterparty connection is %s, try names %s", end.Counterparty.ConnectionId, msg.Counterparty.ConnectionId)
	case !bytes.Equal(end.Counterparty.Prefix.KeyPrefix, msg.Counterparty.Prefix.KeyPrefix):
		mismatch = "counterparty prefixes differ"
	case end.DelayPeriod != msg.DelayPeriod:
		mismatch = fmt.Sprintf("delay period is %d, try names %d", end.DelayPeriod, msg.DelayPeriod)
	default:
		return nil
	}
	return sdkerrors.Wrapf(ErrConnectionMismatch, "connection %s: %s", msg.PreviousConnectionID, mismatch)
}

// negotiateVersion picks the default version if the counterparty proposed its identifier.
func negotiateVersion(counterpartyVersions []*connectiontypes.Version) (*connectiontypes.Version, error) {
	for _, v := range counterpartyVersions {
		if v.GetIdentifier() == connectiontypes.DefaultIBCVersionIdentifier {
			return connectiontypes.DefaultIBCVersion, nil
		}
	}
	return nil, sdkerrors.Wrap(ErrInvalidVersion, "no counterparty version is supported")
}

func hasVersion(versions []*connectiontypes.Version, version *connectiontypes.Version) bool {
	for _, v := range versions {
		if v.GetIdentifier() == version.GetIdentifier() {
			return true
		}
	}
	return false
}
