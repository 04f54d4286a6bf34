// Package client implements the light client subsystem of a chain: creation
// of clients tracking counterparty chains, header based updates, and
// freezing on misbehaviour.
package client

import (
	"fmt"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	"go.uber.org/zap"

	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/store"
)

// Keeper owns the client records of one chain.
//
// Keeper is not safe for concurrent use; callers serialize access per chain.
type Keeper struct {
	log       *zap.Logger
	store     *store.Store
	verifiers Verifiers
}

// NewKeeper returns a client keeper over s.
func NewKeeper(log *zap.Logger, s *store.Store, verifiers Verifiers) *Keeper {
	return &Keeper{
		log:       log,
		store:     s,
		verifiers: verifiers,
	}
}

// CreateClient stores a new client and returns its identifier.
// consensusState is recorded at the latest height of clientState.
func (k *Keeper) CreateClient(clientState codec.ClientState, consensusState codec.ConsensusState) (string, error) {
	clientType := clientState.ClientType()
	if !k.store.Registry().IsRegistered(clientType) {
		return "", sdkerrors.Wrapf(ErrUnknownClientType, "client type %s is not registered", clientType)
	}
	if _, ok := k.verifiers[clientType]; !ok {
		return "", sdkerrors.Wrapf(ErrUnknownClientType, "no verifier for client type %s", clientType)
	}
	if consensusState.ClientType() != clientType {
		return "", sdkerrors.Wrapf(
			ErrClientTypeMismatch,
			"consensus state of type %s cannot initialize a client of type %s", consensusState.ClientType(), clientType,
		)
	}
	if clientState.IsFrozen() {
		return "", sdkerrors.Wrap(ErrInvalidClient, "initial client state is frozen")
	}

	seq, err := k.store.NextClientSequence()
	if err != nil {
		return "", err
	}
	clientID := clienttypes.FormatClientIdentifier(clientType, seq)
	height := clientState.GetLatestHeight()

	b := k.store.NewBatch()
	defer b.Close()

	b.SetClientState(clientID, clientState)
	b.SetConsensusState(clientID, height, consensusState)
	b.SetNextClientSequence(seq + 1)
	if err := b.Write(); err != nil {
		return "", err
	}

	k.log.Info(
		"Created client",
		zap.String("client_id", clientID),
		zap.String("client_type", clientType),
		zap.Stringer("height", height),
	)
	return clientID, nil
}

// UpdateClient verifies header against the latest consensus state of clientID
// and, if it verifies, advances the client to the header's height.
func (k *Keeper) UpdateClient(clientID string, env *codectypes.Any) (clienttypes.Height, error) {
	header, err := k.store.Registry().DecodeHeader(env)
	if err != nil {
		return clienttypes.Height{}, err
	}

	clientState, err := k.clientState(clientID)
	if err != nil {
		return clienttypes.Height{}, err
	}
	if header.ClientType() != clientState.ClientType() {
		return clienttypes.Height{}, sdkerrors.Wrapf(
			ErrClientTypeMismatch,
			"client %s is of type %s, header is of type %s", clientID, clientState.ClientType(), header.ClientType(),
		)
	}
	if clientState.IsFrozen() {
		return clienttypes.Height{}, sdkerrors.Wrapf(ErrClientFrozen, "client %s frozen at %s", clientID, clientState.GetFrozenHeight())
	}

	latest := clientState.GetLatestHeight()
	height := header.GetHeight()
	if !height.GT(latest) {
		return clienttypes.Height{}, sdkerrors.Wrapf(
			ErrHeaderVerificationFailure,
			"header height %s must be greater than latest height %s", height, latest,
		)
	}

	if err := k.verify(clientID, clientState, header); err != nil {
		return clienttypes.Height{}, sdkerrors.Wrap(ErrHeaderVerificationFailure, err.Error())
	}

	b := k.store.NewBatch()
	defer b.Close()

	b.SetClientState(clientID, clientState.WithLatestHeight(height))
	b.SetConsensusState(clientID, height, header.ConsensusState())
	if err := b.Write(); err != nil {
		return clienttypes.Height{}, err
	}

	k.log.Debug(
		"Updated client",
		zap.String("client_id", clientID),
		zap.Stringer("previous_height", latest),
		zap.Stringer("height", height),
	)
	return height, nil
}

// verify runs the verifier of the client's type against the consensus state
// at the client's latest height.
func (k *Keeper) verify(clientID string, clientState codec.ClientState, header codec.Header) error {
	verifier, ok := k.verifiers[clientState.ClientType()]
	if !ok {
		return fmt.Errorf("no verifier for client type %s", clientState.ClientType())
	}

	latest := clientState.GetLatestHeight()
	trusted, found, err := k.store.ConsensusState(clientID, latest)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("client %s has no consensus state at its latest height %s", clientID, latest)
	}

	return verifier.VerifyHeader(clientState, trusted, header)
}

// SubmitMisbehaviour freezes clientID if the two headers are valid, share a
// height and commit to different consensus states.
func (k *Keeper) SubmitMisbehaviour(clientID string, env1, env2 *codectypes.Any) error {
	registry := k.store.Registry()
	header1, err := registry.DecodeHeader(env1)
	if err != nil {
		return err
	}
	header2, err := registry.DecodeHeader(env2)
	if err != nil {
		return err
	}

	clientState, err := k.clientState(clientID)
	if err != nil {
		return err
	}
	for _, h := range []codec.Header{header1, header2} {
		if h.ClientType() != clientState.ClientType() {
			return sdkerrors.Wrapf(
				ErrClientTypeMismatch,
				"client %s is of type %s, header is of type %s", clientID, clientState.ClientType(), h.ClientType(),
			)
		}
	}
	if clientState.IsFrozen() {
		return sdkerrors.Wrapf(ErrClientFrozen, "client %s frozen at %s", clientID, clientState.GetFrozenHeight())
	}

	if !header1.GetHeight().EQ(header2.GetHeight()) {
		return sdkerrors.Wrapf(
			ErrInvalidMisbehaviour,
			"headers are at different heights %s and %s", header1.GetHeight(), header2.GetHeight(),
		)
	}
	if codec.ConsensusStatesEqual(header1.ConsensusState(), header2.ConsensusState()) {
		return sdkerrors.Wrap(ErrInvalidMisbehaviour, "headers commit to the same consensus state")
	}
	for _, h := range []codec.Header{header1, header2} {
		if err := k.verify(clientID, clientState, h); err != nil {
			return sdkerrors.Wrap(ErrInvalidMisbehaviour, err.Error())
		}
	}

	k.log.Warn(
		"Misbehaviour detected",
		zap.String("client_id", clientID),
		zap.Stringer("height", header1.GetHeight()),
	)
	return k.freeze(clientID, clientState)
}

// Freeze freezes clientID at its latest height. Freezing a frozen client is a no-op.
func (k *Keeper) Freeze(clientID string) error {
	clientState, err := k.clientState(clientID)
	if err != nil {
		return err
	}
	return k.freeze(clientID, clientState)
}

func (k *Keeper) freeze(clientID string, clientState codec.ClientState) error {
	if clientState.IsFrozen() {
		return nil
	}

	b := k.store.NewBatch()
	defer b.Close()

	b.SetClientState(clientID, clientState.WithFrozenHeight(clientState.GetLatestHeight()))
	if err := b.Write(); err != nil {
		return err
	}

	k.log.Info(
		"Froze client",
		zap.String("client_id", clientID),
		zap.Stringer("height", clientState.GetLatestHeight()),
	)
	return nil
}

// IsFrozen reports whether clientID is frozen.
func (k *Keeper) IsFrozen(clientID string) (bool, error) {
	clientState, err := k.clientState(clientID)
	if err != nil {
		return false, err
	}
	return clientState.IsFrozen(), nil
}

// GetClientState returns the client state of clientID, if any.
func (k *Keeper) GetClientState(clientID string) (codec.ClientState, bool, error) {
	return k.store.ClientState(clientID)
}

// GetConsensusState returns the consensus state clientID verified at height, if any.
func (k *Keeper) GetConsensusState(clientID string, height clienttypes.Height) (codec.ConsensusState, bool, error) {
	return k.store.ConsensusState(clientID, height)
}

// HasConsensusState reports whether clientID verified a header at height.
func (k *Keeper) HasConsensusState(clientID string, height clienttypes.Height) (bool, error) {
	return k.store.HasConsensusState(clientID, height)
}

func (k *Keeper) clientState(clientID string) (codec.ClientState, error) {
	clientState, found, err := k.store.ClientState(clientID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, sdkerrors.Wrap(ErrClientNotFound, clientID)
	}
	return clientState, nil
}
