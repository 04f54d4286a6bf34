// Package store persists the records of one chain: client states, consensus
// states, connection ends and identifier sequences.
//
// Records live in a tm-db database under their ICS-24 host paths. Reads go
// straight to the database; writes are staged in a Batch and committed
// together, so a failed transition leaves no partial state behind.
package store

import (
	"fmt"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	host "github.com/cosmos/ibc-go/v3/modules/core/24-host"
	dbm "github.com/tendermint/tm-db"

	"github.com/cosmos/lightcore/core/codec"
)

// Store reads the records of a single chain.
type Store struct {
	db       dbm.DB
	registry *codec.Registry
}

// New returns a store over db, decoding envelopes with registry.
func New(db dbm.DB, registry *codec.Registry) *Store {
	return &Store{db: db, registry: registry}
}

// Registry returns the registry envelopes are decoded with.
func (s *Store) Registry() *codec.Registry {
	return s.registry
}

// ClientState returns the client state of clientID.
// found is false if no client with that identifier was ever created.
func (s *Store) ClientState(clientID string) (cs codec.ClientState, found bool, err error) {
	bz, err := s.db.Get(host.FullClientStateKey(clientID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read client state of %s: %w", clientID, err)
	}
	if bz == nil {
		return nil, false, nil
	}

	env, err := unmarshalEnvelope(bz)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read client state of %s: %w", clientID, err)
	}
	cs, err = s.registry.DecodeClientState(env)
	if err != nil {
		return nil, false, err
	}
	return cs, true, nil
}

// ConsensusState returns the consensus state clientID verified at height.
func (s *Store) ConsensusState(clientID string, height clienttypes.Height) (cs codec.ConsensusState, found bool, err error) {
	bz, err := s.db.Get(host.FullConsensusStateKey(clientID, height))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read consensus state of %s at %s: %w", clientID, height, err)
	}
	if bz == nil {
		return nil, false, nil
	}

	env, err := unmarshalEnvelope(bz)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read consensus state of %s at %s: %w", clientID, height, err)
	}
	cs, err = s.registry.DecodeConsensusState(env)
	if err != nil {
		return nil, false, err
	}
	return cs, true, nil
}

// HasConsensusState reports whether clientID holds a consensus state at height.
func (s *Store) HasConsensusState(clientID string, height clienttypes.Height) (bool, error) {
	ok, err := s.db.Has(host.FullConsensusStateKey(clientID, height))
	if err != nil {
		return false, fmt.Errorf("failed to read consensus state of %s at %s: %w", clientID, height, err)
	}
	return ok, nil
}

// Connection returns the connection end stored under connectionID.
func (s *Store) Connection(connectionID string) (end connectiontypes.ConnectionEnd, found bool, err error) {
	bz, err := s.db.Get(host.ConnectionKey(connectionID))
	if err != nil {
		return end, false, fmt.Errorf("failed to read connection %s: %w", connectionID, err)
	}
	if bz == nil {
		return end, false, nil
	}
	if err := end.Unmarshal(bz); err != nil {
		return end, false, fmt.Errorf("failed to decode connection %s: %w", connectionID, err)
	}
	return end, true, nil
}

// ClientConnections returns the identifiers of the connections built on clientID.
func (s *Store) ClientConnections(clientID string) ([]string, error) {
	bz, err := s.db.Get(host.ClientConnectionsKey(clientID))
	if err != nil {
		return nil, fmt.Errorf("failed to read connections of %s: %w", clientID, err)
	}
	if bz == nil {
		return nil, nil
	}

	var paths connectiontypes.ClientPaths
	if err := paths.Unmarshal(bz); err != nil {
		return nil, fmt.Errorf("failed to decode connections of %s: %w", clientID, err)
	}
	return paths.Paths, nil
}

// NextClientSequence returns the sequence the next client identifier is built from.
func (s *Store) NextClientSequence() (uint64, error) {
	return s.sequence(clienttypes.KeyNextClientSequence)
}

// NextConnectionSequence returns the sequence the next connection identifier is built from.
func (s *Store) NextConnectionSequence() (uint64, error) {
	return s.sequence(connectiontypes.KeyNextConnectionSequence)
}

func (s *Store) sequence(key string) (uint64, error) {
	bz, err := s.db.Get([]byte(key))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if bz == nil {
		return 0, nil
	}
	return sdk.BigEndianToUint64(bz), nil
}

// NewBatch starts a set of writes that are committed together.
func (s *Store) NewBatch() *Batch {
	return &Batch{b: s.db.NewBatch()}
}

func unmarshalEnvelope(bz []byte) (*codectypes.Any, error) {
	env := new(codectypes.Any)
	if err := env.Unmarshal(bz); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	return env, nil
}
