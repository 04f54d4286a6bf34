package store

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	host "github.com/cosmos/ibc-go/v3/modules/core/24-host"
	dbm "github.com/tendermint/tm-db"

	"github.com/cosmos/lightcore/core/codec"
)

// Batch stages writes to a Store. Nothing is visible to readers until Write
// succeeds. The first staging error is kept and returned by Write.
//
// A Batch must be closed once done with, whether or not it was written.
type Batch struct {
	b   dbm.Batch
	err error
}

func (b *Batch) set(key []byte, value []byte) {
	if b.err != nil {
		return
	}
	if err := b.b.Set(key, value); err != nil {
		b.err = fmt.Errorf("failed to stage %s: %w", key, err)
	}
}

func (b *Batch) marshal(key []byte, m interface{ Marshal() ([]byte, error) }) {
	if b.err != nil {
		return
	}
	bz, err := m.Marshal()
	if err != nil {
		b.err = fmt.Errorf("failed to encode %s: %w", key, err)
		return
	}
	b.set(key, bz)
}

// SetClientState stages the client state of clientID.
func (b *Batch) SetClientState(clientID string, cs codec.ClientState) {
	b.marshal(host.FullClientStateKey(clientID), codec.EncodeClientState(cs))
}

// SetConsensusState stages the consensus state clientID verified at height.
func (b *Batch) SetConsensusState(clientID string, height clienttypes.Height, cs codec.ConsensusState) {
	b.marshal(host.FullConsensusStateKey(clientID, height), codec.EncodeConsensusState(cs))
}

// SetConnection stages the connection end of connectionID.
func (b *Batch) SetConnection(connectionID string, end connectiontypes.ConnectionEnd) {
	b.marshal(host.ConnectionKey(connectionID), &end)
}

// SetClientConnections stages the connection identifiers built on clientID.
func (b *Batch) SetClientConnections(clientID string, connectionIDs []string) {
	paths := connectiontypes.ClientPaths{Paths: connectionIDs}
	b.marshal(host.ClientConnectionsKey(clientID), &paths)
}

// SetNextClientSequence stages the next client sequence.
func (b *Batch) SetNextClientSequence(seq uint64) {
	b.set([]byte(clienttypes.KeyNextClientSequence), sdk.Uint64ToBigEndian(seq))
}

// SetNextConnectionSequence stages the next connection sequence.
func (b *Batch) SetNextConnectionSequence(seq uint64) {
	b.set([]byte(connectiontypes.KeyNextConnectionSequence), sdk.Uint64ToBigEndian(seq))
}

// Write commits every staged write atomically.
func (b *Batch) Write() error {
	if b.err != nil {
		return b.err
	}
	if err := b.b.Write(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Close releases the batch. Staged writes that were not written are discarded.
func (b *Batch) Close() error {
	return b.b.Close()
}
