package tendermint_test

import (
	"testing"
	"time"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	commitmenttypes "github.com/cosmos/ibc-go/v3/modules/core/23-commitment/types"
	tmclient "github.com/cosmos/ibc-go/v3/modules/light-clients/07-tendermint/types"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto/tmhash"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmversion "github.com/tendermint/tendermint/proto/tendermint/version"
	tmtypes "github.com/tendermint/tendermint/types"
	"github.com/tendermint/tendermint/version"

	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/lightclients/tendermint"
)

const chainID = "gaia-1"

var genesisTime = time.Date(2022, 4, 1, 12, 0, 0, 0, time.UTC)

// signedHeader builds a header at height signed by every validator in vals.
func signedHeader(
	t *testing.T,
	height int64,
	ts time.Time,
	vals, nextVals *tmtypes.ValidatorSet,
	signers []tmtypes.PrivValidator,
	appHash []byte,
) *tmproto.SignedHeader {
	t.Helper()

	header := tmtypes.Header{
		Version:            tmversion.Consensus{Block: version.BlockProtocol},
		ChainID:            chainID,
		Height:             height,
		Time:               ts,
		ValidatorsHash:     vals.Hash(),
		NextValidatorsHash: nextVals.Hash(),
		AppHash:            appHash,
		ProposerAddress:    vals.Proposer.Address,
	}

	blockID := tmtypes.BlockID{
		Hash: header.Hash(),
		PartSetHeader: tmtypes.PartSetHeader{
			Total: 1,
			Hash:  tmhash.Sum([]byte("parts")),
		},
	}
	voteSet := tmtypes.NewVoteSet(chainID, height, 1, tmproto.PrecommitType, vals)
	commit, err := tmtypes.MakeCommit(blockID, height, 1, voteSet, signers, ts)
	require.NoError(t, err)

	sh := tmtypes.SignedHeader{Header: &header, Commit: commit}
	return sh.ToProto()
}

func toProto(t *testing.T, vals *tmtypes.ValidatorSet) *tmproto.ValidatorSet {
	t.Helper()
	pb, err := vals.ToProto()
	require.NoError(t, err)
	return pb
}

func trustedState(vals *tmtypes.ValidatorSet) *codec.TendermintConsensusState {
	return &codec.TendermintConsensusState{Raw: &tmclient.ConsensusState{
		Timestamp:          genesisTime,
		Root:               commitmenttypes.NewMerkleRoot(tmhash.Sum([]byte("genesis"))),
		NextValidatorsHash: vals.Hash(),
	}}
}

func clientState(chain string) *codec.TendermintClientState {
	return codec.NewTendermintClientState(chain, clienttypes.NewHeight(1, 1), 14*24*time.Hour, 21*24*time.Hour)
}

// verifierAt returns a verifier whose clock reads now.
func verifierAt(now time.Time) *tendermint.Verifier {
	v := tendermint.NewVerifier()
	v.Now = func() time.Time { return now }
	return v
}

func TestVerifyAdjacentHeader(t *testing.T) {
	vals, signers := tmtypes.RandValidatorSet(4, 10)
	trusted := trustedState(vals)

	header := &codec.TendermintHeader{Raw: &tmclient.Header{
		SignedHeader:      signedHeader(t, 2, genesisTime.Add(time.Second), vals, vals, signers, tmhash.Sum([]byte("app"))),
		ValidatorSet:      toProto(t, vals),
		TrustedHeight:     clienttypes.NewHeight(1, 1),
		TrustedValidators: toProto(t, vals),
	}}

	require.NoError(t, verifierAt(genesisTime.Add(time.Hour)).VerifyHeader(clientState(chainID), trusted, header))
}

func TestVerifyNonAdjacentHeader(t *testing.T) {
	vals, signers := tmtypes.RandValidatorSet(4, 10)
	trusted := trustedState(vals)

	header := &codec.TendermintHeader{Raw: &tmclient.Header{
		SignedHeader:      signedHeader(t, 10, genesisTime.Add(time.Minute), vals, vals, signers, tmhash.Sum([]byte("app"))),
		ValidatorSet:      toProto(t, vals),
		TrustedHeight:     clienttypes.NewHeight(1, 1),
		TrustedValidators: toProto(t, vals),
	}}

	require.NoError(t, verifierAt(genesisTime.Add(time.Hour)).VerifyHeader(clientState(chainID), trusted, header))
}

func TestVerifyRejects(t *testing.T) {
	vals, signers := tmtypes.RandValidatorSet(4, 10)
	otherVals, otherSigners := tmtypes.RandValidatorSet(4, 10)
	appHash := tmhash.Sum([]byte("app"))

	tests := map[string]struct {
		client  codec.ClientState
		now     time.Time
		trusted codec.ConsensusState
		header  func(t *testing.T) codec.Header
	}{
		"header from another chain": {
			client:  clientState("osmosis-1"),
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 2, genesisTime.Add(time.Second), vals, vals, signers, appHash),
					ValidatorSet:      toProto(t, vals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"trusting period expired": {
			now:     genesisTime.Add(15 * 24 * time.Hour),
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 2, genesisTime.Add(time.Second), vals, vals, signers, appHash),
					ValidatorSet:      toProto(t, vals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"header beyond clock drift": {
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 2, genesisTime.Add(2*time.Hour), vals, vals, signers, appHash),
					ValidatorSet:      toProto(t, vals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"mock client state": {
			client:  &codec.MockClientState{LatestHeight: clienttypes.NewHeight(0, 1)},
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 2, genesisTime.Add(time.Second), vals, vals, signers, appHash),
					ValidatorSet:      toProto(t, vals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"signed by unknown validators": {
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 2, genesisTime.Add(time.Second), otherVals, otherVals, otherSigners, appHash),
					ValidatorSet:      toProto(t, otherVals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, otherVals),
				}}
			},
		},
		"non-adjacent header without trusted quorum": {
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 10, genesisTime.Add(time.Second), otherVals, otherVals, otherSigners, appHash),
					ValidatorSet:      toProto(t, otherVals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"tampered app hash": {
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				sh := signedHeader(t, 2, genesisTime.Add(time.Second), vals, vals, signers, appHash)
				sh.Header.AppHash = tmhash.Sum([]byte("forged"))
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      sh,
					ValidatorSet:      toProto(t, vals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"header not after trusted time": {
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 2, genesisTime, vals, vals, signers, appHash),
					ValidatorSet:      toProto(t, vals),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"missing validator set": {
			trusted: trustedState(vals),
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader:      signedHeader(t, 2, genesisTime.Add(time.Second), vals, vals, signers, appHash),
					TrustedHeight:     clienttypes.NewHeight(1, 1),
					TrustedValidators: toProto(t, vals),
				}}
			},
		},
		"mock trusted state": {
			trusted: &codec.MockConsensusState{Timestamp: 1},
			header: func(t *testing.T) codec.Header {
				return &codec.TendermintHeader{Raw: &tmclient.Header{
					SignedHeader: signedHeader(t, 2, genesisTime.Add(time.Second), vals, vals, signers, appHash),
				}}
			},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			client := tc.client
			if client == nil {
				client = clientState(chainID)
			}
			now := tc.now
			if now.IsZero() {
				now = genesisTime.Add(time.Hour)
			}
			require.Error(t, verifierAt(now).VerifyHeader(client, tc.trusted, tc.header(t)))
		})
	}
}
