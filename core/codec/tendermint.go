package codec

import (
	"errors"
	"time"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	commitmenttypes "github.com/cosmos/ibc-go/v3/modules/core/23-commitment/types"
	tmclient "github.com/cosmos/ibc-go/v3/modules/light-clients/07-tendermint/types"
	"github.com/tendermint/tendermint/light"
)

var (
	_ Header         = (*TendermintHeader)(nil)
	_ ClientState    = (*TendermintClientState)(nil)
	_ ConsensusState = (*TendermintConsensusState)(nil)
)

// defaultUpgradePath is the IBC upgrade path set for new tendermint clients.
var defaultUpgradePath = []string{"upgrade", "upgradedIBCState"}

// TendermintHeader is a signed tendermint header together with the validator
// sets needed to verify it.
type TendermintHeader struct {
	Raw *tmclient.Header
}

func (h *TendermintHeader) isHeader() {}

func (h *TendermintHeader) ClientType() string { return Tendermint }

// GetHeight returns the header height, with the revision number parsed from the chain ID.
func (h *TendermintHeader) GetHeight() clienttypes.Height {
	hdr := h.Raw.GetHeader()
	return clienttypes.NewHeight(clienttypes.ParseChainID(hdr.GetChainID()), uint64(hdr.GetHeight()))
}

func (h *TendermintHeader) ConsensusState() ConsensusState {
	return &TendermintConsensusState{Raw: h.Raw.ConsensusState()}
}

// ChainID returns the chain ID the header was produced on.
func (h *TendermintHeader) ChainID() string {
	return h.Raw.GetHeader().GetChainID()
}

// TendermintClientState wraps the ibc-go tendermint client state.
type TendermintClientState struct {
	Raw *tmclient.ClientState
}

// NewTendermintClientState returns a client state tracking chainID from latestHeight.
func NewTendermintClientState(chainID string, latestHeight clienttypes.Height, trustingPeriod, unbondingPeriod time.Duration) *TendermintClientState {
	return &TendermintClientState{Raw: &tmclient.ClientState{
		ChainId:         chainID,
		TrustLevel:      tmclient.NewFractionFromTm(light.DefaultTrustLevel),
		TrustingPeriod:  trustingPeriod,
		UnbondingPeriod: unbondingPeriod,
		MaxClockDrift:   time.Minute * 10,
		FrozenHeight:    clienttypes.ZeroHeight(),
		LatestHeight:    latestHeight,
		ProofSpecs:      commitmenttypes.GetSDKSpecs(),
		UpgradePath:     defaultUpgradePath,
	}}
}

func (c *TendermintClientState) isClientState() {}

func (c *TendermintClientState) ClientType() string { return Tendermint }

func (c *TendermintClientState) GetLatestHeight() clienttypes.Height { return c.Raw.LatestHeight }

func (c *TendermintClientState) GetFrozenHeight() clienttypes.Height { return c.Raw.FrozenHeight }

func (c *TendermintClientState) IsFrozen() bool { return !c.Raw.FrozenHeight.IsZero() }

func (c *TendermintClientState) WithLatestHeight(height clienttypes.Height) ClientState {
	cs := *c.Raw
	cs.LatestHeight = height
	return &TendermintClientState{Raw: &cs}
}

func (c *TendermintClientState) WithFrozenHeight(height clienttypes.Height) ClientState {
	cs := *c.Raw
	cs.FrozenHeight = height
	return &TendermintClientState{Raw: &cs}
}

// TendermintConsensusState wraps the ibc-go tendermint consensus state.
type TendermintConsensusState struct {
	Raw *tmclient.ConsensusState
}

func (c *TendermintConsensusState) isConsensusState() {}

func (c *TendermintConsensusState) ClientType() string { return Tendermint }

func (c *TendermintConsensusState) GetTimestamp() uint64 {
	return uint64(c.Raw.Timestamp.UnixNano())
}

func decodeTendermintHeader(bz []byte) (Header, error) {
	raw := &tmclient.Header{}
	if err := raw.Unmarshal(bz); err != nil {
		return nil, err
	}
	if raw.SignedHeader == nil || raw.SignedHeader.Header == nil {
		return nil, errors.New("tendermint header is missing its signed header")
	}
	return &TendermintHeader{Raw: raw}, nil
}

func decodeTendermintClientState(bz []byte) (ClientState, error) {
	raw := &tmclient.ClientState{}
	if err := raw.Unmarshal(bz); err != nil {
		return nil, err
	}
	if raw.ChainId == "" {
		return nil, errors.New("tendermint client state has an empty chain ID")
	}
	return &TendermintClientState{Raw: raw}, nil
}

func decodeTendermintConsensusState(bz []byte) (ConsensusState, error) {
	raw := &tmclient.ConsensusState{}
	if err := raw.Unmarshal(bz); err != nil {
		return nil, err
	}
	return &TendermintConsensusState{Raw: raw}, nil
}
