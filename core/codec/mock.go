package codec

import (
	"fmt"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	_ Header         = (*MockHeader)(nil)
	_ ClientState    = (*MockClientState)(nil)
	_ ConsensusState = (*MockConsensusState)(nil)
)

// MockHeader is the header of the mock light client used by tests and the
// conformance executor. It carries no signatures.
//
// Wire format (ibc.mock.Header):
//
//	Height height    = 1;
//	uint64 timestamp = 2;
type MockHeader struct {
	Height    clienttypes.Height
	Timestamp uint64
}

func (h *MockHeader) isHeader() {}

func (h *MockHeader) ClientType() string { return Mock }

func (h *MockHeader) GetHeight() clienttypes.Height { return h.Height }

func (h *MockHeader) ConsensusState() ConsensusState {
	return &MockConsensusState{Timestamp: h.Timestamp}
}

func (h *MockHeader) Marshal() ([]byte, error) {
	bz, err := appendHeight(nil, 1, h.Height)
	if err != nil {
		return nil, err
	}
	if h.Timestamp != 0 {
		bz = protowire.AppendTag(bz, 2, protowire.VarintType)
		bz = protowire.AppendVarint(bz, h.Timestamp)
	}
	return bz, nil
}

func (h *MockHeader) Unmarshal(bz []byte) error {
	*h = MockHeader{}
	return consumeFields(bz, func(num protowire.Number, typ protowire.Type, bz []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeHeight(bz, &h.Height)
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(bz)
			if n < 0 {
				return n, protowire.ParseError(n)
			}
			h.Timestamp = v
			return n, nil
		}
		return -1, nil
	})
}

// MockClientState is the client state of the mock light client.
//
// Wire format (ibc.mock.ClientState):
//
//	Height latest_height = 1;
//	Height frozen_height = 2;
type MockClientState struct {
	LatestHeight clienttypes.Height
	FrozenHeight clienttypes.Height
}

func (c *MockClientState) isClientState() {}

func (c *MockClientState) ClientType() string { return Mock }

func (c *MockClientState) GetLatestHeight() clienttypes.Height { return c.LatestHeight }

func (c *MockClientState) GetFrozenHeight() clienttypes.Height { return c.FrozenHeight }

func (c *MockClientState) IsFrozen() bool { return !c.FrozenHeight.IsZero() }

func (c *MockClientState) WithLatestHeight(height clienttypes.Height) ClientState {
	return &MockClientState{LatestHeight: height, FrozenHeight: c.FrozenHeight}
}

func (c *MockClientState) WithFrozenHeight(height clienttypes.Height) ClientState {
	return &MockClientState{LatestHeight: c.LatestHeight, FrozenHeight: height}
}

func (c *MockClientState) Marshal() ([]byte, error) {
	bz, err := appendHeight(nil, 1, c.LatestHeight)
	if err != nil {
		return nil, err
	}
	if c.FrozenHeight.IsZero() {
		return bz, nil
	}
	return appendHeight(bz, 2, c.FrozenHeight)
}

func (c *MockClientState) Unmarshal(bz []byte) error {
	*c = MockClientState{}
	return consumeFields(bz, func(num protowire.Number, typ protowire.Type, bz []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeHeight(bz, &c.LatestHeight)
		case num == 2 && typ == protowire.BytesType:
			return consumeHeight(bz, &c.FrozenHeight)
		}
		return -1, nil
	})
}

// MockConsensusState is the consensus state of the mock light client.
//
// Wire format (ibc.mock.ConsensusState):
//
//	uint64 timestamp = 1;
type MockConsensusState struct {
	Timestamp uint64
}

func (c *MockConsensusState) isConsensusState() {}

func (c *MockConsensusState) ClientType() string { return Mock }

func (c *MockConsensusState) GetTimestamp() uint64 { return c.Timestamp }

func (c *MockConsensusState) Marshal() ([]byte, error) {
	if c.Timestamp == 0 {
		return []byte{}, nil
	}
	bz := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(bz, c.Timestamp), nil
}

func (c *MockConsensusState) Unmarshal(bz []byte) error {
	*c = MockConsensusState{}
	return consumeFields(bz, func(num protowire.Number, typ protowire.Type, bz []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(bz)
			if n < 0 {
				return n, protowire.ParseError(n)
			}
			c.Timestamp = v
			return n, nil
		}
		return -1, nil
	})
}

// consumeFields walks the fields of a protobuf message. fn consumes the value
// of a known field and returns its length, or returns -1 with a nil error to
// have an unknown field skipped.
func consumeFields(bz []byte, fn func(num protowire.Number, typ protowire.Type, bz []byte) (int, error)) error {
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return protowire.ParseError(n)
		}
		bz = bz[n:]

		n, err := fn(num, typ, bz)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if n < 0 {
			n = protowire.ConsumeFieldValue(num, typ, bz)
			if n < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
		}
		bz = bz[n:]
	}
	return nil
}

func appendHeight(bz []byte, num protowire.Number, height clienttypes.Height) ([]byte, error) {
	hbz, err := height.Marshal()
	if err != nil {
		return nil, err
	}
	bz = protowire.AppendTag(bz, num, protowire.BytesType)
	return protowire.AppendBytes(bz, hbz), nil
}

func consumeHeight(bz []byte, height *clienttypes.Height) (int, error) {
	v, n := protowire.ConsumeBytes(bz)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	if err := height.Unmarshal(v); err != nil {
		return n, err
	}
	return n, nil
}
