package codec

import (
	"fmt"
	"sort"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/gogo/protobuf/proto"
)

type headerEntry struct {
	clientType string
	decode     func([]byte) (Header, error)
}

type clientStateEntry struct {
	clientType string
	decode     func([]byte) (ClientState, error)
}

type consensusStateEntry struct {
	clientType string
	decode     func([]byte) (ConsensusState, error)
}

// The tables below are the single source of truth for type URL dispatch.
// They are map literals, so a type URL listed twice does not compile.
var (
	headerTable = map[string]headerEntry{
		TendermintHeaderTypeURL: {Tendermint, decodeTendermintHeader},
		MockHeaderTypeURL:       {Mock, decodeMockHeader},
	}

	clientStateTable = map[string]clientStateEntry{
		TendermintClientStateTypeURL: {Tendermint, decodeTendermintClientState},
		MockClientStateTypeURL:       {Mock, decodeMockClientState},
	}

	consensusStateTable = map[string]consensusStateEntry{
		TendermintConsensusStateTypeURL: {Tendermint, decodeTendermintConsensusState},
		MockConsensusStateTypeURL:       {Mock, decodeMockConsensusState},
	}
)

// Registry decodes envelopes for the client types installed in it. Envelopes
// of a known variant whose client type is not installed are rejected just
// like unknown ones.
//
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	clientTypes map[string]struct{}
}

// NewRegistry returns a registry accepting the given client types.
// It panics on a client type with no variant, as that is a programming error.
func NewRegistry(clientTypes ...string) *Registry {
	known := make(map[string]struct{})
	for _, e := range headerTable {
		known[e.clientType] = struct{}{}
	}

	r := &Registry{clientTypes: make(map[string]struct{}, len(clientTypes))}
	for _, ct := range clientTypes {
		if _, ok := known[ct]; !ok {
			panic(fmt.Errorf("codec: no variant registered for client type %q", ct))
		}
		r.clientTypes[ct] = struct{}{}
	}
	return r
}

// DefaultRegistry accepts the production client types only.
func DefaultRegistry() *Registry {
	return NewRegistry(Tendermint)
}

// TestRegistry accepts every client type, including the mock client.
func TestRegistry() *Registry {
	return NewRegistry(Tendermint, Mock)
}

// IsRegistered reports whether envelopes of clientType are accepted.
func (r *Registry) IsRegistered(clientType string) bool {
	_, ok := r.clientTypes[clientType]
	return ok
}

// ClientTypes returns the installed client types in lexical order.
func (r *Registry) ClientTypes() []string {
	out := make([]string, 0, len(r.clientTypes))
	for ct := range r.clientTypes {
		out = append(out, ct)
	}
	sort.Strings(out)
	return out
}

// DecodeHeader decodes a header envelope.
func (r *Registry) DecodeHeader(env *codectypes.Any) (Header, error) {
	if env == nil {
		return nil, sdkerrors.Wrap(ErrInvalidRawHeader, "empty envelope")
	}
	e, ok := headerTable[env.TypeUrl]
	if !ok || !r.IsRegistered(e.clientType) {
		return nil, sdkerrors.Wrap(ErrUnknownHeaderType, env.TypeUrl)
	}
	h, err := e.decode(env.Value)
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidRawHeader, "%s: %s", env.TypeUrl, err)
	}
	return h, nil
}

// DecodeClientState decodes a client state envelope.
func (r *Registry) DecodeClientState(env *codectypes.Any) (ClientState, error) {
	if env == nil {
		return nil, sdkerrors.Wrap(ErrInvalidRawClientState, "empty envelope")
	}
	e, ok := clientStateTable[env.TypeUrl]
	if !ok || !r.IsRegistered(e.clientType) {
		return nil, sdkerrors.Wrap(ErrUnknownClientStateType, env.TypeUrl)
	}
	cs, err := e.decode(env.Value)
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidRawClientState, "%s: %s", env.TypeUrl, err)
	}
	return cs, nil
}

// DecodeConsensusState decodes a consensus state envelope.
func (r *Registry) DecodeConsensusState(env *codectypes.Any) (ConsensusState, error) {
	if env == nil {
		return nil, sdkerrors.Wrap(ErrInvalidRawConsensusState, "empty envelope")
	}
	e, ok := consensusStateTable[env.TypeUrl]
	if !ok || !r.IsRegistered(e.clientType) {
		return nil, sdkerrors.Wrap(ErrUnknownConsensusStateType, env.TypeUrl)
	}
	cs, err := e.decode(env.Value)
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidRawConsensusState, "%s: %s", env.TypeUrl, err)
	}
	return cs, nil
}

// EncodeHeader wraps a header into its envelope.
func EncodeHeader(h Header) *codectypes.Any {
	switch h := h.(type) {
	case *TendermintHeader:
		return mustPack(TendermintHeaderTypeURL, h.Raw)
	case *MockHeader:
		return mustPack(MockHeaderTypeURL, h)
	default:
		panic(fmt.Errorf("codec: unhandled header variant %T", h))
	}
}

// EncodeClientState wraps a client state into its envelope.
func EncodeClientState(cs ClientState) *codectypes.Any {
	switch cs := cs.(type) {
	case *TendermintClientState:
		return mustPack(TendermintClientStateTypeURL, cs.Raw)
	case *MockClientState:
		return mustPack(MockClientStateTypeURL, cs)
	default:
		panic(fmt.Errorf("codec: unhandled client state variant %T", cs))
	}
}

// EncodeConsensusState wraps a consensus state into its envelope.
func EncodeConsensusState(cs ConsensusState) *codectypes.Any {
	switch cs := cs.(type) {
	case *TendermintConsensusState:
		return mustPack(TendermintConsensusStateTypeURL, cs.Raw)
	case *MockConsensusState:
		return mustPack(MockConsensusStateTypeURL, cs)
	default:
		panic(fmt.Errorf("codec: unhandled consensus state variant %T", cs))
	}
}

// mustPack marshals an in-memory variant. A well-formed variant always
// marshals, so a failure here is a broken invariant and panics.
func mustPack(typeURL string, m proto.Marshaler) *codectypes.Any {
	bz, err := m.Marshal()
	if err != nil {
		panic(fmt.Errorf("codec: marshal %s: %w", typeURL, err))
	}
	return &codectypes.Any{TypeUrl: typeURL, Value: bz}
}

func decodeMockHeader(bz []byte) (Header, error) {
	h := &MockHeader{}
	if err := h.Unmarshal(bz); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeMockClientState(bz []byte) (ClientState, error) {
	cs := &MockClientState{}
	if err := cs.Unmarshal(bz); err != nil {
		return nil, err
	}
	return cs, nil
}

func decodeMockConsensusState(bz []byte) (ConsensusState, error) {
	cs := &MockConsensusState{}
	if err := cs.Unmarshal(bz); err != nil {
		return nil, err
	}
	return cs, nil
}
