// Package model replays model-based conformance fixtures against simulated
// chains.
//
// A fixture is a JSON array of steps. The first step has action None and
// declares the chains and their initial heights. Every later step applies an
// action to one chain and states the outcome the action must have and the
// height every chain must be at afterwards.
package model

import (
	"context"
	"errors"
	"fmt"
	"sort"

	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	commitmenttypes "github.com/cosmos/ibc-go/v3/modules/core/23-commitment/types"
	"github.com/google/go-cmp/cmp"
	dbm "github.com/tendermint/tm-db"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cosmos/lightcore/core/chain"
	"github.com/cosmos/lightcore/core/client"
	"github.com/cosmos/lightcore/core/codec"
	"github.com/cosmos/lightcore/core/connection"
	"github.com/cosmos/lightcore/internal/coremetrics"
)

// DefaultPrefix is the commitment prefix every simulated chain uses.
var DefaultPrefix = commitmenttypes.NewMerklePrefix([]byte("ibc"))

// DBFactory opens the database of chainID for the fixture named fixture.
type DBFactory func(fixture, chainID string) (dbm.DB, error)

// MemDBFactory keeps every chain in memory.
func MemDBFactory(string, string) (dbm.DB, error) {
	return dbm.NewMemDB(), nil
}

// Option configures an Executor.
type Option func(*Executor)

// WithRegistry sets the registry chains decode envelopes with.
func WithRegistry(registry *codec.Registry) Option {
	return func(e *Executor) { e.registry = registry }
}

// WithVerifiers sets the header verifiers of every chain.
func WithVerifiers(verifiers client.Verifiers) Option {
	return func(e *Executor) { e.verifiers = verifiers }
}

// WithDBFactory sets how chain databases are opened.
func WithDBFactory(f DBFactory) Option {
	return func(e *Executor) { e.newDB = f }
}

// WithMetrics records chain metrics in m.
func WithMetrics(m *coremetrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// Executor replays fixtures. Each call to Run starts from fresh chains.
type Executor struct {
	log       *zap.Logger
	registry  *codec.Registry
	verifiers client.Verifiers
	newDB     DBFactory
	metrics   *coremetrics.Metrics
}

// NewExecutor returns an executor over mock clients kept in memory, unless
// configured otherwise.
func NewExecutor(log *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		log:       log,
		registry:  codec.TestRegistry(),
		verifiers: client.DefaultVerifiers(),
		newDB:     MemDBFactory,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StepError reports a step whose outcome differs from the expected one.
type StepError struct {
	Step   int
	Action Action
	Want   Outcome
	Got    Outcome
	// Err is the error the action failed with, if any.
	Err error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("step %d (%s): expected outcome %s, got %s", e.Step, e.Action, e.Want, e.Got)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run replays steps on fresh chains. name identifies the fixture in logs and
// chain databases.
func (e *Executor) Run(ctx context.Context, name string, steps []Step) (err error) {
	if len(steps) == 0 {
		return errors.New("fixture has no steps")
	}
	if steps[0].Action.Type != ActionNone {
		return fmt.Errorf("first step must have action %s, got %s", ActionNone, steps[0].Action.Type)
	}

	log := e.log.With(zap.String("fixture", name))
	chains, err := e.newChains(log, name, steps[0].Chains)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range chains {
			err = multierr.Append(err, c.Close())
		}
	}()

	for i := 1; i < len(steps); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := steps[i]
		got, actionErr, err := e.apply(chains, step.Action)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
		if got != step.Outcome {
			return &StepError{Step: i, Action: step.Action, Want: step.Outcome, Got: got, Err: actionErr}
		}

		if diff := cmp.Diff(step.Chains, heights(chains)); diff != "" {
			return fmt.Errorf("step %d (%s): chain heights differ (-want +got):\n%s", i, step.Action, diff)
		}

		log.Debug(
			"Step replayed",
			zap.Int("step", i),
			zap.String("action", string(step.Action.Type)),
			zap.String("outcome", string(got)),
		)
	}
	return nil
}

func (e *Executor) newChains(log *zap.Logger, name string, initial map[string]ChainState) (map[string]*chain.Chain, error) {
	if len(initial) == 0 {
		return nil, errors.New("first step declares no chains")
	}

	chainIDs := make([]string, 0, len(initial))
	for chainID := range initial {
		chainIDs = append(chainIDs, chainID)
	}
	sort.Strings(chainIDs)

	chains := make(map[string]*chain.Chain, len(initial))
	for _, chainID := range chainIDs {
		db, err := e.newDB(name, chainID)
		if err != nil {
			for _, c := range chains {
				_ = c.Close()
			}
			return nil, fmt.Errorf("failed to open database of %s: %w", chainID, err)
		}
		chains[chainID] = chain.New(log, chainID, initial[chainID].Height, db, e.registry, e.verifiers, e.metrics)
	}
	return chains, nil
}

func heights(chains map[string]*chain.Chain) map[string]ChainState {
	out := make(map[string]ChainState, len(chains))
	for chainID, c := range chains {
		out[chainID] = ChainState{Height: c.Height().RevisionHeight}
	}
	return out
}

// apply delivers the message of action. It returns the outcome, the error the
// chain rejected the message with, and an error if the action cannot be
// applied or its result has no outcome.
func (e *Executor) apply(chains map[string]*chain.Chain, action Action) (Outcome, error, error) {
	if action.Type == ActionNone {
		return OutcomeNone, nil, nil
	}

	c, ok := chains[action.ChainID]
	if !ok {
		return "", nil, fmt.Errorf("unknown chain %q", action.ChainID)
	}

	msg, success, err := buildMsg(action, c.Height().RevisionNumber)
	if err != nil {
		return "", nil, err
	}

	_, actionErr := c.Deliver(msg)
	got, err := classify(actionErr, success)
	return got, actionErr, err
}

// buildMsg returns the message of action and the outcome of its success.
// Fixture heights are taken in the given revision, the revision of the chain
// the action runs on, so proof heights compare against its host height.
func buildMsg(action Action, revision uint64) (chain.Msg, Outcome, error) {
	switch action.Type {
	case ActionCreateClient:
		header := mockHeader(revision, action.Height, action.Height)
		return client.MsgCreateClient{
			ClientState:    codec.EncodeClientState(&codec.MockClientState{LatestHeight: header.Height}),
			ConsensusState: codec.EncodeConsensusState(header.ConsensusState()),
		}, OutcomeCreateOK, nil

	case ActionUpdateClient:
		clientID, err := requireID(action.ClientID, "clientId", action)
		if err != nil {
			return nil, "", err
		}
		return client.MsgUpdateClient{
			ClientID: mockClientID(clientID),
			Header:   codec.EncodeHeader(mockHeader(revision, action.Height, action.Height)),
		}, OutcomeUpdateOK, nil

	case ActionSubmitMisbehaviour:
		clientID, err := requireID(action.ClientID, "clientId", action)
		if err != nil {
			return nil, "", err
		}
		// Two headers at the same height committing to different timestamps.
		return client.MsgSubmitMisbehaviour{
			ClientID: mockClientID(clientID),
			Header1:  codec.EncodeHeader(mockHeader(revision, action.Height, action.Height)),
			Header2:  codec.EncodeHeader(mockHeader(revision, action.Height, action.Height+1)),
		}, OutcomeMisbehaviourOK, nil

	case ActionConnectionOpenInit:
		clientID, err := requireID(action.ClientID, "clientId", action)
		if err != nil {
			return nil, "", err
		}
		counterpartyClientID, err := requireID(action.CounterpartyClientID, "counterpartyClientId", action)
		if err != nil {
			return nil, "", err
		}
		return connection.MsgConnectionOpenInit{
			ClientID:     mockClientID(clientID),
			Counterparty: connectiontypes.NewCounterparty(mockClientID(counterpartyClientID), "", DefaultPrefix),
		}, OutcomeConnectionOpenInitOK, nil

	case ActionConnectionOpenTry:
		clientID, err := requireID(action.ClientID, "clientId", action)
		if err != nil {
			return nil, "", err
		}
		counterpartyClientID, err := requireID(action.CounterpartyClientID, "counterpartyClientId", action)
		if err != nil {
			return nil, "", err
		}
		return connection.MsgConnectionOpenTry{
			PreviousConnectionID: optionalConnectionID(action.PreviousConnectionID),
			ClientID:             mockClientID(clientID),
			Counterparty: connectiontypes.NewCounterparty(
				mockClientID(counterpartyClientID),
				optionalConnectionID(action.CounterpartyConnectionID),
				DefaultPrefix,
			),
			CounterpartyVersions: []*connectiontypes.Version{connectiontypes.DefaultIBCVersion},
			ProofHeight:          mockHeight(revision, action.Height),
		}, OutcomeConnectionOpenTryOK, nil

	case ActionConnectionOpenAck:
		connectionID, err := requireID(action.ConnectionID, "connectionId", action)
		if err != nil {
			return nil, "", err
		}
		counterpartyConnectionID, err := requireID(action.CounterpartyConnectionID, "counterpartyConnectionId", action)
		if err != nil {
			return nil, "", err
		}
		return connection.MsgConnectionOpenAck{
			ConnectionID:             connectiontypes.FormatConnectionIdentifier(connectionID),
			CounterpartyConnectionID: connectiontypes.FormatConnectionIdentifier(counterpartyConnectionID),
			Version:                  connectiontypes.DefaultIBCVersion,
			ProofHeight:              mockHeight(revision, action.Height),
		}, OutcomeConnectionOpenAckOK, nil

	case ActionConnectionOpenConfirm:
		connectionID, err := requireID(action.ConnectionID, "connectionId", action)
		if err != nil {
			return nil, "", err
		}
		return connection.MsgConnectionOpenConfirm{
			ConnectionID: connectiontypes.FormatConnectionIdentifier(connectionID),
			ProofHeight:  mockHeight(revision, action.Height),
		}, OutcomeConnectionOpenConfirmOK, nil

	default:
		return nil, "", fmt.Errorf("unknown action type %q", action.Type)
	}
}

func requireID(id *uint64, field string, action Action) (uint64, error) {
	if id == nil {
		return 0, fmt.Errorf("action %s requires %s", action.Type, field)
	}
	return *id, nil
}

func optionalConnectionID(id *uint64) string {
	if id == nil {
		return ""
	}
	return connectiontypes.FormatConnectionIdentifier(*id)
}

func mockClientID(id uint64) string {
	return clienttypes.FormatClientIdentifier(codec.Mock, id)
}

func mockHeight(revision, h uint64) clienttypes.Height {
	return clienttypes.NewHeight(revision, h)
}

func mockHeader(revision, height, timestamp uint64) *codec.MockHeader {
	return &codec.MockHeader{Height: mockHeight(revision, height), Timestamp: timestamp}
}
