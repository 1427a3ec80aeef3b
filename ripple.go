package ripple

import (
	"context"
	"database/sql"

	"github.com/petrijr/ripple/internal/domain"
	"github.com/petrijr/ripple/internal/engine"
	"github.com/petrijr/ripple/internal/trace"
	"github.com/petrijr/ripple/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Domain         = domain.Domain
	Engine         = api.Engine
	Node           = api.Node
	InputNode      = api.InputNode
	NodeID         = api.NodeID
	NodeType       = api.NodeType
	TickResult     = api.TickResult
	Turn           = api.Turn
	TurnID         = api.TurnID
	TurnFlags      = api.TurnFlags
	AdmissionFunc  = api.AdmissionFunc
	Continuation   = api.Continuation
	InputClosure   = api.InputClosure
	TraceEvent     = api.TraceEvent
	TraceEventType = api.TraceEventType
	TraceSink      = api.TraceSink
	NoopTraceSink  = api.NoopTraceSink
	SlogTraceSink  = api.SlogTraceSink
)

// Re-export turn flag helpers: default flags ride on the context.

var (
	WithTurnFlags    = api.WithTurnFlags
	WithoutTurnFlags = api.WithoutTurnFlags
	ResetTurnFlags   = api.ResetTurnFlags
	TurnFlagsFrom    = api.TurnFlagsFrom

	NewSlogTraceSink      = api.NewSlogTraceSink
	NewCompositeTraceSink = api.NewCompositeTraceSink
)

const (
	EnableInputMerging = api.EnableInputMerging
)

// Re-export trace record types for sink consumers.

const (
	TraceNodeCreate    = api.TraceNodeCreate
	TraceNodeDestroy   = api.TraceNodeDestroy
	TraceNodeAttach    = api.TraceNodeAttach
	TraceNodeDetach    = api.TraceNodeDetach
	TraceNodePulse     = api.TraceNodePulse
	TraceNodeIdlePulse = api.TraceNodeIdlePulse
	TraceNodeShift     = api.TraceNodeShift
	TraceTurnInput     = api.TraceTurnInput
	TraceTurnBegin     = api.TraceTurnBegin
	TraceTurnEnd       = api.TraceTurnEnd
)

// Sentinel errors of the domain layer.

var (
	ErrNestedTransaction = domain.ErrNestedTransaction
	ErrUnknownDomain     = domain.ErrUnknownDomain
	ErrDuplicateDomain   = domain.ErrDuplicateDomain
	ErrNotInputNode      = domain.ErrNotInputNode
)

// DomainConfig carries the optional collaborators of a domain. Zero
// values select working defaults: a sequential engine and no tracing.
type DomainConfig struct {
	// Engine orders and propagates turns. Nil selects the sequential
	// topological-order engine.
	Engine Engine

	// Trace receives the domain's trace records. Nil disables tracing.
	Trace TraceSink
}

// NewDomain creates and registers a domain with default configuration.
// The name must be unused within the process.
func NewDomain(name string) (*Domain, error) {
	return NewDomainWithConfig(name, DomainConfig{})
}

// NewDomainWithConfig creates and registers a domain with the given
// configuration.
func NewDomainWithConfig(name string, cfg DomainConfig) (*Domain, error) {
	eng := cfg.Engine
	if eng == nil {
		eng = engine.NewTopoSortEngine()
	}
	d := domain.New(name, eng, domain.Config{Trace: cfg.Trace})
	if err := domain.RegisterDomain(d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDomain returns the domain registered under name.
func GetDomain(name string) (*Domain, error) {
	return domain.LookupDomain(name)
}

// RemoveDomain unregisters the domain registered under name. Existing
// references stay usable; the name becomes available again.
func RemoveDomain(name string) {
	domain.UnregisterDomain(name)
}

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewTopoSortEngine returns the sequential engine: nodes tick one at a
// time in topological order.
func NewTopoSortEngine() Engine {
	return engine.NewTopoSortEngine()
}

// NewParallelEngine returns the level-parallel engine: nodes sharing a
// topological level tick concurrently, up to workers at a time.
// workers <= 0 selects GOMAXPROCS.
func NewParallelEngine(workers int) Engine {
	return engine.NewParallelEngine(workers)
}

// Trace sink constructors.

// MemoryTraceSink buffers trace records in memory and allows reading
// them back.
type MemoryTraceSink interface {
	TraceSink
	Events() []TraceEvent
	EventsOfType(t TraceEventType) []TraceEvent
	Reset()
}

// NewMemoryTraceSink returns an in-memory sink, useful for tests and
// for inspecting a domain's recent activity.
func NewMemoryTraceSink() MemoryTraceSink {
	return trace.NewMemorySink()
}

// DurableTraceSink is a TraceSink whose records can be read back from
// durable storage.
type DurableTraceSink interface {
	TraceSink
	List(ctx context.Context) ([]TraceEvent, error)
}

// NewSQLiteTraceSink returns a sink persisting the named domain's trace
// in a SQLite database, creating the schema when missing.
func NewSQLiteTraceSink(domainName string, db *sql.DB) (DurableTraceSink, error) {
	return trace.NewSQLiteSink(domainName, db)
}

// Convenience helpers that just forward to the domain.

// DoTransaction runs fn as one transaction on d.
func DoTransaction(ctx context.Context, d *Domain, fn AdmissionFunc) error {
	return d.DoTransaction(ctx, fn)
}

// AddInput stages value as input for node n on d.
func AddInput(ctx context.Context, d *Domain, n Node, value any) error {
	return d.AddInput(ctx, n, value)
}
