package domain

import (
	"time"

	"github.com/petrijr/ripple/pkg/api"
)

// traceEngine decorates an engine with trace records: each node hook,
// admission start, input change and turn end appends a record to the
// sink, then delegates. OnTurnAdmissionEnd, OnTurnPropagate and TryMerge
// delegate without a record. Sink errors are dropped so tracing can
// never fail a turn.
type traceEngine struct {
	inner api.Engine
	sink  api.TraceSink
}

var _ api.Engine = (*traceEngine)(nil)

func newTraceEngine(inner api.Engine, sink api.TraceSink) api.Engine {
	return &traceEngine{inner: inner, sink: sink}
}

func (e *traceEngine) emit(ev api.TraceEvent) {
	ev.At = time.Now()
	_ = e.sink.Append(ev)
}

func (e *traceEngine) OnNodeCreate(n api.Node) {
	e.emit(api.TraceEvent{Type: api.TraceNodeCreate, Node: n.ObjectID(), Detail: n.NodeType().String()})
	e.inner.OnNodeCreate(n)
}

func (e *traceEngine) OnNodeDestroy(n api.Node) {
	e.emit(api.TraceEvent{Type: api.TraceNodeDestroy, Node: n.ObjectID(), Detail: n.NodeType().String()})
	e.inner.OnNodeDestroy(n)
}

func (e *traceEngine) OnNodeAttach(child, parent api.Node) {
	e.emit(api.TraceEvent{Type: api.TraceNodeAttach, Node: child.ObjectID(), Other: parent.ObjectID()})
	e.inner.OnNodeAttach(child, parent)
}

func (e *traceEngine) OnNodeDetach(child, parent api.Node) {
	e.emit(api.TraceEvent{Type: api.TraceNodeDetach, Node: child.ObjectID(), Other: parent.ObjectID()})
	e.inner.OnNodeDetach(child, parent)
}

func (e *traceEngine) OnNodePulse(n api.Node, turn *api.Turn) {
	e.emit(api.TraceEvent{Type: api.TraceNodePulse, Node: n.ObjectID(), Turn: turn.ID()})
	e.inner.OnNodePulse(n, turn)
}

func (e *traceEngine) OnNodeIdlePulse(n api.Node, turn *api.Turn) {
	e.emit(api.TraceEvent{Type: api.TraceNodeIdlePulse, Node: n.ObjectID(), Turn: turn.ID()})
	e.inner.OnNodeIdlePulse(n, turn)
}

func (e *traceEngine) OnNodeShift(n api.Node, oldParent, newParent api.Node, turn *api.Turn) {
	e.emit(api.TraceEvent{Type: api.TraceNodeShift, Node: n.ObjectID(), Other: newParent.ObjectID(), Turn: turn.ID()})
	e.inner.OnNodeShift(n, oldParent, newParent, turn)
}

func (e *traceEngine) OnTurnAdmissionStart(turn *api.Turn) {
	e.emit(api.TraceEvent{Type: api.TraceTurnBegin, Turn: turn.ID()})
	e.inner.OnTurnAdmissionStart(turn)
}

func (e *traceEngine) OnTurnAdmissionEnd(turn *api.Turn) {
	e.inner.OnTurnAdmissionEnd(turn)
}

func (e *traceEngine) OnTurnInputChange(n api.Node, turn *api.Turn) {
	e.emit(api.TraceEvent{Type: api.TraceTurnInput, Node: n.ObjectID(), Turn: turn.ID()})
	e.inner.OnTurnInputChange(n, turn)
}

func (e *traceEngine) OnTurnPropagate(turn *api.Turn) error {
	return e.inner.OnTurnPropagate(turn)
}

func (e *traceEngine) OnTurnEnd(turn *api.Turn) {
	e.emit(api.TraceEvent{Type: api.TraceTurnEnd, Turn: turn.ID()})
	e.inner.OnTurnEnd(turn)
}

func (e *traceEngine) TryMerge(fn api.AdmissionFunc, flags api.TurnFlags) bool {
	return e.inner.TryMerge(fn, flags)
}
