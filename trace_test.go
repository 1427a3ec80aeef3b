package ripple_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	ripple "github.com/petrijr/ripple"
)

func TestMemoryTraceCapturesLifecycle(t *testing.T) {
	sink := ripple.NewMemoryTraceSink()
	d, err := ripple.NewDomainWithConfig("trace-mem", ripple.DomainConfig{Trace: sink})
	require.NoError(t, err)
	t.Cleanup(func() { ripple.RemoveDomain("trace-mem") })

	v := ripple.MakeVar(d, 1)
	s := ripple.MakeSignal(d, func(x int) int { return x + 1 }, v)
	_ = s

	creates := sink.EventsOfType(ripple.TraceNodeCreate)
	require.Len(t, creates, 2)
	assert.Equal(t, "var", creates[0].Detail)
	assert.Equal(t, "signal", creates[1].Detail)
	require.Len(t, sink.EventsOfType(ripple.TraceNodeAttach), 1)

	sink.Reset()
	require.NoError(t, v.Set(context.Background(), 2))

	types := make([]ripple.TraceEventType, 0, 8)
	for _, ev := range sink.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []ripple.TraceEventType{
		ripple.TraceTurnBegin,
		ripple.TraceTurnInput,
		ripple.TraceNodePulse,
		ripple.TraceNodePulse,
		ripple.TraceTurnEnd,
	}, types)
}

func TestCompositeTraceFansOut(t *testing.T) {
	mem := ripple.NewMemoryTraceSink()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := ripple.NewCompositeTraceSink(mem, ripple.NewSlogTraceSink(logger))

	d, err := ripple.NewDomainWithConfig("trace-multi", ripple.DomainConfig{Trace: sink})
	require.NoError(t, err)
	t.Cleanup(func() { ripple.RemoveDomain("trace-multi") })

	v := ripple.MakeVar(d, 0)
	require.NoError(t, v.Set(context.Background(), 1))
	assert.NotEmpty(t, mem.Events())
}

func TestSQLiteTracePersists(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sink, err := ripple.NewSQLiteTraceSink("trace-sql", db)
	require.NoError(t, err)

	d, err := ripple.NewDomainWithConfig("trace-sql", ripple.DomainConfig{Trace: sink})
	require.NoError(t, err)
	t.Cleanup(func() { ripple.RemoveDomain("trace-sql") })

	v := ripple.MakeVar(d, 0)
	require.NoError(t, v.Set(context.Background(), 5))

	events, err := sink.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, ripple.TraceNodeCreate, events[0].Type)

	var begins int
	for _, ev := range events {
		if ev.Type == ripple.TraceTurnBegin {
			begins++
		}
	}
	assert.Equal(t, 1, begins)
}
