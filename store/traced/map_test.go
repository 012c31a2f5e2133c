package traced_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/blong14/ledger/store"
	glvl "github.com/blong14/ledger/store/levelmap"
	gmem "github.com/blong14/ledger/store/memory"
	"github.com/blong14/ledger/store/storetest"
	"github.com/blong14/ledger/store/traced"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMap(t *testing.T) {
	t.Setenv("TRACE", "true")
	_, tp := newRecorder()
	storetest.Run(t, storetest.Suite{
		New: func(_ *testing.T) store.Store[string, int] {
			return traced.New[string, int](gmem.New[string, int](), traced.WithTracerProvider[string, int](tp))
		},
		FromSeq: func(_ *testing.T, seq iter.Seq2[string, int]) store.Store[string, int] {
			return traced.New[string, int](gmem.FromSeq(seq), traced.WithTracerProvider[string, int](tp))
		},
	})
}

func TestMap_RecordsSpans(t *testing.T) {
	t.Setenv("TRACE", "true")
	// given
	sr, tp := newRecorder()
	m := traced.New[string, int](gmem.New[string, int](), traced.WithTracerProvider[string, int](tp))

	// when
	_ = m.Insert("a", 1)
	_, _, _ = m.Get("a")
	_, _ = m.ContainsKey("b")
	for range m.Iter() {
	}
	_ = m.Remove("a")

	// then
	spans := sr.Ended()
	names := []string{"store.insert", "store.get", "store.contains", "store.iter", "store.remove"}
	if len(spans) != len(names) {
		t.Fatalf("\nwant %d spans\n got  %d", len(names), len(spans))
	}
	for i, span := range spans {
		if span.Name() != names[i] {
			t.Errorf("\nwant %s\n got  %s", names[i], span.Name())
		}
		if id, ok := attr(span, "map.id"); !ok || id.AsString() != m.ID() {
			t.Errorf("%s: missing map.id", span.Name())
		}
	}
	if found, _ := attr(spans[1], "map.found"); !found.AsBool() {
		t.Error("get should report found")
	}
	if found, _ := attr(spans[2], "map.found"); found.AsBool() {
		t.Error("contains should report not found")
	}
	if entries, _ := attr(spans[3], "map.entries"); entries.AsInt64() != 1 {
		t.Errorf("\nwant %d\n got  %d", 1, entries.AsInt64())
	}
}

func TestMap_RecordsErrors(t *testing.T) {
	t.Setenv("TRACE", "true")
	sr, tp := newRecorder()
	impl, err := glvl.New[string, int]()
	if err != nil {
		t.Fatal(err)
	}
	_ = impl.Close()
	m := traced.New[string, int](impl, traced.WithTracerProvider[string, int](tp))

	if err := m.Insert("a", 1); !errors.Is(err, store.ErrClosed) {
		t.Errorf("want ErrClosed, got %v", err)
	}
	for range m.Iter() {
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("\nwant %d spans\n got  %d", 2, len(spans))
	}
	for _, span := range spans {
		if span.Status().Code != codes.Error {
			t.Errorf("%s: want error status, got %v", span.Name(), span.Status().Code)
		}
	}
}

func TestMap_Disabled(t *testing.T) {
	t.Setenv("TRACE", "false")
	sr, tp := newRecorder()
	m := traced.New[string, int](
		gmem.New[string, int](),
		traced.WithTracerProvider[string, int](tp),
		traced.WithContext[string, int](context.Background()),
	)
	_ = m.Insert("a", 1)
	storetest.MustGet(t, m, "a", 1)
	if spans := sr.Ended(); len(spans) != 0 {
		t.Errorf("expected no spans, got %d", len(spans))
	}
}

func TestMap_ParentSpan(t *testing.T) {
	t.Setenv("TRACE", "true")
	sr, tp := newRecorder()
	ctx, parent := tp.Tracer("test").Start(context.Background(), "ledger.apply")
	m := traced.New[string, int](
		gmem.New[string, int](),
		traced.WithTracerProvider[string, int](tp),
		traced.WithContext[string, int](ctx),
	)
	_ = m.Insert("a", 1)
	parent.End()

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("\nwant %d spans\n got  %d", 2, len(spans))
	}
	if spans[0].Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("insert span should be a child of the context span")
	}
}
