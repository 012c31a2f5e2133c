// Package traced decorates a backing store with OpenTelemetry spans. Spans
// are only recorded when TRACE=true; otherwise every call goes straight to
// the wrapped store.
package traced

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	genv "github.com/blong14/ledger/internal/environment"
	"github.com/blong14/ledger/store"
)

const instrumentation = "github.com/blong14/ledger/store/traced"

var noop = trace.NewNoopTracerProvider().Tracer(instrumentation)

type Option[K comparable, V any] func(m *Map[K, V])

func WithTracerProvider[K comparable, V any](tp trace.TracerProvider) Option[K, V] {
	return func(m *Map[K, V]) {
		m.tracer = tp.Tracer(instrumentation)
	}
}

// WithContext sets the parent context of every span.
func WithContext[K comparable, V any](ctx context.Context) Option[K, V] {
	return func(m *Map[K, V]) {
		m.ctx = ctx
	}
}

// Map implements store.Store by delegating to impl.
type Map[K comparable, V any] struct {
	impl   store.Store[K, V]
	id     string
	ctx    context.Context
	tracer trace.Tracer
}

var _ store.Store[string, []byte] = &Map[string, []byte]{}

func New[K comparable, V any](impl store.Store[K, V], options ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		impl:   impl,
		id:     uuid.Must(uuid.NewV7()).String(),
		ctx:    context.Background(),
		tracer: otel.Tracer(instrumentation),
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// ID identifies this decorator in span attributes.
func (m *Map[K, V]) ID() string { return m.id }

// Unwrap returns the decorated store.
func (m *Map[K, V]) Unwrap() store.Store[K, V] { return m.impl }

func (m *Map[K, V]) start(name string) trace.Span {
	tracer := noop
	if genv.TraceEnabled() {
		tracer = m.tracer
	}
	_, span := tracer.Start(m.ctx, name, trace.WithAttributes(attribute.String("map.id", m.id)))
	return span
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *Map[K, V]) Insert(k K, v V) error {
	span := m.start("store.insert")
	err := m.impl.Insert(k, v)
	end(span, err)
	return err
}

func (m *Map[K, V]) Remove(k K) error {
	span := m.start("store.remove")
	err := m.impl.Remove(k)
	end(span, err)
	return err
}

func (m *Map[K, V]) ContainsKey(k K) (bool, error) {
	span := m.start("store.contains")
	ok, err := m.impl.ContainsKey(k)
	span.SetAttributes(attribute.Bool("map.found", ok))
	end(span, err)
	return ok, err
}

func (m *Map[K, V]) Get(k K) (store.View[V], bool, error) {
	span := m.start("store.get")
	view, ok, err := m.impl.Get(k)
	span.SetAttributes(
		attribute.Bool("map.found", ok),
		attribute.Bool("map.borrowed", view.IsBorrowed()),
	)
	end(span, err)
	return view, ok, err
}

// Iter records one span per ranging, ended when the range finishes.
func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	seq := m.impl.Iter()
	return func(yield func(K, V) bool) {
		span := m.start("store.iter")
		count := 0
		defer func() {
			span.SetAttributes(attribute.Int("map.entries", count))
			end(span, m.Err())
		}()
		for k, v := range seq {
			count++
			if !yield(k, v) {
				return
			}
		}
	}
}

func (m *Map[K, V]) Keys() iter.Seq[K] {
	return store.KeysOf(m.Iter())
}

func (m *Map[K, V]) Values() iter.Seq[V] {
	return store.ValuesOf(m.Iter())
}

// Err forwards the iteration error of the wrapped store, if it has one.
func (m *Map[K, V]) Err() error {
	if e, ok := m.impl.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}
