package limiter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	glimiter "github.com/blong14/ledger/internal/limiter"
)

func TestPer(t *testing.T) {
	t.Parallel()
	if actual := glimiter.Per(10, time.Second); actual != rate.Limit(10) {
		t.Errorf("\nwant %v\n got  %v", rate.Limit(10), actual)
	}
}

func TestMultiLimiter(t *testing.T) {
	t.Parallel()
	// given
	fast := glimiter.New(1000, time.Second)
	slow := glimiter.New(10, time.Second)

	// when
	l := glimiter.MultiLimiter(fast, slow)

	// then
	if l.Limit() != rate.Limit(10) {
		t.Errorf("\nwant %v\n got  %v", rate.Limit(10), l.Limit())
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestMultiLimiter_Canceled(t *testing.T) {
	t.Parallel()
	l := glimiter.MultiLimiter(glimiter.New(1, time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	// first token comes from the burst
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestUnlimited(t *testing.T) {
	t.Parallel()
	l := glimiter.New(0, time.Second)
	if l.Limit() != rate.Inf {
		t.Errorf("\nwant %v\n got  %v", rate.Inf, l.Limit())
	}
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
}
