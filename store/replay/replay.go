// Package replay moves entries between backing stores and checks that two
// stores agree.
package replay

import (
	"context"
	"errors"
	"fmt"
	"iter"

	gerrors "github.com/blong14/ledger/internal/errors"
	glimiter "github.com/blong14/ledger/internal/limiter"
	glog "github.com/blong14/ledger/internal/logging"
	"github.com/blong14/ledger/store"
)

var (
	ErrMissing    = errors.New("missing key")
	ErrUnexpected = errors.New("unexpected key")
	ErrMismatch   = errors.New("value mismatch")
)

type errer interface {
	Err() error
}

// Replay inserts every entry of src into dst, waiting on lim before each
// insert. It stops at the first failure and returns how many entries were
// inserted.
func Replay[K comparable, V any](
	ctx context.Context,
	dst store.Map[K, V],
	src iter.Seq2[K, V],
	lim glimiter.RateLimiter,
) (int, error) {
	if lim == nil {
		lim = glimiter.Unlimited()
	}
	count := 0
	for k, v := range src {
		if err := lim.Wait(ctx); err != nil {
			return count, fmt.Errorf("replay: %w", err)
		}
		if err := dst.Insert(k, v); err != nil {
			return count, fmt.Errorf("replay: insert %v: %w", k, err)
		}
		count++
	}
	glog.Track("replayed %d entries into %T", count, dst)
	return count, nil
}

// Verify compares got against want and reports every missing, unexpected
// or mismatched key. It returns nil when both hold the same entries.
func Verify[K comparable, V any](want, got store.MapReader[K, V], eq func(a, b V) bool) error {
	var errs *gerrors.Error
	for k, expected := range want.Iter() {
		view, ok, err := got.Get(k)
		switch {
		case err != nil:
			errs = gerrors.Append(errs, fmt.Errorf("get %v: %w", k, err))
		case !ok:
			errs = gerrors.Append(errs, fmt.Errorf("%w: %v", ErrMissing, k))
		case !eq(expected, view.Value()):
			errs = gerrors.Append(errs, fmt.Errorf("%w: %v: want %v got %v", ErrMismatch, k, expected, view.Value()))
		}
	}
	errs = gerrors.Append(errs, iterErr(want))
	for k := range got.Keys() {
		ok, err := want.ContainsKey(k)
		switch {
		case err != nil:
			errs = gerrors.Append(errs, fmt.Errorf("contains %v: %w", k, err))
		case !ok:
			errs = gerrors.Append(errs, fmt.Errorf("%w: %v", ErrUnexpected, k))
		}
	}
	errs = gerrors.Append(errs, iterErr(got))
	if errs.Len() > 0 {
		errs = errs.WithMessage("verify")
	}
	return errs.ErrorOrNil()
}

// Equal is the eq argument of Verify for comparable values.
func Equal[V comparable](a, b V) bool {
	return a == b
}

func iterErr(r any) error {
	if e, ok := r.(errer); ok {
		return e.Err()
	}
	return nil
}
