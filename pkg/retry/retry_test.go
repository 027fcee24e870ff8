package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Astemirdum/library-catalog/pkg/retry"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestDo(t *testing.T) {
	t.Parallel()
	retryConflict := retry.WithRetryIf(func(err error) bool { return errors.Is(err, errConflict) })

	tests := []struct {
		name      string
		failures  int
		failWith  error
		opts      []retry.Option
		wantCalls int
		wantErr   error
	}{
		{name: "first attempt succeeds", wantCalls: 1},
		{name: "retries conflicts", failures: 2, failWith: errConflict, opts: []retry.Option{retryConflict}, wantCalls: 3},
		{name: "gives up after max attempts", failures: 10, failWith: errConflict, opts: []retry.Option{retryConflict, retry.WithMaxAttempts(3)}, wantCalls: 3, wantErr: errConflict},
		{name: "permanent error fails fast", failures: 10, failWith: errors.New("boom"), opts: []retry.Option{retryConflict}, wantCalls: 1},
		{name: "nothing retried by default", failures: 10, failWith: errConflict, wantCalls: 1, wantErr: errConflict},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			opts := append([]retry.Option{retry.WithBaseDelay(time.Millisecond)}, tt.opts...)
			err := retry.Do(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			}, opts...)

			require.Equal(t, tt.wantCalls, calls)
			if tt.failures == 0 || tt.failures < tt.wantCalls {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDo_InvalidOptions(t *testing.T) {
	t.Parallel()
	noop := func(context.Context) error { return nil }
	require.ErrorIs(t, retry.Do(context.Background(), noop, retry.WithMaxAttempts(0)), retry.ErrInvalidMaxAttempts)
	require.ErrorIs(t, retry.Do(context.Background(), noop, retry.WithBaseDelay(-1)), retry.ErrNegativeBaseDelay)
	require.ErrorIs(t, retry.Do(context.Background(), noop, retry.WithJitterFactor(2)), retry.ErrInvalidJitterFactor)
}

func TestDo_ContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry.Do(ctx, func(context.Context) error { return errConflict },
		retry.WithRetryIf(func(error) bool { return true }),
		retry.WithBaseDelay(time.Second))
	require.ErrorIs(t, err, context.Canceled)
}
