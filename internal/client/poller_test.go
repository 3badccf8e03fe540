package client

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/p2p-marketplace/internal/model"
)

// instantOpts removes the real delay so sessions run in microseconds while
// still counting every sleep the poller would have taken.
func instantOpts(maxAttempts int, slept *int) Options {
    return Options{
        Interval:    3 * time.Second,
        MaxAttempts: maxAttempts,
        Sleep: func(ctx context.Context, d time.Duration) error {
            if slept != nil {
                *slept++
            }
            return ctx.Err()
        },
    }
}

func TestWaitForCompletionReturnsOnCompleted(t *testing.T) {
    calls := 0
    fetch := func(ctx context.Context, orderID string) (model.OrderStatus, error) {
        calls++
        if calls < 3 {
            return model.OrderPending, nil
        }
        return model.OrderCompleted, nil
    }

    status, err := WaitForCompletion(context.Background(), "order-1", fetch, instantOpts(30, nil))

    require.NoError(t, err)
    assert.Equal(t, model.OrderCompleted, status)
    assert.Equal(t, 3, calls)
}

func TestWaitForCompletionTimesOutWhilePending(t *testing.T) {
    calls, slept := 0, 0
    fetch := func(ctx context.Context, orderID string) (model.OrderStatus, error) {
        calls++
        return model.OrderPending, nil
    }

    status, err := WaitForCompletion(context.Background(), "order-1", fetch, instantOpts(30, &slept))

    assert.ErrorIs(t, err, ErrPollTimeout)
    assert.Equal(t, model.OrderPending, status)
    assert.Equal(t, 30, calls, "every attempt in the budget is used")
    assert.Equal(t, 29, slept, "no sleep after the final attempt")
}

func TestWaitForCompletionCancelledOrderIsTerminal(t *testing.T) {
    fetch := func(ctx context.Context, orderID string) (model.OrderStatus, error) {
        return model.OrderCancelled, nil
    }

    status, err := WaitForCompletion(context.Background(), "order-1", fetch, instantOpts(30, nil))

    require.Error(t, err)
    assert.NotErrorIs(t, err, ErrPollTimeout)
    assert.Equal(t, model.OrderCancelled, status)
}

func TestWaitForCompletionSurvivesTransientErrors(t *testing.T) {
    calls := 0
    fetch := func(ctx context.Context, orderID string) (model.OrderStatus, error) {
        calls++
        if calls == 1 {
            return "", errors.New("connection refused")
        }
        return model.OrderCompleted, nil
    }

    status, err := WaitForCompletion(context.Background(), "order-1", fetch, instantOpts(30, nil))

    require.NoError(t, err)
    assert.Equal(t, model.OrderCompleted, status)
    assert.Equal(t, 2, calls)
}

func TestWaitForCompletionHonorsContext(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    fetch := func(ctx context.Context, orderID string) (model.OrderStatus, error) {
        cancel()
        return model.OrderPending, nil
    }

    _, err := WaitForCompletion(ctx, "order-1", fetch, instantOpts(30, nil))

    assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForCompletionRejectsBadOptions(t *testing.T) {
    fetch := func(ctx context.Context, orderID string) (model.OrderStatus, error) {
        return model.OrderCompleted, nil
    }

    _, err := WaitForCompletion(context.Background(), "order-1", fetch, Options{})
    assert.Error(t, err)
}
