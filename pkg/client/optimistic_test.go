package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorahq/tutora/pkg/ordering"
)

func testItems() []ordering.Position {
	return []ordering.Position{
		{ID: 10, Order: 1},
		{ID: 20, Order: 2},
		{ID: 30, Order: 3},
		{ID: 40, Order: 4},
	}
}

func ids(items []ordering.Position) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestOptimisticMove_FirstToLast(t *testing.T) {
	ctx := context.Background()

	var persisted []ordering.Position
	list := NewOptimisticList(testItems(), func(_ context.Context, items []ordering.Position) error {
		persisted = items
		return nil
	}, nil)

	require.NoError(t, list.Move(ctx, 0, 3))

	assert.Equal(t, []int{20, 30, 40, 10}, ids(list.Items()))
	require.Len(t, persisted, 4)
	for i, item := range persisted {
		assert.Equal(t, i+1, item.Order)
	}
}

func TestOptimisticMove_LastToFirst(t *testing.T) {
	ctx := context.Background()

	list := NewOptimisticList(testItems(), func(_ context.Context, _ []ordering.Position) error {
		return nil
	}, nil)

	require.NoError(t, list.Move(ctx, 3, 0))
	assert.Equal(t, []int{40, 10, 20, 30}, ids(list.Items()))
}

func TestOptimisticMove_SameIndexIsNoop(t *testing.T) {
	ctx := context.Background()

	calls := 0
	list := NewOptimisticList(testItems(), func(_ context.Context, _ []ordering.Position) error {
		calls++
		return nil
	}, nil)

	require.NoError(t, list.Move(ctx, 2, 2))

	assert.Equal(t, 0, calls)
	assert.Equal(t, []int{10, 20, 30, 40}, ids(list.Items()))
}

func TestOptimisticMove_CanceledDrag(t *testing.T) {
	ctx := context.Background()

	calls := 0
	notifications := 0
	list := NewOptimisticList(testItems(), func(_ context.Context, _ []ordering.Position) error {
		calls++
		return nil
	}, func(_ error) {
		notifications++
	})

	require.NoError(t, list.Move(ctx, 1, DropCanceled))

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, notifications)
	assert.Equal(t, []int{10, 20, 30, 40}, ids(list.Items()))
}

func TestOptimisticMove_OutOfBounds(t *testing.T) {
	ctx := context.Background()

	calls := 0
	list := NewOptimisticList(testItems(), func(_ context.Context, _ []ordering.Position) error {
		calls++
		return nil
	}, nil)

	err := list.Move(ctx, 0, 9)
	require.Error(t, err)

	assert.Equal(t, 0, calls)
	assert.Equal(t, []int{10, 20, 30, 40}, ids(list.Items()))
}

func TestOptimisticMove_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()

	persistErr := errors.New("gateway timeout")
	notified := []error{}
	list := NewOptimisticList(testItems(), func(_ context.Context, _ []ordering.Position) error {
		return persistErr
	}, func(err error) {
		notified = append(notified, err)
	})

	before := list.Items()
	err := list.Move(ctx, 0, 2)
	require.Error(t, err)
	assert.Equal(t, persistErr, err)

	assert.Equal(t, before, list.Items())
	require.Len(t, notified, 1)
	assert.Equal(t, persistErr, notified[0])
}

func TestOptimisticMove_SuccessNotifiesOnce(t *testing.T) {
	ctx := context.Background()

	notified := []error{}
	list := NewOptimisticList(testItems(), func(_ context.Context, _ []ordering.Position) error {
		return nil
	}, func(err error) {
		notified = append(notified, err)
	})

	require.NoError(t, list.Move(ctx, 1, 3))

	require.Len(t, notified, 1)
	assert.NoError(t, notified[0])
}

func TestOptimisticMove_RecoversAfterFailure(t *testing.T) {
	ctx := context.Background()

	fail := true
	list := NewOptimisticList(testItems(), func(_ context.Context, _ []ordering.Position) error {
		if fail {
			return errors.New("gateway timeout")
		}
		return nil
	}, nil)

	require.Error(t, list.Move(ctx, 0, 3))
	assert.Equal(t, []int{10, 20, 30, 40}, ids(list.Items()))

	fail = false
	require.NoError(t, list.Move(ctx, 0, 3))
	assert.Equal(t, []int{20, 30, 40, 10}, ids(list.Items()))
}

func TestOptimisticList_PersistsThroughClient(t *testing.T) {
	ctx := context.Background()

	var gotBody reorderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	list := NewOptimisticList(testItems(), func(ctx context.Context, items []ordering.Position) error {
		return c.ReorderChapters(ctx, 7, items)
	}, nil)

	require.NoError(t, list.Move(ctx, 2, 0))

	assert.Equal(t, []int{30, 10, 20, 40}, ids(list.Items()))
	require.Len(t, gotBody.Items, 4)
	assert.Equal(t, 30, gotBody.Items[0].ID)
	assert.Equal(t, 1, gotBody.Items[0].Order)
}
