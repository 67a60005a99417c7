package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"posflow/internal/flow"
	"posflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func pending() *model.Order {
	return &model.Order{
		ID:     "o-1",
		Status: model.StatusPending,
		Type:   model.OrderTypeTakeOut,
		Items:  []model.Item{{ID: "line-1", ProductID: "p1", UnitPrice: 10000, Quantity: 1}},
	}
}

func editingMachine(t *testing.T) *flow.Machine {
	t.Helper()
	m := flow.New(flow.WithLogger(zap.NewNop()))
	require.NoError(t, m.InitializeUpdating(pending()))
	return m
}

func TestPoll_SameStatusKeepsEdits(t *testing.T) {
	m := editingMachine(t)
	m.UpdateDraftItemQuantity("line-1", 4)

	fetcher := new(MockFetcher)
	fetcher.On("GetOrder", mock.Anything, "o-1").Return(pending(), nil)
	p := New(fetcher, m, time.Second, zap.NewNop())

	stop := p.poll(context.Background(), "o-1")

	assert.False(t, stop)
	assert.Equal(t, 4, m.State().Updating().Draft.Items[0].Quantity)
	assert.True(t, m.State().Updating().HasChanges)
	fetcher.AssertExpectations(t)
}

func TestPoll_StatusChangeReinitializes(t *testing.T) {
	m := editingMachine(t)
	m.UpdateDraftItemQuantity("line-1", 4)

	confirmed := pending()
	confirmed.Status = model.StatusConfirmed
	fetcher := new(MockFetcher)
	fetcher.On("GetOrder", mock.Anything, "o-1").Return(confirmed, nil)
	p := New(fetcher, m, time.Second, zap.NewNop())

	stop := p.poll(context.Background(), "o-1")

	assert.True(t, stop)
	d := m.State().Updating()
	assert.Equal(t, model.StatusConfirmed, d.OriginalOrder.Status)
	assert.Equal(t, 1, d.Draft.Items[0].Quantity)
	assert.False(t, d.HasChanges)
}

func TestPoll_FetchErrorContinues(t *testing.T) {
	m := editingMachine(t)
	fetcher := new(MockFetcher)
	fetcher.On("GetOrder", mock.Anything, "o-1").Return(nil, errors.New("timeout"))
	p := New(fetcher, m, time.Second, zap.NewNop())

	assert.False(t, p.poll(context.Background(), "o-1"))
}

func TestPoll_StopsWhenNotEditing(t *testing.T) {
	t.Run("PhaseExited", func(t *testing.T) {
		m := editingMachine(t)
		m.DiscardUpdating()
		fetcher := new(MockFetcher)
		p := New(fetcher, m, time.Second, zap.NewNop())

		assert.True(t, p.poll(context.Background(), "o-1"))
		fetcher.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
	})

	t.Run("OtherOrder", func(t *testing.T) {
		m := editingMachine(t)
		fetcher := new(MockFetcher)
		p := New(fetcher, m, time.Second, zap.NewNop())

		assert.True(t, p.poll(context.Background(), "o-2"))
		fetcher.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
	})
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return pending(), nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestWatch_PollsUntilStopped(t *testing.T) {
	m := editingMachine(t)
	fetcher := &countingFetcher{}
	p := New(fetcher, m, 5*time.Millisecond, zap.NewNop())

	p.Watch(context.Background(), "o-1")
	assert.Eventually(t, func() bool { return fetcher.count() >= 2 }, time.Second, 5*time.Millisecond)

	p.Stop()
	calls := fetcher.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, fetcher.count())
}

func TestRun_ExitsWhenEditingEnds(t *testing.T) {
	m := editingMachine(t)
	fetcher := &countingFetcher{}
	p := New(fetcher, m, 5*time.Millisecond, zap.NewNop())

	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), "o-1")
		close(done)
	}()

	m.HandleExpire("o-1")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller kept running after editing ended")
	}
}
