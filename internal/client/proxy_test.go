package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

type mockPoster struct {
	mock.Mock
}

func (m *mockPoster) Post(ctx context.Context, ch bridge.Channel, body []byte) error {
	args := m.Called(ctx, ch, body)
	return args.Error(0)
}

func TestProxyPostsBodyWithEventID(t *testing.T) {
	poster := &mockPoster{}
	var body []byte
	poster.On("Post", mock.Anything, bridge.ChannelDownloadFile, mock.Anything).
		Run(func(args mock.Arguments) { body = args.Get(2).([]byte) }).
		Return(nil)

	table := NewTable()
	proxy := NewProxy(table, poster)

	call, err := proxy.DownloadFile(context.Background(), "https://example.com/f.zip", "f.zip")
	require.NoError(t, err)
	poster.AssertExpectations(t)

	var fields map[string]interface{}
	require.NoError(t, bridge.Unmarshal(body, &fields))
	assert.Equal(t, map[string]interface{}{
		"url":      "https://example.com/f.zip",
		"filePath": "f.zip",
		"eventId":  call.EventID(),
	}, fields)
	assert.True(t, table.Has(call.EventID()))
}

func TestProxyDiscardsEntryWhenPostFails(t *testing.T) {
	poster := &mockPoster{}
	poster.On("Post", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("socket closed"))

	table := NewTable()
	proxy := NewProxy(table, poster)

	_, err := proxy.RmFile(context.Background(), "a.txt")
	assert.ErrorContains(t, err, "socket closed")
	assert.Zero(t, table.Len())
}

func TestCallStreamsProgressThenResult(t *testing.T) {
	table := NewTable()
	var id string
	proxy := NewProxy(table, PosterFunc(func(_ context.Context, _ bridge.Channel, body []byte) error {
		var fields map[string]interface{}
		if err := bridge.Unmarshal(body, &fields); err != nil {
			return err
		}
		id = fields["eventId"].(string)
		return nil
	}))

	call, err := proxy.Unzip(context.Background(), "a.zip", "out")
	require.NoError(t, err)
	require.Equal(t, call.EventID(), id)

	table.NotifyProgress(id, 0.5)
	table.NotifyProgress(id, 1)
	table.Resolve(id, true, bridge.Message("unzip success"))
	table.NotifyProgress(id, 0.7)

	var fractions []float64
	for f := range call.Progress() {
		fractions = append(fractions, f)
	}
	assert.Equal(t, []float64{0.5, 1}, fractions)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := call.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "unzip success", res.Message())
	assert.NoError(t, res.Err())
	assert.False(t, table.Has(id))
}

func TestCallWaitHonoursContext(t *testing.T) {
	proxy := NewProxy(NewTable(), PosterFunc(func(context.Context, bridge.Channel, []byte) error { return nil }))
	call, err := proxy.CloseSqlite(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = call.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultErr(t *testing.T) {
	assert.EqualError(t, Result{Data: bridge.Message("database already open")}.Err(), "database already open")
	assert.EqualError(t, Result{}.Err(), "request failed")
}

func TestLoopbackRoundTrip(t *testing.T) {
	table := NewTable()
	reg := bridge.NewRegistry(nil)
	require.NoError(t, reg.Register(bridge.NewPlugin(bridge.ChannelExecuteUpdate, func(_ context.Context, req bridge.Request, reply *bridge.Reply) {
		update := req.(*bridge.ExecuteUpdateRequest)
		reply.Progress(0.5)
		reply.Succeed(bridge.Data{"message": "update success", "sql": update.SQL})
	})))
	proxy := NewProxy(table, NewLoopback(bridge.NewDispatcher(reg, table), nil))

	var progress []float64
	var got bridge.Data
	settled := false
	id, err := proxy.Invoke(context.Background(), &bridge.ExecuteUpdateRequest{SQL: "DELETE FROM t"}, Callbacks{
		OnSuccess:  func(d bridge.Data) { got = d },
		OnProgress: func(f float64) { progress = append(progress, f) },
		OnSettled:  func() { settled = true },
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5}, progress)
	assert.Equal(t, "DELETE FROM t", got["sql"])
	assert.True(t, settled)
	assert.False(t, table.Has(id))
}

func TestLoopbackReportsDrops(t *testing.T) {
	table := NewTable()
	proxy := NewProxy(table, NewLoopback(bridge.NewDispatcher(bridge.NewRegistry(nil), table), nil))

	_, err := proxy.ScanCode(context.Background(), true)
	assert.ErrorIs(t, err, bridge.ErrNoHandler)
	assert.Zero(t, table.Len())
}
