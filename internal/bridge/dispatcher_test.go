package bridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/bridge/bridgetest"
)

type dropRecord struct {
	channel string
	reason  string
}

type recordingObserver struct {
	drops      []dropRecord
	dispatched []bridge.Channel
	settled    []bool
	progress   int
}

func (o *recordingObserver) MessageDropped(channel, reason string) {
	o.drops = append(o.drops, dropRecord{channel, reason})
}

func (o *recordingObserver) RequestDispatched(ch bridge.Channel) {
	o.dispatched = append(o.dispatched, ch)
}

func (o *recordingObserver) RequestSettled(_ bridge.Channel, success bool, _ time.Duration) {
	o.settled = append(o.settled, success)
}

func (o *recordingObserver) ProgressEmitted(bridge.Channel) {
	o.progress++
}

func newDispatcher(t *testing.T, plugins ...bridge.Plugin) (*bridge.Dispatcher, *bridgetest.Recorder, *recordingObserver) {
	t.Helper()
	reg := bridge.NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(plugins...))
	rec := bridgetest.NewRecorder()
	obs := &recordingObserver{}
	return bridge.NewDispatcher(reg, rec, bridge.WithObserver(obs)), rec, obs
}

func TestDispatchRoutesToPlugin(t *testing.T) {
	var got *bridge.ExecuteQueryRequest
	plugin := bridge.NewPlugin(bridge.ChannelExecuteQuery, func(_ context.Context, req bridge.Request, reply *bridge.Reply) {
		got = req.(*bridge.ExecuteQueryRequest)
		reply.Succeed(bridge.Data{"message": "query success", "results": []interface{}{}})
	})
	d, rec, obs := newDispatcher(t, plugin)

	err := d.Dispatch(context.Background(), bridge.Inbound{
		Channel: "executeQuery",
		Body:    []byte(`{"sql":"SELECT 1","eventId":"_e1"}`),
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "SELECT 1", got.SQL)

	done, ok := rec.Done("_e1")
	require.True(t, ok)
	assert.True(t, done.Success)
	assert.Equal(t, "query success", done.Data["message"])
	assert.Equal(t, []bridge.Channel{bridge.ChannelExecuteQuery}, obs.dispatched)
	assert.Equal(t, []bool{true}, obs.settled)
}

func TestDispatchDrops(t *testing.T) {
	tests := []struct {
		name    string
		msg     bridge.Inbound
		wantErr error
		reason  string
	}{
		{
			name:    "missing event id",
			msg:     bridge.Inbound{Channel: "rmFile", Body: []byte(`{"path":"a.txt"}`)},
			wantErr: bridge.ErrMissingEventID,
			reason:  bridge.DropMissingEventID,
		},
		{
			name:    "empty event id",
			msg:     bridge.Inbound{Channel: "rmFile", Body: []byte(`{"path":"a.txt","eventId":""}`)},
			wantErr: bridge.ErrMissingEventID,
			reason:  bridge.DropMissingEventID,
		},
		{
			name:    "numeric event id",
			msg:     bridge.Inbound{Channel: "rmFile", Body: []byte(`{"path":"a.txt","eventId":42}`)},
			wantErr: bridge.ErrMissingEventID,
			reason:  bridge.DropMissingEventID,
		},
		{
			name:    "malformed body",
			msg:     bridge.Inbound{Channel: "rmFile", Body: []byte(`not json`)},
			wantErr: bridge.ErrMissingEventID,
			reason:  bridge.DropMissingEventID,
		},
		{
			name:    "unknown channel",
			msg:     bridge.Inbound{Channel: "formatDisk", Body: []byte(`{"eventId":"_e1"}`)},
			wantErr: bridge.ErrUnknownChannel,
			reason:  bridge.DropUnknownChannel,
		},
		{
			name:    "channel names are case sensitive",
			msg:     bridge.Inbound{Channel: "RMFILE", Body: []byte(`{"eventId":"_e1"}`)},
			wantErr: bridge.ErrUnknownChannel,
			reason:  bridge.DropUnknownChannel,
		},
		{
			name:    "no plugin registered",
			msg:     bridge.Inbound{Channel: "unzip", Body: []byte(`{"eventId":"_e1"}`)},
			wantErr: bridge.ErrNoHandler,
			reason:  bridge.DropNoHandler,
		},
		{
			name:    "missing event id is reported before unknown channel",
			msg:     bridge.Inbound{Channel: "formatDisk", Body: []byte(`{}`)},
			wantErr: bridge.ErrMissingEventID,
			reason:  bridge.DropMissingEventID,
		},
		{
			name:    "missing event id is reported before missing plugin",
			msg:     bridge.Inbound{Channel: "unzip", Body: []byte(`{"zipFilePath":"a.zip"}`)},
			wantErr: bridge.ErrMissingEventID,
			reason:  bridge.DropMissingEventID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			plugin := bridge.NewPlugin(bridge.ChannelRmFile, func(_ context.Context, _ bridge.Request, reply *bridge.Reply) {
				called = true
				reply.Succeed(nil)
			})
			d, rec, obs := newDispatcher(t, plugin)

			err := d.Dispatch(context.Background(), tt.msg)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, called, "handler must not run for a dropped message")
			assert.Empty(t, rec.Events())
			require.Len(t, obs.drops, 1)
			assert.Equal(t, tt.reason, obs.drops[0].reason)
		})
	}
}

func TestDispatchValidationFailureCompletes(t *testing.T) {
	called := false
	plugin := bridge.NewPlugin(bridge.ChannelDownloadFile, func(_ context.Context, _ bridge.Request, reply *bridge.Reply) {
		called = true
		reply.Succeed(nil)
	})
	d, rec, _ := newDispatcher(t, plugin)

	tests := []struct {
		id   string
		body string
		msg  string
	}{
		{"_e1", `{"url":"not a url","filePath":"a.bin","eventId":"_e1"}`, "invalid url"},
		{"_e2", `{"url":"https://example.com/a","filePath":"","eventId":"_e2"}`, "filePath is required"},
		{"_e3", `{"url":"","filePath":"a.bin","eventId":"_e3"}`, "url is required"},
		{"_e4", `{"url":7,"filePath":"a.bin","eventId":"_e4"}`, "invalid downloadFile payload"},
	}

	for _, tt := range tests {
		require.NoError(t, d.Dispatch(context.Background(), bridge.Inbound{Channel: "downloadFile", Body: []byte(tt.body)}))
		done, ok := rec.Done(tt.id)
		require.True(t, ok, tt.id)
		assert.False(t, done.Success)
		assert.Contains(t, done.Data["message"], tt.msg)
	}
	assert.False(t, called)
}

func TestDispatchRecoversPanics(t *testing.T) {
	plugin := bridge.NewPlugin(bridge.ChannelCloseSqlite, func(context.Context, bridge.Request, *bridge.Reply) {
		panic("driver exploded")
	})
	d, rec, _ := newDispatcher(t, plugin)

	err := d.Dispatch(context.Background(), bridge.Inbound{Channel: "closeSqlite", Body: []byte(`{"eventId":"_p"}`)})
	require.NoError(t, err)

	done, ok := rec.Done("_p")
	require.True(t, ok)
	assert.False(t, done.Success)
	assert.Contains(t, done.Data["message"], "driver exploded")
}

func TestDispatchPanicAfterSettleKeepsFirstCompletion(t *testing.T) {
	plugin := bridge.NewPlugin(bridge.ChannelCloseSqlite, func(_ context.Context, _ bridge.Request, reply *bridge.Reply) {
		reply.Succeed(bridge.Message("close success"))
		panic("late failure")
	})
	d, rec, _ := newDispatcher(t, plugin)

	require.NoError(t, d.Dispatch(context.Background(), bridge.Inbound{Channel: "closeSqlite", Body: []byte(`{"eventId":"_p"}`)}))

	assert.Equal(t, 1, rec.DoneCount("_p"))
	done, _ := rec.Done("_p")
	assert.True(t, done.Success)
}

func TestDispatchOnLoop(t *testing.T) {
	loop := bridge.NewLoop(nil)
	reg := bridge.NewRegistry(nil)
	release := make(chan struct{})
	require.NoError(t, reg.Register(bridge.NewPlugin(bridge.ChannelDownloadFile, func(_ context.Context, _ bridge.Request, reply *bridge.Reply) {
		go func() {
			<-release
			reply.Progress(0.25)
			reply.Progress(0.6)
			reply.Progress(1)
			reply.Succeed(bridge.Message("download success"))
			reply.Progress(0.9)
		}()
	})))
	rec := bridgetest.NewRecorder()
	d := bridge.NewDispatcher(reg, rec, bridge.WithLoop(loop))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	loop.Post(func() {
		_ = d.Dispatch(ctx, bridge.Inbound{
			Channel: "downloadFile",
			Body:    []byte(`{"url":"https://example.com/f","filePath":"f.bin","eventId":"_dl"}`),
		})
	})
	close(release)

	done := rec.WaitDone(t, "_dl", time.Second)
	assert.True(t, done.Success)
	assert.Equal(t, []float64{0.25, 0.6, 1}, rec.Progress("_dl"))

	events := rec.Events()
	require.Len(t, events, 4)
	assert.Equal(t, bridgetest.KindDone, events[3].Kind)
}
