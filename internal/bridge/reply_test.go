package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/bridge/bridgetest"
)

func TestReplySettlesOnce(t *testing.T) {
	rec := bridgetest.NewRecorder()
	reply := bridge.NewReply("_r", bridge.ChannelRmFile, rec)

	reply.Succeed(bridge.Message("rm success"))
	reply.Fail("too late")
	reply.Succeed(nil)

	assert.True(t, reply.Settled())
	assert.Equal(t, 1, rec.DoneCount("_r"))
	done, _ := rec.Done("_r")
	assert.True(t, done.Success)
	assert.Equal(t, "rm success", done.Data["message"])
}

func TestReplyProgressAfterSettleIsIgnored(t *testing.T) {
	rec := bridgetest.NewRecorder()
	reply := bridge.NewReply("_r", bridge.ChannelUnzip, rec)

	reply.Progress(0.5)
	reply.Succeed(nil)
	reply.Progress(0.75)

	assert.Equal(t, []float64{0.5}, rec.Progress("_r"))
}

func TestReplyClampsProgress(t *testing.T) {
	rec := bridgetest.NewRecorder()
	reply := bridge.NewReply("_r", bridge.ChannelUnzip, rec)

	reply.Progress(-0.2)
	reply.Progress(1.7)

	assert.Equal(t, []float64{0, 1}, rec.Progress("_r"))
}

func TestReplyFailureShapes(t *testing.T) {
	rec := bridgetest.NewRecorder()

	bridge.NewReply("_a", bridge.ChannelOpenSqlite, rec).Fail("database already open")
	bridge.NewReply("_b", bridge.ChannelOpenSqlite, rec).FailWith(nil)

	a, ok := rec.Done("_a")
	require.True(t, ok)
	assert.False(t, a.Success)
	assert.Equal(t, bridge.Data{"message": "database already open"}, a.Data)

	b, ok := rec.Done("_b")
	require.True(t, ok)
	assert.Equal(t, bridge.Data{}, b.Data)
}

func TestReplyThenRunsAfterCompletion(t *testing.T) {
	loop := bridge.NewLoop(nil)
	rec := bridgetest.NewRecorder()
	reply := bridge.NewReply("_nav", bridge.ChannelReLaunch, rec, bridge.ReplyOnLoop(loop))

	var seen int
	reply.Succeed(nil)
	require.True(t, reply.Then(func() { seen = len(rec.Events()) }))

	assert.Empty(t, rec.Events(), "emissions wait for the loop")
	assert.Equal(t, 2, loop.RunPending())
	assert.Equal(t, 1, seen)
}
