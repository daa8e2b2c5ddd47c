package bridge_test

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

func TestScripts(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name   string
		render func() (string, error)
	}{
		{"done_success", func() (string, error) {
			return bridge.DoneScript("_a1", true, bridge.Message("download success"))
		}},
		{"done_failure", func() (string, error) {
			return bridge.DoneScript("_a1", false, bridge.Message("no database is open"))
		}},
		{"done_empty", func() (string, error) {
			return bridge.DoneScript("_a1", true, nil)
		}},
		{"done_query", func() (string, error) {
			return bridge.DoneScript("_q7", true, bridge.Data{
				"message": "query success",
				"results": []map[string]interface{}{{"name": "ada", "id": 1}},
			})
		}},
		{"progress_quarter", func() (string, error) {
			return bridge.ProgressScript("_a1", 0.25)
		}},
		{"progress_complete", func() (string, error) {
			return bridge.ProgressScript("_a1", 1)
		}},
		{"progress_zero", func() (string, error) {
			return bridge.ProgressScript("_a1", 0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := tt.render()
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(script))
		})
	}
}

func TestScriptEmitter(t *testing.T) {
	var scripts []string
	emitter := bridge.ScriptEmitter{Eval: func(script string) error {
		scripts = append(scripts, script)
		return nil
	}}

	require.NoError(t, emitter.EmitProgress("_x", 0.5))
	require.NoError(t, emitter.EmitDone("_x", true, bridge.Data{}))

	assert.Equal(t, []string{
		`native.progress("_x", 0.5);`,
		`native.done("_x", true, {});`,
	}, scripts)
}

func TestScriptEmitterPropagatesEvalErrors(t *testing.T) {
	boom := errors.New("view is gone")
	emitter := bridge.ScriptEmitter{Eval: func(string) error { return boom }}

	assert.ErrorIs(t, emitter.EmitDone("_x", false, nil), boom)
	assert.ErrorIs(t, emitter.EmitProgress("_x", 0.1), boom)
}

func TestDoneScriptQuotesEventID(t *testing.T) {
	script, err := bridge.DoneScript(`_"quoted"`, true, nil)
	require.NoError(t, err)
	assert.Equal(t, `native.done("_\"quoted\"", true, {});`, script)
}

func TestFrames(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name  string
		frame bridge.Frame
	}{
		{"frame_progress_zero", bridge.ProgressFrame("_a1", 0)},
		{"frame_progress_half", bridge.ProgressFrame("_a1", 0.5)},
		{"frame_done_failure", bridge.DoneFrame("_a1", false, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bridge.Marshal(tt.frame)
			require.NoError(t, err)
			g.Assert(t, tt.name, raw)
		})
	}
}

func TestProgressFrameRoundTripsZero(t *testing.T) {
	raw, err := bridge.Marshal(bridge.ProgressFrame("_a1", 0))
	require.NoError(t, err)

	var frame bridge.Frame
	require.NoError(t, bridge.Unmarshal(raw, &frame))
	require.NotNil(t, frame.Progress)
	assert.Equal(t, 0.0, frame.Fraction())
}
