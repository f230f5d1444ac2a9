package replloop

import (
	"bytes"
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"

	"github.com/angellang/angelc/internal/config"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

// TestSessionTranscriptSnapshot replays a short session through eval/undo
// directly (liner itself talks to a real tty, so Start isn't exercised
// here) and snapshots the accumulated transcript.
func TestSessionTranscriptSnapshot(t *testing.T) {
	l := New(config.Config{Color: false})
	var out bytes.Buffer

	l.eval("let x: I32 = 2", &out)
	l.eval("let y: I32 = 3", &out)
	l.undo(&out)
	l.eval("let y: I32 = 40", &out)

	snaps.MatchSnapshot(t, out.String())
}

func TestEvalSyntaxErrorIsPrintedAndSessionContinues(t *testing.T) {
	l := New(config.Config{Color: false})
	var out bytes.Buffer

	l.eval("let +++", &out)
	assert.Contains(t, out.String(), "SyntaxError")

	out.Reset()
	l.eval("let x: I32 = 1", &out)
	assert.Contains(t, out.String(), "ok")
	assert.Len(t, l.lines, 1)
}

func TestUndoWithEmptyBufferIsNoop(t *testing.T) {
	l := New(config.Config{Color: false})
	var out bytes.Buffer
	l.undo(&out)
	assert.Contains(t, out.String(), "nothing to undo")
}
