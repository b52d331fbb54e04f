package executil

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Sh(t *testing.T) {
	ctx := context.Background()
	e := &RealExecutor{}

	out, err := Sh(ctx, e, "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestRealExecutor_FailureCarriesOutput(t *testing.T) {
	ctx := context.Background()
	e := &RealExecutor{}

	_, err := Sh(ctx, e, "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestRealExecutor_CapsOutput(t *testing.T) {
	ctx := context.Background()
	e := &RealExecutor{}

	_, err := Sh(ctx, e, "head -c 2000 /dev/zero | tr '\\0' x >&2; exit 1")
	require.Error(t, err)
	assert.LessOrEqual(t, strings.Count(err.Error(), "x"), maxOutputLen)
}

func TestRecordingExecutor(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	e := &RecordingExecutor{
		Outputs: map[string][]byte{"sh": []byte("ok")},
		Errors:  map[string]error{"false": boom},
	}

	out, err := Sh(ctx, e, "echo hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))

	_, err = e.Run(ctx, "false")
	require.ErrorIs(t, err, boom)

	cmds := e.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, []string{"-c", "echo hi"}, cmds[0].Args)
}
