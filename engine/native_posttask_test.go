//go:build (darwin || linux || (windows && arm64)) && (amd64 || arm64)

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnPostTask_SplitArguments(t *testing.T) {
	h := &recordingHandlers{}
	userData := withContext(t, h)

	onPostTask(0xabc0, 42, 1_500_000, userData)
	onPostTask(0xabc0, 43, 1_000, 0)

	require.Len(t, h.posted, 1)
	assert.Equal(t, NativeTask{Runner: 0xabc0, Task: 42}, h.posted[0].task)
	assert.Equal(t, uint64(1_500_000), h.posted[0].target)
}
