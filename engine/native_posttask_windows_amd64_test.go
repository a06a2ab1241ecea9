package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnPostTask_TaskByReference(t *testing.T) {
	h := &recordingHandlers{}
	userData := withContext(t, h)

	task := taskC{runner: 0xabc0, task: 42}
	onPostTask(&task, 1_500_000, userData)
	onPostTask(nil, 1_000, userData)

	require.Len(t, h.posted, 1)
	assert.Equal(t, NativeTask{Runner: 0xabc0, Task: 42}, h.posted[0].task)
	assert.Equal(t, uint64(1_500_000), h.posted[0].target)
}
