package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The pump reads every field the producer wrote, so run with -race this
// checks the hand-off as well as the order.
func TestInbox_OrderAcrossWraparound(t *testing.T) {
	const n = 10_000
	in := newInbox(4)

	got := make([]uint32, 0, n)
	payloads := make([]string, 0, n)
	done := make(chan struct{})
	go func() {
		defer close(done)
		in.pump("test/inbox", func(c call) error {
			got = append(got, c.info.Serial)
			payloads = append(payloads, string(c.run(context.Background())))
			if len(got) == n {
				in.close()
			}
			return nil
		})
	}()

	for i := range n {
		body := []byte{byte(i), byte(i >> 8)}
		ok := in.push(call{
			info: CallInfo{Channel: "test/inbox", Serial: uint32(i)},
			run:  func(context.Context) []byte { return body },
		})
		require.True(t, ok)
	}
	<-done

	require.Len(t, got, n)
	for i, s := range got {
		if s != uint32(i) {
			t.Fatalf("position %d holds serial %d", i, s)
		}
		assert.Equal(t, string([]byte{byte(i), byte(i >> 8)}), payloads[i])
	}
}

func TestInbox_PushAfterClose(t *testing.T) {
	in := newInbox(2)
	in.close()
	assert.False(t, in.push(call{info: CallInfo{Serial: 1}}))
}

func TestInbox_CapacityRoundsUp(t *testing.T) {
	assert.Equal(t, uint64(8), newInbox(5).capacity)
	assert.Equal(t, uint64(DefaultInboxCapacity), newInbox(0).capacity)
}
