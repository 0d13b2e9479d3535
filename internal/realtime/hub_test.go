package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeClient) Send(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, message)
	return true
}

func (f *fakeClient) Close() {}

func TestHub_PublishDeduplicatesUsers(t *testing.T) {
	h := NewHub()
	alice, bob := &fakeClient{}, &fakeClient{}
	h.Register(1, alice)
	h.Register(2, bob)

	h.Publish(Event{Type: TaskCreated, TaskID: "OPS-ABC123", ActorID: 1}, 1, 2, 2, 0)

	require.Len(t, alice.frames, 1)
	require.Len(t, bob.frames, 1)

	var ev Event
	require.NoError(t, json.Unmarshal(bob.frames[0], &ev))
	require.Equal(t, TaskCreated, ev.Type)
	require.Equal(t, "OPS-ABC123", ev.TaskID)
	require.Equal(t, 1, ev.Version)
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub()
	c1, c2 := &fakeClient{}, &fakeClient{}
	h.Register(7, c1)
	h.Register(7, c2)
	require.Equal(t, 2, h.Connections(7))

	h.Unregister(7, c1)
	h.Publish(Event{Type: ChatMessage}, 7)
	require.Empty(t, c1.frames)
	require.Len(t, c2.frames, 1)

	h.Unregister(7, c2)
	require.Zero(t, h.Connections(7))
}
