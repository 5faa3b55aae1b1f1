package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dom/storyverse/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAfterClose(t *testing.T) {
	client := NewClient(NewHub(logging.Discard()), nil, 1)

	client.Send(MessageTypePong, nil)
	require.Len(t, client.send, 1)

	client.Close()
	client.Close()

	assert.NotPanics(t, func() { client.Send(MessageTypePong, nil) })
	assert.False(t, client.enqueue([]byte("late")))
}

func TestClient_SendRacesClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		client := NewClient(NewHub(logging.Discard()), nil, 1)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				client.Send(MessageTypePong, nil)
			}
		}()
		go func() {
			defer wg.Done()
			client.Close()
		}()
		wg.Wait()

		for data := range client.send {
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, MessageTypePong, msg.Type)
		}
	}
}

func TestClient_EnqueueFullBuffer(t *testing.T) {
	client := NewClient(NewHub(logging.Discard()), nil, 1)
	for i := 0; i < cap(client.send); i++ {
		require.True(t, client.enqueue([]byte("x")))
	}
	assert.False(t, client.enqueue([]byte("overflow")))
}
