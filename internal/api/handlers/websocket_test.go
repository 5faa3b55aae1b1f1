package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/testutil"
	"github.com/dom/storyverse/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventTimeout = 2 * time.Second

func TestWebSocketHandler_RejectsBadTokens(t *testing.T) {
	ts := newMemoryServer(t)
	_, pair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	inactive, inactivePair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	inactive.IsActive = false
	require.NoError(t, ts.Repos.User.Update(t.Context(), inactive))

	for name, token := range map[string]string{
		"missing":  "",
		"garbage":  "garbage",
		"refresh":  pair.RefreshToken,
		"inactive": inactivePair.AccessToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, resp, err := gorillaWS.DefaultDialer.Dial(ts.WebSocketURL(token), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestWebSocketHandler_StreamsOwnEvents(t *testing.T) {
	ts := newMemoryServer(t)
	_, pair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherPair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	ownerWS := testutil.NewWSClient(t, ts.WebSocketURL(pair.AccessToken))
	otherWS := testutil.NewWSClient(t, ts.WebSocketURL(otherPair.AccessToken))

	var universe domain.StoryUniverse
	resp := testutil.Do(t, http.MethodPost, ts.APIURL("/story-universes"), pair.AccessToken, map[string]any{"name": "Discworld"})
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &universe)

	created := ownerWS.ExpectResource(websocket.MessageTypeResourceCreated, eventTimeout)
	assert.Equal(t, domain.ResourceStoryUniverse, created.Resource)
	assert.Equal(t, universe.ID, created.ID)

	path := ts.APIURL(fmt.Sprintf("/story-universes/%d", universe.ID))
	testutil.AssertStatusCode(t, testutil.Do(t, http.MethodPut, path, pair.AccessToken, map[string]any{"name": "Roundworld"}), http.StatusOK)
	updated := ownerWS.ExpectResource(websocket.MessageTypeResourceUpdated, eventTimeout)
	assert.Equal(t, universe.ID, updated.ID)

	testutil.AssertStatusCode(t, testutil.Do(t, http.MethodDelete, path, pair.AccessToken, nil), http.StatusNoContent)
	deleted := ownerWS.ExpectResource(websocket.MessageTypeResourceDeleted, eventTimeout)
	assert.Equal(t, universe.ID, deleted.ID)
	assert.Nil(t, deleted.Data)

	otherWS.ExpectNoMessage(200 * time.Millisecond)
}

func TestWebSocketHandler_NoEventForFailedMutation(t *testing.T) {
	ts := newMemoryServer(t)
	_, pair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	client := testutil.NewWSClient(t, ts.WebSocketURL(pair.AccessToken))

	resp := testutil.Do(t, http.MethodPost, ts.APIURL("/stories"), pair.AccessToken, map[string]any{
		"story_universe_id": 999,
		"title":             "orphan",
	})
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)

	client.ExpectNoMessage(200 * time.Millisecond)
}

func TestWebSocketHandler_UnknownMessage(t *testing.T) {
	ts := newMemoryServer(t)
	_, pair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	client := testutil.NewWSClient(t, ts.WebSocketURL(pair.AccessToken))

	client.Send("SUBSCRIBE")
	client.ExpectMessage(websocket.MessageTypeError, eventTimeout)
}
