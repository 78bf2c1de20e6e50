package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/sources"
	"stickgpt/stickgpt/sources/kv"
	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/types"
	"stickgpt/stickgpt/utils/metrics"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Defaults()
	cfg.JWTSecret = testSecret

	backend := sources.FromKV(config.BackendMemory, kv.NewMemoryStorage())
	set := stores.NewSet(backend)
	collector := metrics.NewCollector()
	router := NewRouter(Controllers{
		Health:    controllers.NewHealthController(backend.Name, backend.KV),
		Bookmarks: controllers.NewBookmarksController(set.Bookmarks, collector),
		Chats:     controllers.NewChatController(set.Chats, collector),
		Memory:    controllers.NewMemoryController(set.Memory, collector),
		Queries:   controllers.NewQueriesController(set.Queries, collector),
		Metrics:   collector.Handler(),
	}, cfg)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, token: signToken(t, "user-1")}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// as returns a client of the same server authenticated as another user.
func (s *testServer) as(t *testing.T, userID string) *testServer {
	return &testServer{Server: s.Server, token: signToken(t, userID)}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t)

	res, err := http.Get(s.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(s.URL + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(s.URL + "/chats")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestChatRoutes(t *testing.T) {
	s := newTestServer(t)

	var msg models.ChatMessage
	status := s.do(t, http.MethodPost, "/chats/chat1/messages", types.AddMessageRequest{Role: "user", Content: "Hello world"}, &msg)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Hello world", msg.Content)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/chats/chat1/messages", types.AddMessageRequest{Role: "robot", Content: "x"}, nil))

	var chat models.Chat
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/chats/chat1", nil, &chat))
	assert.Equal(t, "Hello world", chat.Title)
	assert.Len(t, chat.Messages, 1)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/chats/missing", nil, nil))

	title := "Greetings"
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/chats/chat1", types.UpdateChatRequest{Title: &title}, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/chats/missing", types.UpdateChatRequest{Title: &title}, nil))

	var created models.Chat
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/chats", types.CreateChatRequest{ID: "chat2"}, &created))
	assert.Equal(t, models.DefaultChatTitle, created.Title)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/chats", types.CreateChatRequest{ID: "chat2"}, nil))

	var found []models.Chat
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/chats/search?q=greet", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "chat1", found[0].ID)

	current := "chat2"
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/chats/current", types.CurrentChat{ChatID: &current}, nil))
	var got types.CurrentChat
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/chats/current", nil, &got))
	require.NotNil(t, got.ChatID)
	assert.Equal(t, "chat2", *got.ChatID)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/chats/bulk-delete", types.BulkDeleteRequest{IDs: []string{"chat1"}}, nil))
	var all []models.Chat
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/chats", nil, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "chat2", all[0].ID)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/chats", nil, nil))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/chats/current", nil, &got))
	assert.Nil(t, got.ChatID)
}

func TestChatRoutesAreScopedToCaller(t *testing.T) {
	alice := newTestServer(t)
	bob := alice.as(t, "user-2")

	require.Equal(t, http.StatusCreated, alice.do(t, http.MethodPost, "/chats/chat1/messages", types.AddMessageRequest{Role: "user", Content: "alice only"}, nil))
	current := "chat1"
	require.Equal(t, http.StatusOK, alice.do(t, http.MethodPut, "/chats/current", types.CurrentChat{ChatID: &current}, nil))

	var list []models.Chat
	require.Equal(t, http.StatusOK, bob.do(t, http.MethodGet, "/chats", nil, &list))
	assert.Empty(t, list)
	assert.Equal(t, http.StatusNotFound, bob.do(t, http.MethodGet, "/chats/chat1", nil, nil))
	require.Equal(t, http.StatusOK, bob.do(t, http.MethodGet, "/chats/search?q=alice", nil, &list))
	assert.Empty(t, list)
	var got types.CurrentChat
	require.Equal(t, http.StatusOK, bob.do(t, http.MethodGet, "/chats/current", nil, &got))
	assert.Nil(t, got.ChatID)

	// bob's clear and delete only reach bob's own data
	require.Equal(t, http.StatusOK, bob.do(t, http.MethodDelete, "/chats", nil, nil))
	require.Equal(t, http.StatusOK, bob.do(t, http.MethodDelete, "/chats/chat1", nil, nil))

	var chat models.Chat
	require.Equal(t, http.StatusOK, alice.do(t, http.MethodGet, "/chats/chat1", nil, &chat))
	assert.Equal(t, "alice only", chat.Title)
	require.Equal(t, http.StatusOK, alice.do(t, http.MethodGet, "/chats/current", nil, &got))
	require.NotNil(t, got.ChatID)
	assert.Equal(t, "chat1", *got.ChatID)
}

func TestBookmarkRoutes(t *testing.T) {
	s := newTestServer(t)

	req := types.AddBookmarkRequest{ChatID: "chat1", MessageID: "m1", Content: "worth keeping"}
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/bookmarks", req, nil))
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/bookmarks", req, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/bookmarks", types.AddBookmarkRequest{}, nil))

	var list []models.Bookmark
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/bookmarks", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "user-1", list[0].UserID)

	var exists map[string]bool
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/bookmarks/m1", nil, &exists))
	assert.True(t, exists["bookmarked"])

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/bookmarks/m1", nil, nil))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/bookmarks/m1", nil, &exists))
	assert.False(t, exists["bookmarked"])
}

func TestMemoryRoutes(t *testing.T) {
	s := newTestServer(t)

	confidence := 0.7
	save := types.SaveMemoryRequest{MemoryType: models.MemoryPreference, Value: map[string]any{"mode": "dark"}, Context: "settings", Confidence: &confidence}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/memory/theme", save, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/memory/x", types.SaveMemoryRequest{MemoryType: "mood"}, nil))

	bad := 2.0
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/memory/x", types.SaveMemoryRequest{MemoryType: models.MemoryInterest, Confidence: &bad}, nil))

	var m models.UserMemory
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/memory/theme", nil, &m))
	assert.Equal(t, "dark", m.Value["mode"])
	assert.InDelta(t, 0.7, m.Confidence, 1e-9)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/memory/choices",
		types.RecordChoiceRequest{Key: "framework", Question: "React or Vue?", Selected: "Vue"}, nil))

	var byType []models.UserMemory
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/memory/type/preference", nil, &byType))
	assert.Len(t, byType, 2)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/memory/type/mood", nil, nil))

	var found []models.UserMemory
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/memory/search?q=SETTINGS", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "theme", found[0].Key)

	var ctxRes map[string]string
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/memory/context?limit=1", nil, &ctxRes))
	assert.True(t, strings.HasPrefix(ctxRes["context"], "User Context:\n[preference] framework: "))
	assert.Equal(t, 2, len(strings.Split(ctxRes["context"], "\n")))

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/memory/theme", nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/memory/theme", nil, nil))
}

func TestQueryRoutes(t *testing.T) {
	s := newTestServer(t)

	var queries []string
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/queries", types.AddQueryRequest{Query: "golang chi"}, &queries))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/queries", types.AddQueryRequest{Query: "hi"}, &queries))
	assert.Equal(t, []string{"golang chi"}, queries)

	var other []string
	require.Equal(t, http.StatusOK, s.as(t, "user-2").do(t, http.MethodGet, "/queries", nil, &other))
	assert.Empty(t, other)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/queries", nil, nil))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/queries", nil, &queries))
	assert.Empty(t, queries)
}

func TestChatSocket(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/chats/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	send := func(frame types.SocketFrame) types.SocketReply {
		data, err := json.Marshal(frame)
		require.NoError(t, err)
		require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
		_, raw, err := conn.Read(ctx)
		require.NoError(t, err)
		var reply types.SocketReply
		require.NoError(t, json.Unmarshal(raw, &reply))
		return reply
	}

	assert.Equal(t, "ready", send(types.SocketFrame{Token: s.token}).Type)

	reply := send(types.SocketFrame{ChatID: "ws-chat", Role: "user", Content: "Streaming hello"})
	require.Equal(t, "message_added", reply.Type)
	require.NotNil(t, reply.Message)
	assert.Equal(t, "Streaming hello", reply.Message.Content)

	assert.Equal(t, "error", send(types.SocketFrame{ChatID: "ws-chat", Role: "robot", Content: "x"}).Type)

	var chat models.Chat
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/chats/ws-chat", nil, &chat))
	assert.Equal(t, "Streaming hello", chat.Title)
}

func TestChatSocketRejectsBadToken(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/chats/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"token":"nope"}`)))
	_, raw, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "invalid token")

	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}
