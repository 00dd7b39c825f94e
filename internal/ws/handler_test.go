package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/DoyleJ11/arena-backend/internal/arena"
	"github.com/DoyleJ11/arena-backend/internal/hub"
	pkgtypes "github.com/DoyleJ11/arena-backend/pkg/types"
)

type rawServerEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, arena.Config{NewTicker: arena.NewManualTicker().Factory()})
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", Handler(h, Options{}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) rawServerEnvelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)

	var env rawServerEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

// waitFor skips messages until one of the wanted type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, msgType string) rawServerEnvelope {
	t.Helper()
	for i := 0; i < 20; i++ {
		env := readEnvelope(t, conn)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %s message", msgType)
	return rawServerEnvelope{}
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, b))
}

func greet(t *testing.T, conn *websocket.Conn) pkgtypes.YouAre {
	t.Helper()
	env := readEnvelope(t, conn)
	require.Equal(t, pkgtypes.MsgCurrentPlayers, env.Type)

	env = readEnvelope(t, conn)
	require.Equal(t, pkgtypes.MsgYouAre, env.Type)
	var me pkgtypes.YouAre
	require.NoError(t, json.Unmarshal(env.Payload, &me))
	return me
}

func TestHandler_ConnectGreetsWithIdentityAndTeam(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "")

	me := greet(t, conn)
	_, err := uuid.Parse(me.ID)
	assert.NoError(t, err)
	assert.Equal(t, "popcorn", me.Team)
}

func TestHandler_MoveReachesOtherClient(t *testing.T) {
	srv := newTestServer(t)
	connA := dial(t, srv, "?arena=main")
	meA := greet(t, connA)
	connB := dial(t, srv, "")
	meB := greet(t, connB)
	assert.Equal(t, "grok", meB.Team)

	joined := waitFor(t, connA, pkgtypes.MsgNewPlayer)
	var ps pkgtypes.PlayerState
	require.NoError(t, json.Unmarshal(joined.Payload, &ps))
	assert.Equal(t, meB.ID, ps.ID)

	writeJSON(t, connA, map[string]any{"type": "playerMove", "x": 320, "y": 240, "angle": 0.5})

	moved := waitFor(t, connB, pkgtypes.MsgPlayerMoved)
	var pm pkgtypes.PlayerMoved
	require.NoError(t, json.Unmarshal(moved.Payload, &pm))
	assert.Equal(t, pkgtypes.PlayerMoved{ID: meA.ID, X: 320, Y: 240, Angle: 0.5}, pm)

	require.NoError(t, connA.Close(websocket.StatusNormalClosure, ""))
	left := waitFor(t, connB, pkgtypes.MsgPlayerLeft)
	var id string
	require.NoError(t, json.Unmarshal(left.Payload, &id))
	assert.Equal(t, meA.ID, id)
}

func TestHandler_BadFramesGetErrors(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "")
	greet(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":`)))
	env := readEnvelope(t, conn)
	require.Equal(t, pkgtypes.MsgError, env.Type)
	assert.JSONEq(t, `{"error":"bad message"}`, string(env.Payload))

	writeJSON(t, conn, map[string]any{"type": "dance"})
	env = readEnvelope(t, conn)
	require.Equal(t, pkgtypes.MsgError, env.Type)
	assert.JSONEq(t, `{"error":"unknown type"}`, string(env.Payload))
}

func TestHandler_FireIsAnnounced(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "")
	me := greet(t, conn)

	writeJSON(t, conn, map[string]any{"type": "shootSword", "x": 100, "y": 100, "vx": 12, "vy": 0, "angle": 0})

	shot := waitFor(t, conn, pkgtypes.MsgSwordShot)
	var pr pkgtypes.ProjectileState
	require.NoError(t, json.Unmarshal(shot.Payload, &pr))
	assert.Equal(t, me.ID, pr.Owner)
	assert.Equal(t, 60, pr.Life)
	assert.Equal(t, 12.0, pr.VX)
}

func TestHandler_MsgpackCodec(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "?codec=msgpack")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var kinds []string
	for i := 0; i < 2; i++ {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, websocket.MessageBinary, typ)

		var env struct {
			Type    string             `json:"type"`
			Payload msgpack.RawMessage `json:"payload"`
		}
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		require.NoError(t, dec.Decode(&env))
		kinds = append(kinds, env.Type)
	}
	assert.Equal(t, []string{pkgtypes.MsgCurrentPlayers, pkgtypes.MsgYouAre}, kinds)
}

func TestHandler_RejectsUnknownArenaAndCodec(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws?arena=NOPE00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws?codec=xml")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
