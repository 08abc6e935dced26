package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"terraincontrol.ai/internal/gen/engine"
	"terraincontrol.ai/internal/gen/populate"
	"terraincontrol.ai/internal/gen/terrain"
	"terraincontrol.ai/internal/gen/worldconfig"
	"terraincontrol.ai/internal/protocol"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := engine.New()
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s, err := worldconfig.Compile(worldconfig.Config{
		Name:      "socket",
		Height:    64,
		SeaLevel:  20,
		Resources: []string{"Ore(COAL_ORE,16,20,100,0,64,STONE)"},
	}, e)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	gen := &populate.OnDemand{
		Populator: &populate.Populator{Seed: 8, Resources: s.Resources},
		Store:     terrain.NewChunkStore(terrain.NewHeightGen(8, 20, nil), nil, 64),
		Limit:     10,
	}
	srv := httptest.NewServer(NewServer("socket", gen, nil).Mux())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req string, v any) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestServer_GenerateReturnsChunk(t *testing.T) {
	conn := dial(t, testServer(t))

	var first protocol.ChunkMsg
	roundTrip(t, conn, `{"type":"GENERATE","request_id":"a","cx":2,"cz":-1}`, &first)
	if first.Type != protocol.TypeChunk || first.RequestID != "a" || first.World != "socket" {
		t.Fatalf("unexpected reply %+v", first)
	}
	if first.CX != 2 || first.CZ != -1 || first.Cached {
		t.Fatalf("unexpected coordinates or cache flag %+v", first)
	}
	if len(first.Digest) != 64 || len(first.Heightmap) != 256 || len(first.PerResource) != 1 {
		t.Fatalf("incomplete report %+v", first)
	}
	if first.Writes == 0 {
		t.Fatalf("coal should have been placed")
	}

	var second protocol.ChunkMsg
	roundTrip(t, conn, `{"type":"GENERATE","request_id":"b","cx":2,"cz":-1}`, &second)
	if !second.Cached || second.Writes != first.Writes {
		t.Fatalf("repeat request should be served from cache: %+v", second)
	}
}

func TestServer_Errors(t *testing.T) {
	conn := dial(t, testServer(t))
	cases := []struct{ req, code string }{
		{`{"type":"GENERATE","request_id":"far","cx":11,"cz":0}`, protocol.ErrOutOfRange},
		{`{"type":"GENERATE","cx":"x","cz":0}`, protocol.ErrProtoBadRequest},
		{`{"type":"HELLO"}`, protocol.ErrProtoBadRequest},
		{`{"type":"GENERATE","protocol_version":"0.1","cx":0,"cz":0}`, protocol.ErrProtoVersion},
		{`{{`, protocol.ErrProtoBadRequest},
	}
	for _, c := range cases {
		var got protocol.ErrorMsg
		roundTrip(t, conn, c.req, &got)
		if got.Type != protocol.TypeError || got.Code != c.code {
			t.Fatalf("%s: got %+v want code %s", c.req, got, c.code)
		}
	}
}
