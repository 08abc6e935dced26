// Package ws serves on-demand chunk population over a websocket.
package ws

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"terraincontrol.ai/internal/gen/populate"
	"terraincontrol.ai/internal/protocol"
)

const Path = "/v1/ws"

type Server struct {
	world string
	gen   *populate.OnDemand
	log   *zap.Logger

	upgrader websocket.Upgrader
}

func NewServer(world string, gen *populate.OnDemand, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		world: world,
		gen:   gen,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Mux returns a mux with the websocket handler mounted at Path.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.Handler())
	return mux
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		log := s.log.With(zap.String("remote", r.RemoteAddr))
		log.Debug("client connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan any, 16)

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case v := <-out:
					if err := writeJSON(conn, v); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			reply := s.handle(msg)
			select {
			case out <- reply:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
		log.Debug("client disconnected")
	}
}

func (s *Server) handle(msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "invalid json")
	}
	if base.ProtocolVersion != "" && base.ProtocolVersion != protocol.Version {
		return protocol.NewError(base.RequestID, protocol.ErrProtoVersion, "unsupported protocol_version "+base.ProtocolVersion)
	}
	if base.Type != protocol.TypeGenerate {
		return protocol.NewError(base.RequestID, protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
	}
	req, err := protocol.DecodeGenerate(msg)
	if err != nil {
		return protocol.NewError(base.RequestID, protocol.ErrProtoBadRequest, err.Error())
	}

	st, cached, err := s.gen.Chunk(req.CX, req.CZ)
	if err != nil {
		code := protocol.ErrInternal
		if errors.Is(err, populate.ErrOutOfRange) {
			code = protocol.ErrOutOfRange
		}
		return protocol.NewError(req.RequestID, code, err.Error())
	}
	digest := s.gen.Store.ChunkDigest(req.CX, req.CZ)
	s.log.Debug("chunk served",
		zap.Int("cx", req.CX), zap.Int("cz", req.CZ),
		zap.Bool("cached", cached))
	return protocol.ChunkMsg{
		Type:            protocol.TypeChunk,
		ProtocolVersion: protocol.Version,
		RequestID:       req.RequestID,
		World:           s.world,
		CX:              req.CX,
		CZ:              req.CZ,
		Digest:          hex.EncodeToString(digest[:]),
		Writes:          st.Writes,
		PerResource:     st.PerResource,
		Heightmap:       s.gen.Store.Heightmap(req.CX, req.CZ),
		Cached:          cached,
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
