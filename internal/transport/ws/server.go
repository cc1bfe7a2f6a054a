package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"battlenav/internal/protocol"
)

type Server struct {
	loop *Loop
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(loop *Loop, logger *log.Logger) *Server {
	s := &Server{
		loop: loop,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(r.Context(), conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
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
				cancel()
				break
			}
			reply := s.handleMessage(ctx, sessionID, msg)
			if reply == nil {
				continue
			}
			b, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		s.loop.Leave(sessionID)
	}
}

func (s *Server) handleMessage(ctx context.Context, sessionID string, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError(protocol.ErrBadRequest, "malformed json")
	}
	if !protocol.Compatible(base.ProtocolVersion) {
		return protocol.NewError(protocol.ErrVersion, "unsupported protocol_version "+base.ProtocolVersion)
	}
	if base.Type != protocol.TypeOrder {
		return protocol.NewError(protocol.ErrBadRequest, "unexpected message type "+base.Type)
	}
	var order protocol.OrderMsg
	if err := json.Unmarshal(msg, &order); err != nil {
		return protocol.NewError(protocol.ErrBadRequest, err.Error())
	}
	resp := make(chan protocol.AckMsg, 1)
	select {
	case s.loop.orders <- orderReq{session: sessionID, msg: order, resp: resp}:
	case <-s.loop.stopped:
		return protocol.NewError(protocol.ErrInternal, "match loop stopped")
	case <-ctx.Done():
		return nil
	}
	select {
	case ack := <-resp:
		return ack
	case <-s.loop.stopped:
		return protocol.NewError(protocol.ErrInternal, "match loop stopped")
	case <-ctx.Done():
		return nil
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.reject(conn, protocol.NewError(protocol.ErrVersion, "bad protocol_version"))
		return "", nil
	}
	name := strings.TrimSpace(hello.Name)
	if name == "" {
		name = "client"
	}

	out = make(chan []byte, 16)
	respCh := make(chan joinResp, 1)
	select {
	case s.loop.join <- joinReq{name: name, unitID: strings.TrimSpace(hello.UnitID), out: out, resp: respCh}:
	case <-s.loop.stopped:
		s.reject(conn, protocol.NewError(protocol.ErrInternal, "match loop stopped"))
		return "", nil
	case <-ctx.Done():
		return "", nil
	}
	var resp joinResp
	select {
	case resp = <-respCh:
	case <-s.loop.stopped:
		s.reject(conn, protocol.NewError(protocol.ErrInternal, "match loop stopped"))
		return "", nil
	case <-ctx.Done():
		return "", nil
	}
	if resp.err != nil {
		s.reject(conn, *resp.err)
		return "", nil
	}

	if err := writeJSON(conn, resp.welcome); err != nil {
		s.loop.Leave(resp.welcome.SessionID)
		return "", nil
	}
	return resp.welcome.SessionID, out
}

func (s *Server) reject(conn *websocket.Conn, e protocol.ErrorMsg) {
	_ = writeJSON(conn, e)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, e.Code), time.Now().Add(time.Second))
	if s.log != nil {
		s.log.Printf("handshake rejected: %s %s", e.Code, e.Message)
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
