package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"battlenav/internal/protocol"
	"battlenav/internal/sim/scenario"
	"battlenav/internal/sim/tuning"
)

const lane = `
name: lane
seed: 5
map:
  rows:
    - "........"
    - "........"
    - "........"
    - "........"
units:
  - id: a
    x: 0
    y: 0
  - id: b
    team: blue
    x: 7
    y: 3
`

func startServer(t *testing.T) (*Loop, string) {
	t.Helper()
	sc, err := scenario.Parse([]byte(lane))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tun := tuning.Defaults()
	tun.TurnDurationMs = 5
	m, err := sc.Build(tun)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	loop := NewLoop(sc.Name, m, 500, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = loop.Run(ctx) }()

	srv := httptest.NewServer(NewServer(loop, nil).Handler())
	t.Cleanup(srv.Close)
	return loop, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, hello protocol.HelloMsg) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, want string, match func([]byte) bool) []byte {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", want, err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type == want && (match == nil || match(msg)) {
			return msg
		}
	}
	t.Fatalf("timed out waiting for %s", want)
	return nil
}

func TestServer_OrderDrivesUnitToTarget(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Name: "t", UnitID: "a"})

	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeWelcome, nil), &welcome); err != nil {
		t.Fatal(err)
	}
	if welcome.SessionID == "" || welcome.ControlledUnit != "a" || welcome.Width != 8 || welcome.Height != 4 || len(welcome.Units) != 2 {
		t.Fatalf("welcome=%+v", welcome)
	}

	if err := conn.WriteJSON(protocol.OrderMsg{
		Type:            protocol.TypeOrder,
		ProtocolVersion: protocol.Version,
		UnitID:          "a",
		Kind:            "MOVE_TO",
		Target:          &[2]int{5, 2},
	}); err != nil {
		t.Fatal(err)
	}
	var ack protocol.AckMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeAck, nil), &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Accepted || ack.AckFor != "a" || ack.Round < 1 {
		t.Fatalf("ack=%+v", ack)
	}

	readUntil(t, conn, protocol.TypeFrame, func(b []byte) bool {
		var f protocol.FrameMsg
		if err := json.Unmarshal(b, &f); err != nil {
			return false
		}
		for _, u := range f.Units {
			if u.ID == "a" && u.Pos == [2]int{5, 2} {
				return f.Done
			}
		}
		return false
	})
}

func TestServer_RejectsForeignAndUnknownUnits(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Name: "t", UnitID: "a"})
	readUntil(t, conn, protocol.TypeWelcome, nil)

	for unit, code := range map[string]string{"b": protocol.ErrNotOwner, "zz": protocol.ErrUnknownUnit} {
		_ = conn.WriteJSON(protocol.OrderMsg{Type: protocol.TypeOrder, ProtocolVersion: protocol.Version, UnitID: unit, Kind: "HOLD"})
		var ack protocol.AckMsg
		if err := json.Unmarshal(readUntil(t, conn, protocol.TypeAck, nil), &ack); err != nil {
			t.Fatal(err)
		}
		if ack.Accepted || ack.Code != code {
			t.Fatalf("unit %s: ack=%+v", unit, ack)
		}
	}

	_ = conn.WriteJSON(protocol.OrderMsg{Type: protocol.TypeOrder, ProtocolVersion: protocol.Version, UnitID: "a", Kind: "MOVE_TO"})
	var ack protocol.AckMsg
	_ = json.Unmarshal(readUntil(t, conn, protocol.TypeAck, nil), &ack)
	if ack.Accepted || ack.Code != protocol.ErrBadOrder {
		t.Fatalf("ack=%+v", ack)
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"PING","protocol_version":"1.0"}`))
	var e protocol.ErrorMsg
	_ = json.Unmarshal(readUntil(t, conn, protocol.TypeError, nil), &e)
	if e.Code != protocol.ErrBadRequest {
		t.Fatalf("error=%+v", e)
	}
}

func TestServer_HandshakeErrors(t *testing.T) {
	_, url := startServer(t)

	conn := dial(t, url, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1", Name: "old"})
	var e protocol.ErrorMsg
	_ = json.Unmarshal(readUntil(t, conn, protocol.TypeError, nil), &e)
	if e.Code != protocol.ErrVersion {
		t.Fatalf("error=%+v", e)
	}

	first := dial(t, url, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Name: "one", UnitID: "b"})
	readUntil(t, first, protocol.TypeWelcome, nil)
	second := dial(t, url, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Name: "two", UnitID: "b"})
	_ = json.Unmarshal(readUntil(t, second, protocol.TypeError, nil), &e)
	if e.Code != protocol.ErrBusy {
		t.Fatalf("error=%+v", e)
	}
}

func TestLoop_State(t *testing.T) {
	loop, url := startServer(t)
	conn := dial(t, url, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Name: "watcher"})
	readUntil(t, conn, protocol.TypeFrame, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := loop.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Scenario != "lane" || st.Round < 1 || st.Clients != 1 || len(st.Units) != 2 {
		t.Fatalf("state=%+v", st)
	}
}

func TestLoop_StoppedDoesNotBlockCallers(t *testing.T) {
	sc, err := scenario.Parse([]byte(lane))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, err := sc.Build(tuning.Defaults())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	loop := NewLoop(sc.Name, m, 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: %v", err)
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 200; i++ {
			loop.Leave("session")
		}
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Leave blocked after the loop stopped")
	}

	if _, err := loop.State(context.Background()); !errors.Is(err, ErrLoopStopped) {
		t.Fatalf("State: %v", err)
	}

	srv := NewServer(loop, nil)
	reply := srv.handleMessage(context.Background(), "session", []byte(`{"type":"ORDER","protocol_version":"1.0","unit_id":"a","kind":"HOLD"}`))
	e, ok := reply.(protocol.ErrorMsg)
	if !ok || e.Code != protocol.ErrInternal {
		t.Fatalf("reply=%+v", reply)
	}
}
