package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"battlenav/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "client name")
		unit  = flag.String("unit", "", "unit id to control (empty: observe only)")
		every = flag.Int("every", 25, "send a new random order every N rounds")
		seed  = flag.Int64("seed", 1, "order rng seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[navbot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Name:            *name,
		UnitID:          *unit,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{conn: conn, log: logger, unit: *unit, every: *every, rng: rand.New(rand.NewSource(*seed))}
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			b.width, b.height = w.Width, w.Height
			logger.Printf("WELCOME session=%s scenario=%s size=%dx%d units=%d controlled=%q",
				w.SessionID, w.Scenario, w.Width, w.Height, len(w.Units), w.ControlledUnit)

		case protocol.TypeFrame:
			var f protocol.FrameMsg
			if err := json.Unmarshal(msg, &f); err != nil {
				continue
			}
			b.handleFrame(&f)
			if f.Done {
				logger.Printf("match over at round %d arrived=%v", f.Round, f.Arrived)
				return
			}

		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err != nil {
				continue
			}
			logger.Printf("ACK unit=%s accepted=%v code=%s round=%d %s", a.AckFor, a.Accepted, a.Code, a.Round, a.Message)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}

type bot struct {
	conn  *websocket.Conn
	log   *log.Logger
	unit  string
	every int
	rng   *rand.Rand

	width, height int
}

var orderKinds = []string{"MOVE_TO", "MOVE_TO", "FLEE", "EXPLORE"}

func (b *bot) handleFrame(f *protocol.FrameMsg) {
	for _, u := range f.Units {
		if u.ID == b.unit && (u.Moved || u.Err != "") {
			b.log.Printf("round=%d unit=%s pos=%v order=%s err=%q", f.Round, u.ID, u.Pos, u.Order, u.Err)
		}
	}
	if b.unit == "" || b.every <= 0 || b.width <= 0 || (f.Round-1)%b.every != 0 {
		return
	}
	kind := orderKinds[b.rng.Intn(len(orderKinds))]
	target := [2]int{b.rng.Intn(b.width), b.rng.Intn(b.height)}
	order := protocol.OrderMsg{
		Type:            protocol.TypeOrder,
		ProtocolVersion: protocol.Version,
		UnitID:          b.unit,
		Kind:            kind,
	}
	if kind != "EXPLORE" {
		order.Target = &target
	}
	b.log.Printf("ORDER %s %v", kind, target)
	_ = b.conn.WriteJSON(order)
}
