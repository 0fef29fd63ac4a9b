package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/typing-game/internal/match"
)

// wireEvent is the JSON shape a subscriber receives.
type wireEvent struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
	Score   int    `json:"score"`
	Mode    string `json:"mode"`
	Word    string `json:"word"`
}

func TestHubRoutesByMatch(t *testing.T) {
	h := NewHub(4)
	a, cancelA := h.Subscribe("a")
	defer cancelA()
	b, cancelB := h.Subscribe("b")
	defer cancelB()

	h.Notify(match.Event{Type: match.EventScore, MatchID: "a", Score: 2})

	select {
	case msg := <-a:
		var e wireEvent
		if err := json.Unmarshal(msg, &e); err != nil {
			t.Fatal(err)
		}
		if e.Type != "score" || e.Score != 2 || e.Mode != "normal" {
			t.Errorf("got %+v", e)
		}
	default:
		t.Fatal("subscriber a got nothing")
	}
	select {
	case msg := <-b:
		t.Fatalf("subscriber b got %s", msg)
	default:
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe("m")
	defer cancel()

	for i := 0; i < 5; i++ {
		h.Notify(match.Event{Type: match.EventTick, MatchID: "m", Remaining: 30 - i})
	}
	if got := len(ch); got != 1 {
		t.Errorf("buffered = %d, want 1", got)
	}
}

func TestHubCancel(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe("m")
	if h.Subscribers("m") != 1 {
		t.Fatal("not subscribed")
	}
	cancel()
	cancel()
	if h.Subscribers("m") != 0 {
		t.Error("still subscribed after cancel")
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed")
	}
	// no panic on notify after cancel
	h.Notify(match.Event{Type: match.EventTick, MatchID: "m"})
}

func TestClientStreamsEvents(t *testing.T) {
	h := NewHub(8)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(h, conn, "m1", "p1").Serve()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers("m1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Notify(match.Event{Type: match.EventWord, MatchID: "m1", Word: "cat"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e wireEvent
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatal(err)
	}
	if e.Type != "word" || e.Word != "cat" || e.MatchID != "m1" {
		t.Errorf("got %+v", e)
	}

	_ = conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for h.Subscribers("m1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not unsubscribed after close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
