package wsbridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
)

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func setup(t *testing.T, opts ...Option) (*Bridge, *game.HumanProvider, *websocket.Conn) {
	t.Helper()
	human := game.NewHumanProvider(quartz.NewMock(t), 0, quietLogger())
	bridge := New(0, human, quietLogger(), opts...)
	srv := httptest.NewServer(bridge)
	t.Cleanup(func() {
		bridge.Close()
		srv.Close()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return bridge, human, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readWelcome(t *testing.T, conn *websocket.Conn) Welcome {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, TypeWelcome, msg.Type)
	var w Welcome
	require.NoError(t, json.Unmarshal(msg.Data, &w))
	return w
}

func TestWelcome(t *testing.T) {
	t.Parallel()

	bridge, _, conn := setup(t)
	w := readWelcome(t, conn)
	_, err := uuid.Parse(w.Session)
	assert.NoError(t, err)
	assert.Equal(t, 0, w.Seat)
	assert.Equal(t, 1, bridge.Sessions())
}

func TestEventsHideOtherHoleCards(t *testing.T) {
	t.Parallel()

	bridge, _, conn := setup(t)
	readWelcome(t, conn)

	ace := deck.NewCard(deck.Ace, deck.Spades)
	bridge.OnEvent(game.CardDealtEvent{Hand: 1, Seat: 0, Card: ace, Phase: game.PhasePreflop})
	bridge.OnEvent(game.CardDealtEvent{Hand: 1, Seat: 1, Card: ace, Phase: game.PhasePreflop})
	bridge.OnEvent(game.CardDealtEvent{Hand: 1, Seat: game.BoardSeat, Card: ace, Phase: game.PhaseFlop})

	tests := []struct {
		seat     int
		wantCard bool
	}{
		{0, true},
		{1, false},
		{game.BoardSeat, true},
	}
	for _, tt := range tests {
		msg := readMessage(t, conn)
		require.Equal(t, "card_dealt", msg.Type)
		var data map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		assert.EqualValues(t, tt.seat, data["seat"])
		if tt.wantCard {
			assert.Equal(t, "As", data["card"])
		} else {
			assert.NotContains(t, data, "card")
		}
	}
}

func TestActionSubmission(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, human, conn := setup(t)
	readWelcome(t, conn)

	result := make(chan game.Action, 1)
	go func() {
		a, err := human.RequestAction(ctx, game.DecisionRequest{
			Legal: game.LegalActions{ToCall: 20, CanCall: true, CanRaise: true, CanAllIn: true, MinRaiseTo: 40, MaxRaiseTo: 1000},
		})
		if err == nil {
			result <- a
		}
	}()
	_, err := human.WaitPending(ctx)
	require.NoError(t, err)

	// checking while facing a bet is rejected and the decision stays open
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeAction, Action: "check"}))
	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	_, pending := human.Pending()
	assert.True(t, pending)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeAction, Action: "raise", Amount: 120}))
	select {
	case a := <-result:
		assert.Equal(t, game.RaiseTo(120), a)
	case <-ctx.Done():
		t.Fatal("action was not delivered")
	}
}

func TestPendingDecisionSentOnConnect(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	human := game.NewHumanProvider(quartz.NewMock(t), 0, quietLogger())
	bridge := New(0, human, quietLogger())
	srv := httptest.NewServer(bridge)
	defer srv.Close()
	defer bridge.Close()

	go func() {
		_, _ = human.RequestAction(ctx, game.DecisionRequest{
			Legal: game.LegalActions{CanCheck: true, CanAllIn: true},
			View:  game.TableView{HandNumber: 4, Pot: 40},
		})
	}()
	_, err := human.WaitPending(ctx)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	readWelcome(t, conn)
	assert.Equal(t, TypeState, readMessage(t, conn).Type)
	msg := readMessage(t, conn)
	require.Equal(t, "action_required", msg.Type)
	var ev game.ActionRequiredEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, 4, ev.Hand)
	assert.True(t, ev.Legal.CanCheck)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeAction, Action: "check"}))
	require.Eventually(t, func() bool {
		_, pending := human.Pending()
		return !pending
	}, 5*time.Second, 10*time.Millisecond)
}

func TestClientMessageErrors(t *testing.T) {
	t.Parallel()

	restarted := make(chan struct{}, 1)
	_, _, conn := setup(t, WithRestart(func() { restarted <- struct{}{} }))
	readWelcome(t, conn)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", `{`, "invalid message"},
		{"missing type", `{"action":"fold"}`, "invalid message"},
		{"string amount", `{"type":"action","action":"raise","amount":"ten"}`, "invalid message"},
		{"unexpected field", `{"type":"action","seat":3}`, "invalid message"},
		{"unknown type", `{"type":"dance"}`, "unknown message type"},
		{"unknown action", `{"type":"action","action":"shove"}`, "unknown action"},
		{"raise without amount", `{"type":"action","action":"raise"}`, "positive amount"},
		{"nothing pending", `{"type":"action","action":"fold"}`, "no decision pending"},
	}
	for _, tt := range tests {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)), tt.name)
		msg := readMessage(t, conn)
		require.Equal(t, TypeError, msg.Type, tt.name)
		var data ErrorData
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		assert.Contains(t, data.Message, tt.want, tt.name)
	}

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeRestart}))
	select {
	case <-restarted:
	case <-time.After(5 * time.Second):
		t.Fatal("restart not called")
	}
}

func TestToAction(t *testing.T) {
	t.Parallel()

	a, err := ClientMessage{Type: TypeAction, Action: "all-in"}.ToAction()
	require.NoError(t, err)
	assert.Equal(t, game.AllIn, a.Kind)

	a, err = ClientMessage{Type: TypeAction, Action: "call", Amount: 55}.ToAction()
	require.NoError(t, err)
	assert.Equal(t, game.CallAction(), a, "amount is ignored for non-raises")
}
