package oscin

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"glyphwall/lib/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupServer(t *testing.T) (*Server, *engine.Queue, *osc.Client) {
	t.Helper()
	queue := engine.NewQueue(16)
	srv, err := Listen(0, queue, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv, queue, osc.NewClient("127.0.0.1", srv.Port())
}

// waitEvents drains the queue until n events arrive or the deadline hits.
func waitEvents(t *testing.T, queue *engine.Queue, n int) []engine.Event {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var events []engine.Event
	for time.Now().Before(deadline) {
		events = append(events, queue.Drain()...)
		if len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("got %d events before deadline, want %d", len(events), n)
	return nil
}

func TestAddressMapping(t *testing.T) {
	cases := []struct {
		address string
		want    engine.EventKind
	}{
		{"/power/on", engine.PowerOn},
		{"/power/off", engine.PowerOff},
		{"/background/flash", engine.BackgroundFlash},
		{"/glyph/next", engine.TransitionTrigger},
		{"/transition/config", engine.ParamSet},
	}
	for _, tc := range cases {
		t.Run(tc.address, func(t *testing.T) {
			_, queue, client := setupServer(t)
			if err := client.Send(osc.NewMessage(tc.address)); err != nil {
				t.Fatal(err)
			}
			events := waitEvents(t, queue, 1)
			if events[0].Kind != tc.want {
				t.Errorf("kind: got %v, want %v", events[0].Kind, tc.want)
			}
			if events[0].Address != tc.address {
				t.Errorf("address: got %q, want %q", events[0].Address, tc.address)
			}
			if events[0].ReceivedAt.IsZero() {
				t.Error("event has no receive timestamp")
			}
		})
	}
}

func TestParamSetCarriesArguments(t *testing.T) {
	_, queue, client := setupServer(t)

	msg := osc.NewMessage("/transition/config")
	msg.Append("wandering")
	msg.Append(float32(0.3))
	if err := client.Send(msg); err != nil {
		t.Fatal(err)
	}

	events := waitEvents(t, queue, 1)
	if len(events[0].Args) != 2 {
		t.Fatalf("args: got %d, want 2", len(events[0].Args))
	}
	if key, ok := events[0].Args[0].(string); !ok || key != "wandering" {
		t.Errorf("arg 0: got %v, want \"wandering\"", events[0].Args[0])
	}
	if val, ok := events[0].Args[1].(float32); !ok || val != 0.3 {
		t.Errorf("arg 1: got %v, want 0.3", events[0].Args[1])
	}
}

func TestUnknownAddressDropped(t *testing.T) {
	srv, queue, client := setupServer(t)

	if err := client.Send(osc.NewMessage("/nope/never")); err != nil {
		t.Fatal(err)
	}
	if err := client.Send(osc.NewMessage("/power/on")); err != nil {
		t.Fatal(err)
	}

	// UDP does not promise ordering; wait until both datagrams are in.
	deadline := time.Now().Add(3 * time.Second)
	for srv.Stats().Received < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	for _, ev := range waitEvents(t, queue, 1) {
		if ev.Address == "/nope/never" {
			t.Error("unknown address reached the queue")
		}
	}

	stats := srv.Stats()
	if stats.Received != 2 {
		t.Fatalf("received count: got %d, want 2", stats.Received)
	}
	if stats.Unknown != 1 {
		t.Errorf("unknown count: got %d, want 1", stats.Unknown)
	}
}

func TestBundleDispatch(t *testing.T) {
	_, queue, client := setupServer(t)

	bundle := osc.NewBundle(time.Now())
	bundle.Append(osc.NewMessage("/power/on"))
	bundle.Append(osc.NewMessage("/background/flash"))
	if err := client.Send(bundle); err != nil {
		t.Fatal(err)
	}

	events := waitEvents(t, queue, 2)
	if events[0].Kind != engine.PowerOn || events[1].Kind != engine.BackgroundFlash {
		t.Errorf("kinds: got %v,%v, want PowerOn,BackgroundFlash", events[0].Kind, events[1].Kind)
	}
}

func TestCloseStopsReceiveLoop(t *testing.T) {
	queue := engine.NewQueue(16)
	srv, err := Listen(0, queue, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		srv.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}
