// Package midiin maps note triggers from a MIDI controller onto the same
// events the OSC ingress produces, for operators running the show from a
// desk instead of a network console.
package midiin

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"glyphwall/lib/engine"
)

// Trigger notes, bottom octave of a standard 61-key controller.
const (
	NotePowerOn    = 36 // C2
	NotePowerOff   = 38 // D2
	NoteFlash      = 40 // E2
	NoteTransition = 41 // F2
)

var noteKinds = map[uint8]engine.EventKind{
	NotePowerOn:    engine.PowerOn,
	NotePowerOff:   engine.PowerOff,
	NoteFlash:      engine.BackgroundFlash,
	NoteTransition: engine.TransitionTrigger,
}

// Listen subscribes to the first MIDI input port matching substr and
// pushes decoded trigger events onto the queue. The returned stop
// function unsubscribes; callers still own midi.CloseDriver.
func Listen(substr string, queue *engine.Queue, log *slog.Logger) (func(), error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "midiin")

	port, err := findInPort(substr)
	if err != nil {
		return nil, err
	}

	stop, err := midi.ListenTo(port, func(msg midi.Message, timestampms int32) {
		ev, ok := decode(msg)
		if !ok {
			return
		}
		if queue.Push(ev) {
			log.Debug("event queue full, evicted oldest", "event", ev.Kind)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("midiin: %w", err)
	}
	log.Info("listening", "port", port.String())
	return stop, nil
}

func decode(msg midi.Message) (engine.Event, bool) {
	if !msg.Is(midi.NoteOnMsg) {
		return engine.Event{}, false
	}
	var channel, key, velocity uint8
	msg.GetNoteOn(&channel, &key, &velocity)
	if velocity == 0 {
		return engine.Event{}, false
	}
	kind, ok := noteKinds[key]
	if !ok {
		return engine.Event{}, false
	}
	return engine.Event{
		Kind:       kind,
		Address:    fmt.Sprintf("midi:note/%d", key),
		ReceivedAt: time.Now(),
	}, true
}

func findInPort(substr string) (drivers.In, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetInPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("midiin: no MIDI input port matching %q", substr)
}
