package main

import (
	"fmt"
	"math"
	"time"

	"github.com/rakyll/portmidi"

	"github.com/daandobber/blokken5"
)

// CC assignments follow the common synth convention: 74 cutoff, 71
// resonance, 1 mod wheel, 91 send level.
const (
	ccCenter   = 74
	ccQ        = 71
	ccSpan     = 1
	ccFeedback = 91
)

// startMIDI opens the default MIDI input and forwards CC knob moves to the
// filter as partial parameter updates. The returned func stops polling and
// releases the device.
func startMIDI(fl *blokken5.Filter) (func(), error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, err
	}
	id := portmidi.DefaultInputDeviceID()
	if id < 0 {
		portmidi.Terminate()
		return nil, fmt.Errorf("no MIDI input device available")
	}
	stream, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		portmidi.Terminate()
		return nil, err
	}

	stop := make(chan struct{})
	go pollCC(fl, stream, stop)
	return func() {
		close(stop)
		stream.Close()
		portmidi.Terminate()
	}, nil
}

func pollCC(fl *blokken5.Filter, stream *portmidi.Stream, stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ok, err := stream.Poll()
			if err != nil || !ok {
				continue
			}
			events, err := stream.Read(64)
			if err != nil {
				continue
			}
			for _, ev := range events {
				if ev.Status&0xF0 != 0xB0 {
					continue
				}
				applyCC(fl, ev.Data1, ev.Data2)
			}
		}
	}
}

func applyCC(fl *blokken5.Filter, cc, val int64) {
	t := float64(val) / 127
	switch cc {
	case ccCenter:
		// Exponential sweep 40 Hz .. 4 kHz, like a cutoff knob.
		v := 40 * math.Pow(100, t)
		fl.Apply(blokken5.ParamUpdate{Center: &v})
	case ccQ:
		v := 0.5 + t*19.5
		fl.Apply(blokken5.ParamUpdate{Q: &v})
	case ccSpan:
		v := t * 1200
		fl.Apply(blokken5.ParamUpdate{Span: &v})
	case ccFeedback:
		fl.Apply(blokken5.ParamUpdate{Feedback: &t})
	}
}
