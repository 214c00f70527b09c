package score

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cwbudde/algo-synth/dsp/graph"
	"github.com/cwbudde/algo-synth/synth"
)

// Sink receives rendered interleaved stereo blocks.
type Sink interface {
	Write(samples []float32) error
}

const renderChunk = 16 * graph.RenderQuantum

func keyID(note string) string { return "score:" + note }

// Apply runs ev against s.
func Apply(s *synth.Synth, ev Event) error {
	switch ev.Command {
	case CmdOn:
		s.Keys().KeyDown(keyID(ev.Arg), ev.Frequency, ev.Arg)
	case CmdOff:
		s.Keys().KeyUp(keyID(ev.Arg))
	case CmdSet:
		return s.ApplySettingsJSON([]byte(ev.Arg))
	case CmdScale:
		s.ToggleScaleNote(ev.Arg)
	case CmdResetScale:
		s.ResetScale()
	case CmdReverb:
		v, err := strconv.ParseFloat(ev.Arg, 64)
		if err != nil {
			return err
		}
		return s.SetReverbTime(v)
	case CmdVoice:
		return s.ApplyVoicePreset(ev.Arg)
	case CmdStyle:
		return s.ApplyStylePreset(ev.Arg)
	}
	return nil
}

// Render plays sc on s and writes the last event time plus tail seconds
// of audio to sink. Events run on render-quantum boundaries. It returns
// the number of frames written.
func Render(s *synth.Synth, sc *Score, tail float64, sink Sink) (int, error) {
	ctx := s.Context()
	start := ctx.CurrentTime()

	var eventErr error
	for _, ev := range sc.Events {
		ctx.AfterTime(start+ev.Time, func() {
			if err := Apply(s, ev); err != nil && eventErr == nil {
				eventErr = fmt.Errorf("score: line %d: %w", ev.Line, err)
			}
		})
	}

	total := int(math.Ceil((sc.End() + max(tail, 0)) * s.SampleRate()))
	buf := make([]float32, renderChunk*graph.Channels)
	written := 0
	for written < total {
		n := min(renderChunk, total-written)
		block := buf[:n*graph.Channels]
		s.Render(block)
		if err := sink.Write(block); err != nil {
			return written, fmt.Errorf("score: write: %w", err)
		}
		written += n
		if eventErr != nil {
			return written, eventErr
		}
	}
	return written, nil
}
