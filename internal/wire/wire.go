// Package wire implements the serial line protocol between the rig and
// the host. The rig prompts for a gain and a task period, then emits
// samples as "time_ms,position" lines and terminates the stream with
// "End". Anything else on the line is chatter and is ignored by the host.
package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	Terminator = "End"

	// Prompt strings are part of the protocol; the host matches them
	// verbatim to know when to send values.
	PromptKp     = "Input the desired float type Kp value (control gain value) for the next sample:"
	PromptPeriod = "Input the desired integer type period for the task to run:"
)

// Emitter is the rig side of the protocol.
type Emitter struct {
	w *bufio.Writer
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: bufio.NewWriter(w)}
}

func (e *Emitter) PromptKp() error {
	if _, err := e.w.WriteString(PromptKp + "\r\n"); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Emitter) PromptPeriod() error {
	if _, err := e.w.WriteString(PromptPeriod + "\r\n"); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Emitter) Sample(timeMs, position int64) error {
	_, err := fmt.Fprintf(e.w, "%d,%d\r\n", timeMs, position)
	return err
}

func (e *Emitter) Info(msg string) error {
	_, err := fmt.Fprintf(e.w, "%s\r\n", msg)
	return err
}

// End terminates the sample stream and flushes.
func (e *Emitter) End() error {
	if _, err := e.w.WriteString(Terminator + "\r\n"); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Emitter) Flush() error { return e.w.Flush() }

// Collector is the host side: it answers the prompts, discards chatter
// and accumulates samples until the terminator.
type Collector struct {
	r *bufio.Reader
	w io.Writer
}

func NewCollector(rw io.ReadWriter) *Collector {
	return &Collector{r: bufio.NewReader(rw), w: rw}
}

// Collect runs one full exchange. It returns the collected times (ms)
// and positions (counts).
func (c *Collector) Collect(kp float64, periodMs int) (times, positions []int64, err error) {
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return times, positions, fmt.Errorf("wire: stream ended before terminator: %w", io.ErrUnexpectedEOF)
			}
			return times, positions, err
		}

		switch s := strings.TrimSpace(line); s {
		case PromptKp:
			if _, err := fmt.Fprintf(c.w, "%g\r\n", kp); err != nil {
				return times, positions, err
			}
		case PromptPeriod:
			if _, err := fmt.Fprintf(c.w, "%d\r\n", periodMs); err != nil {
				return times, positions, err
			}
		case Terminator:
			return times, positions, nil
		default:
			tm, pos, ok := parseSample(s)
			if ok {
				times = append(times, tm)
				positions = append(positions, pos)
			}
		}
	}
}

func parseSample(s string) (int64, int64, bool) {
	fields := strings.Split(s, ",")
	if len(fields) < 2 {
		return 0, 0, false
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return int64(t), int64(p), true
}
