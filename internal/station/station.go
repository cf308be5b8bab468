// Package station talks to a real rig over its USB serial console: it
// reboots the board into the control program, answers the gain and
// period prompts and collects the step response.
package station

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/mecha04/motorlab/internal/wire"
)

type Link struct {
	port serial.Port
	coll *wire.Collector
}

// Open connects to the board's serial console. 8N1 framing, which is
// what the USB CDC console presents.
func Open(portName string, baud int) (*Link, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("station: open %s: %w", portName, err)
	}
	return &Link{port: port, coll: wire.NewCollector(port)}, nil
}

// Restart interrupts whatever the board is running and soft-reboots it
// so the control program starts from a clean state. Pending console
// output from before the reboot is discarded.
func (l *Link) Restart() error {
	if _, err := l.port.Write([]byte{0x03}); err != nil { // interrupt
		return err
	}
	time.Sleep(100 * time.Millisecond)
	if err := l.port.ResetInputBuffer(); err != nil {
		return err
	}
	if _, err := l.port.Write([]byte{0x02, 0x04}); err != nil { // reboot
		return err
	}
	return nil
}

// Collect runs one step response: the board prompts for the gain and
// period, then streams samples until the terminator.
func (l *Link) Collect(kp float64, periodMs int) (times, positions []int64, err error) {
	return l.coll.Collect(kp, periodMs)
}

func (l *Link) Close() error {
	return l.port.Close()
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
