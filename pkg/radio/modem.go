// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Port is the serial port a modem talks through
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// CommandTimeout bounds the wait for a modem's +OK
const CommandTimeout = time.Second

// Modem drives a REYAX RYLR896 LoRa module over its AT command interface.
//
// Frames are sent to the broadcast address. Received frames arrive as
// unsolicited "+RCV=<addr>,<len>,<data>,<rssi>,<snr>" lines; any that show
// up while waiting for a command response are queued for Receive.
type Modem struct {
	mu        sync.Mutex
	port      Port
	pending   []byte
	buf       [256]byte
	queue     []received
	rssi      int
	power     int
	frequency float64
	asleep    bool
	closed    bool
}

type received struct {
	data []byte
	rssi int
}

// OpenModem opens a serial port and initializes the modem on it
func OpenModem(portName string, baudRate int) (*Modem, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	m, err := NewModem(port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return m, nil
}

// NewModem checks that a modem answers on port
func NewModem(port Port) (*Modem, error) {
	m := &Modem{port: port, power: 15, frequency: 915.0}
	if err := m.command("AT"); err != nil {
		return nil, fmt.Errorf("modem not responding: %w", err)
	}
	return m, nil
}

// readLine returns the next CR/LF terminated line from the port
func (m *Modem) readLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if i := bytes.IndexByte(m.pending, '\n'); i >= 0 {
			line := strings.TrimRight(string(m.pending[:i]), "\r")
			m.pending = m.pending[i+1:]
			if line == "" {
				continue
			}
			return line, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", ErrTimeout
		}
		if err := m.port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("failed to set read timeout: %w", err)
		}
		n, err := m.port.Read(m.buf[:])
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
		m.pending = append(m.pending, m.buf[:n]...)
	}
}

// command sends an AT command and waits for +OK or +ERR
func (m *Modem) command(cmd string) error {
	if m.closed {
		return ErrClosed
	}
	if _, err := m.port.Write([]byte(cmd + "\r\n")); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	deadline := time.Now().Add(CommandTimeout)
	for {
		line, err := m.readLine(time.Until(deadline))
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		switch {
		case line == "+OK" || line == "+READY":
			return nil
		case strings.HasPrefix(line, "+ERR="):
			return fmt.Errorf("%s: modem error %s", cmd, strings.TrimPrefix(line, "+ERR="))
		case strings.HasPrefix(line, "+RCV="):
			if r, err := parseRCV(line); err == nil {
				m.queue = append(m.queue, r)
			}
		}
	}
}

// parseRCV decodes "+RCV=<addr>,<len>,<data>,<rssi>,<snr>". The data may
// itself contain commas, so it is sliced by its declared length.
func parseRCV(line string) (received, error) {
	rest := strings.TrimPrefix(line, "+RCV=")

	_, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return received{}, fmt.Errorf("missing address in %q", line)
	}
	lenStr, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return received{}, fmt.Errorf("missing length in %q", line)
	}
	n, err := strconv.Atoi(lenStr)
	if err != nil || n < 0 || n > len(rest) {
		return received{}, fmt.Errorf("bad length %q in %q", lenStr, line)
	}
	data, rest := rest[:n], rest[n:]

	rssiStr, _, _ := strings.Cut(strings.TrimPrefix(rest, ","), ",")
	rssi, err := strconv.Atoi(rssiStr)
	if err != nil {
		return received{}, fmt.Errorf("bad RSSI in %q", line)
	}
	return received{data: []byte(data), rssi: rssi}, nil
}

// Listen wakes the receiver if it was put to sleep
func (m *Modem) Listen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.asleep {
		return nil
	}
	if err := m.command("AT+MODE=0"); err != nil {
		return err
	}
	m.asleep = false
	return nil
}

func (m *Modem) Receive(timeout time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if len(m.queue) == 0 {
		line, err := m.readLine(timeout)
		if err == ErrTimeout {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(line, "+RCV=") {
			return nil, nil
		}
		r, err := parseRCV(line)
		if err != nil {
			return nil, nil
		}
		m.queue = append(m.queue, r)
	}

	r := m.queue[0]
	m.queue = m.queue[1:]
	m.rssi = r.rssi
	return usable(r.data), nil
}

func (m *Modem) Transmit(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.asleep {
		return ErrAsleep
	}
	return m.command(fmt.Sprintf("AT+SEND=0,%d,%s", len(text), text))
}

func (m *Modem) RSSI() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rssi
}

func (m *Modem) Power() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}

// SetPower sets the RF output power, clamped to the module's 0-15 dBm
func (m *Modem) SetPower(dbm int) error {
	dbm = max(0, min(dbm, 15))
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.command(fmt.Sprintf("AT+CRFOP=%d", dbm)); err != nil {
		return err
	}
	m.power = dbm
	return nil
}

func (m *Modem) Frequency() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frequency
}

func (m *Modem) SetFrequency(mhz float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hz := int64(mhz*1e6 + 0.5)
	if err := m.command(fmt.Sprintf("AT+BAND=%d", hz)); err != nil {
		return err
	}
	m.frequency = mhz
	return nil
}

func (m *Modem) PowerOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.command("AT+MODE=1"); err != nil {
		return err
	}
	m.asleep = true
	return nil
}

func (m *Modem) PowerOn() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.command("AT+MODE=0"); err != nil {
		return err
	}
	m.asleep = false
	return nil
}

func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.port.Close()
}
