package transport

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SerialPort wraps the UART link to the companion robot. Writes are
// fire-and-forget: nothing is ever read back.
type SerialPort struct {
	port serial.Port
	path string
}

// OpenSerial opens the serial device at the given path.
func OpenSerial(path string, baudRate int) (*SerialPort, error) {
	if baudRate <= 0 {
		baudRate = 115200
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("baud", baudRate).Msg("串口已打开 serial port opened")
	return &SerialPort{port: port, path: path}, nil
}

// Write sends raw bytes down the line. No acknowledgment is awaited.
func (s *SerialPort) Write(payload string) error {
	n, err := s.port.Write([]byte(payload))
	if err != nil {
		return fmt.Errorf("serial write %s: %w", s.path, err)
	}
	if n < len(payload) {
		return fmt.Errorf("serial write %s: short write (%d/%d)", s.path, n, len(payload))
	}
	return nil
}

// Close releases the port.
func (s *SerialPort) Close() error {
	return s.port.Close()
}
