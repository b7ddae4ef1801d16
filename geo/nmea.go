package geo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/jacobsa/go-serial/serial"
)

// ErrMalformedSentence is returned by a FixSource when a message from the
// receiver could not be parsed.  The source remains usable.
var ErrMalformedSentence = errors.New("malformed nmea sentence")

// FixSource yields successive position fixes from a GPS receiver
type FixSource interface {
	// Next blocks until the next valid position fix is read
	Next() (Point, error)
	// Close the underlying link, unblocking any pending Next
	Close() error
}

// NMEASource reads NMEA 0183 sentences and returns the positions carried by
// GGA, RMC and GLL sentences that report a valid fix
type NMEASource struct {
	rc io.ReadCloser
	r  *bufio.Reader
}

// NewNMEASource returns a FixSource reading sentences from rc
func NewNMEASource(rc io.ReadCloser) *NMEASource {
	return &NMEASource{
		rc: rc,
		r:  bufio.NewReader(rc),
	}
}

// DialNMEA opens a link to a receiver.  Addr is either tcp://host:port for a
// receiver or telemetry bridge on the network, or serial:///dev/ttyUSB0 (or
// just the device path) for a receiver on a serial port at the given baud
// rate.
func DialNMEA(ctx context.Context, addr string, baud uint) (*NMEASource, error) {

	switch {
	case strings.HasPrefix(addr, "tcp://"):
		var d net.Dialer

		conn, err := d.DialContext(ctx, "tcp", strings.TrimPrefix(addr, "tcp://"))

		if err != nil {
			return nil, fmt.Errorf("error connecting to telemetry %s: %w", addr, err)
		}

		return NewNMEASource(conn), nil

	case addr == "":
		return nil, fmt.Errorf("no telemetry address given")

	default:
		if baud == 0 {
			baud = 9600
		}

		dev, err := serial.Open(serial.OpenOptions{
			PortName:        strings.TrimPrefix(addr, "serial://"),
			BaudRate:        baud,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 4,
		})

		if err != nil {
			return nil, fmt.Errorf("error opening telemetry serial port %s: %w", addr, err)
		}

		return NewNMEASource(dev), nil
	}
}

// Next reads sentences until one carrying a valid fix is found
func (n *NMEASource) Next() (Point, error) {

	for {
		line, err := n.r.ReadString('\n')
		line = strings.TrimSpace(line)

		if line == "" {
			if err != nil {
				return Point{}, err
			}
			continue
		}

		p, ok, perr := parseFix(line)

		if perr != nil {
			return Point{}, perr
		}

		if ok {
			return p, nil
		}

		if err != nil {
			return Point{}, err
		}
	}
}

// Close the link to the receiver
func (n *NMEASource) Close() error {
	return n.rc.Close()
}

// parseFix returns the position in sentence and whether it was a valid fix.
// Sentences of other types are ignored.
func parseFix(sentence string) (Point, bool, error) {

	s, err := nmea.Parse(sentence)

	if err != nil {
		return Point{}, false, fmt.Errorf("%w: %v", ErrMalformedSentence, err)
	}

	var p Point

	switch m := s.(type) {
	case nmea.GGA:
		if m.FixQuality == nmea.Invalid {
			return Point{}, false, nil
		}
		p = Point{Lat: m.Latitude, Lon: m.Longitude}

	case nmea.RMC:
		if m.Validity != nmea.ValidRMC {
			return Point{}, false, nil
		}
		p = Point{Lat: m.Latitude, Lon: m.Longitude}

	case nmea.GLL:
		if m.Validity != nmea.ValidGLL {
			return Point{}, false, nil
		}
		p = Point{Lat: m.Latitude, Lon: m.Longitude}

	default:
		return Point{}, false, nil
	}

	if err := p.Validate(); err != nil {
		return Point{}, false, fmt.Errorf("%w: %v", ErrMalformedSentence, err)
	}

	return p, true, nil
}
