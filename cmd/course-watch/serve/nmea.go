package serve

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const teeBufferSize = 4096

var (
	linesInput = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "input",
		Name:      "messages_input_total",
	}, []string{"source"})
	linesBad = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "input",
		Name:      "messages_bad_total",
	}, []string{"source"})
	linesEmpty = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "input",
		Name:      "messages_empty_total",
	}, []string{"source"})
	linesNoChecksum = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "input",
		Name:      "messages_no_checksum_total",
	}, []string{"source"})
	linesNonNMEA = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "input",
		Name:      "messages_non_nmea_total",
	}, []string{"source"})
	teeRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "tee",
		Name:      "messages_input_total",
	}, []string{"tee"})
	teeSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "tee",
		Name:      "messages_output_total",
	}, []string{"tee"})
	teeDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "tee",
		Name:      "messages_dropped_total",
	}, []string{"tee"})
)

func readTCPInto(c chan<- string, addr string) *lineWriter {
	return &lineWriter{
		reader:      func() (io.ReadCloser, error) { return tcpReader(addr) },
		name:        fmt.Sprintf("tcp/%s", addr),
		lines:       c,
		readTimeout: 15 * time.Second,
	}
}

func tcpReader(addr string) (io.ReadCloser, error) {
	conn, err := net.DialTimeout("tcp", addr, 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}
	return conn, nil
}

func readUDPInto(c chan<- string, port int) *lineWriter {
	return &lineWriter{
		reader:      func() (io.ReadCloser, error) { return udpReader(port) },
		name:        fmt.Sprintf("udp/%d", port),
		lines:       c,
		readTimeout: 15 * time.Second,
	}
}

func udpReader(port int) (io.ReadCloser, error) {
	laddr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}
	return conn, nil
}

func readSerialInto(c chan<- string, dev string) *lineWriter {
	return &lineWriter{
		reader: func() (io.ReadCloser, error) { return os.Open(dev) },
		name:   dev,
		lines:  c,
	}
}

func linesInto(c chan<- string, r io.ReadCloser, name string) *lineWriter {
	return &lineWriter{
		reader: func() (io.ReadCloser, error) { return r, nil },
		name:   name,
		lines:  c,
	}
}

// lineWriter reads NMEA sentences from a (re-openable) source, validates
// checksums, and feeds good lines into a channel.
type lineWriter struct {
	reader      func() (io.ReadCloser, error)
	name        string
	lines       chan<- string
	readTimeout time.Duration
}

func (r *lineWriter) String() string {
	return fmt.Sprintf("%s@%p", r.name, r)
}

func (r *lineWriter) Serve(ctx context.Context) error {
	reader, err := r.reader()
	if err != nil {
		return err
	}
	defer reader.Close()

	sc := bufio.NewScanner(reader)
	sc.Buffer(make([]byte, 0, 65536), 65536)

	linesInput.WithLabelValues(r.name)
	linesBad.WithLabelValues(r.name)
	linesEmpty.WithLabelValues(r.name)
	linesNoChecksum.WithLabelValues(r.name)
	linesNonNMEA.WithLabelValues(r.name)

	if err := r.trySetDeadline(reader); err != nil {
		return err
	}

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.trySetDeadline(reader); err != nil {
			return err
		}

		line := sc.Text()
		linesInput.WithLabelValues(r.name).Inc()
		if line == "" {
			linesEmpty.WithLabelValues(r.name).Inc()
			continue
		}
		switch line[0] {
		case '!', '$':
			idx := strings.LastIndexByte(line, '*')
			if idx == -1 {
				linesNoChecksum.WithLabelValues(r.name).Inc()
				continue
			}
			chk := nmea.Checksum(line[1:idx])
			if chk != line[idx+1:] {
				linesBad.WithLabelValues(r.name).Inc()
				continue
			}
			select {
			case r.lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			linesNonNMEA.WithLabelValues(r.name).Inc()
		}
	}

	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (r *lineWriter) trySetDeadline(v any) error {
	if r.readTimeout == 0 {
		return nil
	}
	type deadliner interface {
		SetReadDeadline(t time.Time) error
	}
	if rd, ok := v.(deadliner); ok {
		return rd.SetReadDeadline(time.Now().Add(r.readTimeout))
	}
	return nil
}

// Tee fans incoming lines out to any number of subscriber channels,
// dropping on the floor for subscribers that do not keep up.
type Tee struct {
	name    string
	input   <-chan string
	outputs []chan string
}

func NewTee(name string, input <-chan string) *Tee {
	return &Tee{name: name, input: input}
}

func (t *Tee) String() string {
	return fmt.Sprintf("nmea-tee(%q)@%p", t.name, t)
}

// Output returns a new subscription channel. Must be called before the Tee
// is started.
func (t *Tee) Output() <-chan string {
	c := make(chan string, teeBufferSize)
	t.outputs = append(t.outputs, c)
	return c
}

func (t *Tee) Serve(ctx context.Context) error {
	for {
		select {
		case line := <-t.input:
			teeRead.WithLabelValues(t.name).Inc()
			for _, out := range t.outputs {
				select {
				case out <- line:
					teeSent.WithLabelValues(t.name).Inc()
				case <-ctx.Done():
					return ctx.Err()
				default:
					teeDropped.WithLabelValues(t.name).Inc()
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
