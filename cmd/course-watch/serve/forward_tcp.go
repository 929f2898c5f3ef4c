package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"calmh.dev/course-watch/internal/course"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/thejerf/suture/v4"
)

var (
	forwardIncomingConnections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "forward",
		Name:      "incoming_connections_total",
	}, []string{"source"})
	forwardedResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "forward",
		Name:      "forwarded_results_total",
	}, []string{"source"})
	forwardCurrentConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "forward",
		Name:      "current_connections",
	}, []string{"source"})
	forwardDroppedResults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "forward",
		Name:      "dropped_results_total",
	})
)

// jsonForwarder writes each course result as one JSON line to every
// connected subscriber. Delivery is fire and forget: slow subscribers are
// disconnected, and results are dropped when the forwarder itself is
// behind.
type jsonForwarder struct {
	input chan course.Data
	addr  string
	conns []net.Conn
	mut   sync.Mutex
}

func forwardJSON(addr string) (*jsonForwarder, suture.Service) {
	sup := suture.NewSimple("json-forwarder-supervisor/" + addr)
	f := &jsonForwarder{
		input: make(chan course.Data, 16),
		addr:  addr,
	}
	sup.Add(f)
	l := &forwardListener{
		addr:      addr,
		forwarder: f,
	}
	sup.Add(l)
	return f, sup
}

// Send queues a result for forwarding without blocking the navigator.
func (f *jsonForwarder) Send(data course.Data) {
	select {
	case f.input <- data:
	default:
		forwardDroppedResults.Inc()
	}
}

func (f *jsonForwarder) String() string {
	return fmt.Sprintf("json-forwarder(%s)@%p", f.addr, f)
}

func (f *jsonForwarder) addConn(conn net.Conn) {
	f.mut.Lock()
	f.conns = append(f.conns, conn)
	f.mut.Unlock()
}

func (f *jsonForwarder) Serve(ctx context.Context) error {
	forwardedResults.WithLabelValues(f.addr)
	forwardCurrentConnections.WithLabelValues(f.addr)

	for {
		select {
		case data := <-f.input:
			bs, err := json.Marshal(data)
			if err != nil {
				continue
			}
			bs = append(bs, '\n')

			f.mut.Lock()
			for i := 0; i < len(f.conns); i++ {
				_ = f.conns[i].SetWriteDeadline(time.Now().Add(time.Second))
				if _, err := f.conns[i].Write(bs); err != nil {
					_ = f.conns[i].Close()
					f.conns = append(f.conns[:i], f.conns[i+1:]...)
					i--
					continue
				}
				forwardedResults.WithLabelValues(f.addr).Inc()
			}
			forwardCurrentConnections.WithLabelValues(f.addr).Set(float64(len(f.conns)))
			f.mut.Unlock()

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type forwardListener struct {
	addr      string
	forwarder *jsonForwarder
}

func (t *forwardListener) String() string {
	return fmt.Sprintf("forward-listener(%s)@%p", t.addr, t)
}

func (t *forwardListener) Serve(ctx context.Context) error {
	l, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}
	defer l.Close()

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	forwardIncomingConnections.WithLabelValues(t.addr)

	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}

		t.forwarder.addConn(conn)
		forwardIncomingConnections.WithLabelValues(t.addr).Inc()
	}
}
