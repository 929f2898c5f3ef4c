package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusListener struct {
	addr string
}

func (l *prometheusListener) String() string {
	return fmt.Sprintf("prometheus-listener(%s)@%p", l.addr, l)
}

func (l *prometheusListener) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", promhttp.Handler())

	list, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		list.Close()
	}()

	return http.Serve(list, mux)
}

// liveGauge registers its gauge while values keep coming and unregisters it
// once they stop, so nullable course fields disappear from the scrape
// instead of freezing at their last value.
type liveGauge struct {
	gauge      prometheus.Gauge
	mut        sync.Mutex
	unregister *time.Timer
}

func newLiveGauge(gauge prometheus.Gauge) *liveGauge {
	return &liveGauge{
		gauge: gauge,
	}
}

const gaugeLifeTime = 15 * time.Second

func (g *liveGauge) Set(v float64) {
	g.gauge.Set(v)

	g.mut.Lock()
	defer g.mut.Unlock()

	if g.unregister == nil {
		_ = prometheus.Register(g.gauge)
		g.unregister = time.AfterFunc(gaugeLifeTime, func() {
			g.mut.Lock()
			defer g.mut.Unlock()
			prometheus.Unregister(g.gauge)
			g.unregister = nil
		})
	} else {
		g.unregister.Reset(gaugeLifeTime)
	}
}

// SetPtr sets the gauge when v is present and lets it expire otherwise.
func (g *liveGauge) SetPtr(v *float64) {
	if v != nil {
		g.Set(*v)
	}
}

func courseGauge(name, method string) *liveGauge {
	return newLiveGauge(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "nav",
		Subsystem:   "course",
		Name:        name,
		ConstLabels: prometheus.Labels{"method": method},
	}))
}
