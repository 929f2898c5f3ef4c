package serve

import (
	"context"
	"fmt"
	"time"

	"calmh.dev/course-watch/internal/geo"
	"calmh.dev/course-watch/internal/watch"
	ais "github.com/BertoldVdb/go-ais"
	nmea "github.com/adrianmo/go-nmea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/exp/slog"
)

var (
	guardContacts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "guard",
		Name:      "contacts",
	})
	guardNearestDistance = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "guard",
		Name:      "nearest_contact_m",
	})
)

// guardZone watches AIS traffic around our own position and raises range
// events when the nearest contact enters or leaves the guard radius.
type guardZone struct {
	logger  *slog.Logger
	c       <-chan string
	radius  float64
	watcher *watch.Watcher
}

type contact struct {
	position geo.Point
	seen     time.Time
}

func newGuardZone(logger *slog.Logger, c <-chan string, radius float64, sampleSize int) *guardZone {
	return &guardZone{
		logger:  logger.With("module", "guard"),
		c:       c,
		radius:  radius,
		watcher: watch.New(0, radius, sampleSize),
	}
}

func (g *guardZone) String() string {
	return fmt.Sprintf("guard-zone@%p", g)
}

func (g *guardZone) Serve(ctx context.Context) error {
	const contactRetention = 5 * time.Minute

	var own *geo.Point
	contacts := make(map[uint32]contact)
	dec := ais.CodecNew(false, false)

	for {
		select {
		case line := <-g.c:
			sentence, err := nmea.Parse(line)
			if err != nil {
				continue
			}

			switch sent := sentence.(type) {
			case nmea.RMC:
				if sent.Validity != "A" {
					continue
				}
				own = &geo.Point{Lat: sent.Latitude, Lon: sent.Longitude}

			case nmea.VDMVDO:
				if sent.NumFragments > 1 {
					continue
				}
				pkt := dec.DecodePacket(sent.Payload)
				if pkt == nil {
					continue
				}

				hdr := pkt.GetHeader()
				pos, ok := contactPosition(pkt)
				if !ok {
					continue
				}
				contacts[hdr.UserID] = contact{position: pos, seen: time.Now()}
			}

			for id, c := range contacts {
				if time.Since(c.seen) > contactRetention {
					delete(contacts, id)
				}
			}
			guardContacts.Set(float64(len(contacts)))

			if own == nil || len(contacts) == 0 {
				continue
			}

			nearest := -1.0
			for _, c := range contacts {
				d := geo.Distance(*own, c.position)
				if nearest < 0 || d < nearest {
					nearest = d
				}
			}
			guardNearestDistance.Set(nearest)

			if ev, ok := g.watcher.SetValue(nearest); ok {
				watchEvents.WithLabelValues("guard", ev.Type.String()).Inc()
				switch ev.Type {
				case watch.Enter:
					g.logger.Info("Contact inside guard zone", "distance", ev.Value, "radius", g.radius)
				case watch.Exit:
					g.logger.Info("Guard zone clear", "distance", ev.Value, "radius", g.radius)
				default:
					g.logger.Debug("Contact in guard zone", "distance", ev.Value)
				}
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// contactPosition extracts a usable position from a decoded AIS packet.
// Position reports carry 91/181 for unavailable coordinates.
func contactPosition(pkt ais.Packet) (geo.Point, bool) {
	var lat, lon float64
	switch t := pkt.(type) {
	case ais.PositionReport: // Class A, messages 1-3
		lat, lon = float64(t.Latitude), float64(t.Longitude)
	case ais.StandardClassBPositionReport: // message 18
		lat, lon = float64(t.Latitude), float64(t.Longitude)
	default:
		return geo.Point{}, false
	}
	if lat > 90 || lat < -90 || lon > 180 || lon < -180 {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}
