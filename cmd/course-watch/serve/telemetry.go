package serve

import (
	"context"
	"fmt"
	"math"
	"time"

	"calmh.dev/course-watch/internal/geo"
	nmea "github.com/adrianmo/go-nmea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const knotsToMS = 1852.0 / 3600

var (
	positionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "telemetry",
		Name:      "gps_position",
	}, []string{"axis"})
	speedOverGround = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "telemetry",
		Name:      "speed_over_ground_mps",
	})
	courseOverGround = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "telemetry",
		Name:      "course_over_ground_deg",
	})
	headingTrueGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "telemetry",
		Name:      "heading_true_deg",
	})
	windAngleTrue = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "telemetry",
		Name:      "true_wind_angle_deg",
	})
	snapshotsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "telemetry",
		Name:      "snapshots_pushed_total",
	})
	snapshotsReplaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "telemetry",
		Name:      "snapshots_replaced_total",
	})
)

// vesselState is the latest known state of our own vessel, assembled from
// incoming sentences. Angles are radians, speed m/s. Nil means not seen
// recently enough to trust.
type vesselState struct {
	position    *geo.Point
	sog         *float64
	cogTrue     *float64
	headingTrue *float64
	windAngle   *float64
	variation   float64 // radians, zero when unknown
	when        time.Time
}

// telemetryCollector folds the NMEA stream into vessel state snapshots and
// pushes one to the navigator per position fix. The snapshot channel has
// latest-wins semantics: a fresh snapshot replaces an unconsumed one rather
// than queueing behind it.
type telemetryCollector struct {
	c         <-chan string
	snapshots chan vesselState
}

func (t *telemetryCollector) String() string {
	return fmt.Sprintf("telemetry-collector@%p", t)
}

func (t *telemetryCollector) Serve(ctx context.Context) error {
	// Instruments older than this no longer contribute to snapshots.
	const instrumentRetention = time.Minute

	var state vesselState
	var sogWhen, cogWhen, hdtWhen, windWhen time.Time

	for {
		select {
		case line := <-t.c:
			sent, err := nmea.Parse(line)
			if err != nil {
				continue
			}

			now := time.Now()

			switch sent.DataType() {
			case nmea.TypeRMC:
				rmc := sent.(nmea.RMC)
				if rmc.Validity != "A" {
					continue
				}
				state.position = &geo.Point{Lat: rmc.Latitude, Lon: rmc.Longitude}
				sog := rmc.Speed * knotsToMS
				cog := rmc.Course * math.Pi / 180
				state.sog, sogWhen = &sog, now
				state.cogTrue, cogWhen = &cog, now
				state.variation = rmc.Variation * math.Pi / 180
				state.when = time.Date(rmc.Date.YY+2000, time.Month(rmc.Date.MM), rmc.Date.DD,
					rmc.Time.Hour, rmc.Time.Minute, rmc.Time.Second, rmc.Time.Millisecond*int(time.Millisecond), time.UTC)

				positionGauge.WithLabelValues("lat").Set(rmc.Latitude)
				positionGauge.WithLabelValues("lon").Set(rmc.Longitude)
				speedOverGround.Set(sog)
				courseOverGround.Set(rmc.Course)

				t.push(expire(state, now, instrumentRetention, sogWhen, cogWhen, hdtWhen, windWhen))

			case nmea.TypeHDT:
				hdt := sent.(nmea.HDT)
				hdg := hdt.Heading * math.Pi / 180
				state.headingTrue, hdtWhen = &hdg, now
				headingTrueGauge.Set(hdt.Heading)

			case nmea.TypeMWV:
				mwv := sent.(nmea.MWV)
				if mwv.Reference != "T" || !mwv.StatusValid {
					continue
				}
				angle := mwv.WindAngle * math.Pi / 180
				state.windAngle, windWhen = &angle, now
				windAngleTrue.Set(mwv.WindAngle)
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// expire clears out instruments that have not been refreshed within the
// retention window, so a dead sensor degrades the affected outputs instead
// of freezing them.
func expire(state vesselState, now time.Time, retention time.Duration, sogWhen, cogWhen, hdtWhen, windWhen time.Time) vesselState {
	if now.Sub(sogWhen) > retention {
		state.sog = nil
	}
	if now.Sub(cogWhen) > retention {
		state.cogTrue = nil
	}
	if now.Sub(hdtWhen) > retention {
		state.headingTrue = nil
	}
	if now.Sub(windWhen) > retention {
		state.windAngle = nil
	}
	return state
}

// push delivers a snapshot with latest-wins semantics.
func (t *telemetryCollector) push(state vesselState) {
	for {
		select {
		case t.snapshots <- state:
			snapshotsPushed.Inc()
			return
		default:
			select {
			case <-t.snapshots:
				snapshotsReplaced.Inc()
			default:
			}
		}
	}
}
