// Command replay publishes a recorded track to the position feed of one
// session, standing in for a phone's location provider during field tests.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/geoquest/internal/adapters/nats"
	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/pkg/config"
	"github.com/samirrijal/geoquest/internal/pkg/logging"
)

func main() {
	sessionID := flag.String("session", "", "session id to feed")
	trackPath := flag.String("track", "", "path to a JSON array of {lat, lon}")
	interval := flag.Duration("interval", time.Second, "delay between samples")
	jitter := flag.Float64("jitter", 0, "random noise radius in meters")
	loop := flag.Bool("loop", false, "restart the track when it ends")
	flag.Parse()

	if *sessionID == "" || *trackPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("geoquest-replay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	f, err := os.Open(*trackPath)
	if err != nil {
		log.Fatalf("open track: %v", err)
	}
	track, err := LoadTrack(f)
	f.Close()
	if err != nil {
		log.Fatalf("%v", err)
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	slog.Info("replaying track", "session_id", *sessionID, "points", len(track), "interval", interval.String())

	for i := 0; ; {
		p := Jitter(track[i], *jitter, rnd)
		sample := &domain.PositionSample{SessionID: *sessionID, Lat: p.Lat, Lon: p.Lon, Time: time.Now().UTC()}
		if err := pub.PublishPosition(ctx, sample); err != nil {
			slog.Warn("publish failed", "index", i, "error", err)
		} else {
			slog.Debug("sample published", "index", i, "lat", p.Lat, "lon", p.Lon)
		}

		i++
		if i == len(track) {
			if !*loop {
				slog.Info("track finished")
				return
			}
			i = 0
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			slog.Info("replay interrupted")
			return
		}
	}
}
