package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoopDungeons/internal/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	addr := flag.String("addr", cfg.Addr, "address to listen on (e.g., 127.0.0.1:8080)")
	logLevel := flag.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	logFormat := flag.String("log-format", cfg.LogFormat, "console or json")
	tuningPath := flag.String("tuning", cfg.TuningFile, "path to timing/reward tuning JSON")
	dungeonsPath := flag.String("dungeons", cfg.DungeonsFile, "path to extra dungeon definitions JSON")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP trace endpoint (empty disables tracing)")
	zoneCols := flag.Int("zone-cols", cfg.ZoneCols, "zone grid columns")
	zoneRows := flag.Int("zone-rows", cfg.ZoneRows, "zone grid rows")
	enterDelay := flag.Float64("enter-delay", math.NaN(), "override seconds between accepting entry and teleport")
	emptyGrace := flag.Float64("empty-grace", math.NaN(), "override seconds an empty instance is kept")
	joinGrace := flag.Float64("join-grace", math.NaN(), "override seconds an unentered instance is kept")
	channelDuration := flag.Float64("channel", math.NaN(), "override portal channel seconds")
	portalRadius := flag.Float64("portal-radius", math.NaN(), "override portal interaction radius")
	rewardBase := flag.Int("reward-base", -1, "override base completion reward")
	rewardPerRoom := flag.Int("reward-per-room", -1, "override reward per completed room")
	rewardPerBoss := flag.Int("reward-per-boss", -1, "override reward per defeated boss")
	flag.Parse()

	cfg.Addr = *addr
	cfg.LogLevel = *logLevel
	cfg.LogFormat = *logFormat
	cfg.TuningFile = *tuningPath
	cfg.DungeonsFile = *dungeonsPath
	cfg.OtelEndpoint = *otelEndpoint
	cfg.ZoneCols = *zoneCols
	cfg.ZoneRows = *zoneRows

	var overrides server.TuningOverrides

	seconds := func(v float64) *time.Duration {
		d := time.Duration(v * float64(time.Second))
		return &d
	}
	if !math.IsNaN(*enterDelay) {
		overrides.EnterDelay = seconds(*enterDelay)
	}
	if !math.IsNaN(*emptyGrace) {
		overrides.EmptyGrace = seconds(*emptyGrace)
	}
	if !math.IsNaN(*joinGrace) {
		overrides.JoinGrace = seconds(*joinGrace)
	}
	if !math.IsNaN(*channelDuration) {
		overrides.ChannelDuration = seconds(*channelDuration)
	}
	if !math.IsNaN(*portalRadius) {
		val := *portalRadius
		overrides.PortalRadius = &val
	}
	if *rewardBase >= 0 {
		val := *rewardBase
		overrides.RewardBase = &val
	}
	if *rewardPerRoom >= 0 {
		val := *rewardPerRoom
		overrides.RewardPerRoom = &val
	}
	if *rewardPerBoss >= 0 {
		val := *rewardPerBoss
		overrides.RewardPerBoss = &val
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.StartApp(ctx, cfg, overrides); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
