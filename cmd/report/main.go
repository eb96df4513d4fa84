// Command report prints the monthly KPI summary and the period tables of one
// segment to the terminal, using the same config as the server.
//
//	report -nationality filipina -location outside_uae -active
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/warp/quota-tracker/config"
	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/generic/store"
	"github.com/warp/quota-tracker/render"
	"github.com/warp/quota-tracker/tracker"
)

func main() {
	configPath := flag.String("config", "tracker.yaml", "YAML config path")
	nationality := flag.String("nationality", "", "nationality category (default from config)")
	location := flag.String("location", "", "location category (default from config)")
	active := flag.Bool("active", false, "consider active visas only")
	asOf := flag.String("today", "", "evaluate as of YYYY-MM-DD instead of today")
	granularity := flag.String("granularity", "", "print only this granularity (M, W or D)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Log.NewLogger(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opened, err := cfg.Source.Open(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open data source")
	}
	defer opened.Close()

	service := tracker.NewService(store.NewCache(opened.Source, cfg.Cache.TTL.Duration, store.WithLogger(log)), cfg.Rules())
	if *asOf != "" {
		day, ok := generic.ParseEventDate(*asOf)
		if !ok {
			log.Fatal().Str("today", *asOf).Msg("invalid -today")
		}
		service.Now = func() time.Time { return day }
	}

	seg, err := service.Resolve(ctx, generic.Segment{Nationality: *nationality, Location: *location, ActiveOnly: *active})
	if err != nil {
		log.Fatal().Err(err).Msg("no segment")
	}
	d, err := service.Dashboard(ctx, seg)
	if err != nil {
		log.Fatal().Err(err).Str("segment", seg.String()).Msg("failed to build dashboard")
	}

	fmt.Printf("Segment: %s\n\n", seg)
	fmt.Println(render.SummaryTable(d))
	fmt.Println()
	for _, c := range d.Charts {
		if *granularity != "" {
			g, err := generic.ParseGranularity(*granularity)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid -granularity")
			}
			if g != c.Granularity {
				continue
			}
		}
		fmt.Println(render.ChartTable(c))
	}
}
