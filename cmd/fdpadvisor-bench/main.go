package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/config"
	"github.com/straja-ai/fdpadvisor/internal/logging"
	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/scorefile"
)

func main() {
	cfgPath := flag.String("config", "", "path to config yaml (required)")
	n := flag.Int("n", 200, "number of iterations")
	scoresPath := flag.String("scores", "", "score file to evaluate (default: every item at 5)")
	flag.Parse()

	if *cfgPath == "" {
		log.Fatal().Msg("config flag is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	logger, err := logging.Init(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("init logging")
	}

	eval, err := advisor.FromConfig(cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("build evaluator")
	}
	defer eval.Adapter().Close()

	var v score.Vector
	if *scoresPath != "" {
		m, err := scorefile.ReadScores(*scoresPath)
		if err != nil {
			log.Fatal().Err(err).Msg("read scores")
		}
		v, err = score.New(eval.Table(), m)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid scores")
		}
	} else {
		v, err = score.Uniform(eval.Table(), 5)
		if err != nil {
			log.Fatal().Err(err).Msg("uniform scores")
		}
	}

	ctx := context.Background()

	// Warmup
	for i := 0; i < 5; i++ {
		if _, err := eval.Evaluate(ctx, v, 0); err != nil {
			log.Fatal().Err(err).Msg("warmup evaluate failed")
		}
	}

	if *n <= 0 {
		*n = 1
	}

	durations := make([]time.Duration, 0, *n)
	absent := 0
	for i := 0; i < *n; i++ {
		start := time.Now()
		resp, err := eval.Evaluate(ctx, v, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("evaluate failed")
		}
		durations = append(durations, time.Since(start))
		if resp.Prediction == nil {
			absent++
		}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.3f p50_ms=%.3f p95_ms=%.3f model_kind=%s classifier=%s prediction_absent=%d\n",
		len(durations),
		avg,
		p50,
		p95,
		cfg.Model.Kind,
		eval.Adapter().State(),
		absent,
	)
}
