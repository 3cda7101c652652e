package main

import (
	"github.com/rs/zerolog/log"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/config"
)

func buildEvaluator(c *config.Config) (*advisor.Evaluator, error) {
	return advisor.FromConfig(c, log.Logger)
}
