package handlers

import (
	"fieldmetrics-dashboard/internal/aggregator"
	"fieldmetrics-dashboard/internal/config"
	"fieldmetrics-dashboard/internal/queue"
	"fieldmetrics-dashboard/internal/scoring"
	"fieldmetrics-dashboard/internal/storage"

	"go.uber.org/zap"
)

type Handler struct {
	Logger *zap.Logger
	Config config.Config
	Agg    *aggregator.Aggregator
	Scores scoring.Overrides
	Queue  *queue.Client
	Store  *storage.ObjectStore
}
