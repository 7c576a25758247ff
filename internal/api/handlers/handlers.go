package handlers

import (
	"casematch-lab/internal/config"
	"casematch-lab/internal/domain/services"
	"casematch-lab/internal/infrastructure/cache"
	"casematch-lab/internal/streaming"
	"casematch-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health *HealthHandler
	Cases  *CasesHandler
	Match  *MatchHandler
	Stats  *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Store    *services.CaseStore
	Matcher  *services.CaseMatcher
	Config   *config.Config
	Cache    *cache.RedisCache
	EventBus *streaming.EventBus
	NATS     *streaming.NATSPublisher
	Logger   *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Cache, deps.NATS, deps.Config.App.Version, deps.Logger),
		Cases:  NewCasesHandler(deps.Store, deps.Config.Matching, deps.EventBus, deps.Logger),
		Match:  NewMatchHandler(deps.Matcher, deps.Cache, deps.Config.Matching, deps.EventBus, deps.Logger),
		Stats:  NewStatsHandler(deps.Store, deps.Matcher, deps.EventBus, deps.Logger),
	}
}
