package http

import (
	"github.com/nats-io/nats.go"

	"github.com/alandyousif/safar/internal/adapters/postgres"
	"github.com/alandyousif/safar/internal/adapters/valkey"
	"github.com/alandyousif/safar/internal/core/ports"
	"github.com/alandyousif/safar/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Coordinator *usecases.PlanCoordinator
	Plans       ports.PlanRepository
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
