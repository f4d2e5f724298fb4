package service

import (
	"github.com/fitslotdev/fitslot/internal/clock"
	"github.com/fitslotdev/fitslot/internal/domain"
	"github.com/fitslotdev/fitslot/internal/service/catalog"
	"github.com/fitslotdev/fitslot/internal/service/ledger"
)

type Services struct {
	Catalog *catalog.Service
	Ledger  *ledger.Service
}

type Config struct {
	Catalog catalog.Config
	Ledger  ledger.Config
}

// NewServices builds the catalog and the ledger from a loaded snapshot.
// The flush hook is installed separately once the snapshot writer is up.
func NewServices(snap domain.Snapshot, clk clock.Clock, cfg Config) (*Services, error) {
	cat, err := catalog.New(snap.Classes, clk, cfg.Catalog)
	if err != nil {
		return nil, err
	}

	led := ledger.New(snap.Bookings, cat, clk, cfg.Ledger)

	return &Services{
		Catalog: cat,
		Ledger:  led,
	}, nil
}

// SetFlush installs the same persistence hook on both services.
func (s *Services) SetFlush(fn func()) {
	s.Catalog.SetFlush(fn)
	s.Ledger.SetFlush(fn)
}
