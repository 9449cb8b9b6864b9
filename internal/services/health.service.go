package services

import (
	"context"

	"github.com/shivamprakash2909/loan-app/pkg/pg"
)

type HealthService struct {
	db *pg.DB
}

func NewHealthService(db *pg.DB) *HealthService {
	return &HealthService{db: db}
}

// Get reports whether the service can reach its database. Anything
// beyond a round trip on the read connection is out of scope here.
func (s *HealthService) Get() error {
	if s.db == nil {
		return nil
	}
	return s.db.Read(context.Background()).Exec("SELECT 1").Error
}
