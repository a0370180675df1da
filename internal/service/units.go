package service

import (
	"context"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// ListUnits returns every unit ordered by code.
func (s *Service) ListUnits(ctx context.Context) ([]models.Unit, error) {
	return s.db.ListUnits(ctx)
}

// CreateUnit validates and stores a unit, returning its id.
func (s *Service) CreateUnit(ctx context.Context, unit models.Unit) (int64, error) {
	if err := s.validateStruct(unit); err != nil {
		return 0, err
	}

	return s.db.CreateUnit(ctx, &unit)
}

// UpdateUnit replaces the code and name of unit.ID.
func (s *Service) UpdateUnit(ctx context.Context, unit models.Unit) error {
	if err := s.validateStruct(unit); err != nil {
		return err
	}

	return s.db.UpdateUnit(ctx, &unit)
}

// DeleteUnit removes a unit without checking the letters routed to it.
func (s *Service) DeleteUnit(ctx context.Context, unitID int64) error {
	return s.db.DeleteUnit(ctx, unitID)
}
