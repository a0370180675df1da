package service

import (
	"context"
	"fmt"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name of month 1..12.
func MonthName(month int) string {
	if month < 1 || month > len(monthNames) {
		return ""
	}
	return monthNames[month-1]
}

// Stats gathers the dashboard aggregates for the current year.
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	year := s.now().Year()

	total, err := s.db.CountLetters(ctx)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/dashboard.go/Stats(): error while `s.db.CountLetters()` calling: %w", err)
	}

	thisYear, err := s.db.CountLettersOfYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/dashboard.go/Stats(): error while `s.db.CountLettersOfYear()` calling: %w", err)
	}

	perUnit, err := s.db.CountLettersPerUnit(ctx)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/dashboard.go/Stats(): error while `s.db.CountLettersPerUnit()` calling: %w", err)
	}

	perMonth, err := s.db.CountLettersPerMonth(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/dashboard.go/Stats(): error while `s.db.CountLettersPerMonth()` calling: %w", err)
	}
	for i := range perMonth {
		perMonth[i].MonthName = MonthName(perMonth[i].Month)
	}

	recent, err := s.db.RecentLetters(ctx, recentLettersLimit)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/dashboard.go/Stats(): error while `s.db.RecentLetters()` calling: %w", err)
	}

	return &models.DashboardStats{
		TotalLetters:    total,
		LettersThisYear: thisYear,
		PerUnit:         perUnit,
		PerMonth:        perMonth,
		Recent:          recent,
	}, nil
}
