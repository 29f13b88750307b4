package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/techsynergy/campus-backend/internal/response"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// parseDateTime joins a form date and clock in local time. An empty clock
// falls back to def.
func parseDateTime(date, clock, def string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = def
	}
	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, strings.TrimSpace(date)+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q %q: %w", date, clock, err)
	}
	return t, nil
}

// clampPage normalizes page and perPage (default 10, max 100).
func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func buildPagination(page, perPage, total int) *response.Pagination {
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}
