package repository

import (
	"strings"
	"testing"
	"time"
)

func TestBuildReservationFilterEmpty(t *testing.T) {
	cond, args := buildReservationFilter(ReservationFilter{})
	if cond != "1=1" {
		t.Fatalf("cond = %q, want 1=1", cond)
	}
	if len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
}

func TestBuildReservationFilterCombines(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	cond, args := buildReservationFilter(ReservationFilter{
		Code:     "AbC",
		Status:   "confirmed",
		UserID:   7,
		TripID:   3,
		From:     &from,
		To:       &to,
		Upcoming: true,
	})

	wantClauses := []string{
		"LOWER(r.code) LIKE ?",
		"r.status = ?",
		"r.user_id = ?",
		"r.trip_id = ?",
		"r.reserved_at >= ?",
		"r.reserved_at <= ?",
		"t.departs_at > UTC_TIMESTAMP()",
	}
	for _, c := range wantClauses {
		if !strings.Contains(cond, c) {
			t.Errorf("cond missing clause %q: %s", c, cond)
		}
	}
	if got := strings.Count(cond, " AND "); got != len(wantClauses)-1 {
		t.Fatalf("clauses joined with %d ANDs, want %d", got, len(wantClauses)-1)
	}
	if len(args) != 6 {
		t.Fatalf("args = %d, want 6 (upcoming binds nothing)", len(args))
	}
	if args[0] != "%abc%" {
		t.Fatalf("code arg = %v, want lowercased substring pattern", args[0])
	}
	if args[1] != "CONFIRMED" {
		t.Fatalf("status arg = %v, want upper-cased", args[1])
	}
}

func TestBuildReservationFilterSingle(t *testing.T) {
	cond, args := buildReservationFilter(ReservationFilter{UserID: 42})
	if cond != "r.user_id = ?" {
		t.Fatalf("cond = %q", cond)
	}
	if len(args) != 1 || args[0] != uint64(42) {
		t.Fatalf("args = %v", args)
	}
}
