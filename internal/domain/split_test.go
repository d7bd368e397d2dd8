package domain

import (
	"testing"
	"time"
)

func TestInstallmentAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount int64
		n      int
		want   int64
	}{
		{name: "even split", amount: 900, n: 3, want: -300},
		{name: "rounds magnitude up", amount: 1000, n: 3, want: -334},
		{name: "two installments", amount: 1001, n: 2, want: -501},
		{name: "negative amount rounds toward positive infinity", amount: -1000, n: 3, want: 333},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InstallmentAmount(tt.amount, tt.n); got != tt.want {
				t.Fatalf("InstallmentAmount(%d, %d) = %d, want %d", tt.amount, tt.n, got, tt.want)
			}
		})
	}
}

func TestInstallmentSurplusIsBounded(t *testing.T) {
	t.Parallel()

	for amount := int64(1); amount <= 500; amount++ {
		for n := 2; n <= 12; n++ {
			total := InstallmentAmount(amount, n) * int64(n)
			surplus := -total - amount
			if surplus < 0 || surplus > int64(n-1) {
				t.Fatalf("amount=%d n=%d: surplus %d outside [0, %d]", amount, n, surplus, n-1)
			}
		}
	}
}

func TestShareAmountsConserveValue(t *testing.T) {
	t.Parallel()

	self, other := ShareAmounts(1000, 300)
	if self != 300 || other != -1300 {
		t.Fatalf("expected 300/-1300, got %d/%d", self, other)
	}

	for _, amount := range []int64{-5000, -1, 0, 1, 1000, 123456} {
		for _, mine := range []int64{1, 7, 300, 99999} {
			s, o := ShareAmounts(amount, mine)
			if s+o != -amount {
				t.Fatalf("amount=%d mine=%d: %d + %d != %d", amount, mine, s, o, -amount)
			}
		}
	}
}

func TestOccurrencesMonthly(t *testing.T) {
	t.Parallel()

	start := NewDate(2024, time.January, 1)
	got := Occurrences(start, FrequencyMonthly, 4)
	want := []string{"2024/01/01", "2024/02/01", "2024/03/01", "2024/04/01"}

	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}

	if limit := SeriesLimit(start, FrequencyMonthly, 4); limit.String() != "2024/04/01" {
		t.Fatalf("expected limit 2024/04/01, got %s", limit)
	}
}

func TestOccurrencesWeeklyAndDaily(t *testing.T) {
	t.Parallel()

	start := NewDate(2024, time.February, 26)

	weekly := Occurrences(start, FrequencyWeekly, 2)
	if weekly[1].String() != "2024/03/04" {
		t.Fatalf("expected 2024/03/04, got %s", weekly[1])
	}

	daily := Occurrences(start, FrequencyDaily, 5)
	if daily[4].String() != "2024/03/01" {
		t.Fatalf("expected leap day to be crossed, got %s", daily[4])
	}
}

func TestBackfill(t *testing.T) {
	t.Parallel()

	start := NewDate(2024, time.January, 1)

	tests := []struct {
		name  string
		today Date
		want  []string
	}{
		{name: "start in the future", today: NewDate(2023, time.December, 1), want: nil},
		{name: "start is today", today: start, want: nil},
		{name: "one past occurrence", today: NewDate(2024, time.February, 15), want: []string{"2024/02/01"}},
		{name: "occurrence on today is included", today: NewDate(2024, time.March, 1), want: []string{"2024/02/01", "2024/03/01"}},
		{name: "runs past the series length", today: NewDate(2024, time.June, 15), want: []string{"2024/02/01", "2024/03/01", "2024/04/01", "2024/05/01", "2024/06/01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Backfill(start, FrequencyMonthly, tt.today)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i].String() != tt.want[i] {
					t.Fatalf("backfill %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBackfillStartLongBeforeToday(t *testing.T) {
	t.Parallel()

	got := Backfill(NewDate(2024, time.January, 10), FrequencyMonthly, NewDate(2024, time.June, 15))
	want := []string{"2024/02/10", "2024/03/10", "2024/04/10", "2024/05/10", "2024/06/10"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("backfill %d = %s, want %s", i, got[i], want[i])
		}
	}
}
