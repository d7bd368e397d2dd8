package postgres

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorIsMonotonic(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	prev := g.Generate()
	for i := 0; i < 100; i++ {
		next := g.Generate()
		if next <= prev {
			t.Fatalf("expected %s to sort after %s", next, prev)
		}
		prev = next
	}

	id, err := ulid.Parse(prev)
	if err != nil {
		t.Fatalf("generated id does not parse: %v", err)
	}
	if ulid.Time(id.Time()).UnixMilli() != fixed.UnixMilli() {
		t.Fatalf("unexpected timestamp in id %s", prev)
	}
}
