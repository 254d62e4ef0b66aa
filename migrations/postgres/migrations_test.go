package migrations

import (
	"testing"
)

func TestAuditMigrationDiscovered(t *testing.T) {
	ms := Migrations.Sorted()
	if len(ms) == 0 {
		t.Fatal("no migrations discovered from embedded SQL")
	}

	found := false
	for _, m := range ms {
		if m.Name == "20250101000000" {
			found = true
		}
	}
	if !found {
		t.Fatalf("audit schema migration missing, got %v", ms)
	}
}
