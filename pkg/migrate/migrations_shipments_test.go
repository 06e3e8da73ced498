package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmrozas/pharmaflow-backend/pkg/migrate"
)

func TestShipmentMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_shipments.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no shipment migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS shipments",
		"CONSTRAINT shipments_shipment_number_key UNIQUE (shipment_number)",
		"CREATE TABLE IF NOT EXISTS shipment_items",
		"FOREIGN KEY (shipment_id) REFERENCES shipments(id) ON DELETE CASCADE",
		"CHECK (picked_quantity >= 0 AND picked_quantity <= quantity)",
		"CHECK (packed_quantity >= 0 AND packed_quantity <= picked_quantity)",
		"reservation_state TEXT NOT NULL DEFAULT 'none'",
		"DROP TABLE IF EXISTS shipment_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestNumberSequenceMigrationUsesCompositeKey(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_number_sequences.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no number sequence migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS number_sequences",
		"PRIMARY KEY (entity, year)",
		"DROP TABLE IF EXISTS number_sequences",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAllMigrationsValidate(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}
