package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/digishelf/digishelf-backend/pkg/migrate"
)

func TestInitSchemaMigrationContainsLedgerConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CHECK (commission_cents + net_cents = gross_cents)",
		"CREATE UNIQUE INDEX ux_transactions_line_item ON transactions (line_item_id)",
		"CREATE UNIQUE INDEX ux_order_line_items_license_key",
		"WHERE license_key <> ''",
		"INSERT INTO platform_revenue (id) VALUES (1)",
		"CREATE UNIQUE INDEX ux_outbox_events_event_aggregate",
		"DROP TABLE IF EXISTS outbox_events",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirPassesOnShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
