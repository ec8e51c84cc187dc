package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_stored_documents",
		SQL: `CREATE TABLE IF NOT EXISTS stored_documents (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  created_by     TEXT        NOT NULL,
  classification TEXT        NOT NULL CHECK (classification IN ('PUBLIC', 'PRIVATE', 'RESTRICTED')),
  roles          JSONB       NOT NULL DEFAULT '[]',
  deleted        BOOLEAN     NOT NULL DEFAULT FALSE,
  deleted_at     TIMESTAMPTZ,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_content_versions",
		SQL: `CREATE TABLE IF NOT EXISTS content_versions (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id       UUID        NOT NULL REFERENCES stored_documents (id),
  seq               BIGSERIAL,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  mime_type         TEXT        NOT NULL,
  original_filename TEXT        NOT NULL,
  content_uri       TEXT,
  content_checksum  TEXT,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK ((content_uri IS NULL) = (content_checksum IS NULL))
);`,
	},
	{
		Name: "create_index_content_versions_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_content_versions_document_id ON content_versions (document_id, seq);`,
	},
	{
		Name: "create_table_case_document_links",
		SQL: `CREATE TABLE IF NOT EXISTS case_document_links (
  case_ref    TEXT        NOT NULL,
  document_id UUID        NOT NULL REFERENCES stored_documents (id),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (case_ref, document_id)
);`,
	},
	{
		Name: "create_index_case_document_links_case_ref",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_case_document_links_case_ref ON case_document_links (case_ref);`,
	},
	{
		Name: "create_table_audit_entries",
		SQL: `CREATE TABLE IF NOT EXISTS audit_entries (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  action       TEXT        NOT NULL,
  document_id  UUID        NOT NULL,
  version_id   UUID,
  performed_by TEXT        NOT NULL,
  recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_audit_entries_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_entries_document_id ON audit_entries (document_id);`,
	},
}

// EnsureMigrated checks if the 'stored_documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.stored_documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
