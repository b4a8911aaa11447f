package database

import "testing"

func TestMaintenanceDSN(t *testing.T) {
	tests := []struct {
		dsn   string
		admin string
		name  string
		ok    bool
	}{
		{
			dsn:   "postgres://app:secret@db:5432/tickethub?sslmode=disable",
			admin: "postgres://app:secret@db:5432/postgres?sslmode=disable",
			name:  "tickethub",
			ok:    true,
		},
		{dsn: "postgresql://localhost/events", admin: "postgresql://localhost/postgres", name: "events", ok: true},
		{dsn: "postgres://localhost/postgres"},
		{dsn: "postgres://localhost"},
		{dsn: "host=localhost user=app dbname=tickethub"},
	}

	for _, tt := range tests {
		admin, name, ok := maintenanceDSN(tt.dsn)
		if ok != tt.ok || admin != tt.admin || name != tt.name {
			t.Errorf("maintenanceDSN(%q) = %q, %q, %v", tt.dsn, admin, name, ok)
		}
	}
}
