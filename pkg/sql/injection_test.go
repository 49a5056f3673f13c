package sql

import (
	"testing"
)

func TestScanLiteralsForInjection_CleanLiterals(t *testing.T) {
	statements := []string{
		"SELECT name FROM airports WHERE city = 'Tunis' LIMIT 5",
		"SELECT name FROM airports WHERE name LIKE '%tn%' LIMIT 5",
		"SELECT * FROM flights WHERE flight_date = '2024-01-01' LIMIT 5",
		"SELECT 'Tunis-Carthage International' AS label LIMIT 1",
	}
	for _, stmt := range statements {
		if errs := scanLiteralsForInjection(stmt); len(errs) != 0 {
			t.Errorf("clean literal flagged in %q: %+v", stmt, errs)
		}
	}
}

func TestScanLiteralsForInjection_SmuggledPayloads(t *testing.T) {
	statements := []string{
		"SELECT name FROM airports WHERE city = '1 UNION SELECT password FROM users' LIMIT 5",
		`SELECT name FROM airports WHERE city = 'x" OR "1"="1' LIMIT 5`,
	}
	for _, stmt := range statements {
		errs := scanLiteralsForInjection(stmt)
		if len(errs) == 0 {
			t.Errorf("payload not flagged in %q", stmt)
			continue
		}
		for _, e := range errs {
			if e.Kind != ErrorKindSecurity || e.Severity != SeverityCritical {
				t.Errorf("injection errors are critical security, got %+v", e)
			}
		}
	}
}

func TestValidate_InjectionInLiteralBlocks(t *testing.T) {
	result := Validate("SELECT name FROM airports WHERE city = '1 UNION SELECT password FROM users' LIMIT 5")
	if result.Valid {
		t.Fatal("statement with injected literal must be invalid")
	}
	if !result.HasSecurityError() {
		t.Errorf("expected security error, got %+v", result.Errors)
	}
}
