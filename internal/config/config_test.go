package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VALIDATION_FAILURE_POLICY", "")
	t.Setenv("DAY_CUTOFF_TIME", "21:00")
	t.Setenv("SCHEDULER_MAX_ATTEMPTS", "not-a-number")

	// empty policy is not a valid value
	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty policy")
	}

	t.Setenv("VALIDATION_FAILURE_POLICY", "Strict")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ValidationFailurePolicy != PolicyStrict {
		t.Fatalf("policy=%q", cfg.ValidationFailurePolicy)
	}
	if cfg.DayCutoffTime != "21:00" {
		t.Fatalf("cutoff=%q", cfg.DayCutoffTime)
	}
	if cfg.SchedulerMaxAttempts != 3 {
		t.Fatalf("attempts=%d", cfg.SchedulerMaxAttempts)
	}
	if cfg.DayStartTime != "07:00" || cfg.LunchStartTime != "12:00" || cfg.LunchEndTime != "13:00" {
		t.Fatalf("unexpected day bounds: %+v", cfg)
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("IMAP_HOST", "  "); err == nil {
		t.Fatal("expected missing var error")
	}
	if err := cfg.Require("IMAP_HOST", "mail.example.edu"); err != nil {
		t.Fatal(err)
	}
}
