package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("PDF_CONVERT_CONCURRENCY")
	cfg := Load()
	if cfg.ConvertConcurrency != 2 {
		t.Fatalf("expected default concurrency 2, got %d", cfg.ConvertConcurrency)
	}
	if cfg.ConvertTimeout().Seconds() != 60 {
		t.Fatalf("expected 60s timeout, got %v", cfg.ConvertTimeout())
	}
}

func TestClampedConcurrency(t *testing.T) {
	t.Setenv("PDF_CONVERT_CONCURRENCY", "99")
	cfg := Load()
	if cfg.ConvertConcurrency != 16 {
		t.Fatalf("expected clamp to 16, got %d", cfg.ConvertConcurrency)
	}
}

func TestPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "permissions.yaml")
	doc := `groups:
  admin:
    - name: Nourhan
      slack_user_id: U100
      active: true
    - name: Retired
      slack_user_id: U101
      active: false
  heads_of_sales:
    - name: Jason
      slack_user_id: U200
      active: true
permissions:
  manage_locations:
    - heads_of_sales
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPermissions(path)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsAdmin("U100") {
		t.Fatal("active admin not recognized")
	}
	if p.IsAdmin("U101") {
		t.Fatal("inactive admin should be denied")
	}
	if !p.CanManageLocations("U200") {
		t.Fatal("granted group member should manage locations")
	}
	if p.CanManageLocations("U999") {
		t.Fatal("unknown user should be denied")
	}
}

func TestPermissionsMissingFile(t *testing.T) {
	p, err := LoadPermissions(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if p.IsAdmin("U1") {
		t.Fatal("empty permission set should deny")
	}
}
