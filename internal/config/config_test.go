package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	// Force the hermetic defaults even when the test environment has these set.
	t.Setenv("API_ADDR", "")
	t.Setenv("INKWELL_ADMIN_TOKEN", "")
	t.Setenv("MINIO_BUCKET", "")

	cfg := Load()

	if cfg.Addr != ":8686" {
		t.Errorf("Addr = %q, want :8686", cfg.Addr)
	}
	// No baked-in credential: an unset token must leave writes disabled.
	if cfg.AdminToken != "" {
		t.Errorf("AdminToken should default to empty, got %q", cfg.AdminToken)
	}
	if cfg.MinioBucket != "inkwell-media" {
		t.Errorf("MinioBucket = %q, want inkwell-media", cfg.MinioBucket)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INKWELL_ADMIN_TOKEN", "s3cret")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()

	if cfg.AdminToken != "s3cret" {
		t.Errorf("AdminToken = %q, want s3cret", cfg.AdminToken)
	}
	if !cfg.MinioUseSSL {
		t.Error("MinioUseSSL should parse true")
	}
}

func TestGetenvBoolBadValueFallsBack(t *testing.T) {
	t.Setenv("MINIO_USE_SSL", "definitely")

	if cfg := Load(); cfg.MinioUseSSL {
		t.Error("unparseable bool should fall back to default false")
	}
}
