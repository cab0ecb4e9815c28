package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		LLM:       LLMConfig{Model: "test-llm"},
		Embedding: EmbeddingConfig{Model: "test-embed"},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingModels(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing llm model")
	}

	cfg = validConfig()
	cfg.Embedding.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_IncompleteIndexSpec(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Indexes = []IndexSpec{{WhereFields: []string{"userId"}}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for index spec without order_field")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Database.QueryTimeoutSec != 5 {
		t.Errorf("expected QueryTimeoutSec=5, got %d", cfg.Database.QueryTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "spendex:" {
		t.Errorf("expected KeyPrefix='spendex:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected Provider='openai', got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.CacheTTLMin != 30 {
		t.Errorf("expected CacheTTLMin=30, got %d", cfg.Embedding.CacheTTLMin)
	}
	if cfg.LLM.MaxTokens != 512 {
		t.Errorf("expected MaxTokens=512, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.TimeoutSec != 30 {
		t.Errorf("expected LLM TimeoutSec=30, got %d", cfg.LLM.TimeoutSec)
	}
	if cfg.Embedding.TimeoutSec != 10 {
		t.Errorf("expected Embedding TimeoutSec=10, got %d", cfg.Embedding.TimeoutSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		Storage:   StorageConfig{KeyPrefix: "custom:"},
		Embedding: EmbeddingConfig{Provider: "nebius", CacheTTLMin: 60},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Embedding.Provider != "nebius" || cfg.Embedding.CacheTTLMin != 60 {
		t.Errorf("embedding overridden: %+v", cfg.Embedding)
	}
}
