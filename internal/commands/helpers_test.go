package commands

import (
	"fmt"
	"strings"
	"testing"
)

func TestEnhanceError_Unauthorized(t *testing.T) {
	err := enhanceError("test", fmt.Errorf("fetch workers: HTTP 401"))
	if !strings.Contains(err.Error(), "hint:") {
		t.Fatal("expected hint for HTTP 401")
	}
	if !strings.Contains(err.Error(), tokenEnvVar) {
		t.Fatalf("expected hint to mention %s", tokenEnvVar)
	}
}

func TestEnhanceError_Forbidden(t *testing.T) {
	err := enhanceError("test", fmt.Errorf("fetch pipelines[default]: HTTP 403"))
	if !strings.Contains(err.Error(), "hint:") {
		t.Fatal("expected hint for HTTP 403")
	}
}

func TestEnhanceError_BudgetExceeded(t *testing.T) {
	err := enhanceError("test", fmt.Errorf("fetch routes[default]: api call budget exceeded"))
	if !strings.Contains(err.Error(), "--max-api-calls") {
		t.Fatal("expected hint to mention --max-api-calls")
	}
}

func TestEnhanceError_ConnectionRefused(t *testing.T) {
	err := enhanceError("test", fmt.Errorf("dial tcp 10.0.0.1:9000: connection refused"))
	if !strings.Contains(err.Error(), "hint:") {
		t.Fatal("expected hint for connection refused")
	}
}

func TestEnhanceError_GenericError(t *testing.T) {
	err := enhanceError("do something", fmt.Errorf("random error"))
	if strings.Contains(err.Error(), "hint:") {
		t.Fatal("expected no hint for generic error")
	}
	if !strings.Contains(err.Error(), "do something") {
		t.Fatal("expected action in error message")
	}
}

func TestComputeTargetHash(t *testing.T) {
	hash1 := computeTargetHash("https://leader.example.com:9000")
	hash2 := computeTargetHash("https://leader.example.com:9000/")
	hash3 := computeTargetHash("https://other.example.com:9000")

	if hash1 != hash2 {
		t.Fatal("trailing slash should not change the hash")
	}
	if hash1 == hash3 {
		t.Fatal("different URLs should produce different hashes")
	}
	if !strings.HasPrefix(hash1, "sha256:") {
		t.Fatalf("expected sha256: prefix, got %s", hash1)
	}
}
