package commands

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// enhanceError wraps an error with context and suggestions for common API issues.
func enhanceError(action string, err error) error {
	msg := err.Error()

	var hint string
	switch {
	case strings.Contains(msg, "HTTP 401") || strings.Contains(msg, "Unauthorized"):
		hint = "Authentication failed. Check the token in --token or " + tokenEnvVar
	case strings.Contains(msg, "HTTP 403"):
		hint = "Token lacks permissions. The token needs read access to system, workers, pipelines, and routes"
	case strings.Contains(msg, "HTTP 429"):
		hint = "API rate limit hit despite backoff. Lower --rate or retry later"
	case strings.Contains(msg, "api call budget exceeded"):
		hint = "The run hit its API call budget. Raise --max-api-calls or select fewer --analyzers"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		hint = "Cannot reach the deployment. Check --url and that the API port (usually 9000) is open"
	case strings.Contains(msg, "x509"):
		hint = "TLS verification failed. Check the certificate on the leader or use the https URL the UI uses"
	}

	if hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// computeTargetHash generates a SHA256 hash for the target URL so reports
// can be correlated without storing the URL itself.
func computeTargetHash(baseURL string) string {
	h := sha256.Sum256([]byte(strings.TrimRight(baseURL, "/")))
	return fmt.Sprintf("sha256:%x", h)
}
