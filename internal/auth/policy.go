package auth

import (
	"net/http"
	"strings"
)

// Policy decides which requests skip JWT auth and which use API-key auth
// instead. Everything else requires a valid bearer token.
type Policy struct {
	ExemptPaths    map[string]struct{}
	APIKeyPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds the default policy with exemptions.
func NewDefaultPolicy(exemptPaths, apiKeyPaths, exemptPrefixes []string) Policy {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		exempt[path] = struct{}{}
	}
	apiKey := make(map[string]struct{}, len(apiKeyPaths))
	for _, path := range apiKeyPaths {
		apiKey[path] = struct{}{}
	}
	return Policy{ExemptPaths: exempt, APIKeyPaths: apiKey, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth entirely.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// IsAPIKeyPath returns true when a request authenticates with an API key.
func (p Policy) IsAPIKeyPath(r *http.Request) bool {
	if r == nil {
		return false
	}
	_, ok := p.APIKeyPaths[r.URL.Path]
	return ok && r.Method == http.MethodPost
}
