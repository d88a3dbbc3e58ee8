package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/eidosai/eidos/utils/config"
)

// SignatureHeader carries the HMAC-SHA256 of a webhook body
const SignatureHeader = "X-Hub-Signature-256"

// SignPayload returns the X-Hub-Signature-256 value for body
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature. An empty secret disables the check.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(SignPayload(secret, body)))
}

func checkAuth(serverConfig *config.ServerConfig, w http.ResponseWriter, r *http.Request) bool {
	if serverConfig.BearerToken == "" {
		config.DebugLog("Auth check skipped: no bearer token configured")
		return true
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		config.VerboseLog("Missing Authorization header")
		writeError(w, http.StatusUnauthorized, "Authorization header required")
		return false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		config.DebugLog("Auth failed: malformed Authorization header: %s", maskToken(authHeader))
		writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
		return false
	}

	if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(serverConfig.BearerToken)) != 1 {
		config.VerboseLog("Invalid bearer token")
		writeError(w, http.StatusUnauthorized, "Invalid bearer token")
		return false
	}

	config.DebugLog("Auth successful: valid bearer token")
	return true
}
