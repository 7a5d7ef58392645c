package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderSignature carries the hex HMAC-SHA256 of the raw body.
	HeaderSignature = "X-Signature"

	contextBodyKey  = "webhookBody"
	maxPayloadBytes = 1 << 20
)

// Sign computes the signature a sender puts in HeaderSignature.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureMiddleware rejects requests whose X-Signature does not match the
// body. An optional "sha256=" prefix is accepted. The verified body is kept on
// the context for the handler.
func SignatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "webhook signing is not configured"})
			return
		}

		signature := strings.TrimPrefix(strings.TrimSpace(c.GetHeader(HeaderSignature)), "sha256=")
		if signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
		if err != nil || len(body) > maxPayloadBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}

		expected := Sign(secret, body)
		if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Set(contextBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
