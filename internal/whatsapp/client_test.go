package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bda_portal_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type waCfg struct {
	url string
}

func (c waCfg) GetWhatsAppURL() string            { return c.url }
func (c waCfg) GetWhatsAppKey() string            { return "user:pass" }
func (c waCfg) GetWhatsAppDeviceID() string       { return "dev-1" }
func (c waCfg) GetWhatsAppRatePerSecond() float64 { return 0 }

func TestNewClientDisabledWithoutURL(t *testing.T) {
	c := NewClient(waCfg{}, "IN", logger.Nop())
	assert.False(t, c.Enabled())
	assert.NoError(t, c.SendMessage(context.Background(), "+16502530000", "hi"))
}

func TestSendMessageNormalizesAndAuthenticates(t *testing.T) {
	var got gowaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/message", r.URL.Path)
		assert.Equal(t, "Basic dXNlcjpwYXNz", r.Header.Get("Authorization"))
		assert.Equal(t, "dev-1", r.Header.Get("X-Device-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient(waCfg{url: srv.URL + "/"}, "US", logger.Nop())
	require.NoError(t, c.SendMessage(context.Background(), "+1 (650) 253-0000", "Hello"))

	assert.Equal(t, "16502530000", got.Phone)
	assert.Equal(t, "Hello", got.Message)
}

func TestSendMessageRejectsEmptyPhone(t *testing.T) {
	c := NewClient(waCfg{url: "http://unused"}, "IN", logger.Nop())
	assert.ErrorIs(t, c.SendMessage(context.Background(), "n/a", "Hello"), ErrInvalidPhone)
}

func TestSendMessageSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(waCfg{url: srv.URL}, "US", logger.Nop())
	err := c.SendMessage(context.Background(), "+16502530000", "Hello")
	assert.ErrorContains(t, err, "503")
	assert.ErrorContains(t, err, "device offline")
}
