package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taghsit/installment-engine/internal/config"
)

func TestSMSGatewaySend(t *testing.T) {
	var received smsPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gateway := NewSMSGateway(config.SMSConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Sender:   "3000",
		Timeout:  2 * time.Second,
	})

	err := gateway.Send(context.Background(), "09121234567", "قسط شما سررسید شده است")
	require.NoError(t, err)
	assert.Equal(t, "3000", received.Sender)
	assert.Equal(t, "09121234567", received.Receptor)
	assert.Equal(t, "قسط شما سررسید شده است", received.Message)
}

func TestSMSGatewaySendFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gateway := NewSMSGateway(config.SMSConfig{Endpoint: server.URL, Timeout: 2 * time.Second})

	err := gateway.Send(context.Background(), "09121234567", "test")
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, Nop{}, FromConfig(config.SMSConfig{Enabled: false}))
	assert.IsType(t, &SMSGateway{}, FromConfig(config.SMSConfig{Enabled: true, Endpoint: "http://sms.local"}))
}
