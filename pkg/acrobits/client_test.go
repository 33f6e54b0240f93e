package acrobits

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipbits/internal/errors"
)

func TestNotify(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)
	err := c.Notify(context.Background(), "com.example.app", "device-token-1", "sel-1", "5550001111", "hello there")
	require.NoError(t, err)

	assert.Equal(t, "NotifyTextMessage", got["verb"])
	assert.Equal(t, "sel-1", got["Selector"])
	assert.Equal(t, "1", got["Badge"])
	assert.Equal(t, "5550001111", got["UserName"])
	assert.Equal(t, "hello there", got["Message"])
	assert.Equal(t, "com.example.app", got["AppId"])
	assert.Equal(t, "device-token-1", got["DeviceToken"])
}

func TestNotify_GatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)
	err := c.Notify(context.Background(), "com.example.app", "dead-token", "sel-1", "5550001111", "hello")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePushGateway, errors.GetCode(err))
}

func TestNotify_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil, nil)
	err := c.Notify(context.Background(), "com.example.app", "token", "sel", "from", "msg")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePushGateway, errors.GetCode(err))
}

func TestNotify_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(server.URL, nil, nil)
	err := c.Notify(ctx, "com.example.app", "token", "sel", "from", "msg")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.GetCode(err))
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", nil, nil).(*client)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
