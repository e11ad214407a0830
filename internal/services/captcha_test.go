package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecaptchaVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "shh", r.PostForm.Get("secret"))
		assert.Equal(t, "10.0.0.1", r.PostForm.Get("remoteip"))

		resp := siteverifyResponse{Success: r.PostForm.Get("response") == "good"}
		if !resp.Success {
			resp.ErrorCodes = []string{"invalid-input-response"}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	v := NewRecaptchaVerifier("shh")
	v.Endpoint = srv.URL
	ctx := context.Background()

	assert.NoError(t, v.Verify(ctx, "good", "10.0.0.1"))

	err := v.Verify(ctx, "bad", "10.0.0.1")
	assert.ErrorIs(t, err, ErrCaptchaFailed)
	assert.Contains(t, err.Error(), "invalid-input-response")

	assert.ErrorIs(t, v.Verify(ctx, "  ", "10.0.0.1"), ErrCaptchaFailed)
}

func TestRecaptchaVerifierUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v := NewRecaptchaVerifier("shh")
	v.Endpoint = srv.URL

	err := v.Verify(context.Background(), "good", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCaptchaFailed)
}
