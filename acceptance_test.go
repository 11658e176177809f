package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func call(t *testing.T, client *http.Client, method, url, token string, body interface{}) (int, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, url, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// TestServerAcceptance drives a real HTTP server from sign-up to a placed order
func TestServerAcceptance(t *testing.T) {
	server := httptest.NewServer(setupRouter(t))
	defer server.Close()
	client := server.Client()
	api := server.URL + "/api/v1"

	type session struct {
		User struct {
			ID   uint   `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}

	status, env := call(t, client, http.MethodPost, api+"/register", "", map[string]string{"username": "owner", "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)
	var admin session
	require.NoError(t, json.Unmarshal(env.Data, &admin))
	assert.Equal(t, "admin", admin.User.Role)

	status, env = call(t, client, http.MethodPost, api+"/register", "", map[string]string{"username": "customer", "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)
	var buyer session
	require.NoError(t, json.Unmarshal(env.Data, &buyer))
	assert.Equal(t, "buyer", buyer.User.Role)

	status, env = call(t, client, http.MethodPost, api+"/products", buyer.Token.AccessToken, map[string]interface{}{
		"name": "Dragon", "price_options": []map[string]interface{}{{"size": "10cm", "price": 1000}},
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, client, http.MethodPost, api+"/products", admin.Token.AccessToken, map[string]interface{}{
		"name": "Dragon", "price_options": []map[string]interface{}{{"size": "10cm", "price": 1000}},
	})
	require.Equal(t, http.StatusCreated, status)
	var product struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))

	status, env = call(t, client, http.MethodPost, api+"/orders", buyer.Token.AccessToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": product.ID, "size": "10cm", "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, status)
	var order struct {
		ID         uint   `json:"id"`
		Status     string `json:"status"`
		TotalPrice int64  `json:"total_price"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, int64(3000), order.TotalPrice)

	status, env = call(t, client, http.MethodPut, fmt.Sprintf("%s/orders/%d", api, order.ID), admin.Token.AccessToken,
		map[string]interface{}{"status": "accepted"})
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, client, http.MethodGet, api+"/notifications", buyer.Token.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "latest_order_update_at")

	status, env = call(t, client, http.MethodGet, api+"/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}
