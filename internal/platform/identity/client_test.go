package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "service-key", zerolog.Nop())
}

func TestCreateUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		var body createUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "lead@hospital.cl", body.Email)
		assert.Equal(t, "temp-pass", body.Password)
		assert.True(t, body.EmailConfirm)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"7c0e5b1e-0000-4000-8000-000000000001","email":"lead@hospital.cl"}`))
	})

	user, err := c.CreateUser(context.Background(), "lead@hospital.cl", "temp-pass")
	require.NoError(t, err)
	assert.Equal(t, "7c0e5b1e-0000-4000-8000-000000000001", user.ID)
	assert.Equal(t, "lead@hospital.cl", user.Email)
}

func TestCreateUser_AlreadyRegistered(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"msg":"A user with this email address has already been registered"}`))
	})

	_, err := c.CreateUser(context.Background(), "lead@hospital.cl", "temp-pass")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Contains(t, err.Error(), "already been registered")
}

func TestCreateUser_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream down"))
	})

	_, err := c.CreateUser(context.Background(), "lead@hospital.cl", "temp-pass")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestUpdatePassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/user-1", r.URL.Path)

		var body updateUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new-secret-1", body.Password)
		w.Write([]byte(`{"id":"user-1"}`))
	})

	require.NoError(t, c.UpdatePassword(context.Background(), "user-1", "new-secret-1"))
}

func TestUpdatePassword_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Password should be at least 6 characters"}`))
	})

	err := c.UpdatePassword(context.Background(), "user-1", "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestDeleteUser(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/user-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.DeleteUser(context.Background(), "user-1"))
	assert.True(t, called)
}

func TestDeleteUser_MissingIsOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, c.DeleteUser(context.Background(), "user-1"))
}
