package propagation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateJSON(t *testing.T) {
	t.Run("posts JSON with bearer token", func(t *testing.T) {
		var gotMethod, gotPath, gotAuth, gotContentType string
		var gotBody map[string]interface{}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, StaticTokenSource("svc-token"))

		err := client.CreateJSON(context.Background(), "/organization/", map[string]string{"name": "acme"})
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "/organization/", gotPath)
		assert.Equal(t, "Bearer svc-token", gotAuth)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "acme", gotBody["name"])
	})

	t.Run("tolerates conflict on retried create", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.CreateJSON(context.Background(), "/organization/", map[string]string{"name": "acme"})
		assert.NoError(t, err)
	})

	t.Run("fails on server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.CreateJSON(context.Background(), "/organization/", map[string]string{"name": "acme"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestClient_UpdateJSON(t *testing.T) {
	t.Run("puts JSON", func(t *testing.T) {
		var gotMethod, gotPath string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.UpdateJSON(context.Background(), "/organization/acme", map[string]string{"name": "acme"})
		require.NoError(t, err)

		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/organization/acme", gotPath)
	})

	t.Run("does not tolerate not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.UpdateJSON(context.Background(), "/organization/acme", map[string]string{"name": "acme"})
		assert.Error(t, err)
	})
}

func TestClient_UpsertJSON(t *testing.T) {
	t.Run("puts first so existing contexts converge on current state", func(t *testing.T) {
		var methods []string
		var gotBody map[string]interface{}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method)
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.UpsertJSON(context.Background(), "/organization/acme", "/organization/",
			map[string]string{"name": "acme", "confidentiality": "public"})
		require.NoError(t, err)

		assert.Equal(t, []string{http.MethodPut}, methods)
		assert.Equal(t, "public", gotBody["confidentiality"])
	})

	t.Run("falls back to create on not found", func(t *testing.T) {
		var methods []string
		var paths []string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method)
			paths = append(paths, r.URL.Path)
			if r.Method == http.MethodPut {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.UpsertJSON(context.Background(), "/organization/acme", "/organization/",
			map[string]string{"name": "acme"})
		require.NoError(t, err)

		assert.Equal(t, []string{http.MethodPut, http.MethodPost}, methods)
		assert.Equal(t, []string{"/organization/acme", "/organization/"}, paths)
	})

	t.Run("fails on server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.UpsertJSON(context.Background(), "/organization/acme", "/organization/", map[string]string{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestClient_Delete(t *testing.T) {
	t.Run("deletes without body", func(t *testing.T) {
		var gotMethod, gotContentType string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotContentType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.Delete(context.Background(), "/organization/acme")
		require.NoError(t, err)

		assert.Equal(t, http.MethodDelete, gotMethod)
		assert.Empty(t, gotContentType)
	})

	t.Run("tolerates not found on retried delete", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)

		err := client.Delete(context.Background(), "/organization/acme")
		assert.NoError(t, err)
	})
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 20*time.Millisecond, nil)

	err := client.UpdateJSON(context.Background(), "/organization/acme", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 5*time.Second, nil)

	err := client.UpdateJSON(context.Background(), "/organization/acme", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "/organization/acme", gotPath)
}
