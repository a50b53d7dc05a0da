package fss_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serroba/namecdn/internal/fss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "secret"

type fakeServer struct {
	files    map[string][]byte
	lastSQL  string
	lastArgs []any
	rows     []map[string]any
}

func newFakeServer(t *testing.T) (*fakeServer, *fss.Client) {
	t.Helper()

	f := &fakeServer{files: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	return f, fss.New(srv.URL, testToken)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != testToken {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

		return
	}

	path := r.FormValue("path")

	switch r.FormValue("command") {
	case "read":
		data, ok := f.files[path]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No such file or directory (os error 2)"})

			return
		}

		_, _ = w.Write(data)
	case "write":
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})

			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		f.files[header.Filename] = data
		w.WriteHeader(http.StatusNoContent)
	case "rm":
		if _, ok := f.files[path]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "NotFound: No such file or directory"})

			return
		}

		delete(f.files, path)
		w.WriteHeader(http.StatusNoContent)
	case "sql":
		f.lastSQL = r.FormValue("query")
		f.lastArgs = nil
		_ = json.Unmarshal([]byte(r.FormValue("params")), &f.lastArgs)

		if f.lastSQL == "SELECT * FROM gone" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table gone not found"})

			return
		}

		if f.lastSQL == "BROKEN" {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "syntax error"})

			return
		}

		rows := f.rows
		if rows == nil {
			rows = []map[string]any{}
		}

		writeJSON(w, http.StatusOK, rows)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown command"})
	}
}

func TestClient_WriteRead(t *testing.T) {
	t.Run("round trips bytes", func(t *testing.T) {
		_, client := newFakeServer(t)

		require.NoError(t, client.Write(context.Background(), "pic", []byte{1, 2, 3}))

		data, err := client.Read(context.Background(), "pic")

		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, data)
	})

	t.Run("read of missing path returns ErrNotFound", func(t *testing.T) {
		_, client := newFakeServer(t)

		_, err := client.Read(context.Background(), "missing")

		assert.ErrorIs(t, err, fss.ErrNotFound)
	})
}

func TestClient_Remove(t *testing.T) {
	t.Run("removes existing path", func(t *testing.T) {
		f, client := newFakeServer(t)
		f.files["a"] = []byte("x")

		require.NoError(t, client.Remove(context.Background(), "a"))
		assert.NotContains(t, f.files, "a")
	})

	t.Run("missing path returns ErrNotFound", func(t *testing.T) {
		_, client := newFakeServer(t)

		err := client.Remove(context.Background(), "a")

		assert.ErrorIs(t, err, fss.ErrNotFound)
	})
}

func TestClient_Query(t *testing.T) {
	t.Run("sends query and params", func(t *testing.T) {
		f, client := newFakeServer(t)
		f.rows = []map[string]any{{"name": "a"}}

		rows, err := client.Query(context.Background(), "SELECT name FROM entries WHERE name = ?", "a")

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.JSONEq(t, `{"name":"a"}`, string(rows[0]))
		assert.Equal(t, "SELECT name FROM entries WHERE name = ?", f.lastSQL)
		assert.Equal(t, []any{"a"}, f.lastArgs)
	})

	t.Run("server error is classified as internal", func(t *testing.T) {
		_, client := newFakeServer(t)

		_, err := client.Query(context.Background(), "BROKEN")

		var storageErr *fss.Error
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, fss.KindInternal, storageErr.Kind)
		assert.Equal(t, "syntax error", storageErr.Message)
	})

	t.Run("not found wording in a query error stays a query error", func(t *testing.T) {
		_, client := newFakeServer(t)

		_, err := client.Query(context.Background(), "SELECT * FROM gone")

		assert.NotErrorIs(t, err, fss.ErrNotFound)

		var storageErr *fss.Error
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, fss.KindBadRequest, storageErr.Kind)
	})
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := fss.New(srv.URL, "wrong")

	err := client.Ping(context.Background())

	assert.ErrorIs(t, err, fss.ErrUnauthorized)
}
