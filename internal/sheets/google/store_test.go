package googlesheets_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/JakeFAU/citesync/internal/citation"
	googlesheets "github.com/JakeFAU/citesync/internal/sheets/google"
)

// newTestStore creates a Store pointed at a test server.
func newTestStore(t *testing.T, handler http.Handler) *googlesheets.Store {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := googlesheets.NewService(
		context.Background(),
		googlesheets.Config{},
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	store, err := googlesheets.New(svc, googlesheets.Config{SpreadsheetID: "sheet-123"})
	require.NoError(t, err)
	return store
}

func TestStoreReadColumn(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/sheet-123/values/")
		assert.True(t, strings.HasSuffix(r.URL.Path, "'1.1'!B2:B"), "unexpected path %s", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"range":"'1.1'!B2:B10","majorDimension":"ROWS","values":[["u1"],[],["u3"]]}`)
	})

	store := newTestStore(t, handler)
	got, err := store.ReadColumn(context.Background(), "1.1", "B", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "", "u3"}, got)
}

func TestStoreReadColumnError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	store := newTestStore(t, handler)
	_, err := store.ReadColumn(context.Background(), "missing", "B", 2)
	require.Error(t, err)
}

func TestStoreWriteRow(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "'2.1'!F4:J4"), "unexpected path %s", r.URL.Path)
		assert.Equal(t, googlesheets.ValueInputOption, r.URL.Query().Get("valueInputOption"))

		var body struct {
			Values [][]any `json:"values"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]any{{"Title", "Jane Doe", "2019", "N/A", float64(12)}}, body.Values)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"spreadsheetId":"sheet-123","updatedCells":5}`)
	})

	store := newTestStore(t, handler)
	target := citation.WriteTarget{Page: "2.1", StartCell: "F4", EndCell: "J4"}
	err := store.WriteRow(context.Background(), target, []any{"Title", "Jane Doe", "2019", "N/A", 12})
	require.NoError(t, err)
}

func TestStoreWriteRowRejected(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprintln(w, `{"error":{"code":403,"message":"permission denied"}}`)
	})

	store := newTestStore(t, handler)
	err := store.WriteRow(context.Background(), citation.WriteTarget{Page: "1.1", StartCell: "F2", EndCell: "J2"}, []any{"x"})
	require.ErrorIs(t, err, citation.ErrWrite)
}

func TestNewRequiresService(t *testing.T) {
	t.Parallel()

	_, err := googlesheets.New(nil, googlesheets.Config{SpreadsheetID: "x"})
	require.Error(t, err)
}
