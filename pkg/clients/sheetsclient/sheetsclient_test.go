package sheetsclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets is a minimal Sheets API backend
type fakeSheets struct {
	mu       sync.Mutex
	tabs     []string
	calls    []string
	written  [][]interface{}
	readback [][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		title := req.Requests[0].AddSheet.Properties.Title
		f.tabs = append(f.tabs, title)
		f.calls = append(f.calls, "create")
		fmt.Fprintf(w, `{"replies":[{"addSheet":{"properties":{"sheetId":42,"title":%q}}}]}`, title)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		fmt.Fprint(w, `{}`)
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.written = vr.Values
		f.calls = append(f.calls, "update")
		fmt.Fprint(w, `{}`)
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.readback})
	case r.Method == http.MethodGet:
		sheetList := make([]map[string]any, 0, len(f.tabs))
		for _, tab := range f.tabs {
			sheetList = append(sheetList, map[string]any{"properties": map[string]any{"title": tab}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheetList})
	default:
		http.NotFound(w, r)
	}
}

func newFakeClient(t *testing.T, backend *fakeSheets) *Client {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	service, err := sheets.NewService(t.Context(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return NewClientWithService(service)
}

var testExport = &PublishedExport{
	Start:  time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	End:    time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC),
	Header: []string{"Date", "StartTime", "EndTime", "Title", "VolunteerName"},
	Rows:   [][]string{{"04/03/2025", "09:00", "12:00", "Tri", "Alice"}},
}

func TestGenerateTabTitle(t *testing.T) {
	assert.Equal(t, "Inscriptions Mon Mar 03 2025 - Sun Mar 09 2025", generateTabTitle(testExport.Start, testExport.End))
}

func TestPublishExport_CreatesMissingTab(t *testing.T) {
	backend := &fakeSheets{}
	client := newFakeClient(t, backend)

	title, err := client.PublishExport(t.Context(), "sheet-1", testExport)

	require.NoError(t, err)
	assert.Equal(t, "Inscriptions Mon Mar 03 2025 - Sun Mar 09 2025", title)
	assert.Equal(t, []string{"create", "update"}, backend.calls)
	require.Len(t, backend.written, 2)
	assert.Equal(t, []interface{}{"Date", "StartTime", "EndTime", "Title", "VolunteerName"}, backend.written[0])
	assert.Equal(t, []interface{}{"04/03/2025", "09:00", "12:00", "Tri", "Alice"}, backend.written[1])
}

func TestPublishExport_ReplacesExistingTab(t *testing.T) {
	backend := &fakeSheets{tabs: []string{"Inscriptions Mon Mar 03 2025 - Sun Mar 09 2025"}}
	client := newFakeClient(t, backend)

	_, err := client.PublishExport(t.Context(), "sheet-1", testExport)

	require.NoError(t, err)
	assert.Equal(t, []string{"clear", "update"}, backend.calls)
}

func TestListVolunteerNames(t *testing.T) {
	backend := &fakeSheets{readback: [][]interface{}{{"Id", "Nom"}, {"1", "Alice"}, {"2", " bob "}}}
	client := newFakeClient(t, backend)

	names, err := client.ListVolunteerNames(t.Context(), "sheet-1", "Bénévoles!A1:B")

	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "bob"}, names)
}

func TestParseVolunteerNames(t *testing.T) {
	t.Run("skips blanks and case duplicates", func(t *testing.T) {
		raw := [][]interface{}{
			{"Name"},
			{"Alice"},
			{""},
			{},
			{"ALICE"},
			{"Chloé"},
		}

		names, err := parseVolunteerNames(raw)

		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Chloé"}, names)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := parseVolunteerNames([][]interface{}{{"Email"}, {"a@b.c"}})
		assert.Error(t, err)
	})

	t.Run("no header", func(t *testing.T) {
		_, err := parseVolunteerNames(nil)
		assert.Error(t, err)
	})
}
