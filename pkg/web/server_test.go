package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/db"
	"github.com/ressourcerie/planning/pkg/export"
	"github.com/ressourcerie/planning/pkg/session"
)

type testEnv struct {
	server *Server
	store  *mockStore
	genai  *fakeGenAI
	sheets *fakeSheets
	loc    *time.Location
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	store := newMockStore()
	// Tuesday 4 March 2025 and the following Monday
	store.slots = []db.Slot{
		{ID: "slot-a", Start: time.Date(2025, 3, 4, 9, 0, 0, 0, paris), End: time.Date(2025, 3, 4, 12, 0, 0, 0, paris), Title: "Boutique"},
		{ID: "slot-b", Start: time.Date(2025, 3, 4, 14, 0, 0, 0, paris), End: time.Date(2025, 3, 4, 17, 0, 0, 0, paris), Title: "Tri"},
		{ID: "slot-c", Start: time.Date(2025, 3, 10, 9, 0, 0, 0, paris), End: time.Date(2025, 3, 10, 12, 0, 0, 0, paris), Title: "Boutique"},
	}
	genai := &fakeGenAI{}
	sheets := &fakeSheets{}

	srv := NewServer(Options{
		Store:           store,
		Sessions:        session.NewManager(session.NewMemoryKV(), 0),
		GenAI:           genai,
		Sheets:          sheets,
		SpreadsheetID:   "sheet-id",
		VolunteersRange: "Bénévoles!A:A",
		Location:        paris,
		Logger:          zap.NewNop(),
	})
	srv.now = func() time.Time { return time.Date(2025, 3, 5, 10, 0, 0, 0, paris) }

	return &testEnv{server: srv, store: store, genai: genai, sheets: sheets, loc: paris}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// login opens a session and logs in a new volunteer
func (e *testEnv) login(t *testing.T, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody[sessionResponse](t, rec).Token
	require.NotEmpty(t, token)

	rec = e.do(t, http.MethodPost, "/api/session/login", token, map[string]any{"name": name, "create": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSchedule_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/schedule", "unknown", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSession_SetsCookieAndCurrentWeek(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, "2025-03-05", resp.State.Reference)
	assert.True(t, resp.Window.Start.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, env.loc)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
}

func TestCreateSession_InvalidReference(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/session", "", map[string]string{"reference": "05/03/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionCookieIsAccepted(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	out := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
}

func TestLogin_UnknownName(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	token := decodeBody[sessionResponse](t, rec).Token

	rec = env.do(t, http.MethodPost, "/api/session/login", token, map[string]string{"name": "Nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/session/login", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_NameIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	env.store.volunteers = []db.Volunteer{{ID: "vol-x", Name: "Alice"}}

	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	token := decodeBody[sessionResponse](t, rec).Token

	rec = env.do(t, http.MethodPost, "/api/session/login", token, map[string]string{"name": "alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, "vol-x", resp.State.VolunteerID)

	rec = env.do(t, http.MethodPost, "/api/session/login", token, map[string]any{"name": "ALICE", "create": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, env.store.volunteers, 1)
}

func TestLogin_CreateDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.store.volunteers = []db.Volunteer{{ID: "vol-x", Name: "Alice"}}

	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	token := decodeBody[sessionResponse](t, rec).Token

	rec = env.do(t, http.MethodPost, "/api/session/login", token, map[string]any{"name": "Alice", "create": true})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/session/login", token, map[string]any{"volunteerId": "vol-x"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[sessionResponse](t, rec)
	require.NotNil(t, resp.Volunteer)
	assert.Equal(t, "Alice", resp.Volunteer.Name)
	assert.Equal(t, "vol-x", resp.State.VolunteerID)
}

func TestSubscribeThenSchedule(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "Alice")

	rec := env.do(t, http.MethodPost, "/api/registrations", token, map[string]string{"slotId": "slot-a"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/registrations", token, map[string]string{"slotId": "slot-a"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/schedule", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[scheduleResponse](t, rec)

	require.Len(t, resp.Days, 7)
	tuesday := resp.Days[1]
	require.Len(t, tuesday.Slots, 2)
	assert.Equal(t, "slot-a", tuesday.Slots[0].ID)
	require.Len(t, tuesday.Slots[0].Volunteers, 1)
	assert.Equal(t, "Alice", tuesday.Slots[0].Volunteers[0].Name)

	require.Len(t, resp.MySlots, 1)
	assert.Equal(t, "slot-a", resp.MySlots[0].ID)
	require.NotNil(t, resp.Volunteer)

	rec = env.do(t, http.MethodDelete, "/api/registrations/slot-a", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"removed": true}, decodeBody[map[string]bool](t, rec))

	rec = env.do(t, http.MethodDelete, "/api/registrations/slot-a", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"removed": false}, decodeBody[map[string]bool](t, rec))
}

func TestSubscribe_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	token := decodeBody[sessionResponse](t, rec).Token

	rec = env.do(t, http.MethodPost, "/api/registrations", token, map[string]string{"slotId": "slot-a"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatch_SkipsExistingRegistrations(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "Alice")

	rec := env.do(t, http.MethodPost, "/api/registrations", token, map[string]string{"slotId": "slot-a"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/registrations/batch", token, map[string]any{
		"slotIds": []string{"slot-a", "slot-b"},
		"action":  "add",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[batchResponse](t, rec)
	assert.Equal(t, model.ActionAdd, resp.Action)
	assert.Equal(t, 1, resp.Applied)
	assert.Equal(t, 1, resp.Skipped)
	assert.Zero(t, resp.Failed)
	assert.Len(t, resp.MySlots, 2)
	assert.Empty(t, resp.RefreshError)
}

func TestBatch_UnknownActionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "Alice")

	rec := env.do(t, http.MethodPost, "/api/registrations/batch", token, map[string]any{
		"slotIds": []string{"slot-a", "slot-b"},
		"action":  "cancel",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Empty(t, env.store.registrations)
}

func TestNavigateWeek(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	token := decodeBody[sessionResponse](t, rec).Token

	rec = env.do(t, http.MethodPost, "/api/session/week", token, map[string]string{"direction": "next"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, "2025-03-10", resp.State.Reference)

	rec = env.do(t, http.MethodGet, "/api/schedule", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sched := decodeBody[scheduleResponse](t, rec)
	require.Len(t, sched.Days[0].Slots, 1)
	assert.Equal(t, "slot-c", sched.Days[0].Slots[0].ID)

	rec = env.do(t, http.MethodPost, "/api/session/week", token, map[string]string{"direction": "today"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-03-03", decodeBody[sessionResponse](t, rec).State.Reference)

	rec = env.do(t, http.MethodPost, "/api/session/week", token, map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchVolunteers(t *testing.T) {
	env := newTestEnv(t)
	env.store.volunteers = []db.Volunteer{{ID: "v1", Name: "Alice"}, {ID: "v2", Name: "Bob"}, {ID: "v3", Name: "Malik"}}

	rec := env.do(t, http.MethodGet, "/api/volunteers?q=li", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[searchResponse](t, rec)
	assert.Len(t, resp.Volunteers, 2)
	assert.False(t, resp.ExactMatch)

	rec = env.do(t, http.MethodGet, "/api/volunteers?q=bob", "", nil)
	resp = decodeBody[searchResponse](t, rec)
	assert.True(t, resp.ExactMatch)
}

func TestVolunteerCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/volunteers", "", map[string]string{"name": "  Chloé "})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[db.Volunteer](t, rec)
	assert.Equal(t, "Chloé", created.Name)

	rec = env.do(t, http.MethodPost, "/api/volunteers", "", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/volunteers/"+created.ID, "", map[string]string{"name": "Chloe"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Chloe", env.store.volunteers[0].Name)

	rec = env.do(t, http.MethodDelete, "/api/volunteers/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/volunteers/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/volunteers", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.store.listErr = errUnavailable
	rec := env.do(t, http.MethodGet, "/api/volunteers?q=a", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestImportVolunteers(t *testing.T) {
	env := newTestEnv(t)
	env.store.volunteers = []db.Volunteer{{ID: "v1", Name: "Alice"}}
	env.sheets.names = []string{"Alice", "Bob"}

	rec := env.do(t, http.MethodPost, "/api/admin/volunteers/import", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[importResponse](t, rec)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "Bob", resp.Created[0].Name)
	assert.Equal(t, []string{"Alice"}, resp.Existing)
	assert.Empty(t, resp.Failed)
}

func TestImportVolunteers_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.server.sheets = nil
	rec := env.do(t, http.MethodPost, "/api/admin/volunteers/import", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSlots_ListsReferenceWeek(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/admin/slots?reference=2025-03-12", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[scheduleResponse](t, rec)
	assert.True(t, resp.Window.Start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, env.loc)))
	assert.Len(t, resp.Days[0].Slots, 1)

	rec = env.do(t, http.MethodGet, "/api/admin/slots?reference=bad", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSlot(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/admin/slots", "", map[string]string{
		"date": "2025-03-06", "start": "09:30", "end": "12:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	slot := decodeBody[db.Slot](t, rec)
	assert.Equal(t, "Boutique", slot.Title)
	assert.True(t, slot.Start.Equal(time.Date(2025, 3, 6, 9, 30, 0, 0, env.loc)))

	rec = env.do(t, http.MethodPost, "/api/admin/slots", "", map[string]string{
		"date": "2025-03-06", "start": "12:00", "end": "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSlot_KeepsDay(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, "/api/admin/slots/slot-a", "", map[string]string{
		"date": "2025-03-04", "start": "10:00", "end": "13:00", "title": "Atelier",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	update := env.store.updates["slot-a"]
	require.NotNil(t, update.Start)
	assert.True(t, update.Start.Equal(time.Date(2025, 3, 4, 10, 0, 0, 0, env.loc)))
	assert.Equal(t, "Atelier", *update.Title)

	rec = env.do(t, http.MethodPut, "/api/admin/slots/slot-a", "", map[string]string{
		"date": "2025-03-05", "start": "10:00", "end": "13:00",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSlot(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodDelete, "/api/admin/slots/slot-b", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"slot-b"}, env.store.deletedSlots)
}

func TestAdminUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	env.store.registrations = []db.Registration{{ID: "r1", VolunteerID: "v1", SlotID: "slot-a"}}

	rec := env.do(t, http.MethodDelete, "/api/admin/slots/slot-a/volunteers/v1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.store.registrations)
}

func TestDuplicateSlots(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/admin/slots/duplicate", "", map[string]any{
		"sourceDate":  "2025-03-04",
		"targetDates": []string{"2025-03-04", "2025-03-11", "2025-03-18"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[creationResponse](t, rec)
	assert.Equal(t, 4, resp.Planned)
	assert.Len(t, resp.Created, 4)
	assert.Empty(t, resp.Failed)

	rec = env.do(t, http.MethodPost, "/api/admin/slots/duplicate", "", map[string]any{
		"sourceDate":  "2025-03-05",
		"targetDates": []string{"2025-03-11"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSlots(t *testing.T) {
	env := newTestEnv(t)
	env.genai.patterns = []model.Pattern{{DayOfWeek: 0, StartHour: 9, EndHour: 12, Title: "Boutique"}}

	rec := env.do(t, http.MethodPost, "/api/admin/slots/generate", "", map[string]string{
		"startDate": "2025-03-10", "endDate": "2025-03-23", "instruction": "le lundi matin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[creationResponse](t, rec)
	assert.Len(t, resp.Created, 2)

	rec = env.do(t, http.MethodPost, "/api/admin/slots/generate", "", map[string]string{
		"startDate": "2025-03-10", "endDate": "2025-03-23",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInterpretVoice(t *testing.T) {
	env := newTestEnv(t)
	env.genai.interpretation = model.Interpretation{
		MatchedSlotIDs:      []string{"slot-a"},
		Action:              model.ActionAdd,
		ConfirmationMessage: "Inscription mardi matin",
	}
	token := env.login(t, "Alice")

	rec := env.do(t, http.MethodPost, "/api/voice/interpret", token, map[string]string{"transcript": "inscris-moi mardi matin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[model.Interpretation](t, rec)
	assert.Equal(t, []string{"slot-a"}, resp.MatchedSlotIDs)
	assert.Equal(t, "inscris-moi mardi matin", env.genai.transcript)

	rec = env.do(t, http.MethodPost, "/api/voice/interpret", token, map[string]string{"transcript": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport_WritesWorkbook(t *testing.T) {
	env := newTestEnv(t)
	env.store.exportRows = []db.DetailedRegistration{{
		RegistrationID: "r1",
		VolunteerName:  "Alice",
		SlotTitle:      "Boutique",
		SlotStart:      time.Date(2025, 3, 4, 9, 0, 0, 0, env.loc),
		SlotEnd:        time.Date(2025, 3, 4, 12, 0, 0, 0, env.loc),
	}}

	rec := env.do(t, http.MethodGet, "/api/admin/export?start=2025-03-03&end=2025-03-09", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Export_Planning_20250305090000.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"04/03/2025", "09:00", "12:00", "Boutique", "Alice"}, rows[1])

	rec = env.do(t, http.MethodGet, "/api/admin/export?start=2025-03-03", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishExport(t *testing.T) {
	env := newTestEnv(t)
	env.store.exportRows = []db.DetailedRegistration{{
		VolunteerName: "Bob",
		SlotTitle:     "Tri",
		SlotStart:     time.Date(2025, 3, 4, 14, 0, 0, 0, env.loc),
		SlotEnd:       time.Date(2025, 3, 4, 17, 0, 0, 0, env.loc),
	}}

	rec := env.do(t, http.MethodPost, "/api/admin/export/publish", "", map[string]string{"start": "2025-03-03", "end": "2025-03-09"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.sheets.published)
	assert.Equal(t, export.Header, env.sheets.published.Header)
	assert.Equal(t, [][]string{{"04/03/2025", "14:00", "17:00", "Tri", "Bob"}}, env.sheets.published.Rows)

	env.sheets.err = errUnavailable
	rec = env.do(t, http.MethodPost, "/api/admin/export/publish", "", map[string]string{"start": "2025-03-03", "end": "2025-03-09"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
