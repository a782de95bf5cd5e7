package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/service"
	"github.com/djval79/caresync1/internal/state"
	"github.com/djval79/caresync1/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeIdentity struct {
	sessions map[string]service.Session
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (service.Session, error) {
	s, ok := f.sessions[email+"|"+password]
	if !ok {
		return service.Session{}, service.ErrInvalidCredentials
	}
	return s, nil
}

func (f *fakeIdentity) SignUp(_ context.Context, req service.SignUpRequest) (service.Session, error) {
	return service.Session{UserID: "new-user", Email: req.Email, Role: req.Role}, nil
}

type testAPI struct {
	handler http.Handler
	tokens  *service.TokenIssuer
	state   *state.State
}

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	coll := store.NewCollections(store.NewMemoryKV(), logger)
	st, err := state.Load(context.Background(), coll, logger)
	require.NoError(t, err)

	metrics := NewMetrics()
	gen := service.NewShiftGenerator(time.UTC)
	roster := service.NewRosterService(st, gen, metrics, logger)
	emar := service.NewEmarService(st, metrics, time.UTC, logger)
	directory := service.NewDirectoryService(st)
	tokens := service.NewTokenIssuer("test-secret", time.Hour)
	identity := &fakeIdentity{sessions: map[string]service.Session{
		"sarah@caresync.test|secret1": {UserID: "1", Email: "sarah@caresync.test", Role: service.RoleManager},
	}}

	h := NewAPI(tokens, metrics, Handlers{
		Auth:     NewAuthHandler(identity, tokens, logger),
		Staff:    NewStaffHandler(roster, directory, logger),
		Clients:  NewClientHandler(roster, emar, directory, logger),
		Shifts:   NewShiftHandler(roster, directory, gen, logger),
		Emar:     NewEmarHandler(emar, logger),
		Reports:  NewReportHandler(service.NewFinanceService(st), gen, logger),
		Overview: NewOverviewHandler(directory, service.NewInsightService(st, nil, time.Second, logger), metrics, logger),
	}, logger)
	return &testAPI{handler: h, tokens: tokens, state: st}
}

func (a *testAPI) token(t *testing.T, userID string, role service.Role) string {
	t.Helper()
	tok, _, err := a.tokens.Issue(service.Session{UserID: userID, Role: role})
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if out != nil && len(env.Result) > 0 {
		require.NoError(t, json.Unmarshal(env.Result, out))
	}
	return env
}

func TestHealthz_NoAuth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ResultSuccess, decode(t, rec, nil).Code)
}

func TestAuth_MissingAndForeignToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/staff", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ResultTokenExpired, decode(t, rec, nil).Code)

	foreign, _, err := service.NewTokenIssuer("other-secret", time.Hour).Issue(service.Session{UserID: "1", Role: service.RoleManager})
	require.NoError(t, err)
	rec = api.do(t, http.MethodGet, "/api/v1/staff", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ResultTokenExpired, decode(t, rec, nil).Code)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/api/v1/login", "", map[string]string{"email": "sarah@caresync.test", "password": "secret1"})
	var res LoginResult
	env := decode(t, rec, &res)
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	assert.Equal(t, service.RoleManager, res.User.Role)

	sess, err := api.tokens.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", sess.UserID)

	rec = api.do(t, http.MethodPost, "/auth/api/v1/login", "", map[string]string{"email": "sarah@caresync.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ResultError, decode(t, rec, nil).Code)

	rec = api.do(t, http.MethodGet, "/auth/api/v1/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStaffRole_ReadOnlyRoster(t *testing.T) {
	api := newTestAPI(t)
	staff := api.token(t, "3", service.RoleStaff)

	rec := api.do(t, http.MethodGet, "/api/v1/shifts?week=2024-05-22", staff, nil)
	var week service.RotaWeek
	require.Equal(t, ResultSuccess, decode(t, rec, &week).Code)
	assert.Equal(t, "2024-05-20", week.Start)
	require.Len(t, week.Days, 7)
	assert.Equal(t, 4, week.Days[0].Count)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/staff"},
		{http.MethodPost, "/api/v1/shifts"},
		{http.MethodPost, "/api/v1/shifts/s4/assign"},
		{http.MethodGet, "/api/v1/reports/financial"},
		{http.MethodGet, "/api/v1/dashboard"},
	} {
		rec := api.do(t, tc.method, tc.path, staff, map[string]string{})
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.path)
	}
}

func TestAssignShift(t *testing.T) {
	api := newTestAPI(t)
	mgr := api.token(t, "1", service.RoleManager)

	rec := api.do(t, http.MethodPost, "/api/v1/shifts/s4/assign", mgr, map[string]string{"staffId": "3"})
	var sh domain.Shift
	env := decode(t, rec, &sh)
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	assert.Equal(t, domain.ShiftConfirmed, sh.Status)
	require.NotNil(t, sh.StaffID)
	assert.Equal(t, "3", *sh.StaffID)

	for _, m := range api.state.Snapshot().Staff {
		if m.ID == "3" {
			assert.InDelta(t, 0.75+0.5, m.CurrentHours, 1e-9)
		}
	}

	rec = api.do(t, http.MethodPost, "/api/v1/shifts/missing/assign", mgr, map[string]string{"staffId": "3"})
	env = decode(t, rec, nil)
	assert.Equal(t, ResultError, env.Code)
	assert.Contains(t, env.Message, "shift not found")
}

func TestCreateRecurringShifts(t *testing.T) {
	api := newTestAPI(t)
	mgr := api.token(t, "1", service.RoleManager)

	rec := api.do(t, http.MethodPost, "/api/v1/shifts/recurring", mgr, RecurringRequest{
		Shift: domain.ShiftDraft{
			Date:      "2024-06-03",
			StartTime: "09:00",
			Duration:  60,
			StaffID:   domain.StringPtr("6"),
			ClientID:  domain.StringPtr("c2"),
		},
		Recurrence: domain.RecurWeekdayOnly,
		EndDate:    "2024-06-09",
	})
	var shifts []domain.Shift
	env := decode(t, rec, &shifts)
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	require.Len(t, shifts, 5)
	assert.Equal(t, "2024-06-07", shifts[4].Date)
	assert.Equal(t, domain.ShiftMorning, shifts[0].Type)
}

func TestCreateStaffAndClient(t *testing.T) {
	api := newTestAPI(t)
	mgr := api.token(t, "1", service.RoleManager)

	rec := api.do(t, http.MethodPost, "/api/v1/staff", mgr, service.NewStaffRequest{Name: "Priya Shah", Role: domain.RoleNurse, ContractedHours: 30})
	var member domain.Staff
	require.Equal(t, ResultSuccess, decode(t, rec, &member).Code)
	assert.NotEmpty(t, member.ID)
	assert.Equal(t, 22.0, member.HourlyRate)

	rec = api.do(t, http.MethodPost, "/api/v1/clients", mgr, service.ClientRequest{
		Name:      "Dorothy Clarke",
		CareType:  domain.CareDomiciliary,
		Address:   "3 Mill Lane, Leeds",
		Postcode:  "LS1 4AB",
		CareLevel: domain.CareLow,
	})
	var created ClientCreated
	env := decode(t, rec, &created)
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	assert.Equal(t, 25.0, created.Client.HourlyRate)
	// two active default templates over 28 days
	assert.Len(t, created.Shifts, 56)

	rec = api.do(t, http.MethodPost, "/api/v1/clients", mgr, service.ClientRequest{Name: "No Room", CareType: domain.CareResidential, CareLevel: domain.CareLow})
	assert.Equal(t, ResultError, decode(t, rec, nil).Code)
}

func TestAdminister_StockGuard(t *testing.T) {
	api := newTestAPI(t)
	mgr := api.token(t, "1", service.RoleManager)
	carer := api.token(t, "3", service.RoleStaff)

	rec := api.do(t, http.MethodPost, "/api/v1/clients/c2/medications", mgr, domain.Medication{
		ID: "m9", Name: "Ibuprofen", Dosage: "200mg", Frequency: "PRN", Times: []string{"09:00"}, StockLevel: 0,
	})
	require.Equal(t, ResultSuccess, decode(t, rec, nil).Code)

	rec = api.do(t, http.MethodPost, "/api/v1/emar/administer", carer, service.AdministerRequest{ClientID: "c2", MedicationID: "m9", Status: domain.MedTaken})
	env := decode(t, rec, nil)
	assert.Equal(t, ResultError, env.Code)
	assert.Equal(t, "Cannot administer: Out of stock!", env.Message)

	rec = api.do(t, http.MethodPost, "/api/v1/emar/administer", carer, service.AdministerRequest{ClientID: "c2", MedicationID: "m9", Status: domain.MedRefused})
	var entry domain.MedicationLog
	require.Equal(t, ResultSuccess, decode(t, rec, &entry).Code)
	assert.Equal(t, "3", entry.StaffID)

	rec = api.do(t, http.MethodPost, "/api/v1/emar/administer", carer, service.AdministerRequest{ClientID: "c1", MedicationID: "m2", Status: domain.MedTaken})
	require.Equal(t, ResultSuccess, decode(t, rec, nil).Code)
	c1 := api.state.Snapshot().Clients[0]
	m2, ok := c1.Medication("m2")
	require.True(t, ok)
	assert.Equal(t, 5, m2.StockLevel)

	rec = api.do(t, http.MethodGet, "/api/v1/emar/logs?clientId=c1", carer, nil)
	var logs []domain.MedicationLog
	require.Equal(t, ResultSuccess, decode(t, rec, &logs).Code)
	require.Len(t, logs, 1)
	assert.Equal(t, "m2", logs[0].MedicationID)
}

func TestAdminister_RecorderFromSession(t *testing.T) {
	api := newTestAPI(t)
	mgr := api.token(t, "1", service.RoleManager)
	carer := api.token(t, "3", service.RoleStaff)

	// a carer cannot sign a dose off under someone else's name
	rec := api.do(t, http.MethodPost, "/api/v1/emar/administer", carer, service.AdministerRequest{ClientID: "c1", MedicationID: "m1", StaffID: "5", Status: domain.MedRefused})
	var entry domain.MedicationLog
	require.Equal(t, ResultSuccess, decode(t, rec, &entry).Code)
	assert.Equal(t, "3", entry.StaffID)

	rec = api.do(t, http.MethodPost, "/api/v1/emar/administer", mgr, service.AdministerRequest{ClientID: "c1", MedicationID: "m1", StaffID: "5", Status: domain.MedRefused})
	require.Equal(t, ResultSuccess, decode(t, rec, &entry).Code)
	assert.Equal(t, "5", entry.StaffID)

	rec = api.do(t, http.MethodPost, "/api/v1/emar/administer", mgr, service.AdministerRequest{ClientID: "c1", MedicationID: "m1", StaffID: "99", Status: domain.MedRefused})
	assert.Equal(t, ResultError, decode(t, rec, nil).Code)

	// an identity account with no matching staff record is refused
	outsider := api.token(t, "auth0|abc", service.RoleStaff)
	rec = api.do(t, http.MethodPost, "/api/v1/emar/administer", outsider, service.AdministerRequest{ClientID: "c1", MedicationID: "m1", Status: domain.MedRefused})
	assert.Equal(t, ResultError, decode(t, rec, nil).Code)

	assert.Len(t, api.state.Snapshot().MedLogs, 2)
}

func TestEmarDue(t *testing.T) {
	api := newTestAPI(t)
	carer := api.token(t, "3", service.RoleStaff)

	rec := api.do(t, http.MethodGet, "/api/v1/emar/due?time=Morning", carer, nil)
	var rounds []service.ClientRound
	require.Equal(t, ResultSuccess, decode(t, rec, &rounds).Code)
	require.Len(t, rounds, 2)
	assert.Equal(t, "c1", rounds[0].ClientID)
	assert.Len(t, rounds[0].Items, 2)

	rec = api.do(t, http.MethodGet, "/api/v1/emar/due?time=Midnight", carer, nil)
	assert.Equal(t, ResultError, decode(t, rec, nil).Code)
}

func TestFinancialReports(t *testing.T) {
	api := newTestAPI(t)
	mgr := api.token(t, "1", service.RoleManager)
	q := "?start=2024-05-20&end=2024-05-20"

	rec := api.do(t, http.MethodGet, "/api/v1/reports/financial"+q, mgr, nil)
	var report service.FinancialReport
	require.Equal(t, ResultSuccess, decode(t, rec, &report).Code)
	assert.Equal(t, 3, report.Summary.ShiftCount)
	assert.Len(t, report.Rows, 3)

	rec = api.do(t, http.MethodGet, "/api/v1/reports/financial.csv"+q, mgr, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="financial_report_2024-05-20_to_2024-05-20.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], `"Date","Time","Client"`))

	rec = api.do(t, http.MethodGet, "/api/v1/reports/financial.xlsx"+q, mgr, nil)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Shifts", "Summary"}, f.GetSheetList())

	rec = api.do(t, http.MethodGet, "/api/v1/reports/financial?start=2024-05-21&end=2024-05-20", mgr, nil)
	assert.Equal(t, ResultError, decode(t, rec, nil).Code)
}

func TestReportFilter_DefaultsToCalendarMonth(t *testing.T) {
	h := &ReportHandler{today: func() string { return "2024-02-10" }, logger: zap.NewNop()}

	f := h.filter(httptest.NewRequest(http.MethodGet, "/api/v1/reports/financial?staffId=3", nil))
	assert.Equal(t, "2024-02-01", f.Start)
	assert.Equal(t, "2024-02-29", f.End)
	assert.Equal(t, "3", f.StaffID)

	f = h.filter(httptest.NewRequest(http.MethodGet, "/api/v1/reports/financial?start=2024-01-15", nil))
	assert.Equal(t, "2024-01-15", f.Start)
	assert.Equal(t, "2024-02-29", f.End)
}

func TestMonthRange(t *testing.T) {
	cases := []struct {
		day, start, end string
	}{
		{"2024-05-20", "2024-05-01", "2024-05-31"},
		{"2023-02-01", "2023-02-01", "2023-02-28"},
		{"2024-12-31", "2024-12-01", "2024-12-31"},
		{"garbage", "", ""},
	}
	for _, c := range cases {
		start, end := monthRange(c.day)
		assert.Equal(t, c.start, start, c.day)
		assert.Equal(t, c.end, end, c.day)
	}
}

func TestInsightsFallbackAndMetrics(t *testing.T) {
	api := newTestAPI(t)
	mgr := api.token(t, "1", service.RoleManager)

	rec := api.do(t, http.MethodGet, "/api/v1/insights", mgr, nil)
	var res service.InsightResult
	require.Equal(t, ResultSuccess, decode(t, rec, &res).Code)
	assert.True(t, res.Fallback)
	assert.Len(t, res.Insights, 2)

	api.do(t, http.MethodPost, "/api/v1/shifts/s4/assign", mgr, map[string]string{"staffId": "3"})

	rec = api.do(t, http.MethodGet, "/metrics", "", nil)
	body := rec.Body.String()
	assert.Contains(t, body, `caresync_http_requests_total{code="200",method="GET",route="/api/v1/insights"} 1`)
	assert.Contains(t, body, "caresync_insight_fallbacks_total 1")
	assert.Contains(t, body, `caresync_domain_events_total{type="shift.assigned"} 1`)
}
