package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedback-call-platform/internal/calls"
	"feedback-call-platform/internal/campaign"
	"feedback-call-platform/internal/csvio"
	"feedback-call-platform/internal/notify"
	"feedback-call-platform/internal/schedule"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeSubmitter struct {
	result campaign.BulkResult
	err    error
}

func (f *fakeSubmitter) BulkSubmit(ctx context.Context, name string, records []calls.CallRecord) (campaign.BulkResult, error) {
	return f.result, f.err
}

type fakeStatusClient struct {
	status string
}

func (f *fakeStatusClient) CreateCall(ctx context.Context, rec calls.CallRecord) (string, error) {
	return "call-1", nil
}

func (f *fakeStatusClient) InitiateCall(ctx context.Context, callID string) error { return nil }

func (f *fakeStatusClient) CallStatus(ctx context.Context, callID string) (string, error) {
	return f.status, nil
}

type memScheduleStore struct {
	cfg *schedule.Config
}

func (m *memScheduleStore) Get(ctx context.Context) (schedule.Config, error) {
	if m.cfg == nil {
		return schedule.Config{}, schedule.ErrNotFound
	}
	return *m.cfg, nil
}

func (m *memScheduleStore) Put(ctx context.Context, c schedule.Config) (schedule.Config, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return schedule.Config{}, err
	}
	m.cfg = &c
	return c, nil
}

type fakeTemplateSource struct {
	tpl csvio.Template
	err error
}

func (f *fakeTemplateSource) FetchTemplate(ctx context.Context) (csvio.Template, error) {
	return f.tpl, f.err
}

type harness struct {
	router  *gin.Engine
	tracker *calls.Tracker
	store   *memScheduleStore
}

func newHarness(t *testing.T, submitter campaign.BulkSubmitter, client calls.StatusClient) *harness {
	t.Helper()

	tracker := calls.NewTracker(client, calls.TrackerConfig{PollInterval: time.Hour}, nil)
	t.Cleanup(tracker.Close)
	refresher := calls.NewRefresher(tracker, calls.NewStatusFetch(client, tracker, nil), time.Hour, nil)
	t.Cleanup(refresher.Stop)

	store := &memScheduleStore{}
	h := Handlers{
		Coordinator:   campaign.NewCoordinator(submitter, campaign.NewMemoryRepo(), nil, nil),
		Tracker:       tracker,
		Refresher:     refresher,
		Notifications: notify.NewService(notify.NewMemoryRepo(), nil),
		Schedule:      store,
		Template:      &fakeTemplateSource{tpl: csvio.Template{
			Headers:   []string{"Customer Name", "Phone Number"},
			SampleRow: []string{"John Doe", "9876543210"},
		}},
	}

	r := gin.New()
	r.POST("/v1/campaigns/upload", h.UploadCampaign)
	r.GET("/v1/campaigns", h.ListCampaigns)
	r.GET("/v1/campaigns/template", h.DownloadTemplate)
	r.POST("/v1/calls", h.CreateCall)
	r.POST("/v1/calls/:call_id/initiate", h.InitiateCall)
	r.POST("/v1/calls/:call_id/reset", h.ResetCall)
	r.GET("/v1/calls", h.ListCalls)
	r.POST("/v1/calls/refresh", h.RefreshCalls)
	r.GET("/v1/notifications", h.ListNotifications)
	r.GET("/v1/schedule", h.GetSchedule)
	r.PUT("/v1/schedule", h.PutSchedule)

	return &harness{router: r, tracker: tracker, store: store}
}

func (h *harness) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func uploadBody(t *testing.T, name, csv string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		if err := mw.WriteField("name", name); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", "contacts.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

const sampleCSV = "Customer Name,Phone Number,Vehicle Number,Service Type,Service Advisor Name,Appointment Date\n" +
	"Asha,9876500001,KA01AB1234,General Service,Ravi,2026-09-10\n" +
	"Vikram,9876500002,KA02CD5678,Oil Change,Meera,2026-09-11\n"

func TestUploadCampaign_PartialFailure(t *testing.T) {
	sub := &fakeSubmitter{result: campaign.BulkResult{
		SuccessfulCount: 1,
		FailedCount:     1,
		Errors:          []string{"row 2: number unreachable"},
	}}
	h := newHarness(t, sub, &fakeStatusClient{})

	body, ct := uploadBody(t, "September Batch", sampleCSV)
	w := h.do(t, http.MethodPost, "/v1/campaigns/upload", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var out campaign.Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Done {
		t.Fatal("partial failure must not report done")
	}
	if len(out.Result.Errors) != 1 {
		t.Fatalf("errors = %v", out.Result.Errors)
	}
	if out.Campaign.Name != "September Batch" {
		t.Fatalf("campaign name = %q", out.Campaign.Name)
	}
}

func TestUploadCampaign_ParseErrorRejected(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	body, ct := uploadBody(t, "Empty", "Customer Name,Phone Number\n")
	w := h.do(t, http.MethodPost, "/v1/campaigns/upload", body, ct)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestUploadCampaign_MissingFile(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", "NoFile"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	w := h.do(t, http.MethodPost, "/v1/campaigns/upload", &buf, mw.FormDataContentType())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUploadCampaign_SubmitterFailure(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{err: errors.New("backend down")}, &fakeStatusClient{})

	body, ct := uploadBody(t, "Doomed", sampleCSV)
	w := h.do(t, http.MethodPost, "/v1/campaigns/upload", body, ct)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDownloadTemplate(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	w := h.do(t, http.MethodGet, "/v1/campaigns/template", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, csvio.TemplateFilename) {
		t.Fatalf("content disposition = %q", cd)
	}
	if got := w.Body.String(); got != "Customer Name,Phone Number\nJohn Doe,9876543210" {
		t.Fatalf("body = %q", got)
	}
}

func TestCreateCall(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	rec := calls.CallRecord{
		CustomerName:       "Asha",
		PhoneNumber:        "9876500001",
		VehicleNumber:      "KA01AB1234",
		ServiceType:        "General Service",
		ServiceAdvisorName: "Ravi",
		AppointmentDate:    "2026-09-10",
	}
	payload, _ := json.Marshal(rec)
	w := h.do(t, http.MethodPost, "/v1/calls", bytes.NewBuffer(payload), "application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var tc calls.TrackedCall
	if err := json.Unmarshal(w.Body.Bytes(), &tc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tc.Status != calls.StatusReady {
		t.Fatalf("status = %q, want ready", tc.Status)
	}
	if tc.ID == "" {
		t.Fatal("call id not assigned")
	}
}

func TestCreateCall_MissingField(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	payload := []byte(`{"customerName":"Asha"}`)
	w := h.do(t, http.MethodPost, "/v1/calls", bytes.NewBuffer(payload), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestInitiateCall_Unknown(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	w := h.do(t, http.MethodPost, "/v1/calls/nope/initiate", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestResetCall_NotTerminal(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	tc, err := h.tracker.Create(context.Background(), calls.CallRecord{
		CustomerName:       "Asha",
		PhoneNumber:        "9876500001",
		VehicleNumber:      "KA01AB1234",
		ServiceType:        "General Service",
		ServiceAdvisorName: "Ravi",
		AppointmentDate:    "2026-09-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w := h.do(t, http.MethodPost, "/v1/calls/"+tc.ID+"/reset", nil, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListCalls(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	if _, err := h.tracker.Create(context.Background(), calls.CallRecord{
		CustomerName:       "Asha",
		PhoneNumber:        "9876500001",
		VehicleNumber:      "KA01AB1234",
		ServiceType:        "General Service",
		ServiceAdvisorName: "Ravi",
		AppointmentDate:    "2026-09-10",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	w := h.do(t, http.MethodGet, "/v1/calls", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Calls []calls.TrackedCall `json:"calls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Calls) != 1 {
		t.Fatalf("calls = %d", len(out.Calls))
	}
}

func TestGetSchedule_Unsaved(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	w := h.do(t, http.MethodGet, "/v1/schedule", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Config schedule.Config `json:"config"`
		Saved  bool            `json:"saved"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Saved {
		t.Fatal("unsaved store must report saved=false")
	}
	if !out.Config.Equal(schedule.Default()) {
		t.Fatalf("config = %+v, want default", out.Config)
	}
}

func TestPutSchedule_SaveAndDirtyFlag(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	cfg := schedule.Config{
		StartTime:       "10:00",
		EndTime:         "18:00",
		ActiveDays:      []string{"monday", "wednesday"},
		Timezone:        "UTC",
		AutoCallEnabled: true,
	}
	payload, _ := json.Marshal(cfg)

	w := h.do(t, http.MethodPut, "/v1/schedule", bytes.NewBuffer(payload), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var out struct {
		Config  schedule.Config `json:"config"`
		Changed bool            `json:"changed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Changed {
		t.Fatal("first save must differ from the default snapshot")
	}

	// Saving the identical config again is a no-op change.
	w = h.do(t, http.MethodPut, "/v1/schedule", bytes.NewBuffer(payload), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Changed {
		t.Fatal("identical save must report changed=false")
	}
}

func TestPutSchedule_RejectsOvernightWindow(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, &fakeStatusClient{})

	cfg := schedule.Config{
		StartTime:  "22:00",
		EndTime:    "06:00",
		ActiveDays: []string{"monday"},
		Timezone:   "UTC",
	}
	payload, _ := json.Marshal(cfg)

	w := h.do(t, http.MethodPut, "/v1/schedule", bytes.NewBuffer(payload), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}
