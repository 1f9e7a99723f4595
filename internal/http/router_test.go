package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rightguard/internal/alert"
	"rightguard/internal/auth"
	"rightguard/internal/config"
	"rightguard/internal/contact"
	"rightguard/internal/content"
	"rightguard/internal/dbtest"
	"rightguard/internal/guide"
	"rightguard/internal/incident"
	"rightguard/internal/jobs"
	"rightguard/internal/metrics"
	"rightguard/internal/payment"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type countingGenerator struct{ calls int }

func (g *countingGenerator) Generate(_ context.Context, state string, _ content.Language) (guide.Draft, error) {
	g.calls++
	return guide.Draft{Title: state + " guide", Content: "rights", Script: "script"}, nil
}

type okVerifier struct{}

func (okVerifier) Verify(context.Context, string, float64) (bool, error) { return true, nil }

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, io.Reader) (string, error) {
	return "", io.ErrUnexpectedEOF
}

type body struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type APISuite struct {
	suite.Suite
	srv *httptest.Server
	gen *countingGenerator
	jwt *auth.JWT
}

func (s *APISuite) SetupTest() {
	gdb := dbtest.Open(s.T(), &auth.User{}, &guide.Guide{}, &incident.Record{}, &alert.Log{}, &payment.PurchaseLog{}, &jobs.Job{})
	log := zap.NewNop()
	m := metrics.New()
	users := &auth.Service{DB: gdb, Metrics: m}
	s.gen = &countingGenerator{}
	s.jwt = auth.NewJWT("test-secret")

	deps := Deps{
		Users:     users,
		JWT:       s.jwt,
		Guides:    &guide.Service{DB: gdb, Generator: s.gen, Log: log, Metrics: m},
		Incidents: &incident.Service{DB: gdb, Uploader: failingUploader{}, Log: log, Metrics: m},
		Alerts: &alert.Service{DB: gdb, Log: log, Metrics: m, Channels: map[contact.Kind]alert.Channel{
			contact.KindEmail: alert.NewSimulatedChannel(contact.KindEmail, 0, log),
			contact.KindSMS:   alert.NewSimulatedChannel(contact.KindSMS, 1, log),
		}},
		Payments: &payment.Service{DB: gdb, Users: users, Verifier: okVerifier{}, Log: log, Metrics: m},
		Metrics:  m,
		Log:      log,
	}
	s.srv = httptest.NewServer(NewRouter(config.Config{}, deps))
	s.T().Cleanup(s.srv.Close)
}

func (s *APISuite) do(method, path string, payload any, header http.Header) (*http.Response, body) {
	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		s.Require().NoError(err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out body
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (s *APISuite) login(handle string) (auth.User, string) {
	resp, out := s.do(http.MethodPost, "/api/auth", map[string]string{"farcasterProfile": handle}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var u auth.User
	s.Require().NoError(json.Unmarshal(out.Data, &u))
	return u, resp.Header.Get("X-Session-Token")
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func (s *APISuite) TestAuthUpsertAndLookup() {
	resp, out := s.do(http.MethodPost, "/api/auth", map[string]string{"farcasterProfile": "alice"}, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("User created successfully", out.Message)
	s.NotEmpty(resp.Header.Get("X-Session-Token"))

	resp, out = s.do(http.MethodPost, "/api/auth", map[string]string{"farcasterProfile": "alice", "selectedState": "Texas"}, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("User updated successfully", out.Message)

	resp, out = s.do(http.MethodGet, "/api/auth?farcasterProfile=alice", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var u auth.User
	s.Require().NoError(json.Unmarshal(out.Data, &u))
	s.Equal("Texas", u.SelectedState)

	resp, out = s.do(http.MethodGet, "/api/auth?farcasterProfile=nobody", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.False(out.Success)
	s.Equal("User not found", out.Error)

	resp, _ = s.do(http.MethodPost, "/api/auth", map[string]string{}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestMe() {
	u, token := s.login("carol")

	resp, out := s.do(http.MethodGet, "/api/me", nil, bearer(token))
	s.Equal(http.StatusOK, resp.StatusCode)
	var me auth.User
	s.Require().NoError(json.Unmarshal(out.Data, &me))
	s.Equal(u.ID, me.ID)

	resp, _ = s.do(http.MethodGet, "/api/me", nil, bearer("garbage"))
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *APISuite) TestLegalGuideCacheAside() {
	resp, out := s.do(http.MethodGet, "/api/legal-guides?state=Texas&language=es", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Guide generated and cached successfully", out.Message)

	resp, out = s.do(http.MethodGet, "/api/legal-guides?state=Texas&language=es", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Empty(out.Message)
	s.Equal(1, s.gen.calls)

	resp, _ = s.do(http.MethodGet, "/api/legal-guides?state=Texas", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/api/legal-guides?state=Texas&language=fr", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/legal-guides", map[string]string{"state": "Ohio", "language": "en"}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp, out = s.do(http.MethodPost, "/api/legal-guides", map[string]string{
		"state": "Ohio", "language": "en", "title": "t", "content": "c", "script": "s",
	}, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Legal guide created successfully", out.Message)
}

func (s *APISuite) upload(userID string, header http.Header) (*http.Response, body) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "clip.webm")
	s.Require().NoError(err)
	_, _ = fw.Write([]byte("media"))
	_ = mw.WriteField("userId", userID)
	_ = mw.WriteField("latitude", "37.0")
	_ = mw.WriteField("longitude", "-120.0")
	_ = mw.WriteField("notes", "stop")
	s.Require().NoError(mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/recordings", &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	var out body
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (s *APISuite) TestRecordingsLifecycle() {
	owner, _ := s.login("owner")
	other, _ := s.login("other")

	resp, out := s.upload(owner.ID, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(out.Message, "upload failed")
	var rec struct {
		RecordID     string `json:"recordId"`
		UploadFailed bool   `json:"uploadFailed"`
		Location     struct {
			Latitude float64 `json:"latitude"`
		} `json:"location"`
	}
	s.Require().NoError(json.Unmarshal(out.Data, &rec))
	s.True(rec.UploadFailed)
	s.Equal(37.0, rec.Location.Latitude)

	resp, out = s.do(http.MethodGet, "/api/recordings?userId="+owner.ID, nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var list []json.RawMessage
	s.Require().NoError(json.Unmarshal(out.Data, &list))
	s.Len(list, 1)

	resp, out = s.do(http.MethodDelete, "/api/recordings?recordId="+rec.RecordID+"&userId="+other.ID, nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("Record not found or access denied", out.Error)

	resp, _ = s.do(http.MethodDelete, "/api/recordings?recordId="+rec.RecordID+"&userId="+owner.ID, nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/recordings", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestSessionOwnerMismatchIsForbidden() {
	_, token := s.login("owner")
	other, _ := s.login("other")

	resp, out := s.do(http.MethodGet, "/api/recordings?userId="+other.ID, nil, bearer(token))
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.False(out.Success)
}

func (s *APISuite) TestAlerts() {
	u, _ := s.login("dave")

	resp, out := s.do(http.MethodPost, "/api/alerts", map[string]any{
		"userId":     u.ID,
		"recipients": []string{"a@b.co", "5551234567", "c@d.co"},
		"language":   "es",
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Alerts sent: 2 successful, 1 failed", out.Message)

	var sent struct {
		Alerts []struct {
			AlertID   string `json:"alertId"`
			Recipient string `json:"recipient"`
			Status    string `json:"status"`
		} `json:"alerts"`
		Summary alert.Summary `json:"summary"`
	}
	s.Require().NoError(json.Unmarshal(out.Data, &sent))
	s.Require().Len(sent.Alerts, 3)
	s.Equal("5551234567", sent.Alerts[1].Recipient)
	s.Equal("failed", sent.Alerts[1].Status)
	s.Equal(alert.Summary{Total: 3, Successful: 2, Failed: 1}, sent.Summary)

	resp, _ = s.do(http.MethodPatch, "/api/alerts", map[string]string{"alertId": sent.Alerts[1].AlertID, "status": "delivered"}, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp, _ = s.do(http.MethodPatch, "/api/alerts", map[string]string{"alertId": "missing", "status": "delivered"}, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, out = s.do(http.MethodGet, "/api/alerts?userId="+u.ID+"&limit=2", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var list []json.RawMessage
	s.Require().NoError(json.Unmarshal(out.Data, &list))
	s.Len(list, 2)

	resp, _ = s.do(http.MethodPost, "/api/alerts", map[string]any{"userId": u.ID}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestAlertStatusUpdateRequiresOwner() {
	alice, aliceToken := s.login("alice")
	_, malloryToken := s.login("mallory")

	resp, out := s.do(http.MethodPost, "/api/alerts", map[string]any{
		"userId":     alice.ID,
		"recipients": []string{"a@b.co"},
	}, bearer(aliceToken))
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var sent struct {
		Alerts []struct {
			AlertID string `json:"alertId"`
		} `json:"alerts"`
	}
	s.Require().NoError(json.Unmarshal(out.Data, &sent))
	s.Require().Len(sent.Alerts, 1)
	id := sent.Alerts[0].AlertID

	resp, out = s.do(http.MethodPatch, "/api/alerts", map[string]string{"alertId": id, "status": "failed"}, bearer(malloryToken))
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.False(out.Success)

	resp, out = s.do(http.MethodGet, "/api/alerts?userId="+alice.ID, nil, bearer(aliceToken))
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var logs []struct {
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(out.Data, &logs))
	s.Require().Len(logs, 1)
	s.Equal("delivered", logs[0].Status)

	resp, _ = s.do(http.MethodPatch, "/api/alerts", map[string]string{"alertId": id, "status": "failed"}, bearer(aliceToken))
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestPayments() {
	u, _ := s.login("erin")

	resp, out := s.do(http.MethodPost, "/api/payments", map[string]any{
		"userId": u.ID, "featureKey": "stateSpecific", "txHash": "0x1", "amount": 1.99,
	}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("Amount mismatch", out.Error)

	resp, out = s.do(http.MethodPost, "/api/payments", map[string]any{
		"userId": u.ID, "featureKey": "stateSpecific", "txHash": "0x1", "amount": 0.99,
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("State-Specific Scripts unlocked successfully!", out.Message)

	resp, out = s.do(http.MethodPost, "/api/payments", map[string]any{
		"userId": u.ID, "featureKey": "stateSpecific", "txHash": "0x2", "amount": 0.99,
	}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("Feature already unlocked", out.Error)

	resp, out = s.do(http.MethodGet, "/api/payments?userId="+u.ID, nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var ents payment.Entitlements
	s.Require().NoError(json.Unmarshal(out.Data, &ents))
	s.Len(ents.Unlocked, 1)
	s.Len(ents.Available, 2)

	resp, out = s.do(http.MethodPatch, "/api/payments", map[string]string{"userId": u.ID, "featureKey": "stateSpecific"}, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.True(strings.Contains(string(out.Data), `"hasAccess":true`))

	resp, _ = s.do(http.MethodGet, "/api/payments?userId=nobody", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *APISuite) TestHealthAndMetrics() {
	resp, err := http.Get(s.srv.URL + "/health")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	_, _ = s.do(http.MethodGet, "/api/auth?farcasterProfile=x", nil, nil)

	resp, err = http.Get(s.srv.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	s.Contains(string(b), `rightguard_http_requests_total{method="GET",route="/api/auth",status="404"} 1`)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	gdb := dbtest.Open(t, &incident.Record{})
	log := zap.NewNop()
	srv := httptest.NewServer(NewRouter(config.Config{RequireSession: true}, Deps{
		JWT:       auth.NewJWT("secret"),
		Incidents: &incident.Service{DB: gdb, Log: log},
		Log:       log,
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/recordings?userId=u1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
