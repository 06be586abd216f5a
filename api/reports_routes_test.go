package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"securereport/core/rbac"
	"securereport/core/reports"
	"securereport/core/store"
)

type createdReport struct {
	ID            int64   `json:"id"`
	TrackingCode  string  `json:"tracking_code"`
	ReportType    string  `json:"report_type"`
	CaseStatus    string  `json:"case_status"`
	ReportDetails string  `json:"report_details"`
	Latitude      *string `json:"latitude"`
	IncidentDate  *string `json:"incident_date"`
	CriminalInfos []struct {
		Name string `json:"name"`
	} `json:"criminal_infos"`
	Attachments []struct {
		ID           int64  `json:"id"`
		OriginalName string `json:"original_name"`
		URL          string `json:"url"`
	} `json:"attachments"`
}

func validReportBody() map[string]any {
	return map[string]any{
		"location":       "Nasr City",
		"latitude":       30.0444,
		"longitude":      31.2357,
		"incident_date":  "2024-03-05",
		"report_details": "Phone snatched near the metro entrance",
		"report_type":    "theft",
		"criminal_infos": []map[string]string{{"name": "Unknown rider"}},
	}
}

func (e *testEnv) createReport(body map[string]any) createdReport {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/reports", "", body)
	if rr.Code != http.StatusCreated {
		e.t.Fatalf("create report: %d %s", rr.Code, rr.Body.String())
	}
	var rep createdReport
	decodeBody(e.t, rr, &rep)
	return rep
}

func TestReportIntakeAndTracking(t *testing.T) {
	env := newTestEnv(t)
	rep := env.createReport(validReportBody())

	if !reports.ValidTrackingCode(rep.TrackingCode) {
		t.Fatalf("invalid tracking code %q", rep.TrackingCode)
	}
	if rep.ReportType != reports.CategoryTheft.Label() || rep.CaseStatus != reports.StatusReceived.Label() {
		t.Fatalf("unexpected labels: type=%q status=%q", rep.ReportType, rep.CaseStatus)
	}
	if rep.Latitude == nil || *rep.Latitude != "30.044400000000000" {
		t.Fatalf("unexpected latitude %v", rep.Latitude)
	}
	if rep.IncidentDate == nil || *rep.IncidentDate != "2024-03-05" {
		t.Fatalf("unexpected incident date %v", rep.IncidentDate)
	}
	if len(rep.CriminalInfos) != 1 || rep.CriminalInfos[0].Name != "Unknown rider" {
		t.Fatalf("criminal infos not stored: %+v", rep.CriminalInfos)
	}

	rr := env.do(http.MethodGet, "/api/reports/track/"+rep.TrackingCode, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("track: %d %s", rr.Code, rr.Body.String())
	}
	var tracked createdReport
	decodeBody(t, rr, &tracked)
	if tracked.ID != rep.ID || tracked.CaseStatus != rep.CaseStatus {
		t.Fatalf("unexpected tracked report %+v", tracked)
	}

	rr = env.do(http.MethodGet, "/api/reports/track/"+rep.TrackingCode+"/qr", "", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("qr: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("qr body is not a png")
	}

	if rr = env.do(http.MethodGet, "/api/reports/track/NOPE", "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown code: expected 404, got %d", rr.Code)
	}
}

func TestReportIntakeValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]func(map[string]any){
		"missing location": func(b map[string]any) { delete(b, "location") },
		"bad date":         func(b map[string]any) { b["incident_date"] = "05/03/2024" },
		"bad latitude":     func(b map[string]any) { b["latitude"] = 91 },
		"unknown type":     func(b map[string]any) { b["report_type"] = "jaywalking" },
		"missing details":  func(b map[string]any) { b["report_details"] = "" },
	}
	for name, mutate := range cases {
		body := validReportBody()
		mutate(body)
		rr := env.do(http.MethodPost, "/api/reports", "", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d %s", name, rr.Code, rr.Body.String())
		}
	}
}

func TestReportListsFullAndLimited(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("emp@example.com", "password123", rbac.RoleEmployee, store.UserStatusActive)
	env.addUser("viewer@example.com", "password123", rbac.RoleViewer, store.UserStatusActive)
	employee := env.login("emp@example.com", "password123").Access
	viewer := env.login("viewer@example.com", "password123").Access
	rep := env.createReport(validReportBody())

	if rr := env.do(http.MethodGet, "/api/reports", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: expected 401, got %d", rr.Code)
	}

	rr := env.do(http.MethodGet, "/api/reports", employee, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("employee list: %d", rr.Code)
	}
	var full []map[string]any
	decodeBody(t, rr, &full)
	if len(full) != 1 || full[0]["report_details"] == nil {
		t.Fatalf("employee should see full view: %v", full)
	}

	rr = env.do(http.MethodGet, "/api/reports", viewer, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("viewer list: %d", rr.Code)
	}
	var limited []map[string]any
	decodeBody(t, rr, &limited)
	if len(limited) != 1 {
		t.Fatalf("expected one report, got %d", len(limited))
	}
	if _, ok := limited[0]["report_details"]; ok {
		t.Fatalf("viewer must not see report details")
	}
	if _, ok := limited[0]["contact_info"]; ok {
		t.Fatalf("viewer must not see contact info")
	}

	path := fmt.Sprintf("/api/reports/%d", rep.ID)
	if rr = env.do(http.MethodPatch, path, viewer, map[string]string{"case_status": "resolved"}); rr.Code != http.StatusForbidden {
		t.Fatalf("viewer edit: expected 403, got %d", rr.Code)
	}
}

func TestReportUpdateArchiveDelete(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("emp@example.com", "password123", rbac.RoleEmployee, store.UserStatusActive)
	token := env.login("emp@example.com", "password123").Access
	rep := env.createReport(validReportBody())
	path := fmt.Sprintf("/api/reports/%d", rep.ID)

	rr := env.do(http.MethodPatch, path, token, map[string]string{"case_status": "unknown"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad status accepted: %d", rr.Code)
	}

	rr = env.do(http.MethodPatch, path, token, map[string]string{"case_status": "resolved", "severity": "high"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	var updated createdReport
	decodeBody(t, rr, &updated)
	if updated.CaseStatus != reports.StatusResolved.Label() {
		t.Fatalf("status not updated: %q", updated.CaseStatus)
	}

	var active, archived []map[string]any
	rr = env.do(http.MethodGet, "/api/reports", token, nil)
	decodeBody(t, rr, &active)
	rr = env.do(http.MethodGet, "/api/reports/archive", token, nil)
	decodeBody(t, rr, &archived)
	if len(active) != 0 || len(archived) != 1 {
		t.Fatalf("resolved report should be archived: active=%d archived=%d", len(active), len(archived))
	}

	if rr = env.do(http.MethodDelete, path, token, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr = env.do(http.MethodDelete, path, token, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
	if rr = env.do(http.MethodGet, "/api/reports/track/"+rep.TrackingCode, "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("deleted report still trackable: %d", rr.Code)
	}
}

func TestReportMultipartAttachment(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("emp@example.com", "password123", rbac.RoleEmployee, store.UserStatusActive)
	env.addUser("viewer@example.com", "password123", rbac.RoleViewer, store.UserStatusActive)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"location":       "Heliopolis",
		"incident_date":  "2024-04-01",
		"report_details": "Threatening messages",
		"report_type":    "ابتزاز",
		"criminal_infos": `[{"name":"Sender"}]`,
	} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("attachments", "evidence.txt")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte("screenshot text"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("multipart create: %d %s", rr.Code, rr.Body.String())
	}
	var rep createdReport
	decodeBody(t, rr, &rep)
	if rep.ReportType != reports.CategoryBlackmail.Label() {
		t.Fatalf("unexpected type %q", rep.ReportType)
	}
	if len(rep.Attachments) != 1 || rep.Attachments[0].OriginalName != "evidence.txt" {
		t.Fatalf("attachment not stored: %+v", rep.Attachments)
	}

	url := rep.Attachments[0].URL
	viewer := env.login("viewer@example.com", "password123").Access
	if rr = env.do(http.MethodGet, url, viewer, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("viewer download: expected 403, got %d", rr.Code)
	}
	employee := env.login("emp@example.com", "password123").Access
	rr = env.do(http.MethodGet, url, employee, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("download: %d %s", rr.Code, rr.Body.String())
	}
	body, _ := io.ReadAll(rr.Body)
	if string(body) != "screenshot text" {
		t.Fatalf("unexpected attachment body %q", body)
	}
}
