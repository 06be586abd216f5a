package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"securereport/core/store"
)

func TestValidateStructUsesJSONNames(t *testing.T) {
	fields := validateStruct(createUserRequest{Email: "a@example.com", Role: "Root", Password: "password123"})
	if len(fields) != 1 {
		t.Fatalf("expected one field error, got %+v", fields)
	}
	if fields[0].Field != "role" || fields[0].Message != "role must be one of: Admin Employee Viewer" {
		t.Fatalf("unexpected field error %+v", fields[0])
	}
}

func TestValidateStructPointerRange(t *testing.T) {
	zero, thirteen, six := 0, 13, 6
	if fields := validateStruct(statsQuery{Month: &thirteen}); len(fields) != 1 || fields[0].Field != "month" {
		t.Fatalf("month=13 should fail: %+v", fields)
	}
	if fields := validateStruct(statsQuery{Day: &zero}); len(fields) != 1 || fields[0].Field != "day" {
		t.Fatalf("day=0 should fail: %+v", fields)
	}
	if fields := validateStruct(statsQuery{Month: &six, FilterMode: "week", Lang: "ar"}); fields != nil {
		t.Fatalf("valid query rejected: %+v", fields)
	}
}

func TestValidateStructDate(t *testing.T) {
	req := createReportRequest{Location: "x", IncidentDate: "2024-13-01", ReportDetails: "d", ReportType: "theft"}
	fields := validateStruct(req)
	if len(fields) != 1 || fields[0].Field != "incident_date" {
		t.Fatalf("expected incident_date error, got %+v", fields)
	}
}

func TestParseIntQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?year=2024&month=abc", nil)
	v, err := parseIntQuery(r, "year")
	if err != nil || v == nil || *v != 2024 {
		t.Fatalf("year: %v %v", v, err)
	}
	if v, err := parseIntQuery(r, "day"); err != nil || v != nil {
		t.Fatalf("missing day: %v %v", v, err)
	}
	if _, err := parseIntQuery(r, "month"); err == nil {
		t.Fatalf("expected error for non-integer month")
	}
}

func TestLogCategory(t *testing.T) {
	cases := map[string]string{
		"auth.login":            "auth",
		"accounts.user_create":  "accounts",
		"reports.update":        "reports",
		"maintenance.something": "other",
	}
	for action, want := range cases {
		if got := logCategory(action); got != want {
			t.Fatalf("%s: got %s want %s", action, got, want)
		}
	}
}

func TestParseStatsQueryFieldOrder(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?geo_level=g&day=d&month=m&year=y", nil)
	for i := 0; i < 20; i++ {
		_, fields := parseStatsQuery(r)
		if len(fields) != 4 {
			t.Fatalf("expected 4 field errors, got %+v", fields)
		}
		for j, want := range []string{"year", "month", "day", "geo_level"} {
			if fields[j].Field != want {
				t.Fatalf("run %d: field %d is %s, want %s", i, j, fields[j].Field, want)
			}
		}
	}
}

func TestOpenUploadsOrder(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range []struct{ key, name string }{
		{"audio_recordings", "voice.ogg"},
		{"attachments", "a.txt"},
		{"attachments", "b.txt"},
	} {
		fw, err := mw.CreateFormFile(f.key, f.name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write([]byte(f.name))
	}
	_ = mw.Close()
	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	defer form.RemoveAll()

	for i := 0; i < 20; i++ {
		uploads, err := openUploads(form)
		if err != nil {
			t.Fatalf("open uploads: %v", err)
		}
		if len(uploads) != 3 {
			t.Fatalf("expected 3 uploads, got %d", len(uploads))
		}
		want := []struct{ kind, name string }{
			{store.AttachmentKindFile, "a.txt"},
			{store.AttachmentKindFile, "b.txt"},
			{store.AttachmentKindAudio, "voice.ogg"},
		}
		for j, w := range want {
			if uploads[j].Kind != w.kind || uploads[j].Name != w.name {
				t.Fatalf("run %d: upload %d is %s/%s, want %s/%s", i, j, uploads[j].Kind, uploads[j].Name, w.kind, w.name)
			}
		}
		closeUploads(uploads)
	}
}
