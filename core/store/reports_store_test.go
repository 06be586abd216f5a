package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sampleReport(code, status string) *Report {
	lat := decimal.RequireFromString("30.044420000000000")
	lon := decimal.RequireFromString("31.235712000000000")
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	return &Report{
		TrackingCode:  code,
		Location:      "Cairo",
		Latitude:      &lat,
		Longitude:     &lon,
		IncidentDate:  &day,
		ReportDetails: "details",
		ContactInfo:   "01000000000",
		ReportType:    "سرقة",
		Status:        status,
		CriminalInfos: []CriminalInfo{{Name: "unknown", Description: "tall"}},
		Attachments: []Attachment{{
			Kind: AttachmentKindAudio, StoredName: "a.ogg", OriginalName: "voice.ogg",
			ContentType: "audio/ogg", SizeBytes: 12,
		}},
	}
}

func TestReportsCreateAndGetNested(t *testing.T) {
	db := mustTestDB(t)
	s := NewReportsStore(db)
	ctx := context.Background()

	r := sampleReport("ABCDEF123456", "تم استلام البلاغ")
	id, err := s.Create(ctx, r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 || r.CriminalInfos[0].ID == 0 || r.Attachments[0].ID == 0 {
		t.Fatalf("ids not filled: %+v", r)
	}
	got, err := s.Get(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Latitude == nil || !got.Latitude.Equal(*r.Latitude) {
		t.Fatalf("latitude mismatch: %v", got.Latitude)
	}
	if got.IncidentDate == nil || got.IncidentDate.Format("2006-01-02") != "2024-03-14" {
		t.Fatalf("incident date mismatch: %v", got.IncidentDate)
	}
	if len(got.CriminalInfos) != 1 || got.CriminalInfos[0].Name != "unknown" {
		t.Fatalf("criminal infos not loaded: %+v", got.CriminalInfos)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Kind != AttachmentKindAudio {
		t.Fatalf("attachments not loaded: %+v", got.Attachments)
	}
	byCode, err := s.FindByTrackingCode(ctx, "ABCDEF123456")
	if err != nil || byCode == nil || byCode.ID != id {
		t.Fatalf("find by code: %v %v", byCode, err)
	}
	missing, err := s.FindByTrackingCode(ctx, "NOPE")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing code: %v %v", missing, err)
	}
}

func TestReportsActiveArchiveSplit(t *testing.T) {
	db := mustTestDB(t)
	s := NewReportsStore(db)
	ctx := context.Background()
	for i, st := range []string{"تم استلام البلاغ", "تم الحل", "قيد المراجعة", "تم الاغلاق", "تم الإغلاق"} {
		code := string(rune('A'+i)) + "00000000000"
		if _, err := s.Create(ctx, sampleReport(code, st)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	active, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 2 || active[0].ID > active[1].ID {
		t.Fatalf("unexpected active list: %+v", active)
	}
	archived, err := s.ListArchived(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(archived) != 3 {
		t.Fatalf("expected 3 archived, got %d", len(archived))
	}
	if len(active[0].Attachments) != 1 || len(archived[2].CriminalInfos) != 1 {
		t.Fatalf("children not loaded on list")
	}
	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["تم الحل"] != 1 || counts["قيد المراجعة"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestReportsUpdateAndDelete(t *testing.T) {
	db := mustTestDB(t)
	s := NewReportsStore(db)
	ctx := context.Background()
	r := sampleReport("UPD000000001", "تم استلام البلاغ")
	id, err := s.Create(ctx, r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r.Status = "قيد المعالجة"
	r.Latitude = nil
	if err := s.Update(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Get(ctx, id)
	if got.Status != "قيد المعالجة" || got.Latitude != nil {
		t.Fatalf("update not applied: %+v", got)
	}
	atts, err := s.Delete(ctx, id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(atts) != 1 || atts[0].StoredName != "a.ogg" {
		t.Fatalf("expected deleted attachments, got %+v", atts)
	}
	if got, _ := s.Get(ctx, id); got != nil {
		t.Fatalf("report still present")
	}
	if _, err := s.Delete(ctx, id); err != sql.ErrNoRows {
		t.Fatalf("expected ErrNoRows on second delete, got %v", err)
	}
	if err := s.Update(ctx, r); err != sql.ErrNoRows {
		t.Fatalf("expected ErrNoRows on update of deleted, got %v", err)
	}
}

func TestReportsAnalyticsRows(t *testing.T) {
	db := mustTestDB(t)
	s := NewReportsStore(db)
	ctx := context.Background()
	if _, err := s.Create(ctx, sampleReport("ROW000000001", "تم الحل")); err != nil {
		t.Fatalf("create: %v", err)
	}
	bare := &Report{TrackingCode: "ROW000000002", Status: "تم استلام البلاغ"}
	if _, err := s.Create(ctx, bare); err != nil {
		t.Fatalf("create bare: %v", err)
	}
	rows, err := s.AnalyticsRows(ctx)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["location"] != "Cairo" || rows[0]["status"] != "تم الحل" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if _, ok := rows[0]["incident_date"].(time.Time); !ok {
		t.Fatalf("incident_date should be time.Time, got %T", rows[0]["incident_date"])
	}
	if rows[0]["latitude"] != "30.044420000000000" {
		t.Fatalf("unexpected stored latitude: %v", rows[0]["latitude"])
	}
	if rows[1]["incident_date"] != nil || rows[1]["latitude"] != nil {
		t.Fatalf("absent values should be nil: %v", rows[1])
	}
}
