package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"securereport/config"
	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/reports"
	"securereport/core/store"
	"securereport/core/utils"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	dateLayout          = "2006-01-02"
	coordinatePlaces    = 15
	multipartMemory     = 8 << 20
	msgReportNotFound   = "Not found."
	msgInvalidType      = "Invalid report type"
	msgInvalidStatus    = "Invalid case status"
	msgAttachmentTooBig = "Attachment too large"
)

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

type ReportsHandler struct {
	cfg     *config.AppConfig
	reports store.ReportsStore
	service *reports.Service
	files   *reports.FileStorage
	policy  *rbac.Policy
	audits  store.AuditStore
	logger  *utils.Logger
}

func NewReportsHandler(cfg *config.AppConfig, rs store.ReportsStore, svc *reports.Service, files *reports.FileStorage, policy *rbac.Policy, audits store.AuditStore, logger *utils.Logger) *ReportsHandler {
	return &ReportsHandler{cfg: cfg, reports: rs, service: svc, files: files, policy: policy, audits: audits, logger: logger}
}

type attachmentView struct {
	store.Attachment
	URL string `json:"url"`
}

type reportView struct {
	ID            int64                `json:"id"`
	TrackingCode  string               `json:"tracking_code"`
	Location      string               `json:"location"`
	Latitude      *string              `json:"latitude"`
	Longitude     *string              `json:"longitude"`
	IncidentDate  *string              `json:"incident_date"`
	ReportDetails string               `json:"report_details"`
	ContactInfo   string               `json:"contact_info"`
	ReportType    string               `json:"report_type"`
	CaseStatus    string               `json:"case_status"`
	Severity      string               `json:"severity"`
	IsFake        bool                 `json:"is_fake"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CriminalInfos []store.CriminalInfo `json:"criminal_infos"`
	Attachments   []attachmentView     `json:"attachments"`
}

// limitedReportView is what Viewer accounts see: no details, contacts,
// coordinates or files.
type limitedReportView struct {
	ID           int64     `json:"id"`
	TrackingCode string    `json:"tracking_code"`
	Location     string    `json:"location"`
	IncidentDate *string   `json:"incident_date"`
	ReportType   string    `json:"report_type"`
	CaseStatus   string    `json:"case_status"`
	CreatedAt    time.Time `json:"created_at"`
}

type trackView struct {
	ID            int64     `json:"id"`
	TrackingCode  string    `json:"tracking_code"`
	CaseStatus    string    `json:"case_status"`
	ReportDetails string    `json:"report_details"`
	ReportType    string    `json:"report_type"`
	CreatedAt     time.Time `json:"created_at"`
}

func formatCoordinate(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(coordinatePlaces)
	return &s
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func newReportView(rep *store.Report) reportView {
	infos := rep.CriminalInfos
	if infos == nil {
		infos = []store.CriminalInfo{}
	}
	atts := make([]attachmentView, 0, len(rep.Attachments))
	for _, a := range rep.Attachments {
		atts = append(atts, attachmentView{Attachment: a, URL: fmt.Sprintf("/api/attachments/%d", a.ID)})
	}
	return reportView{
		ID:            rep.ID,
		TrackingCode:  rep.TrackingCode,
		Location:      rep.Location,
		Latitude:      formatCoordinate(rep.Latitude),
		Longitude:     formatCoordinate(rep.Longitude),
		IncidentDate:  formatDate(rep.IncidentDate),
		ReportDetails: rep.ReportDetails,
		ContactInfo:   rep.ContactInfo,
		ReportType:    rep.ReportType,
		CaseStatus:    rep.Status,
		Severity:      rep.Severity,
		IsFake:        rep.IsFake,
		CreatedAt:     rep.CreatedAt,
		UpdatedAt:     rep.UpdatedAt,
		CriminalInfos: infos,
		Attachments:   atts,
	}
}

func newLimitedReportView(rep *store.Report) limitedReportView {
	return limitedReportView{
		ID:           rep.ID,
		TrackingCode: rep.TrackingCode,
		Location:     rep.Location,
		IncidentDate: formatDate(rep.IncidentDate),
		ReportType:   rep.ReportType,
		CaseStatus:   rep.Status,
		CreatedAt:    rep.CreatedAt,
	}
}

func (h *ReportsHandler) fullView(r *http.Request) bool {
	p, ok := auth.PrincipalFrom(r.Context())
	return ok && p.Active() && h.policy.Allowed([]string{p.Role}, rbac.PermReportsViewFull)
}

type criminalInfoPayload struct {
	Name        string `json:"name" validate:"max=255"`
	Description string `json:"description"`
	OtherInfo   string `json:"other_info"`
}

type createReportRequest struct {
	Location      string                `json:"location" validate:"required,max=255"`
	Latitude      *decimal.Decimal      `json:"latitude" validate:"-"`
	Longitude     *decimal.Decimal      `json:"longitude" validate:"-"`
	IncidentDate  string                `json:"incident_date" validate:"required,datetime=2006-01-02"`
	ReportDetails string                `json:"report_details" validate:"required"`
	ContactInfo   string                `json:"contact_info" validate:"max=255"`
	ReportType    string                `json:"report_type" validate:"required"`
	CriminalInfos []criminalInfoPayload `json:"criminal_infos" validate:"dive"`
}

func validateCoordinates(lat, lon *decimal.Decimal) []fieldError {
	var out []fieldError
	if lat != nil && lat.Abs().GreaterThan(maxLatitude) {
		out = append(out, fieldError{Field: "latitude", Message: "latitude must be between -90 and 90"})
	}
	if lon != nil && lon.Abs().GreaterThan(maxLongitude) {
		out = append(out, fieldError{Field: "longitude", Message: "longitude must be between -180 and 180"})
	}
	return out
}

// Create accepts JSON or multipart intake. Multipart carries criminal_infos
// as a JSON string and files under attachments and audio_recordings.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	var uploads []reports.Upload
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "multipart/form-data") {
		maxBytes := h.cfg.Attachments.MaxUploadBytes
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes*4)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()
		parsed, fields := requestFromForm(r.MultipartForm)
		if fields != nil {
			writeValidation(w, fields)
			return
		}
		req = parsed
		files, err := openUploads(r.MultipartForm)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer closeUploads(files)
		uploads = files
	} else if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	fields := validateStruct(req)
	fields = append(fields, validateCoordinates(req.Latitude, req.Longitude)...)
	category := reports.ParseCategory(req.ReportType)
	if req.ReportType != "" && !category.Known() {
		fields = append(fields, fieldError{Field: "report_type", Message: msgInvalidType})
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	incident, _ := time.Parse(dateLayout, req.IncidentDate)
	in := reports.CreateInput{
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IncidentDate:  &incident,
		ReportDetails: req.ReportDetails,
		ContactInfo:   req.ContactInfo,
		ReportType:    category,
		Uploads:       uploads,
	}
	for _, ci := range req.CriminalInfos {
		in.CriminalInfos = append(in.CriminalInfos, store.CriminalInfo{
			Name:        strings.TrimSpace(ci.Name),
			Description: strings.TrimSpace(ci.Description),
			OtherInfo:   strings.TrimSpace(ci.OtherInfo),
		})
	}
	rep, err := h.service.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrUnknownCategory):
			writeValidation(w, []fieldError{{Field: "report_type", Message: msgInvalidType}})
		case errors.Is(err, reports.ErrFileTooLarge):
			writeDetail(w, http.StatusRequestEntityTooLarge, msgAttachmentTooBig)
		default:
			h.logger.Errorf("create report: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	audit(r, h.audits, "reports.create", rep.TrackingCode)
	writeJSON(w, http.StatusCreated, newReportView(rep))
}

func requestFromForm(form *multipart.Form) (createReportRequest, []fieldError) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	req := createReportRequest{
		Location:      value("location"),
		IncidentDate:  value("incident_date"),
		ReportDetails: value("report_details"),
		ContactInfo:   value("contact_info"),
		ReportType:    value("report_type"),
	}
	var fields []fieldError
	for _, key := range []string{"latitude", "longitude"} {
		raw := strings.TrimSpace(value(key))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields = append(fields, fieldError{Field: key, Message: key + " must be a number"})
			continue
		}
		if key == "latitude" {
			req.Latitude = &d
		} else {
			req.Longitude = &d
		}
	}
	if raw := strings.TrimSpace(value("criminal_infos")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.CriminalInfos); err != nil {
			fields = append(fields, fieldError{Field: "criminal_infos", Message: "criminal_infos must be a JSON array"})
		}
	}
	return req, fields
}

// uploadParts lists the multipart file keys in storage order.
var uploadParts = []struct {
	key  string
	kind string
}{
	{"attachments", store.AttachmentKindFile},
	{"audio_recordings", store.AttachmentKindAudio},
}

func openUploads(form *multipart.Form) ([]reports.Upload, error) {
	var out []reports.Upload
	for _, part := range uploadParts {
		kind := part.kind
		for _, fh := range form.File[part.key] {
			f, err := fh.Open()
			if err != nil {
				closeUploads(out)
				return nil, err
			}
			out = append(out, reports.Upload{Kind: kind, Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Body: f})
		}
	}
	return out, nil
}

func closeUploads(uploads []reports.Upload) {
	for _, up := range uploads {
		if c, ok := up.Body.(multipart.File); ok {
			_ = c.Close()
		}
	}
}

func (h *ReportsHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.reports.ListActive(r.Context())
	h.writeList(w, r, list, err)
}

func (h *ReportsHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	list, err := h.reports.ListArchived(r.Context())
	h.writeList(w, r, list, err)
}

func (h *ReportsHandler) writeList(w http.ResponseWriter, r *http.Request, list []store.Report, err error) {
	if err != nil {
		h.logger.Errorf("list reports: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if h.fullView(r) {
		out := make([]reportView, 0, len(list))
		for i := range list {
			out = append(out, newReportView(&list[i]))
		}
		writeJSON(w, http.StatusOK, out)
		return
	}
	out := make([]limitedReportView, 0, len(list))
	for i := range list {
		out = append(out, newLimitedReportView(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReportsHandler) load(w http.ResponseWriter, r *http.Request) *store.Report {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil
	}
	rep, err := h.reports.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("get report %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if rep == nil {
		writeDetail(w, http.StatusNotFound, msgReportNotFound)
		return nil
	}
	return rep
}

func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep := h.load(w, r)
	if rep == nil {
		return
	}
	if h.fullView(r) {
		writeJSON(w, http.StatusOK, newReportView(rep))
		return
	}
	writeJSON(w, http.StatusOK, newLimitedReportView(rep))
}

type updateReportRequest struct {
	Location      *string          `json:"location" validate:"omitempty,max=255"`
	Latitude      *decimal.Decimal `json:"latitude" validate:"-"`
	Longitude     *decimal.Decimal `json:"longitude" validate:"-"`
	IncidentDate  *string          `json:"incident_date" validate:"omitempty,datetime=2006-01-02"`
	ReportDetails *string          `json:"report_details"`
	ContactInfo   *string          `json:"contact_info" validate:"omitempty,max=255"`
	ReportType    *string          `json:"report_type"`
	CaseStatus    *string          `json:"case_status"`
	Severity      *string          `json:"severity"`
}

func (h *ReportsHandler) Update(w http.ResponseWriter, r *http.Request) {
	rep := h.load(w, r)
	if rep == nil {
		return
	}
	var req updateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	fields := validateStruct(req)
	fields = append(fields, validateCoordinates(req.Latitude, req.Longitude)...)
	if req.ReportType != nil {
		c := reports.ParseCategory(*req.ReportType)
		if !c.Known() {
			fields = append(fields, fieldError{Field: "report_type", Message: msgInvalidType})
		} else {
			rep.ReportType = c.Label()
		}
	}
	if req.CaseStatus != nil {
		s := reports.ParseStatus(*req.CaseStatus)
		if !s.Known() {
			fields = append(fields, fieldError{Field: "case_status", Message: msgInvalidStatus})
		} else {
			rep.Status = s.Label()
		}
	}
	if req.Severity != nil {
		sev := reports.ParseSeverity(*req.Severity)
		if sev != "" && !sev.Known() {
			fields = append(fields, fieldError{Field: "severity", Message: "severity must be one of: critical high medium low"})
		} else {
			rep.Severity = string(sev)
		}
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	if req.Location != nil {
		rep.Location = strings.TrimSpace(*req.Location)
	}
	if req.Latitude != nil {
		rep.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		rep.Longitude = req.Longitude
	}
	if req.IncidentDate != nil {
		d, _ := time.Parse(dateLayout, *req.IncidentDate)
		rep.IncidentDate = &d
	}
	if req.ReportDetails != nil {
		rep.ReportDetails = strings.TrimSpace(*req.ReportDetails)
	}
	if req.ContactInfo != nil {
		rep.ContactInfo = strings.TrimSpace(*req.ContactInfo)
	}
	if err := h.reports.Update(r.Context(), rep); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeDetail(w, http.StatusNotFound, msgReportNotFound)
			return
		}
		h.logger.Errorf("update report %d: %v", rep.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	audit(r, h.audits, "reports.update", fmt.Sprintf("%d status=%s", rep.ID, rep.Status))
	writeJSON(w, http.StatusOK, newReportView(rep))
}

func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeDetail(w, http.StatusNotFound, msgReportNotFound)
			return
		}
		h.logger.Errorf("delete report %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	audit(r, h.audits, "reports.delete", strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportsHandler) tracked(w http.ResponseWriter, r *http.Request) *store.Report {
	code := strings.ToUpper(strings.TrimSpace(urlParam(r, "code")))
	if !reports.ValidTrackingCode(code) {
		writeDetail(w, http.StatusNotFound, msgReportNotFound)
		return nil
	}
	rep, err := h.reports.FindByTrackingCode(r.Context(), code)
	if err != nil {
		h.logger.Errorf("track report %s: %v", code, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if rep == nil {
		writeDetail(w, http.StatusNotFound, msgReportNotFound)
		return nil
	}
	return rep
}

func (h *ReportsHandler) Track(w http.ResponseWriter, r *http.Request) {
	rep := h.tracked(w, r)
	if rep == nil {
		return
	}
	writeJSON(w, http.StatusOK, trackView{
		ID:            rep.ID,
		TrackingCode:  rep.TrackingCode,
		CaseStatus:    rep.Status,
		ReportDetails: rep.ReportDetails,
		ReportType:    rep.ReportType,
		CreatedAt:     rep.CreatedAt,
	})
}

func (h *ReportsHandler) TrackQR(w http.ResponseWriter, r *http.Request) {
	rep := h.tracked(w, r)
	if rep == nil {
		return
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := reports.TrackingQRCode(rep.TrackingCode, size)
	if err != nil {
		h.logger.Errorf("qr for %s: %v", rep.TrackingCode, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *ReportsHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	att, err := h.reports.GetAttachment(r.Context(), id)
	if err != nil {
		h.logger.Errorf("get attachment %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if att == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	f, err := h.files.Open(att.StoredName)
	if err != nil {
		h.logger.Warnf("open attachment %d (%s): %v", id, att.StoredName, err)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	if att.ContentType != "" {
		w.Header().Set("Content-Type", att.ContentType)
	}
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(att.OriginalName))
	http.ServeContent(w, r, att.OriginalName, att.CreatedAt, f)
}
