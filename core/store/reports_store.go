package store

import (
	"context"
	"database/sql"
	"time"
)

type ReportsStore interface {
	Create(ctx context.Context, r *Report) (int64, error)
	Get(ctx context.Context, id int64) (*Report, error)
	FindByTrackingCode(ctx context.Context, code string) (*Report, error)
	ListActive(ctx context.Context) ([]Report, error)
	ListArchived(ctx context.Context) ([]Report, error)
	Update(ctx context.Context, r *Report) error
	Delete(ctx context.Context, id int64) ([]Attachment, error)
	GetAttachment(ctx context.Context, id int64) (*Attachment, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	AnalyticsRows(ctx context.Context) ([]map[string]any, error)
}

// Stored labels of the terminal statuses; reports in these states form the archive.
const (
	statusResolvedLabel = "تم الحل"
	statusClosedLabel   = "تم الإغلاق"
	statusClosedLegacy  = "تم الاغلاق"
)

type reportsStore struct {
	db *sql.DB
}

func NewReportsStore(db *sql.DB) ReportsStore {
	return &reportsStore{db: db}
}

const reportColumns = `id, tracking_code, location, latitude, longitude, incident_date, report_details, contact_info, report_type, status, severity, is_fake, created_at, updated_at`

// Create inserts the report with its criminal infos and attachments in one
// transaction and fills the generated ids back into r.
func (s *reportsStore) Create(ctx context.Context, r *Report) (int64, error) {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports(tracking_code, location, latitude, longitude, incident_date, report_details, contact_info, report_type, status, severity, is_fake, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.TrackingCode, r.Location, decimalToText(r.Latitude), decimalToText(r.Longitude), nullDate(r.IncidentDate),
		r.ReportDetails, r.ContactInfo, r.ReportType, r.Status, r.Severity, boolToInt(r.IsFake), r.CreatedAt.UTC(), r.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	for i := range r.CriminalInfos {
		ci := &r.CriminalInfos[i]
		ci.ReportID = id
		res, err := tx.ExecContext(ctx, `INSERT INTO criminal_infos(report_id, name, description, other_info) VALUES(?,?,?,?)`,
			id, ci.Name, ci.Description, ci.OtherInfo)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		ci.ID, _ = res.LastInsertId()
	}
	for i := range r.Attachments {
		a := &r.Attachments[i]
		a.ReportID = id
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO attachments(report_id, kind, stored_name, original_name, content_type, size_bytes, sha256, created_at) VALUES(?,?,?,?,?,?,?,?)`,
			id, a.Kind, a.StoredName, a.OriginalName, a.ContentType, a.SizeBytes, a.SHA256, a.CreatedAt.UTC())
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		a.ID, _ = res.LastInsertId()
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

func scanReport(row rowScanner) (*Report, error) {
	var r Report
	var lat, lon sql.NullString
	var incident sql.NullTime
	var fake int
	if err := row.Scan(&r.ID, &r.TrackingCode, &r.Location, &lat, &lon, &incident, &r.ReportDetails, &r.ContactInfo,
		&r.ReportType, &r.Status, &r.Severity, &fake, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Latitude = textToDecimal(lat)
	r.Longitude = textToDecimal(lon)
	r.IncidentDate = datePtr(incident)
	r.IsFake = fake == 1
	return &r, nil
}

func (s *reportsStore) Get(ctx context.Context, id int64) (*Report, error) {
	return s.getOne(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=?`, id)
}

func (s *reportsStore) FindByTrackingCode(ctx context.Context, code string) (*Report, error) {
	return s.getOne(ctx, `SELECT `+reportColumns+` FROM reports WHERE tracking_code=?`, code)
}

func (s *reportsStore) getOne(ctx context.Context, query string, arg any) (*Report, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	list := []Report{*r}
	if err := s.loadChildren(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *reportsStore) ListActive(ctx context.Context) ([]Report, error) {
	return s.list(ctx, `SELECT `+reportColumns+` FROM reports WHERE status NOT IN (?,?,?) ORDER BY id`,
		statusResolvedLabel, statusClosedLabel, statusClosedLegacy)
}

func (s *reportsStore) ListArchived(ctx context.Context) ([]Report, error) {
	return s.list(ctx, `SELECT `+reportColumns+` FROM reports WHERE status IN (?,?,?) ORDER BY id`,
		statusResolvedLabel, statusClosedLabel, statusClosedLegacy)
}

func (s *reportsStore) list(ctx context.Context, query string, args ...any) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var res []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if err := s.loadChildren(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reportsStore) loadChildren(ctx context.Context, list []Report) error {
	if len(list) == 0 {
		return nil
	}
	idx := make(map[int64]int, len(list))
	args := make([]any, 0, len(list))
	for i, r := range list {
		idx[r.ID] = i
		args = append(args, r.ID)
	}
	in := placeholders(len(args))

	rows, err := s.db.QueryContext(ctx, `SELECT id, report_id, name, description, other_info FROM criminal_infos WHERE report_id IN (`+in+`) ORDER BY id`, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var ci CriminalInfo
		if err := rows.Scan(&ci.ID, &ci.ReportID, &ci.Name, &ci.Description, &ci.OtherInfo); err != nil {
			rows.Close()
			return err
		}
		if i, ok := idx[ci.ReportID]; ok {
			list[i].CriminalInfos = append(list[i].CriminalInfos, ci)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE report_id IN (`+in+`) ORDER BY id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return err
		}
		if i, ok := idx[a.ReportID]; ok {
			list[i].Attachments = append(list[i].Attachments, *a)
		}
	}
	return rows.Err()
}

const attachmentColumns = `id, report_id, kind, stored_name, original_name, content_type, size_bytes, sha256, created_at`

func scanAttachment(row rowScanner) (*Attachment, error) {
	var a Attachment
	if err := row.Scan(&a.ID, &a.ReportID, &a.Kind, &a.StoredName, &a.OriginalName, &a.ContentType, &a.SizeBytes, &a.SHA256, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *reportsStore) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id=?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (s *reportsStore) Update(ctx context.Context, r *Report) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET location=?, latitude=?, longitude=?, incident_date=?, report_details=?, contact_info=?, report_type=?, status=?, severity=?, updated_at=?
		WHERE id=?`,
		r.Location, decimalToText(r.Latitude), decimalToText(r.Longitude), nullDate(r.IncidentDate), r.ReportDetails,
		r.ContactInfo, r.ReportType, r.Status, r.Severity, r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the report and returns its attachments so the caller can
// drop the stored files.
func (s *reportsStore) Delete(ctx context.Context, id int64) ([]Attachment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE report_id=? ORDER BY id`, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	var atts []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			rows.Close()
			tx.Rollback()
			return nil, err
		}
		atts = append(atts, *a)
	}
	rows.Close()
	for _, q := range []string{
		`DELETE FROM attachments WHERE report_id=?`,
		`DELETE FROM criminal_infos WHERE report_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id=?`, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return nil, sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return atts, nil
}

func (s *reportsStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM reports GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		res[status] += n
	}
	return res, rows.Err()
}

// AnalyticsRows projects every report to the raw field mapping consumed by the
// analytics cleaner. Values keep their driver types; absent values are nil.
func (s *reportsStore) AnalyticsRows(ctx context.Context) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT location, incident_date, report_details, report_type, status, latitude, longitude, severity, created_at FROM reports ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []map[string]any
	for rows.Next() {
		var location, details, rtype, status, severity string
		var lat, lon sql.NullString
		var incident, created sql.NullTime
		if err := rows.Scan(&location, &incident, &details, &rtype, &status, &lat, &lon, &severity, &created); err != nil {
			return nil, err
		}
		res = append(res, map[string]any{
			"location":       location,
			"incident_date":  nullableValue(incident.Valid, incident.Time),
			"report_details": details,
			"report_type":    rtype,
			"status":         status,
			"latitude":       nullableValue(lat.Valid, lat.String),
			"longitude":      nullableValue(lon.Valid, lon.String),
			"severity":       severity,
			"created_at":     nullableValue(created.Valid, created.Time),
		})
	}
	return res, rows.Err()
}

func nullableValue[T any](valid bool, v T) any {
	if !valid {
		return nil
	}
	return v
}
