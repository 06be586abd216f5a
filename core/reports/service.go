package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"securereport/core/store"
	"securereport/core/utils"

	"github.com/shopspring/decimal"
)

const maxTrackingCodeAttempts = 5

var ErrUnknownCategory = errors.New("unknown report type")

type Upload struct {
	Kind        string
	Name        string
	ContentType string
	Body        io.Reader
}

type CreateInput struct {
	Location      string
	Latitude      *decimal.Decimal
	Longitude     *decimal.Decimal
	IncidentDate  *time.Time
	ReportDetails string
	ContactInfo   string
	ReportType    Category
	IsFake        bool
	// Status and CreatedAt are set by bulk imports; intake leaves them empty.
	Status        Status
	CreatedAt     *time.Time
	CriminalInfos []store.CriminalInfo
	Uploads       []Upload
}

// Service handles report intake and removal, which touch both the database
// and the attachment files.
type Service struct {
	store      store.ReportsStore
	files      *FileStorage
	classifier SeverityClassifier
	logger     *utils.Logger
	newCode    func() (string, error)
}

func NewService(st store.ReportsStore, files *FileStorage, classifier SeverityClassifier, logger *utils.Logger) *Service {
	return &Service{store: st, files: files, classifier: classifier, logger: logger, newCode: NewTrackingCode}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*store.Report, error) {
	if !in.ReportType.Known() {
		return nil, ErrUnknownCategory
	}
	code, err := s.uniqueTrackingCode(ctx)
	if err != nil {
		return nil, err
	}
	rep := &store.Report{
		TrackingCode:  code,
		Location:      strings.TrimSpace(in.Location),
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		IncidentDate:  in.IncidentDate,
		ReportDetails: strings.TrimSpace(in.ReportDetails),
		ContactInfo:   strings.TrimSpace(in.ContactInfo),
		ReportType:    in.ReportType.Label(),
		Status:        StatusReceived.Label(),
		IsFake:        in.IsFake,
		CriminalInfos: in.CriminalInfos,
	}
	if in.Status.Known() {
		rep.Status = in.Status.Label()
	}
	if in.CreatedAt != nil {
		rep.CreatedAt = in.CreatedAt.UTC()
	}
	rep.Severity = string(s.classify(ctx, rep.ReportDetails))

	for _, up := range in.Uploads {
		kind := store.AttachmentKindFile
		if up.Kind == store.AttachmentKindAudio {
			kind = store.AttachmentKindAudio
		}
		saved, err := s.files.Save(kind, up.Name, up.Body)
		if err != nil {
			s.removeFiles(rep.Attachments)
			return nil, fmt.Errorf("save attachment %q: %w", up.Name, err)
		}
		rep.Attachments = append(rep.Attachments, store.Attachment{
			Kind:         kind,
			StoredName:   saved.StoredName,
			OriginalName: up.Name,
			ContentType:  up.ContentType,
			SizeBytes:    saved.SizeBytes,
			SHA256:       saved.SHA256,
		})
	}
	if _, err := s.store.Create(ctx, rep); err != nil {
		s.removeFiles(rep.Attachments)
		return nil, err
	}
	return rep, nil
}

// Delete removes the report rows and then its stored files. File removal
// failures are logged; the report is already gone at that point.
func (s *Service) Delete(ctx context.Context, id int64) error {
	atts, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.removeFiles(atts)
	return nil
}

func (s *Service) uniqueTrackingCode(ctx context.Context) (string, error) {
	for i := 0; i < maxTrackingCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		existing, err := s.store.FindByTrackingCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique tracking code")
}

func (s *Service) classify(ctx context.Context, details string) Severity {
	if s.classifier == nil || details == "" {
		return ""
	}
	sev, err := s.classifier.Classify(ctx, details)
	if err != nil {
		if s.logger != nil {
			s.logger.Warnf("severity classifier: %v", err)
		}
		return ""
	}
	return sev
}

func (s *Service) removeFiles(atts []store.Attachment) {
	for _, a := range atts {
		if err := s.files.Remove(a.StoredName); err != nil && s.logger != nil {
			s.logger.Errorf("remove attachment %s: %v", a.StoredName, err)
		}
	}
}
