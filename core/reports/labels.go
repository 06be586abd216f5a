package reports

import "strings"

// Status is the lifecycle state of a report. Stored rows carry the Arabic
// label; code values are used everywhere else.
type Status string

const (
	StatusReceived    Status = "received"
	StatusUnderReview Status = "under_review"
	StatusInProgress  Status = "in_progress"
	StatusResolved    Status = "resolved"
	StatusClosed      Status = "closed"
)

var statusOrder = []Status{StatusReceived, StatusUnderReview, StatusInProgress, StatusResolved, StatusClosed}

var statusLabels = map[Status]string{
	StatusReceived:    "تم استلام البلاغ",
	StatusUnderReview: "قيد المراجعة",
	StatusInProgress:  "قيد المعالجة",
	StatusResolved:    "تم الحل",
	StatusClosed:      "تم الإغلاق",
}

// legacy spelling without hamza found in older rows
const legacyClosedLabel = "تم الاغلاق"

func AllStatuses() []Status {
	return append([]Status(nil), statusOrder...)
}

// ParseStatus accepts a code or a stored label. Unknown input is returned
// unchanged so callers can decide how to treat it.
func ParseStatus(raw string) Status {
	v := strings.TrimSpace(raw)
	if v == legacyClosedLabel {
		return StatusClosed
	}
	for code, label := range statusLabels {
		if v == label || strings.EqualFold(v, string(code)) {
			return code
		}
	}
	return Status(v)
}

func (s Status) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the stored Arabic label, or the raw value for unknown statuses.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Archived() bool {
	return s == StatusResolved || s == StatusClosed
}

// Category is the report type.
type Category string

const (
	CategoryAssault     Category = "assault"
	CategoryBlackmail   Category = "blackmail"
	CategoryHarassment  Category = "harassment"
	CategoryTheft       Category = "theft"
	CategoryAltercation Category = "altercation"
)

var categoryOrder = []Category{CategoryAssault, CategoryBlackmail, CategoryHarassment, CategoryTheft, CategoryAltercation}

var categoryLabels = map[Category]string{
	CategoryAssault:     "اعتداء",
	CategoryBlackmail:   "ابتزاز",
	CategoryHarassment:  "تحرش",
	CategoryTheft:       "سرقة",
	CategoryAltercation: "مشادة",
}

func AllCategories() []Category {
	return append([]Category(nil), categoryOrder...)
}

func ParseCategory(raw string) Category {
	v := strings.TrimSpace(raw)
	for code, label := range categoryLabels {
		if v == label || strings.EqualFold(v, string(code)) {
			return code
		}
	}
	return Category(v)
}

func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Severity is produced by the optional classifier; empty means unclassified.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var severityLabels = map[Severity]string{
	SeverityCritical: "حرج",
	SeverityHigh:     "عالي",
	SeverityMedium:   "متوسط",
	SeverityLow:      "منخفض",
}

func ParseSeverity(raw string) Severity {
	v := strings.TrimSpace(raw)
	for code, label := range severityLabels {
		if v == label || strings.EqualFold(v, string(code)) {
			return code
		}
	}
	return Severity(v)
}

func (s Severity) Known() bool {
	_, ok := severityLabels[s]
	return ok
}

func (s Severity) Label() string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return string(s)
}
