package reports

import "context"

// SeverityClassifier predicts a severity from free-text report details.
type SeverityClassifier interface {
	Classify(ctx context.Context, details string) (Severity, error)
}

// ClassifierFunc adapts a plain function to SeverityClassifier.
type ClassifierFunc func(ctx context.Context, details string) (Severity, error)

func (f ClassifierFunc) Classify(ctx context.Context, details string) (Severity, error) {
	return f(ctx, details)
}
