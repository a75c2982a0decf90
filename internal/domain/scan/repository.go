package scan

import "context"

// Repository defines persistence for finished scan reports
type Repository interface {
	// Save persists a finished run with its assessment and returns the written location
	Save(ctx context.Context, run *Run, assessment Assessment) (string, error)

	// Load restores a run and its assessment from a location written by Save
	Load(ctx context.Context, location string) (*Run, Assessment, error)
}
