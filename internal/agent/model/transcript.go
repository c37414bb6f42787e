package model

import "context"

type TranscriptRepository interface {
	// AppendRecord appends a record to the transcript of the given session
	AppendRecord(ctx context.Context, sessionID string, record SessionRecord) error

	// LoadRecords returns the transcript of a session in append order
	LoadRecords(ctx context.Context, sessionID string) ([]SessionRecord, error)

	// ClearRecords removes the transcript of a session
	ClearRecords(ctx context.Context, sessionID string) error

	// RecordCount returns the number of records in the transcript
	RecordCount(ctx context.Context, sessionID string) (int, error)
}
