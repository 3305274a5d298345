package db

import (
	"context"
	"time"
)

// Attachment represents an attachments row
type Attachment struct {
	ID          string
	RequestID   string
	FileName    string
	ObjectName  string
	ContentType string
	SizeBytes   int64
	SHA256      string
	CreatedAt   time.Time
}

type CreateAttachmentParams struct {
	ID          string
	RequestID   string
	FileName    string
	ObjectName  string
	ContentType string
	SizeBytes   int64
	SHA256      string
}

func (q *Queries) CreateAttachment(ctx context.Context, p CreateAttachmentParams) (Attachment, error) {
	var a Attachment
	err := q.db.QueryRow(ctx,
		`INSERT INTO attachments (id, request_id, file_name, object_name, content_type, size_bytes, sha256)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, request_id, file_name, object_name, content_type, size_bytes, sha256, created_at`,
		p.ID, p.RequestID, p.FileName, p.ObjectName, p.ContentType, p.SizeBytes, p.SHA256,
	).Scan(&a.ID, &a.RequestID, &a.FileName, &a.ObjectName, &a.ContentType,
		&a.SizeBytes, &a.SHA256, &a.CreatedAt)
	return a, err
}

func (q *Queries) ListAttachmentsByRequest(ctx context.Context, requestID string) ([]Attachment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, request_id, file_name, object_name, content_type, size_bytes, sha256, created_at
		FROM attachments WHERE request_id = $1 ORDER BY created_at ASC`,
		requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.RequestID, &a.FileName, &a.ObjectName,
			&a.ContentType, &a.SizeBytes, &a.SHA256, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
