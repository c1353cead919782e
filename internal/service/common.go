package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// --- Document DTOs ---

type DocumentPayload struct {
	FileName  string `json:"file_name" binding:"required"`
	FileURL   string `json:"file_url" binding:"required,url"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes" binding:"gte=0"`
}

type DocumentResponse struct {
	ID        uuid.UUID `json:"id"`
	OwnerType string    `json:"owner_type"`
	OwnerID   uuid.UUID `json:"owner_id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func validateDocuments(docs []DocumentPayload) error {
	for _, d := range docs {
		if strings.TrimSpace(d.FileName) == "" {
			return &compliance.ValidationError{Field: "documents.file_name", Reason: "is required"}
		}
		if strings.TrimSpace(d.FileURL) == "" {
			return &compliance.ValidationError{Field: "documents.file_url", Reason: "is required"}
		}
	}
	return nil
}

func documentSet(ownerType string, ownerID, clientID uuid.UUID, payloads []DocumentPayload) *compliance.DocumentSet {
	docs := make([]model.Document, 0, len(payloads))
	for _, p := range payloads {
		docs = append(docs, model.Document{
			ClientID:  clientID,
			FileName:  p.FileName,
			FileURL:   p.FileURL,
			MimeType:  p.MimeType,
			SizeBytes: p.SizeBytes,
		})
	}
	return &compliance.DocumentSet{OwnerType: ownerType, OwnerID: ownerID, Docs: docs}
}

func toDocumentResponses(docs []model.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentResponse{
			ID:        d.ID,
			OwnerType: d.OwnerType,
			OwnerID:   d.OwnerID,
			FileName:  d.FileName,
			FileURL:   d.FileURL,
			MimeType:  d.MimeType,
			SizeBytes: d.SizeBytes,
			CreatedAt: d.CreatedAt,
		})
	}
	return out
}

// --- Lookup helpers ---

func parseID(kind compliance.EntityKind, id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, &compliance.ValidationError{Kind: kind, Field: "id", Value: id, Reason: "must be a UUID"}
	}
	return uid, nil
}

// lookupError turns a repository read failure into the error taxonomy.
func lookupError(kind compliance.EntityKind, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &compliance.NotFoundError{Kind: kind, ID: id}
	}
	return &compliance.PersistenceError{Op: "load " + string(kind), Err: err}
}

// ownership resolves the client a record belongs to and checks the actor
// owns it. Foreign records are reported as missing.
type ownership struct {
	clients repository.ClientRepository
}

func (o ownership) client(ctx context.Context, scope compliance.Scope, clientID uuid.UUID) (*model.Client, error) {
	client, err := o.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, lookupError(compliance.KindClient, clientID, err)
	}
	if !scope.Owns(client.UserID) {
		return nil, &compliance.NotFoundError{Kind: compliance.KindClient, ID: clientID}
	}
	return client, nil
}

// owner is client() for a child record: a missing or foreign client hides
// the child itself.
func (o ownership) owner(ctx context.Context, scope compliance.Scope, kind compliance.EntityKind, id, clientID uuid.UUID) (*model.Client, error) {
	client, err := o.client(ctx, scope, clientID)
	if errors.Is(err, compliance.ErrNotFound) {
		return nil, &compliance.NotFoundError{Kind: kind, ID: id}
	}
	return client, err
}

// --- Parsing helpers ---

func parseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &compliance.ValidationError{Field: field, Value: value, Reason: "must be YYYY-MM-DD or RFC3339"}
}

// parseOptionalDate maps a Field of *string to the column value: nil or ""
// clears the column.
func parseOptionalDate(field string, f compliance.Field[*string], fields map[string]interface{}, column string) error {
	if !f.Set {
		return nil
	}
	if f.Value == nil || *f.Value == "" {
		fields[column] = nil
		return nil
	}
	t, err := parseDate(field, *f.Value)
	if err != nil {
		return err
	}
	fields[column] = t
	return nil
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func pageDefaults(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return page, limit
}
