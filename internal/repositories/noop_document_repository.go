package repositories

import (
	"context"
	"log"

	"docuchat/internal/models"
)

// NoopDocumentRepository is used when Redis is unavailable. Ingestion and
// chat keep working; only registry bookkeeping is lost, and each skipped
// write is logged once per call.
type NoopDocumentRepository struct {
	logger *log.Logger
}

// NewNoopDocumentRepository creates a registry that records nothing
func NewNoopDocumentRepository(logger *log.Logger) *NoopDocumentRepository {
	return &NoopDocumentRepository{logger: logger}
}

func (r *NoopDocumentRepository) Register(ctx context.Context, doc *models.Document) error {
	r.logger.Printf("Document registry unavailable; document %s not registered", doc.ID)
	return nil
}

func (r *NoopDocumentRepository) Get(ctx context.Context, documentID string) (*models.Document, error) {
	return nil, DocumentNotFoundError(documentID)
}

func (r *NoopDocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	return []*models.Document{}, nil
}

func (r *NoopDocumentRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Document, error) {
	return []*models.Document{}, nil
}

func (r *NoopDocumentRepository) Delete(ctx context.Context, documentID string) error {
	r.logger.Printf("Document registry unavailable; delete of %s skipped", documentID)
	return nil
}

func (r *NoopDocumentRepository) Exists(ctx context.Context, documentID string) (bool, error) {
	return false, nil
}

func (r *NoopDocumentRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *NoopDocumentRepository) Close() error {
	return nil
}
