package repositories

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"docuchat/internal/models"
)

const (
	// Redis key prefixes
	documentKeyPrefix = "document:"
	documentIndexKey  = "documents:index"
	sessionIndexKey   = "session:"
)

// RedisDocumentRepository implements DocumentRepository using Redis
type RedisDocumentRepository struct {
	client *redis.Client
}

// NewRedisDocumentRepository creates a new Redis-based document registry
func NewRedisDocumentRepository(client *redis.Client) *RedisDocumentRepository {
	return &RedisDocumentRepository{
		client: client,
	}
}

// Register stores a new document in the registry
func (r *RedisDocumentRepository) Register(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	exists, err := r.Exists(ctx, doc.ID)
	if err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "")
	}
	if exists {
		return DocumentAlreadyExistsError(doc.ID)
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "failed to marshal document")
	}

	// Use transaction to ensure atomicity
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, documentKeyPrefix+doc.ID, docJSON, 0)
	pipe.SAdd(ctx, documentIndexKey, doc.ID)
	pipe.SAdd(ctx, sessionIndexKey+doc.SessionID, doc.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "failed to execute transaction")
	}

	return nil
}

// Get retrieves a document by ID
func (r *RedisDocumentRepository) Get(ctx context.Context, documentID string) (*models.Document, error) {
	docJSON, err := r.client.Get(ctx, documentKeyPrefix+documentID).Result()
	if err == redis.Nil {
		return nil, DocumentNotFoundError(documentID)
	}
	if err != nil {
		return nil, NewDocumentRepositoryError("get", documentID, err, "")
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, NewDocumentRepositoryError("get", documentID, err, "failed to unmarshal document")
	}

	return &doc, nil
}

// List retrieves all registered documents
func (r *RedisDocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	docIDs, err := r.client.SMembers(ctx, documentIndexKey).Result()
	if err != nil {
		return nil, NewDocumentRepositoryError("list", "", err, "")
	}
	return r.getMany(ctx, docIDs)
}

// ListBySession retrieves all documents belonging to a session
func (r *RedisDocumentRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Document, error) {
	docIDs, err := r.client.SMembers(ctx, sessionIndexKey+sessionID).Result()
	if err != nil {
		return nil, NewDocumentRepositoryError("list_by_session", "", err, "")
	}
	return r.getMany(ctx, docIDs)
}

// Delete removes a document from the registry and its indexes
func (r *RedisDocumentRepository) Delete(ctx context.Context, documentID string) error {
	doc, err := r.Get(ctx, documentID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, documentKeyPrefix+documentID)
	pipe.SRem(ctx, documentIndexKey, documentID)
	pipe.SRem(ctx, sessionIndexKey+doc.SessionID, documentID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRepositoryError("delete", documentID, err, "failed to execute transaction")
	}

	return nil
}

// Exists checks if a document is registered
func (r *RedisDocumentRepository) Exists(ctx context.Context, documentID string) (bool, error) {
	n, err := r.client.Exists(ctx, documentKeyPrefix+documentID).Result()
	if err != nil {
		return false, NewDocumentRepositoryError("exists", documentID, err, "")
	}
	return n > 0, nil
}

// Ping checks if Redis is alive
func (r *RedisDocumentRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (r *RedisDocumentRepository) Close() error {
	return r.client.Close()
}

func (r *RedisDocumentRepository) getMany(ctx context.Context, docIDs []string) ([]*models.Document, error) {
	docs := make([]*models.Document, 0, len(docIDs))
	for _, id := range docIDs {
		doc, err := r.Get(ctx, id)
		if err != nil {
			// Index entries can outlive their documents; skip stale IDs
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	return docs, nil
}
