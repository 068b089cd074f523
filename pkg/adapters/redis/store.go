package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/schema"
)

// Store implements ports.DocumentStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for documents.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for documents.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "espalier:document:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the document to Redis.
func (s *Store) Save(ctx context.Context, id string, doc domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()

	// 1. Save JSON with TTL (0 means no expiration).
	pipe.Set(ctx, s.key(id), data, s.ttl)

	// 2. Add to Index (ZSET). Score = expiry time; effectively infinite
	// when there is no TTL.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01 (Far enough for now)
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: id,
	})

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the document from Redis.
func (s *Store) Load(ctx context.Context, id string) (domain.Document, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	doc, err := schema.Decode([]byte(val))
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

// Delete removes the document. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored documents via the ZSET index, lazily pruning
// entries whose keys have expired.
func (s *Store) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	now := float64(time.Now().Unix())

	// Lazy Cleanup: drop index entries whose score (expiry) has passed.
	// With no TTL every score is far in the future and nothing is removed.
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired documents: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		return []ports.DocumentInfo{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	infos := make([]ports.DocumentInfo, 0, len(ids))
	for i, raw := range values {
		val, ok := raw.(string)
		if !ok {
			// Key expired between ZRange and MGet; the next List prunes it.
			continue
		}
		doc, err := schema.Decode([]byte(val))
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", ids[i], err)
		}
		infos = append(infos, ports.DocumentInfo{
			ID:        ids[i],
			Name:      doc.Name,
			Nodes:     doc.Root.Count(),
			UpdatedAt: doc.UpdatedAt,
		})
	}

	return infos, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
