package docstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/crqscan/pkg/alg/lru"
	"github.com/Sumatoshi-tech/crqscan/pkg/persist"
)

// Default document directories, relative to the working directory.
const (
	DefaultArticleDir = "cache/articles"
	DefaultEntityDir  = "cache/entities"
)

const defaultCacheEntries = 256

// ErrEmptyKey is returned when a document has no title or id to store it under.
var ErrEmptyKey = errors.New("empty document key")

var keyReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeKey maps a title or id to a file name by replacing path separators and
// characters that are invalid in file names with underscores.
func SanitizeKey(key string) string {
	return keyReplacer.Replace(key)
}

// Option configures a store.
type Option func(*options)

type options struct {
	cacheEntries int
}

// WithCacheEntries bounds the in-memory cache. Zero or less disables it.
func WithCacheEntries(n int) Option {
	return func(o *options) { o.cacheEntries = n }
}

// docs stores documents of one type keyed by their sanitized key. The cache only
// ever holds private copies, so callers may modify what they pass in or get back.
type docs[T any] struct {
	files *persist.Persister[T]
	cache *lru.Cache[string, T]
	clone func(T) T
}

func newDocs[T any](dir string, clone func(T) T, opts []Option) *docs[T] {
	o := options{cacheEntries: defaultCacheEntries}
	for _, opt := range opts {
		opt(&o)
	}

	d := &docs[T]{files: persist.NewPersister[T](dir, persist.NewJSONCodec()), clone: clone}

	if o.cacheEntries > 0 {
		d.cache = lru.New(lru.WithMaxEntries[string, T](o.cacheEntries))
	}

	return d
}

func (d *docs[T]) save(key string, doc T) error {
	if key == "" {
		return ErrEmptyKey
	}

	name := SanitizeKey(key)

	err := d.files.Save(name, &doc)
	if err != nil {
		if d.cache != nil {
			d.cache.Remove(name)
		}

		return err
	}

	if d.cache != nil {
		d.cache.Put(name, d.clone(doc))
	}

	return nil
}

func (d *docs[T]) load(key string) (*T, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	name := SanitizeKey(key)

	if d.cache != nil {
		if cached, ok := d.cache.Get(name); ok {
			doc := d.clone(cached)

			return &doc, nil
		}
	}

	doc, err := d.files.Load(name)
	if err != nil || doc == nil {
		return doc, err
	}

	if d.cache != nil {
		d.cache.Put(name, d.clone(*doc))
	}

	return doc, nil
}

func (d *docs[T]) stats() lru.Stats {
	if d.cache == nil {
		return lru.Stats{}
	}

	return d.cache.Stats()
}

// ArticleStore keeps articles keyed by title.
type ArticleStore struct {
	docs *docs[Article]
}

// NewArticleStore returns a store writing to dir.
func NewArticleStore(dir string, opts ...Option) *ArticleStore {
	return &ArticleStore{docs: newDocs(dir, Article.clone, opts)}
}

// Save writes the article, replacing any previous one with the same title.
func (s *ArticleStore) Save(article Article) error {
	err := s.docs.save(article.Title, article)
	if err != nil {
		return fmt.Errorf("save article %q: %w", article.Title, err)
	}

	return nil
}

// Load returns the article stored under title, or (nil, nil) if there is none.
func (s *ArticleStore) Load(title string) (*Article, error) {
	article, err := s.docs.load(title)
	if err != nil {
		return nil, fmt.Errorf("load article %q: %w", title, err)
	}

	return article, nil
}

// CacheStats reports the in-memory cache counters.
func (s *ArticleStore) CacheStats() lru.Stats {
	return s.docs.stats()
}

// EntityStore keeps entities keyed by id.
type EntityStore struct {
	docs *docs[Entity]
}

// NewEntityStore returns a store writing to dir.
func NewEntityStore(dir string, opts ...Option) *EntityStore {
	return &EntityStore{docs: newDocs(dir, Entity.clone, opts)}
}

// Save writes the entity, replacing any previous one with the same id.
func (s *EntityStore) Save(entity Entity) error {
	err := s.docs.save(entity.ID, entity)
	if err != nil {
		return fmt.Errorf("save entity %q: %w", entity.ID, err)
	}

	return nil
}

// Load returns the entity stored under id, or (nil, nil) if there is none.
func (s *EntityStore) Load(id string) (*Entity, error) {
	entity, err := s.docs.load(id)
	if err != nil {
		return nil, fmt.Errorf("load entity %q: %w", id, err)
	}

	return entity, nil
}

// CacheStats reports the in-memory cache counters.
func (s *EntityStore) CacheStats() lru.Stats {
	return s.docs.stats()
}
