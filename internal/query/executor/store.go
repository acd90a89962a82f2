package executor

import (
	"sync"
	"time"

	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// Store is an in-memory document store keyed by collection ID. A
// document's ID is its position in the collection's load order. The
// store reports document counts to the catalog when given a stats
// writer.
type Store struct {
	mu          sync.RWMutex
	collections map[uint64]*collectionData
	stats       catalog.StatsWriter
}

type collectionData struct {
	coll *catalog.Collection
	docs []types.Document
}

// NewStore creates an empty store. stats may be nil, in which case
// collection statistics are not maintained.
func NewStore(stats catalog.StatsWriter) *Store {
	return &Store{
		collections: make(map[uint64]*collectionData),
		stats:       stats,
	}
}

// Load replaces the documents of a collection.
func (s *Store) Load(coll *catalog.Collection, docs []types.Document) error {
	s.mu.Lock()
	s.collections[coll.ID] = &collectionData{coll: coll, docs: docs}
	s.mu.Unlock()
	return s.refreshStats(coll.ID)
}

// Insert appends one document to a loaded collection and returns its
// document ID.
func (s *Store) Insert(collectionID uint64, doc types.Document) (uint32, error) {
	s.mu.Lock()
	data, ok := s.collections[collectionID]
	if !ok {
		s.mu.Unlock()
		return 0, errors.Newf(errors.UndefinedTable, "collection %d is not loaded", collectionID)
	}
	data.docs = append(data.docs, doc)
	id := uint32(len(data.docs) - 1)
	s.mu.Unlock()

	if err := s.refreshStats(collectionID); err != nil {
		return 0, err
	}
	return id, nil
}

// Documents returns a point-in-time snapshot of a collection's
// documents. Document IDs index into the returned slice; later inserts
// do not grow it.
func (s *Store) Documents(collectionID uint64) ([]types.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collectionID]
	if !ok {
		return nil, false
	}
	return data.docs, true
}

// Len reports how many documents a collection holds. Unknown
// collections report zero.
func (s *Store) Len(collectionID uint64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collectionID]
	if !ok {
		return 0
	}
	return len(data.docs)
}

// refreshStats pushes the collection's document count and average
// rendered size to the catalog. The rendered size stands in for the
// stored size here.
func (s *Store) refreshStats(collectionID uint64) error {
	if s.stats == nil {
		return nil
	}

	s.mu.RLock()
	data, ok := s.collections[collectionID]
	if !ok {
		s.mu.RUnlock()
		return nil
	}
	count := len(data.docs)
	var total int
	for _, doc := range data.docs {
		total += len(doc.String())
	}
	s.mu.RUnlock()

	avg := 0
	if count > 0 {
		avg = total / count
	}
	return s.stats.UpdateCollectionStatistics(collectionID, &catalog.CollectionStats{
		DocumentCount: int64(count),
		AvgDocSize:    avg,
		LastAnalyzed:  time.Now(),
	})
}
