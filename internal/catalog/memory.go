package catalog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/query/types"
)

const defaultDatabaseName = "docs"

// defaultPrimaryKeyPath is the path collections key on unless the
// spec declares another.
const defaultPrimaryKeyPath = types.Path("_id")

// MemoryCatalog is an in-memory implementation of the Catalog interface.
// It's useful for testing and development.
type MemoryCatalog struct {
	mu          sync.RWMutex
	databases   map[string]*database
	collections map[string]*Collection // "database.collection" -> Collection
	indexes     map[string]*Index      // "database.collection.index" -> Index
	nextID      uint64
}

// database groups collections under one namespace.
type database struct {
	name        string
	collections map[string]*Collection
}

// NewMemoryCatalog creates a new in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	c := &MemoryCatalog{
		databases:   make(map[string]*database),
		collections: make(map[string]*Collection),
		indexes:     make(map[string]*Index),
		nextID:      1,
	}

	// Create the default database
	c.databases[defaultDatabaseName] = &database{
		name:        defaultDatabaseName,
		collections: make(map[string]*Collection),
	}

	return c
}

// CreateDatabase creates a new database.
func (c *MemoryCatalog) CreateDatabase(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.databases[name]; exists {
		return errors.Newf(errors.DuplicateObject, "database \"%s\" already exists", name)
	}

	c.databases[name] = &database{
		name:        name,
		collections: make(map[string]*Collection),
	}

	return nil
}

// DropDatabase drops a database and all its collections.
func (c *MemoryCatalog) DropDatabase(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name == defaultDatabaseName {
		return errors.Newf(errors.ObjectInUse, "cannot drop the %s database", defaultDatabaseName)
	}

	db, exists := c.databases[name]
	if !exists {
		return errors.Newf(errors.UndefinedObject, "database \"%s\" does not exist", name)
	}

	// Drop all collections in the database
	for collName := range db.collections {
		key := fmt.Sprintf("%s.%s", name, collName)
		delete(c.collections, key)

		// Drop all indexes for the collection
		for indexKey := range c.indexes {
			if strings.HasPrefix(indexKey, key+".") {
				delete(c.indexes, indexKey)
			}
		}
	}

	delete(c.databases, name)
	return nil
}

// ListDatabases returns a list of all databases.
func (c *MemoryCatalog) ListDatabases() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	databases := make([]string, 0, len(c.databases))
	for name := range c.databases {
		databases = append(databases, name)
	}

	return databases, nil
}

// CreateCollection creates a new collection. Every collection gets a
// primary key index on its primary key path, named "_id_" by
// convention.
func (c *MemoryCatalog) CreateCollection(spec *CollectionSpec) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Validate database exists
	dbName := spec.Database
	if dbName == "" {
		dbName = defaultDatabaseName
	}

	db, exists := c.databases[dbName]
	if !exists {
		return nil, errors.Newf(errors.UndefinedObject, "database \"%s\" does not exist", dbName)
	}

	// Check if collection already exists
	key := fmt.Sprintf("%s.%s", dbName, spec.Name)
	if _, exists := c.collections[key]; exists {
		return nil, errors.DuplicateCollectionError(key)
	}

	pkPath := spec.PrimaryKeyPath
	if pkPath == "" {
		pkPath = defaultPrimaryKeyPath
	}

	// Create collection
	coll := &Collection{
		ID:             c.nextID,
		UUID:           uuid.New(),
		Database:       dbName,
		Name:           spec.Name,
		PrimaryKeyPath: pkPath,
		ShardKeyPath:   spec.ShardKeyPath,
		Indexes:        make([]*Index, 0),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	c.nextID++

	// Create the primary key index
	pkIndex := &Index{
		ID:           c.nextID,
		Name:         "_id_",
		CollectionID: coll.ID,
		Kind:         OrderedIndex,
		IsUnique:     true,
		IsPrimary:    true,
		KeyPaths: []IndexPath{
			{Path: pkPath, SortOrder: Ascending, Position: 0},
		},
		CreatedAt: time.Now(),
	}
	c.nextID++

	coll.Indexes = append(coll.Indexes, pkIndex)
	indexKey := fmt.Sprintf("%s.%s", key, pkIndex.Name)
	c.indexes[indexKey] = pkIndex

	// Initialize empty statistics
	coll.Stats = &CollectionStats{
		DocumentCount: 0,
		AvgDocSize:    0,
		LastAnalyzed:  time.Time{},
	}

	// Store collection
	c.collections[key] = coll
	db.collections[spec.Name] = coll

	return coll, nil
}

// GetCollection retrieves a collection by name.
func (c *MemoryCatalog) GetCollection(database, name string) (*Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if database == "" {
		database = defaultDatabaseName
	}

	key := fmt.Sprintf("%s.%s", database, name)
	coll, exists := c.collections[key]
	if !exists {
		return nil, errors.UndefinedCollectionError(key)
	}

	return coll, nil
}

// DropCollection drops a collection and all its indexes.
func (c *MemoryCatalog) DropCollection(database, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if database == "" {
		database = defaultDatabaseName
	}

	db, exists := c.databases[database]
	if !exists {
		return errors.Newf(errors.UndefinedObject, "database \"%s\" does not exist", database)
	}

	key := fmt.Sprintf("%s.%s", database, name)
	coll, exists := c.collections[key]
	if !exists {
		return errors.UndefinedCollectionError(key)
	}

	// Drop all indexes
	for _, index := range coll.Indexes {
		indexKey := fmt.Sprintf("%s.%s", key, index.Name)
		delete(c.indexes, indexKey)
	}

	// Remove from database
	delete(db.collections, name)

	// Remove from catalog
	delete(c.collections, key)

	return nil
}

// ListCollections returns all collections in a database.
func (c *MemoryCatalog) ListCollections(database string) ([]*Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if database == "" {
		database = defaultDatabaseName
	}

	db, exists := c.databases[database]
	if !exists {
		return nil, errors.Newf(errors.UndefinedObject, "database \"%s\" does not exist", database)
	}

	collections := make([]*Collection, 0, len(db.collections))
	for _, coll := range db.collections {
		collections = append(collections, coll)
	}

	return collections, nil
}

// CreateIndex creates a new index on a collection.
func (c *MemoryCatalog) CreateIndex(spec *IndexSpec) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dbName := spec.Database
	if dbName == "" {
		dbName = defaultDatabaseName
	}

	key := fmt.Sprintf("%s.%s", dbName, spec.Collection)
	coll, exists := c.collections[key]
	if !exists {
		return nil, errors.UndefinedCollectionError(key)
	}

	// Check if index already exists
	indexKey := fmt.Sprintf("%s.%s", key, spec.Name)
	if _, exists := c.indexes[indexKey]; exists {
		return nil, errors.DuplicateIndexError(spec.Name)
	}

	if err := validateIndexSpec(spec); err != nil {
		return nil, err
	}

	// Create index
	index := &Index{
		ID:           c.nextID,
		Name:         spec.Name,
		CollectionID: coll.ID,
		Kind:         spec.Kind,
		IsUnique:     spec.IsUnique,
		IsPrimary:    false,
		KeyPaths:     make([]IndexPath, 0, len(spec.KeyPaths)),
		Sparse:       spec.Sparse,
		Wildcard:     spec.Wildcard,
		Collation:    spec.Collation,
		Vector:       spec.Vector,
		Text:         spec.Text,
		CreatedAt:    time.Now(),
	}
	c.nextID++

	// Add key paths
	for i, pathDef := range spec.KeyPaths {
		index.KeyPaths = append(index.KeyPaths, IndexPath{
			Path:      pathDef.Path,
			SortOrder: pathDef.SortOrder,
			Position:  i,
		})
	}

	// Store index
	coll.Indexes = append(coll.Indexes, index)
	coll.UpdatedAt = time.Now()
	c.indexes[indexKey] = index

	return index, nil
}

// validateIndexSpec rejects specs the planner could not use.
func validateIndexSpec(spec *IndexSpec) error {
	if len(spec.KeyPaths) == 0 {
		return errors.Newf(errors.InvalidObjectDefinition, "index \"%s\" must key at least one path", spec.Name)
	}
	switch spec.Kind {
	case VectorIndex:
		if spec.Vector.Dimensions < 1 {
			return errors.Newf(errors.InvalidObjectDefinition, "vector index \"%s\" requires positive dimensions", spec.Name)
		}
		switch spec.Vector.Metric {
		case "cosine", "l2", "ip":
			// Valid
		default:
			return errors.Newf(errors.InvalidObjectDefinition, "vector index \"%s\" has unknown metric \"%s\"", spec.Name, spec.Vector.Metric)
		}
	case TextIndex:
		if spec.Wildcard {
			return errors.Newf(errors.InvalidObjectDefinition, "text index \"%s\" cannot be a wildcard index", spec.Name)
		}
	}
	return nil
}

// GetIndex retrieves an index by name.
func (c *MemoryCatalog) GetIndex(database, collection, indexName string) (*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if database == "" {
		database = defaultDatabaseName
	}

	key := fmt.Sprintf("%s.%s.%s", database, collection, indexName)
	index, exists := c.indexes[key]
	if !exists {
		return nil, errors.UndefinedIndexError(key)
	}

	return index, nil
}

// DropIndex drops an index.
func (c *MemoryCatalog) DropIndex(database, collection, indexName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if database == "" {
		database = defaultDatabaseName
	}

	// Get the collection
	collKey := fmt.Sprintf("%s.%s", database, collection)
	coll, exists := c.collections[collKey]
	if !exists {
		return errors.UndefinedCollectionError(collKey)
	}

	// Find and remove the index
	indexKey := fmt.Sprintf("%s.%s", collKey, indexName)
	index, exists := c.indexes[indexKey]
	if !exists {
		return errors.UndefinedIndexError(indexName)
	}

	if index.IsPrimary {
		return errors.Newf(errors.ObjectInUse, "cannot drop primary key index \"%s\"", indexName)
	}

	// Remove from collection's index list
	for i, idx := range coll.Indexes {
		if idx.ID == index.ID {
			coll.Indexes = append(coll.Indexes[:i], coll.Indexes[i+1:]...)
			break
		}
	}
	coll.UpdatedAt = time.Now()

	// Remove from catalog
	delete(c.indexes, indexKey)

	return nil
}

// Indexes returns a snapshot of the collection's index metadata.
func (c *MemoryCatalog) Indexes(database, collection string) ([]*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if database == "" {
		database = defaultDatabaseName
	}

	key := fmt.Sprintf("%s.%s", database, collection)
	coll, exists := c.collections[key]
	if !exists {
		return nil, errors.UndefinedCollectionError(key)
	}

	snapshot := make([]*Index, len(coll.Indexes))
	copy(snapshot, coll.Indexes)
	return snapshot, nil
}

// UpdateCollectionStats updates statistics for a collection.
func (c *MemoryCatalog) UpdateCollectionStats(database, collection string, stats *CollectionStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if database == "" {
		database = defaultDatabaseName
	}

	key := fmt.Sprintf("%s.%s", database, collection)
	coll, exists := c.collections[key]
	if !exists {
		return errors.UndefinedCollectionError(key)
	}

	coll.Stats = stats
	coll.UpdatedAt = time.Now()

	return nil
}

// GetCollectionStats retrieves statistics for a collection.
func (c *MemoryCatalog) GetCollectionStats(database, collection string) (*CollectionStats, error) {
	coll, err := c.GetCollection(database, collection)
	if err != nil {
		return nil, err
	}

	if coll.Stats == nil {
		return &CollectionStats{}, nil
	}

	return coll.Stats, nil
}

// UpdateCollectionStatistics updates statistics for a collection by ID.
func (c *MemoryCatalog) UpdateCollectionStatistics(collectionID uint64, stats *CollectionStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Find collection by ID
	for _, coll := range c.collections {
		if coll.ID == collectionID {
			coll.Stats = stats
			coll.UpdatedAt = time.Now()
			return nil
		}
	}

	return errors.Newf(errors.UndefinedObject, "collection with ID %d not found", collectionID)
}
