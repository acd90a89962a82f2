package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chilagrow/documentdb/internal/query/types"
)

// Catalog manages collection metadata including indexes and statistics.
type Catalog interface {
	// Collection operations
	CreateCollection(spec *CollectionSpec) (*Collection, error)
	GetCollection(database, name string) (*Collection, error)
	DropCollection(database, name string) error
	ListCollections(database string) ([]*Collection, error)

	// Index operations
	CreateIndex(spec *IndexSpec) (*Index, error)
	GetIndex(database, collection, indexName string) (*Index, error)
	DropIndex(database, collection, indexName string) error

	// Indexes returns a snapshot of all index metadata for a collection.
	// Callers own the returned slice; the planner reads it once per
	// statement.
	Indexes(database, collection string) ([]*Index, error)

	// Statistics operations
	UpdateCollectionStats(database, collection string, stats *CollectionStats) error
	GetCollectionStats(database, collection string) (*CollectionStats, error)

	// Database operations
	CreateDatabase(name string) error
	DropDatabase(name string) error
	ListDatabases() ([]string, error)
}

// StatsWriter is the interface for updating statistics in the catalog.
type StatsWriter interface {
	UpdateCollectionStatistics(collectionID uint64, stats *CollectionStats) error
}

// CollectionSpec defines the structure for creating a new collection.
type CollectionSpec struct {
	Database       string
	Name           string
	PrimaryKeyPath types.Path // defaults to "_id"
	ShardKeyPath   types.Path // empty for unsharded collections
}

// Collection represents a collection with its metadata.
type Collection struct {
	ID             uint64
	UUID           uuid.UUID
	Database       string
	Name           string
	PrimaryKeyPath types.Path
	ShardKeyPath   types.Path
	Indexes        []*Index
	Stats          *CollectionStats
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Namespace returns the qualified "database.collection" name.
func (c *Collection) Namespace() string {
	return fmt.Sprintf("%s.%s", c.Database, c.Name)
}

// IsSharded returns true if the collection has a shard key.
func (c *Collection) IsSharded() bool {
	return c.ShardKeyPath != ""
}

// PrimaryKeyIndex returns the primary key index if it exists.
func (c *Collection) PrimaryKeyIndex() *Index {
	for _, idx := range c.Indexes {
		if idx.IsPrimary {
			return idx
		}
	}
	return nil
}

// Index represents an index on a collection.
type Index struct {
	ID           uint64
	Name         string
	CollectionID uint64
	Kind         IndexKind
	IsUnique     bool
	IsPrimary    bool
	KeyPaths     []IndexPath
	Sparse       bool   // sparse indexes skip documents missing the path
	Wildcard     bool   // wildcard indexes cover a whole path subtree
	Collation    string // empty means binary ("simple") collation
	Vector       VectorOptions
	Text         TextOptions
	CreatedAt    time.Time
}

// IndexPath represents one keyed path in an index.
type IndexPath struct {
	Path      types.Path
	SortOrder SortOrder
	Position  int
}

// IndexKind represents the type of index.
type IndexKind int

const (
	// OrderedIndex is a B-tree style index over one or more paths.
	OrderedIndex IndexKind = iota
	// HashedIndex supports equality only.
	HashedIndex
	// TextIndex supports $text search predicates.
	TextIndex
	// VectorIndex supports approximate nearest-neighbor predicates.
	VectorIndex
)

func (k IndexKind) String() string {
	switch k {
	case OrderedIndex:
		return "ORDERED"
	case HashedIndex:
		return "HASHED"
	case TextIndex:
		return "TEXT"
	case VectorIndex:
		return "VECTOR"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// SortOrder represents the sort order of an index path.
type SortOrder int

const (
	// Ascending sort order.
	Ascending SortOrder = iota
	// Descending sort order.
	Descending
)

func (s SortOrder) String() string {
	if s == Descending {
		return "DESC"
	}
	return "ASC"
}

// VectorOptions carries vector index parameters.
type VectorOptions struct {
	Dimensions int
	Metric     string // "cosine", "l2" or "ip"
	Lists      int    // IVF cluster count; 0 for graph-based indexes
}

// TextOptions carries text index parameters.
type TextOptions struct {
	DefaultLanguage string
	Weights         map[string]int // per-path term weights; nil means uniform
}

// LeadingPath returns the first keyed path of the index.
func (i *Index) LeadingPath() types.Path {
	if len(i.KeyPaths) == 0 {
		return ""
	}
	return i.KeyPaths[0].Path
}

// CoversPath reports whether the index can answer predicates on the
// given path. Ordered and hashed indexes answer their leading path.
// Wildcard indexes answer any path under their declared subtree.
func (i *Index) CoversPath(path types.Path) bool {
	if i.Wildcard {
		return i.wildcardCovers(path)
	}
	return i.LeadingPath() == path
}

// wildcardCovers resolves "$**" subtree declarations. A key path of
// "$**" covers every path; "a.$**" covers "a" and any path under it.
func (i *Index) wildcardCovers(path types.Path) bool {
	lead := string(i.LeadingPath())
	if lead == "$**" {
		return true
	}
	prefix := strings.TrimSuffix(lead, ".$**")
	if prefix == lead {
		// Malformed wildcard declaration; treat as a plain path.
		return types.Path(lead) == path
	}
	return string(path) == prefix || strings.HasPrefix(string(path), prefix+".")
}

// IndexSpec defines the structure for creating an index.
type IndexSpec struct {
	Database   string
	Collection string
	Name       string
	Kind       IndexKind
	IsUnique   bool
	KeyPaths   []IndexPathDef
	Sparse     bool
	Wildcard   bool
	Collation  string
	Vector     VectorOptions
	Text       TextOptions
}

// IndexPathDef defines a keyed path when creating an index.
type IndexPathDef struct {
	Path      types.Path
	SortOrder SortOrder
}
