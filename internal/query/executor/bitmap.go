package executor

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// BitmapOperator is the interface for operators that produce candidate
// document sets instead of document streams.
type BitmapOperator interface {
	Operator
	GetBitmap() *roaring.Bitmap
}

// BitmapIndexScanOperator runs one index scan and materializes the
// matching document IDs as a bitmap instead of streaming them.
type BitmapIndexScanOperator struct {
	baseOperator
	docs   []types.Document
	path   *planner.IndexScanPath
	bitmap *roaring.Bitmap
}

// NewBitmapIndexScanOperator creates a bitmap-producing index scan.
func NewBitmapIndexScanOperator(docs []types.Document, path *planner.IndexScanPath) *BitmapIndexScanOperator {
	return &BitmapIndexScanOperator{docs: docs, path: path}
}

// Open computes the matching document set.
func (op *BitmapIndexScanOperator) Open(ctx *ExecContext) error {
	op.ctx = ctx
	ids, err := matchIndexScan(op.docs, op.path)
	if err != nil {
		return err
	}
	op.bitmap = roaring.New()
	for _, id := range ids {
		op.bitmap.Add(id)
	}
	return nil
}

// GetBitmap returns the result bitmap.
func (op *BitmapIndexScanOperator) GetBitmap() *roaring.Bitmap {
	return op.bitmap
}

// Next is not used for bitmap operations.
func (op *BitmapIndexScanOperator) Next() (*Candidate, error) {
	return nil, fmt.Errorf("bitmap index scan does not support Next() - use GetBitmap()")
}

// Close cleans up the operator.
func (op *BitmapIndexScanOperator) Close() error {
	op.bitmap = nil
	return nil
}

// BitmapOrOperator unions the bitmaps of its children.
type BitmapOrOperator struct {
	baseOperator
	children []BitmapOperator
	bitmap   *roaring.Bitmap
}

// NewBitmapOrOperator creates a bitmap OR operator.
func NewBitmapOrOperator(children []BitmapOperator) *BitmapOrOperator {
	return &BitmapOrOperator{children: children}
}

// Open opens the children and builds the result bitmap.
func (op *BitmapOrOperator) Open(ctx *ExecContext) error {
	op.ctx = ctx
	op.bitmap = roaring.New()
	for _, child := range op.children {
		if err := child.Open(ctx); err != nil {
			return fmt.Errorf("failed to open bitmap OR child: %w", err)
		}
		op.bitmap.Or(child.GetBitmap())
	}
	return nil
}

// GetBitmap returns the result bitmap.
func (op *BitmapOrOperator) GetBitmap() *roaring.Bitmap {
	return op.bitmap
}

// Next is not used for bitmap operations.
func (op *BitmapOrOperator) Next() (*Candidate, error) {
	return nil, fmt.Errorf("bitmap OR does not support Next() - use GetBitmap()")
}

// Close cleans up the children.
func (op *BitmapOrOperator) Close() error {
	for _, child := range op.children {
		if err := child.Close(); err != nil {
			return err
		}
	}
	op.bitmap = nil
	return nil
}

// defaultBatchSize bounds a heap scan's ID buffer when no executor
// configuration is supplied.
const defaultBatchSize = 1024

// BitmapHeapScanOperator fetches documents for the candidate set its
// bitmap source produced, in document ID order. The union of overlapping
// scans yields each document once. IDs are drained from the bitmap in
// fixed-size batches so a large union is never materialized at once.
type BitmapHeapScanOperator struct {
	baseOperator
	docs      []types.Document
	source    BitmapOperator
	batchSize int
	it        roaring.IntPeekable
	batch     []uint32
	pos       int
	isOpen    bool
}

// NewBitmapHeapScanOperator creates a heap scan over a bitmap source.
// batchSize bounds how many document IDs are buffered per refill; zero
// or negative selects the default.
func NewBitmapHeapScanOperator(docs []types.Document, source BitmapOperator, batchSize int) *BitmapHeapScanOperator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BitmapHeapScanOperator{docs: docs, source: source, batchSize: batchSize}
}

// Open opens the bitmap source and positions the ID iterator.
func (op *BitmapHeapScanOperator) Open(ctx *ExecContext) error {
	op.ctx = ctx

	if err := op.source.Open(ctx); err != nil {
		return fmt.Errorf("failed to open bitmap source: %w", err)
	}

	op.it = op.source.GetBitmap().Iterator()
	op.batch = op.batch[:0]
	op.pos = 0
	op.isOpen = true
	return nil
}

// Next returns the next document of the candidate set.
func (op *BitmapHeapScanOperator) Next() (*Candidate, error) {
	if !op.isOpen {
		return nil, fmt.Errorf("bitmap heap scan not open")
	}
	if op.pos >= len(op.batch) {
		op.refill()
		if len(op.batch) == 0 {
			return nil, nil //nolint:nilnil // EOF - standard iterator pattern
		}
	}

	id := op.batch[op.pos]
	op.pos++
	op.ctx.Stats.DocsScanned++
	return &Candidate{DocID: id, Doc: op.docs[id]}, nil
}

func (op *BitmapHeapScanOperator) refill() {
	op.batch = op.batch[:0]
	for len(op.batch) < op.batchSize && op.it.HasNext() {
		op.batch = append(op.batch, op.it.Next())
	}
	op.pos = 0
}

// Close cleans up the heap scan and its source.
func (op *BitmapHeapScanOperator) Close() error {
	if op.source != nil {
		if err := op.source.Close(); err != nil {
			return err
		}
	}
	op.isOpen = false
	op.it = nil
	op.batch = nil
	op.pos = 0
	return nil
}
