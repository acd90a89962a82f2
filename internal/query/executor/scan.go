package executor

import (
	"fmt"

	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// SeqScanOperator reads every document of the collection in store
// order.
type SeqScanOperator struct {
	baseOperator
	docs []types.Document
	pos  int
}

// NewSeqScanOperator creates a sequential scan over a document
// snapshot.
func NewSeqScanOperator(docs []types.Document) *SeqScanOperator {
	return &SeqScanOperator{docs: docs}
}

// Open initializes the scan.
func (op *SeqScanOperator) Open(ctx *ExecContext) error {
	op.ctx = ctx
	op.pos = 0
	return nil
}

// Next returns the next document.
func (op *SeqScanOperator) Next() (*Candidate, error) {
	if op.ctx == nil {
		return nil, fmt.Errorf("sequential scan not open")
	}
	if op.pos >= len(op.docs) {
		return nil, nil //nolint:nilnil // EOF - standard iterator pattern
	}

	cand := &Candidate{DocID: uint32(op.pos), Doc: op.docs[op.pos]}
	op.pos++
	op.ctx.Stats.DocsScanned++
	return cand, nil
}

// Close cleans up the scan.
func (op *SeqScanOperator) Close() error {
	op.pos = 0
	return nil
}

// IndexScanOperator streams the documents selected by one index scan
// path. The store has no real index structures; the operator computes
// the same document set an index lookup would produce, nearest first
// for vector scans.
type IndexScanOperator struct {
	baseOperator
	docs []types.Document
	path *planner.IndexScanPath
	ids  []uint32
	pos  int
}

// NewIndexScanOperator creates an index scan over a document snapshot.
func NewIndexScanOperator(docs []types.Document, path *planner.IndexScanPath) *IndexScanOperator {
	return &IndexScanOperator{docs: docs, path: path}
}

// Open computes the matching document set.
func (op *IndexScanOperator) Open(ctx *ExecContext) error {
	op.ctx = ctx
	ids, err := matchIndexScan(op.docs, op.path)
	if err != nil {
		return err
	}
	op.ids = ids
	op.pos = 0
	return nil
}

// Next returns the next matching document.
func (op *IndexScanOperator) Next() (*Candidate, error) {
	if op.ctx == nil {
		return nil, fmt.Errorf("index scan not open")
	}
	if op.pos >= len(op.ids) {
		return nil, nil //nolint:nilnil // EOF - standard iterator pattern
	}

	id := op.ids[op.pos]
	op.pos++
	op.ctx.Stats.DocsScanned++
	return &Candidate{DocID: id, Doc: op.docs[id]}, nil
}

// Close cleans up the scan.
func (op *IndexScanOperator) Close() error {
	op.ids = nil
	op.pos = 0
	return nil
}

// matchIndexScan computes the document IDs an index scan produces for
// its path. Key scans return IDs in store order; vector scans return
// them nearest first.
func matchIndexScan(docs []types.Document, path *planner.IndexScanPath) ([]uint32, error) {
	switch pred := path.Pred.(type) {
	case *planner.TextSearch:
		if path.Desc == nil {
			return nil, errors.PlanStateError("text index scan carries no descriptor")
		}
		return matchText(docs, path.Index, path.Desc), nil
	case *planner.VectorSearch:
		if path.Desc == nil {
			return nil, errors.PlanStateError("vector index scan carries no descriptor")
		}
		return matchVector(docs, pred.FieldPath, path.Desc), nil
	default:
		return matchValues(docs, path.Pred.Path(), path.Values, path.Index.IsUnique), nil
	}
}

// matchValues scans for documents whose value at path equals any of the
// scan's key values. A unique single-key lookup ends at the first hit.
func matchValues(docs []types.Document, path types.Path, values []types.Value, unique bool) []uint32 {
	var ids []uint32
	for i, doc := range docs {
		if !anyValueMatches(doc, path, values) {
			continue
		}
		ids = append(ids, uint32(i))
		if unique && len(values) == 1 {
			break
		}
	}
	return ids
}

func anyValueMatches(doc types.Document, path types.Path, values []types.Value) bool {
	for _, v := range values {
		if evalEquality(doc, path, v) {
			return true
		}
	}
	return false
}

// matchText scans the index's keyed paths for the descriptor's search
// terms. Text answers are approximate by contract, so the consumer
// rechecks every hit.
func matchText(docs []types.Document, index *catalog.Index, desc *planner.SearchDescriptor) []uint32 {
	var ids []uint32
	for i, doc := range docs {
		var texts []string
		for _, kp := range index.KeyPaths {
			if val, ok := doc.Lookup(kp.Path); ok {
				texts = append(texts, valueStrings(val)...)
			}
		}
		if textMatches(texts, desc.Terms) {
			ids = append(ids, uint32(i))
		}
	}
	if desc.Limit > 0 && len(ids) > desc.Limit {
		ids = ids[:desc.Limit]
	}
	return ids
}
