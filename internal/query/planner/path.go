package planner

import (
	"fmt"
	"strings"

	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// AccessPath is a physical plan fragment: a sequential scan, one index
// scan, or a combination of index scans. Every path reports whether its
// answer can be trusted without rechecking the underlying document, and
// which predicates it answers.
type AccessPath interface {
	// Exact reports whether the path's result needs no runtime recheck.
	Exact() bool
	// Predicates returns the predicates this path answers.
	Predicates() []Predicate
	// Children returns nested paths.
	Children() []AccessPath
	// String returns a string representation for debugging.
	String() string
}

// Combinator describes how multiple served predicates' index scans are
// combined at the parent plan node.
type Combinator int

const (
	// CombineNone: zero or one path, nothing to combine.
	CombineNone Combinator = iota
	// CombineWrapBitmapHeap: OR the paths and wrap them in a bitmap
	// heap path so a plain scan node can consume the result.
	CombineWrapBitmapHeap
	// CombineBitmapOr: OR the paths and hand them to an existing
	// bitmap consumer unwrapped.
	CombineBitmapOr
)

func (c Combinator) String() string {
	switch c {
	case CombineNone:
		return "NONE"
	case CombineWrapBitmapHeap:
		return "WRAP_BITMAP_HEAP"
	case CombineBitmapOr:
		return "BITMAP_OR"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// IndexScanPath is a scan of one index answering one predicate. For
// equality and in-list predicates Values holds the key values looked
// up; for text and vector predicates Desc holds the parsed search
// descriptor.
type IndexScanPath struct {
	Index  *catalog.Index
	Pred   Predicate
	Values []types.Value
	Desc   *SearchDescriptor

	exact bool
}

func (p *IndexScanPath) Exact() bool             { return p.exact }
func (p *IndexScanPath) Predicates() []Predicate { return []Predicate{p.Pred} }
func (p *IndexScanPath) Children() []AccessPath  { return nil }

func (p *IndexScanPath) String() string {
	switch pred := p.Pred.(type) {
	case *TextSearch:
		return fmt.Sprintf("IndexScan[%s] (%s)", p.Index.Name, p.Desc)
	case *VectorSearch:
		return fmt.Sprintf("IndexScan[%s] (%s @ %s)", p.Index.Name, pred.FieldPath, p.Desc)
	case *InList:
		if len(p.Values) == 1 {
			return fmt.Sprintf("IndexScan[%s] (%s = %s)", p.Index.Name, pred.FieldPath, p.Values[0])
		}
		return fmt.Sprintf("IndexScan[%s] (%s)", p.Index.Name, pred)
	default:
		return fmt.Sprintf("IndexScan[%s] (%s)", p.Index.Name, p.Pred)
	}
}

// BitmapOrPath unions the document sets produced by its branches.
type BitmapOrPath struct {
	Branches []AccessPath
}

func (p *BitmapOrPath) Children() []AccessPath { return p.Branches }

func (p *BitmapOrPath) Exact() bool {
	for _, b := range p.Branches {
		if !b.Exact() {
			return false
		}
	}
	return true
}

func (p *BitmapOrPath) Predicates() []Predicate {
	var preds []Predicate
	seen := make(map[Predicate]bool)
	for _, b := range p.Branches {
		for _, pred := range b.Predicates() {
			if !seen[pred] {
				seen[pred] = true
				preds = append(preds, pred)
			}
		}
	}
	return preds
}

func (p *BitmapOrPath) String() string {
	return fmt.Sprintf("BitmapOr[%d branches]", len(p.Branches))
}

// BitmapHeapPath fetches full documents for the candidate set produced
// by its bitmap source.
type BitmapHeapPath struct {
	Source AccessPath
}

func (p *BitmapHeapPath) Exact() bool             { return p.Source.Exact() }
func (p *BitmapHeapPath) Predicates() []Predicate { return p.Source.Predicates() }
func (p *BitmapHeapPath) Children() []AccessPath  { return []AccessPath{p.Source} }
func (p *BitmapHeapPath) String() string          { return "BitmapHeapScan" }

// SeqScanPath reads every document of the collection. It answers no
// predicate; all filtering happens at runtime.
type SeqScanPath struct {
	CollectionName string
}

func (p *SeqScanPath) Exact() bool             { return true }
func (p *SeqScanPath) Predicates() []Predicate { return nil }
func (p *SeqScanPath) Children() []AccessPath  { return nil }

func (p *SeqScanPath) String() string {
	return fmt.Sprintf("SeqScan[%s]", p.CollectionName)
}

// CombinePaths materializes the engine's (paths, combinator) output as a
// single plan root. It returns nil when there is nothing to combine.
func CombinePaths(paths []AccessPath, comb Combinator) AccessPath {
	switch comb {
	case CombineNone:
		if len(paths) == 0 {
			return nil
		}
		return paths[0]
	case CombineBitmapOr:
		return &BitmapOrPath{Branches: paths}
	case CombineWrapBitmapHeap:
		return &BitmapHeapPath{Source: &BitmapOrPath{Branches: paths}}
	default:
		return nil
	}
}

// pathGuarantees reports, per predicate, whether every document the path
// produces satisfies that predicate, and whether the guarantee is exact.
// A union guarantees a predicate only when every branch does: the $in
// fan-out qualifies (each branch matches one listed value), distinct
// predicates OR'd together do not, so they are rechecked at runtime.
func pathGuarantees(path AccessPath) map[Predicate]bool {
	switch p := path.(type) {
	case *IndexScanPath:
		return map[Predicate]bool{p.Pred: p.exact}
	case *BitmapHeapPath:
		return pathGuarantees(p.Source)
	case *BitmapOrPath:
		if len(p.Branches) == 0 {
			return nil
		}
		shared := pathGuarantees(p.Branches[0])
		for _, b := range p.Branches[1:] {
			next := pathGuarantees(b)
			for pred, exact := range shared {
				nextExact, ok := next[pred]
				if !ok {
					delete(shared, pred)
					continue
				}
				shared[pred] = exact && nextExact
			}
		}
		return shared
	default:
		return nil
	}
}

// explainPath renders a path subtree as an indented tree.
func explainPath(path AccessPath, indent string) string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(path.String())
	b.WriteString("\n")
	for _, child := range path.Children() {
		b.WriteString(explainPath(child, indent+"  "))
	}
	return b.String()
}
