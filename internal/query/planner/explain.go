package planner

import (
	"fmt"
	"strings"

	"github.com/chilagrow/documentdb/internal/catalog"
)

// ExplainPlan returns a string representation of a compiled plan: the
// plan tree, the combinator the engine chose, and the annotated base
// filters in statement order. Analyzed collections get a document
// estimate next to the namespace; unanalyzed ones print none.
func ExplainPlan(plan *CompiledPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan: %s%s\n", plan.Relation.Collection.Namespace(), explainEstimate(plan))
	b.WriteString(explainPath(plan.Root, "  "))
	fmt.Fprintf(&b, "Combinator: %s\n", plan.Combinator)

	if len(plan.Restrictions) > 0 {
		b.WriteString("Filters:\n")
		for _, r := range plan.Restrictions {
			fmt.Fprintf(&b, "  %s\n", r)
		}
	}

	return b.String()
}

// ExplainLookup renders a $lookup join: the inner plan followed by the
// annotated join filters.
func ExplainLookup(join *LookupJoin) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lookup: %s = %s.%s\n",
		join.LocalPath, join.Inner.Relation.Collection.Name, join.ForeignPath)
	b.WriteString(explainPath(join.Inner.Root, "  "))

	if len(join.Filters) > 0 {
		b.WriteString("Join filters:\n")
		for _, r := range join.Filters {
			fmt.Fprintf(&b, "  %s\n", r)
		}
	}

	return b.String()
}

// explainEstimate renders the plan root's document estimate, or "" when
// the collection has never been analyzed. The estimate is presentation
// only: the engine never costs paths, and the chooser never consults it.
func explainEstimate(plan *CompiledPlan) string {
	stats := plan.Relation.Collection.Stats
	if stats == nil || stats.LastAnalyzed.IsZero() {
		return ""
	}
	return fmt.Sprintf(" (~%d of %d documents)",
		estimatePathDocs(plan.Root, stats.DocumentCount), stats.DocumentCount)
}

// estimatePathDocs approximates how many documents a path produces out of
// a collection of total documents. Like any estimator it never goes below
// one document for a non-empty collection.
func estimatePathDocs(path AccessPath, total int64) int64 {
	if total <= 0 {
		return 0
	}
	docs := int64(float64(total) * float64(pathSelectivity(path, total)))
	if docs < 1 {
		docs = 1
	}
	if docs > total {
		docs = total
	}
	return docs
}

// pathSelectivity estimates the fraction of the collection a path
// produces. Per-path statistics are not collected, so the catalog
// estimators run on their defaults.
func pathSelectivity(path AccessPath, total int64) catalog.Selectivity {
	switch p := path.(type) {
	case *BitmapHeapPath:
		return pathSelectivity(p.Source, total)
	case *BitmapOrPath:
		sels := make([]catalog.Selectivity, len(p.Branches))
		for i, b := range p.Branches {
			sels[i] = pathSelectivity(b, total)
		}
		return catalog.CombineOrSelectivity(sels...)
	case *IndexScanPath:
		return indexScanSelectivity(p, total)
	default:
		// Sequential scans and unknown paths produce everything.
		return 1
	}
}

func indexScanSelectivity(p *IndexScanPath, total int64) catalog.Selectivity {
	switch pred := p.Pred.(type) {
	case *PrimaryKeyLookup:
		return catalog.Selectivity(1 / float64(total))
	case *InList:
		// Fan-out branches carry one value each; the runtime in-list
		// form carries them all.
		n := len(p.Values)
		if n == 0 {
			n = len(pred.Values)
		}
		return catalog.EstimateInListSelectivity(nil, n)
	case *Equality:
		if p.Index.IsUnique {
			return catalog.Selectivity(1 / float64(total))
		}
		return catalog.EstimateEqualitySelectivity(nil)
	case *VectorSearch, *TextSearch:
		if p.Desc != nil && p.Desc.Limit > 0 && int64(p.Desc.Limit) < total {
			return catalog.Selectivity(float64(p.Desc.Limit) / float64(total))
		}
		return catalog.EstimateEqualitySelectivity(nil)
	default:
		return catalog.EstimateEqualitySelectivity(nil)
	}
}
