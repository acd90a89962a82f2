package planner

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/chilagrow/documentdb/internal/query/types"
)

// RenderSQL renders a compiled plan as the SQL a DocumentDB-on-Postgres
// deployment would issue for the chosen access path: collections live in
// documentdb_data.documents_<id> tables, match operators take a bson
// filter fragment, and primary-key lookups hit the object_id column.
// Predicates with no SQL form are listed as trailing comments.
func RenderSQL(plan *CompiledPlan) string {
	table := fmt.Sprintf("documentdb_data.documents_%d", plan.Relation.Collection.ID)

	var where []string
	var orderBy string
	limit := 0

	collectPathSQL(plan.Root, &where, &orderBy, &limit)

	var comments []string
	for _, r := range plan.Restrictions {
		if r.Mode == FilterTrusted {
			continue
		}
		switch p := r.Pred.(type) {
		case *VectorSearch:
			expr, k := vectorOrderSQL(p)
			orderBy, limit = expr, k
		case *Opaque:
			comments = append(comments, fmt.Sprintf("-- runtime filter: %s", p))
		default:
			if cond := predicateSQL(r.Pred); cond != "" {
				where = append(where, cond)
			}
		}
	}
	where = lo.Uniq(where)

	var b strings.Builder
	b.WriteString("SELECT document FROM ")
	b.WriteString(table)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, "\n  AND "))
	}
	if orderBy != "" {
		b.WriteString("\nORDER BY ")
		b.WriteString(orderBy)
	}
	if limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", limit)
	}
	for _, comment := range comments {
		b.WriteString("\n")
		b.WriteString(comment)
	}
	return b.String()
}

func collectPathSQL(path AccessPath, where *[]string, orderBy *string, limit *int) {
	switch p := path.(type) {
	case *BitmapHeapPath:
		collectPathSQL(p.Source, where, orderBy, limit)
	case *BitmapOrPath:
		branches := make([]string, 0, len(p.Branches))
		for _, branch := range p.Branches {
			var sub []string
			collectPathSQL(branch, &sub, orderBy, limit)
			if len(sub) > 0 {
				branches = append(branches, strings.Join(sub, " AND "))
			}
		}
		if len(branches) > 0 {
			*where = append(*where, "("+strings.Join(branches, " OR ")+")")
		}
	case *IndexScanPath:
		switch pred := p.Pred.(type) {
		case *PrimaryKeyLookup:
			*where = append(*where, fmt.Sprintf("object_id = '{ \"\": %s }'", jsonValue(pred.Value)))
		case *Equality:
			*where = append(*where, predicateSQL(pred))
		case *InList:
			*where = append(*where, scanValuesSQL(pred.FieldPath, p.Values))
		case *TextSearch:
			*where = append(*where, predicateSQL(pred))
		case *VectorSearch:
			expr, k := vectorOrderSQL(pred)
			*orderBy, *limit = expr, k
		}
	}
}

// predicateSQL renders one predicate as a document match condition. Both
// the path walk and the filter list use it, so duplicated conditions
// collapse to one.
func predicateSQL(pred Predicate) string {
	switch p := pred.(type) {
	case *Equality:
		return fmt.Sprintf("document @= '{ %q: %s }'", string(p.FieldPath), jsonValue(p.Value))
	case *InList:
		return scanValuesSQL(p.FieldPath, p.Values)
	case *PrimaryKeyLookup:
		return fmt.Sprintf("object_id = '{ \"\": %s }'", jsonValue(p.Value))
	case *TextSearch:
		return fmt.Sprintf("document @#%% '%s'", p.Spec)
	default:
		return ""
	}
}

// scanValuesSQL renders an equality-or-in condition for the values one
// index scan looks up: a single value uses the equality operator, a list
// uses the $in operator.
func scanValuesSQL(path types.Path, values []types.Value) string {
	if len(values) == 1 {
		return fmt.Sprintf("document @= '{ %q: %s }'", string(path), jsonValue(values[0]))
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = jsonValue(v)
	}
	return fmt.Sprintf("document @*= '{ %q: [%s] }'", string(path), strings.Join(parts, ", "))
}

// vectorOrderSQL renders the ORDER BY ... LIMIT form a kNN predicate
// compiles to. The spec is parsed independently of the statement's
// descriptor cache; rendering is presentation, not a rewrite decision.
func vectorOrderSQL(pred *VectorSearch) (string, int) {
	desc, err := parseVectorSpec(pred.Spec)
	if err != nil {
		return "", 0
	}
	parts := make([]string, len(desc.Vector))
	for i, f := range desc.Vector {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	expr := fmt.Sprintf("documentdb_api_catalog.bson_extract_vector(document, %q) %s '[%s]'",
		string(pred.FieldPath), vectorOperator(desc.Metric), strings.Join(parts, ","))
	return expr, desc.Limit
}

func vectorOperator(metric string) string {
	switch metric {
	case "l2":
		return "<->"
	case "ip":
		return "<#>"
	default:
		return "<=>"
	}
}

// jsonValue renders a document value as a JSON literal.
func jsonValue(v types.Value) string {
	if v.Null {
		return "null"
	}
	switch d := v.Data.(type) {
	case string:
		return strconv.Quote(d)
	case time.Time:
		return strconv.Quote(d.UTC().Format(time.RFC3339Nano))
	case []byte:
		return strconv.Quote(base64.StdEncoding.EncodeToString(d))
	case []types.Value:
		parts := make([]string, len(d))
		for i, elem := range d {
			parts[i] = jsonValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case types.Document:
		parts := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			parts[i] = fmt.Sprintf("%q: %s", f.Name, jsonValue(f.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", d)
	}
}
