package planner

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/chilagrow/documentdb/internal/errors"
)

const (
	defaultTextLanguage = "english"
	defaultVectorMetric = "cosine"
)

// SearchDescriptor is the parsed, reusable specification of one text or
// vector search predicate.
type SearchDescriptor struct {
	Terms    []string  // text: search terms
	Language string    // text: language the index must stem for
	Vector   []float64 // vector: the query vector
	Metric   string    // vector: distance metric ("cosine", "l2", "ip")
	Limit    int       // result limit; 0 means unbounded (text only)
}

func (d *SearchDescriptor) String() string {
	if len(d.Vector) > 0 {
		return fmt.Sprintf("vector(%d dims, %s, k=%d)", len(d.Vector), d.Metric, d.Limit)
	}
	return fmt.Sprintf("text(%q, %s)", strings.Join(d.Terms, " "), d.Language)
}

// DescriptorCache parses search specifications at most once per statement
// compile. Parse failures are memoized too, so a malformed specification
// is seen identically by both rewrite call sites.
type DescriptorCache struct {
	entries map[Predicate]descriptorEntry
}

type descriptorEntry struct {
	desc *SearchDescriptor
	err  error
}

// NewDescriptorCache creates an empty descriptor cache.
func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{
		entries: make(map[Predicate]descriptorEntry),
	}
}

// For returns the descriptor for a text or vector search predicate,
// parsing the predicate's specification on first use.
func (c *DescriptorCache) For(pred Predicate) (*SearchDescriptor, error) {
	if entry, ok := c.entries[pred]; ok {
		return entry.desc, entry.err
	}

	var desc *SearchDescriptor
	var err error
	switch p := pred.(type) {
	case *TextSearch:
		desc, err = parseTextSpec(p.Spec)
	case *VectorSearch:
		desc, err = parseVectorSpec(p.Spec)
	default:
		err = errors.PlanStateError(fmt.Sprintf("predicate kind %s carries no search descriptor", pred.Kind()))
	}

	c.entries[pred] = descriptorEntry{desc: desc, err: err}
	return desc, err
}

// Len reports how many specifications have been parsed so far.
func (c *DescriptorCache) Len() int {
	return len(c.entries)
}

// parseTextSpec parses a text search specification such as
// {"$search": "coffee shop", "$language": "english", "$limit": 50}.
func parseTextSpec(spec string) (*SearchDescriptor, error) {
	root, err := parseSpecObject("text", spec)
	if err != nil {
		return nil, err
	}

	search := root.Get("$search")
	if !search.Exists() {
		return nil, errors.MissingSearchFieldError("text", "$search")
	}
	if search.Type != gjson.String {
		return nil, errors.InvalidSearchSpecError("text", "$search must be a string")
	}

	// Duplicate terms do not change the query.
	terms := lo.Uniq(strings.Fields(search.String()))
	if len(terms) == 0 {
		return nil, errors.InvalidSearchSpecError("text", "$search contains no terms")
	}

	desc := &SearchDescriptor{Terms: terms, Language: defaultTextLanguage}

	if lang := root.Get("$language"); lang.Exists() {
		if lang.Type != gjson.String || lang.String() == "" {
			return nil, errors.InvalidSearchSpecError("text", "$language must be a non-empty string")
		}
		desc.Language = lang.String()
	}

	if lim := root.Get("$limit"); lim.Exists() {
		n, castErr := cast.ToIntE(lim.Value())
		if castErr != nil || n < 0 {
			return nil, errors.InvalidSearchSpecError("text", "$limit must be a non-negative integer")
		}
		desc.Limit = n
	}

	return desc, nil
}

// parseVectorSpec parses a vector search specification such as
// {"queryVector": [0.1, 0.2, 0.3], "metric": "cosine", "limit": 10}.
func parseVectorSpec(spec string) (*SearchDescriptor, error) {
	root, err := parseSpecObject("vector", spec)
	if err != nil {
		return nil, err
	}

	qv := root.Get("queryVector")
	if !qv.Exists() {
		return nil, errors.MissingSearchFieldError("vector", "queryVector")
	}
	if !qv.IsArray() {
		return nil, errors.InvalidSearchSpecError("vector", "queryVector must be an array of numbers")
	}
	elems := qv.Array()
	if len(elems) == 0 {
		return nil, errors.InvalidSearchSpecError("vector", "queryVector is empty")
	}

	vector := make([]float64, len(elems))
	for i, elem := range elems {
		f, castErr := cast.ToFloat64E(elem.Value())
		if castErr != nil {
			return nil, errors.InvalidSearchSpecError("vector", "queryVector must be an array of numbers")
		}
		vector[i] = f
	}

	lim := root.Get("limit")
	if !lim.Exists() {
		return nil, errors.MissingSearchFieldError("vector", "limit")
	}
	k, castErr := cast.ToIntE(lim.Value())
	if castErr != nil || k < 1 {
		return nil, errors.InvalidSearchSpecError("vector", "limit must be a positive integer")
	}

	metric := defaultVectorMetric
	if m := root.Get("metric"); m.Exists() {
		s, castErr := cast.ToStringE(m.Value())
		if castErr != nil {
			return nil, errors.InvalidSearchSpecError("vector", "metric must be a string")
		}
		metric = s
	}
	switch metric {
	case "cosine", "l2", "ip":
	default:
		return nil, errors.InvalidSearchSpecError("vector", fmt.Sprintf("unknown metric %q", metric))
	}

	return &SearchDescriptor{Vector: vector, Metric: metric, Limit: k}, nil
}

func parseSpecObject(kind, spec string) (gjson.Result, error) {
	if !gjson.Valid(spec) {
		return gjson.Result{}, errors.InvalidSearchSpecError(kind, "specification is not valid JSON")
	}
	root := gjson.Parse(spec)
	if !root.IsObject() {
		return gjson.Result{}, errors.InvalidSearchSpecError(kind, "specification must be an object")
	}
	return root, nil
}
