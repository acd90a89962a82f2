package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/query/planner"
)

func compileOne(t *testing.T, raw string) planner.Predicate {
	t.Helper()
	preds, err := Compile(raw, "_id")
	require.NoError(t, err)
	require.Len(t, preds, 1)
	return preds[0]
}

func TestCompileEquality(t *testing.T) {
	pred := compileOne(t, `{"status": "A"}`)

	eq, ok := pred.(*planner.Equality)
	require.True(t, ok, "expected *planner.Equality, got %T", pred)
	assert.Equal(t, `status = "A"`, eq.String())
}

func TestCompileEqualityForms(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		expected string
	}{
		{"String", `{"status": "A"}`, `status = "A"`},
		{"Integer", `{"qty": 20}`, `qty = 20`},
		{"Float", `{"score": 9.5}`, `score = 9.5`},
		{"Bool", `{"active": true}`, `active = true`},
		{"Null", `{"deleted_at": null}`, `deleted_at = null`},
		{"Array", `{"tags": ["a", "b"]}`, `tags = ["a", "b"]`},
		{"Nested path", `{"address.city": "Oslo"}`, `address.city = "Oslo"`},
		{"Explicit eq", `{"status": {"$eq": "A"}}`, `status = "A"`},
		{"Document value", `{"dims": {"w": 3, "h": 4}}`, `dims = {w: 3, h: 4}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileOne(t, tt.filter).String())
		})
	}
}

func TestCompilePrimaryKeyLookup(t *testing.T) {
	t.Run("Direct equality", func(t *testing.T) {
		pred := compileOne(t, `{"_id": 42}`)
		_, ok := pred.(*planner.PrimaryKeyLookup)
		assert.True(t, ok, "expected *planner.PrimaryKeyLookup, got %T", pred)
	})

	t.Run("Explicit eq operator", func(t *testing.T) {
		pred := compileOne(t, `{"_id": {"$eq": 42}}`)
		_, ok := pred.(*planner.PrimaryKeyLookup)
		assert.True(t, ok, "expected *planner.PrimaryKeyLookup, got %T", pred)
	})

	t.Run("Custom key path", func(t *testing.T) {
		preds, err := Compile(`{"order_id": "X-1", "_id": 7}`, "order_id")
		require.NoError(t, err)
		require.Len(t, preds, 2)

		_, ok := preds[0].(*planner.PrimaryKeyLookup)
		assert.True(t, ok, "order_id should compile to a key lookup")
		_, ok = preds[1].(*planner.Equality)
		assert.True(t, ok, "_id is a plain field under a custom key path")
	})

	t.Run("In-list on the key path stays a list", func(t *testing.T) {
		pred := compileOne(t, `{"_id": {"$in": [1, 2]}}`)
		_, ok := pred.(*planner.InList)
		assert.True(t, ok, "expected *planner.InList, got %T", pred)
	})
}

func TestCompileInList(t *testing.T) {
	t.Run("Preserves order, collapses repeats", func(t *testing.T) {
		pred := compileOne(t, `{"qty": {"$in": [20, 40, 20, 40, 60]}}`)

		in, ok := pred.(*planner.InList)
		require.True(t, ok, "expected *planner.InList, got %T", pred)
		assert.Equal(t, "qty IN (20, 40, 60)", in.String())
	})

	t.Run("Requires an array", func(t *testing.T) {
		_, err := Compile(`{"qty": {"$in": 20}}`, "_id")
		require.Error(t, err)
		assert.True(t, errors.IsError(err, errors.InvalidParameterValue))
	})

	t.Run("Empty list is legal", func(t *testing.T) {
		pred := compileOne(t, `{"qty": {"$in": []}}`)
		in := pred.(*planner.InList)
		assert.Empty(t, in.Values)
	})
}

func TestCompileComparisons(t *testing.T) {
	tests := []struct {
		filter   string
		expected string
	}{
		{`{"price": {"$gt": 10}}`, "$expr(price > 10)"},
		{`{"price": {"$gte": 10}}`, "$expr(price >= 10)"},
		{`{"price": {"$lt": 10}}`, "$expr(price < 10)"},
		{`{"price": {"$lte": 10}}`, "$expr(price <= 10)"},
		{`{"status": {"$ne": "D"}}`, `$expr(status != "D")`},
		{`{"sku": {"$exists": true}}`, "$expr(sku $exists true)"},
		{`{"name": {"$regex": "^cof"}}`, `$expr(name $regex "^cof")`},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			pred := compileOne(t, tt.filter)
			_, ok := pred.(*planner.Opaque)
			require.True(t, ok, "expected *planner.Opaque, got %T", pred)
			assert.Equal(t, tt.expected, pred.String())
		})
	}
}

func TestCompileOperatorBlock(t *testing.T) {
	// One field, several operators: each becomes its own predicate.
	preds, err := Compile(`{"qty": {"$in": [20, 40], "$gt": 10}}`, "_id")
	require.NoError(t, err)
	require.Len(t, preds, 2)

	assert.Equal(t, planner.KindInList, preds[0].Kind())
	assert.Equal(t, planner.KindOpaque, preds[1].Kind())
}

func TestCompileTextSearch(t *testing.T) {
	pred := compileOne(t, `{"$text": {"$search": "coffee shop", "$language": "english"}}`)

	text, ok := pred.(*planner.TextSearch)
	require.True(t, ok, "expected *planner.TextSearch, got %T", pred)
	assert.Equal(t, `{"$search": "coffee shop", "$language": "english"}`, text.Spec)
}

func TestCompileVectorSearch(t *testing.T) {
	t.Run("Approximate", func(t *testing.T) {
		pred := compileOne(t, `{"$vectorSearch": {"path": "embedding", "queryVector": [0.1, 0.2], "limit": 5}}`)

		vs, ok := pred.(*planner.VectorSearch)
		require.True(t, ok, "expected *planner.VectorSearch, got %T", pred)
		assert.Equal(t, "embedding", string(vs.FieldPath))
		assert.False(t, vs.Exact)
	})

	t.Run("Exact", func(t *testing.T) {
		pred := compileOne(t, `{"$vectorSearch": {"path": "embedding", "queryVector": [0.1], "limit": 5, "exact": true}}`)
		vs := pred.(*planner.VectorSearch)
		assert.True(t, vs.Exact)
	})

	t.Run("Path is required", func(t *testing.T) {
		_, err := Compile(`{"$vectorSearch": {"queryVector": [0.1], "limit": 5}}`, "_id")
		require.Error(t, err)
		assert.True(t, errors.IsError(err, errors.InvalidParameterValue))
	})

	t.Run("Malformed spec still compiles", func(t *testing.T) {
		// The vector itself is vetted at probe time, not compile time.
		pred := compileOne(t, `{"$vectorSearch": {"path": "embedding", "queryVector": "zap"}}`)
		_, ok := pred.(*planner.VectorSearch)
		assert.True(t, ok)
	})
}

func TestCompileAndFlattens(t *testing.T) {
	preds, err := Compile(`{"$and": [{"status": "A"}, {"qty": {"$gt": 10}}], "region": "eu"}`, "_id")
	require.NoError(t, err)
	require.Len(t, preds, 3)

	assert.Equal(t, `status = "A"`, preds[0].String())
	assert.Equal(t, "$expr(qty > 10)", preds[1].String())
	assert.Equal(t, `region = "eu"`, preds[2].String())
}

func TestCompileDisjunctionsStayOpaque(t *testing.T) {
	tests := []string{
		`{"$or": [{"a": 1}, {"b": 2}]}`,
		`{"$nor": [{"a": 1}]}`,
		`{"$not": {"a": 1}}`,
		`{"$expr": {"$gt": ["$spent", "$budget"]}}`,
	}

	for _, filter := range tests {
		t.Run(filter, func(t *testing.T) {
			pred := compileOne(t, filter)
			assert.Equal(t, planner.KindOpaque, pred.Kind())
		})
	}
}

func TestCompileCommentSkipped(t *testing.T) {
	preds, err := Compile(`{"$comment": "why", "status": "A"}`, "_id")
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, `status = "A"`, preds[0].String())
}

func TestCompileEmptyFilter(t *testing.T) {
	preds, err := Compile(`{}`, "_id")
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		code   string
	}{
		{"Invalid JSON", `{"status": `, errors.InvalidJSONText},
		{"Not an object", `["status"]`, errors.InvalidJSONText},
		{"Unknown top-level operator", `{"$recompute": 1}`, errors.FeatureNotSupported},
		{"Unknown field operator", `{"qty": {"$near": 3}}`, errors.FeatureNotSupported},
		{"Text requires an object", `{"$text": "coffee"}`, errors.InvalidParameterValue},
		{"And requires an array", `{"$and": {"a": 1}}`, errors.InvalidParameterValue},
		{"And element must be an object", `{"$and": [1]}`, errors.InvalidParameterValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.filter, "_id")
			require.Error(t, err)
			assert.True(t, errors.IsError(err, tt.code), "got %v", err)
		})
	}
}

func TestCompileDocumentOrder(t *testing.T) {
	preds, err := Compile(`{"c": 3, "a": 1, "b": 2}`, "_id")
	require.NoError(t, err)
	require.Len(t, preds, 3)

	assert.Equal(t, "c = 3", preds[0].String())
	assert.Equal(t, "a = 1", preds[1].String())
	assert.Equal(t, "b = 2", preds[2].String())
}
