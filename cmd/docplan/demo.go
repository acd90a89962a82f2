package main

import (
	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// The demo fixture is a small product collection carrying one index of
// every kind, so each plan shape is reachable from the command line.
const (
	demoDatabase   = "docs"
	demoCollection = "products"
)

func demoCatalog(cat *catalog.MemoryCatalog) (*catalog.Collection, error) {
	coll, err := cat.CreateCollection(&catalog.CollectionSpec{
		Database: demoDatabase,
		Name:     demoCollection,
	})
	if err != nil {
		return nil, err
	}

	specs := []*catalog.IndexSpec{
		{
			Database: demoDatabase, Collection: demoCollection, Name: "sku_1",
			Kind: catalog.OrderedIndex, IsUnique: true,
			KeyPaths: []catalog.IndexPathDef{{Path: "sku", SortOrder: catalog.Ascending}},
		},
		{
			Database: demoDatabase, Collection: demoCollection, Name: "category_1",
			Kind:     catalog.OrderedIndex,
			KeyPaths: []catalog.IndexPathDef{{Path: "category", SortOrder: catalog.Ascending}},
		},
		{
			Database: demoDatabase, Collection: demoCollection, Name: "description_text",
			Kind:     catalog.TextIndex,
			KeyPaths: []catalog.IndexPathDef{{Path: "description", SortOrder: catalog.Ascending}},
			Text:     catalog.TextOptions{DefaultLanguage: "english"},
		},
		{
			Database: demoDatabase, Collection: demoCollection, Name: "embedding_ann",
			Kind:     catalog.VectorIndex,
			KeyPaths: []catalog.IndexPathDef{{Path: "embedding", SortOrder: catalog.Ascending}},
			Vector:   catalog.VectorOptions{Dimensions: 3, Metric: "cosine"},
		},
	}
	for _, spec := range specs {
		if _, err := cat.CreateIndex(spec); err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func demoDocs() ([]types.Document, error) {
	raws := []string{
		`{"_id": 1, "sku": "A-7", "category": "espresso", "tags": ["dark", "limited"], "description": "Silky espresso blend with cocoa notes", "embedding": [0.9, 0.1, 0.0], "price": 14}`,
		`{"_id": 2, "sku": "B-2", "category": "filter", "tags": ["light"], "description": "Bright filter roast, washed process", "embedding": [0.1, 0.9, 0.0], "price": 12}`,
		`{"_id": 3, "sku": "C-9", "category": "espresso", "description": "Classic espresso with heavy body", "embedding": [0.8, 0.2, 0.1], "price": 11}`,
		`{"_id": 4, "sku": "D-4", "category": "cold-brew", "description": "Smooth cold brew concentrate", "embedding": [0.0, 0.2, 0.9], "price": 9}`,
		`{"_id": 5, "sku": "E-1", "category": "pour-over", "description": "Floral pour-over with jasmine aroma", "price": 16}`,
		`{"_id": 6, "sku": "F-3", "category": "decaf", "tags": ["dark"], "description": "Swiss water decaf with caramel finish", "embedding": [0.5, 0.5, 0.1], "price": 13}`,
	}
	docs := make([]types.Document, len(raws))
	for i, raw := range raws {
		doc, err := types.ParseDocument(raw)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}
