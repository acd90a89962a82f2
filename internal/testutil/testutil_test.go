package testutil

import (
	"os"
	"strings"
	"testing"
)

func TestTempDir(t *testing.T) {
	dir, cleanup := TempDir(t)
	defer cleanup()

	// Check directory exists
	info, err := os.Stat(dir)
	AssertNoError(t, err)
	AssertTrue(t, info.IsDir(), "expected directory")

	// Create a file in the directory
	testFile := dir + "/test.txt"
	err = os.WriteFile(testFile, []byte("test"), 0644)
	AssertNoError(t, err)

	// Verify file exists
	_, err = os.Stat(testFile)
	AssertNoError(t, err)
}

func TestAssertions(t *testing.T) {
	// Test AssertEqual
	AssertEqual(t, 42, 42)
	AssertEqual(t, "hello", "hello")
	AssertEqual(t, []int{1, 2, 3}, []int{1, 2, 3})

	// Test AssertNoError
	AssertNoError(t, nil)

	// Test AssertTrue/False
	AssertTrue(t, true, "should be true")
	AssertFalse(t, false, "should be false")

	// Test AssertNil and AssertLen
	var nilSlice []int
	AssertNil(t, nilSlice)
	AssertNil(t, nil)
	AssertLen(t, []string{"a", "b"}, 2)
	AssertLen(t, "abc", 3)
}

func TestDataGeneration(t *testing.T) {
	doc := GenerateDocJSON(0)
	AssertTrue(t, strings.Contains(doc, `"city": "portland"`), "doc 0 should live in portland")
	AssertTrue(t, strings.Contains(doc, `"status": "active"`), "doc 0 should be active")

	docs := GenerateDocJSONs(8)
	AssertLen(t, docs, 8)

	// Cities cycle with period 4.
	AssertEqual(t, docs[1], GenerateDocJSON(1))
	AssertTrue(t, strings.Contains(docs[5], `"city": "seattle"`), "doc 5 should live in seattle")
}
