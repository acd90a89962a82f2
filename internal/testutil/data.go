package testutil

import (
	"fmt"
)

// GenerateDocJSON generates a deterministic document body for tests.
// Documents cycle through a small set of cities and statuses so that
// equality predicates select predictable subsets.
func GenerateDocJSON(n int) string {
	cities := []string{"portland", "seattle", "boise", "eugene"}
	statuses := []string{"active", "inactive"}
	return fmt.Sprintf(`{"_id": %d, "city": %q, "status": %q, "score": %d}`,
		n, cities[n%len(cities)], statuses[n%len(statuses)], n*10)
}

// GenerateDocJSONs generates n deterministic document bodies.
func GenerateDocJSONs(n int) []string {
	docs := make([]string, n)
	for i := 0; i < n; i++ {
		docs[i] = GenerateDocJSON(i)
	}
	return docs
}
