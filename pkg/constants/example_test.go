package constants_test

import (
	"fmt"
	"time"

	"github.com/agentstation/kinmap/pkg/constants"
)

// Example demonstrates the frontmatter field names
func Example() {
	key := fmt.Sprintf("%s[%s]", constants.RelatedField, "parent")
	fmt.Println(key)
	fmt.Printf("Created file with %o permissions\n", constants.FilePermissions)
	// Output:
	// RELATED[parent]
	// Created file with 644 permissions
}

// Example_revision demonstrates the REV timestamp layout
func Example_revision() {
	stamp := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC).Format(constants.RevisionLayout)
	fmt.Printf("%s: %s\n", constants.RevisionField, stamp)
	// Output:
	// REV: 20240309T140500Z
}
