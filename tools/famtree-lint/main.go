// famtree-lint is a custom static analyzer for famtree store access patterns.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/famtree/tools/famtree-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
