// Command symkern-demo boots a kernel core, scripts one of the documented
// end-to-end scenarios against it, and prints the resulting dispatch
// trace.
package main

import (
	"fmt"
	"os"

	"github.com/symkern/kernelcore/cmd/symkern-demo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
