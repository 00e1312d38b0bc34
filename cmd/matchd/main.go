// Command matchd serves resume and job description match analyses backed
// by a content-addressed result cache.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
