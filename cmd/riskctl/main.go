// riskctl evaluates treatment records offline, without a database or broker.
//
// Usage:
//
//	riskctl evaluate <record.yaml> [--against records.yaml] [--weights weights.yaml] [--rules rules.yaml]
//	riskctl classify <score>
//	riskctl similarity <a.yaml> <b.yaml>
//	riskctl validate <record.yaml>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
