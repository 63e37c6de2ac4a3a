// Package main is ecoleadctl, the operator CLI for ECOLead Finance.
//
// It applies database migrations and validates content and policy files
// before they are deployed:
//
//	ecoleadctl migrate up --database-url postgres://...
//	ecoleadctl catalog validate --file content/catalog.yaml
//	ecoleadctl policy validate --file policy.yaml
package main

import (
	"fmt"
	"os"
)

// Exit codes.
const (
	exitSuccess = 0
	exitError   = 1
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
