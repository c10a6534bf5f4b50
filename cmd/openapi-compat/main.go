// Package main checks that an API revision keeps every path, operation,
// response code and optional parameter of a published base document.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"storefront/docs"
)

func main() {
	basePath := flag.String("base", "", "published swagger document (JSON or YAML)")
	revisionPath := flag.String("revision", "", "revision document; defaults to the document built into the server")
	flag.Parse()

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat -base <path> [-revision <path>]")
		os.Exit(2)
	}

	base, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base document: %v\n", err)
		os.Exit(1)
	}

	var revision document
	if strings.TrimSpace(*revisionPath) == "" {
		revision, err = parseDocument([]byte(docs.SwaggerInfo.ReadDoc()))
	} else {
		revision, err = loadFile(*revisionPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision document: %v\n", err)
		os.Exit(1)
	}

	if issues := compare(base, revision); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}
