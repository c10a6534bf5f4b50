package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

type parameter struct {
	Name     string `yaml:"name"`
	In       string `yaml:"in"`
	Required bool   `yaml:"required"`
}

type operation struct {
	Parameters []parameter           `yaml:"parameters"`
	Responses  map[string]yaml.Node `yaml:"responses"`
}

// document keeps the parts of a swagger 2.0 file that clients depend on,
// keyed by path and lower-case method.
type document struct {
	Paths map[string]map[string]operation
}

func loadFile(path string) (document, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return document{}, err
	}
	return parseDocument(raw)
}

// parseDocument accepts JSON as well as YAML, since JSON is a YAML subset.
func parseDocument(raw []byte) (document, error) {
	var doc struct {
		Paths map[string]map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return document{}, err
	}
	if doc.Paths == nil {
		return document{}, errors.New("missing top-level paths field")
	}

	out := document{Paths: make(map[string]map[string]operation, len(doc.Paths))}
	for path, entries := range doc.Paths {
		ops := make(map[string]operation)
		for method, node := range entries {
			m := strings.ToLower(strings.TrimSpace(method))
			if _, ok := supportedMethods[m]; !ok {
				continue
			}
			var op operation
			if err := node.Decode(&op); err != nil {
				return document{}, fmt.Errorf("%s %s: %w", strings.ToUpper(m), path, err)
			}
			ops[m] = op
		}
		if len(ops) > 0 {
			out.Paths[path] = ops
		}
	}
	return out, nil
}

func compare(base, revision document) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			label := strings.ToUpper(method) + " " + path
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, "removed operation: "+label)
				continue
			}

			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", label, strings.ToUpper(code)))
				}
			}

			known := make(map[string]bool, len(baseOp.Parameters))
			for _, p := range baseOp.Parameters {
				known[p.In+":"+p.Name] = p.Required
			}
			for _, p := range revOp.Parameters {
				wasRequired, existed := known[p.In+":"+p.Name]
				switch {
				case !p.Required:
				case !existed:
					issues = append(issues, fmt.Sprintf("new required parameter: %s -> %s %s", label, p.In, p.Name))
				case !wasRequired:
					issues = append(issues, fmt.Sprintf("parameter became required: %s -> %s %s", label, p.In, p.Name))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
