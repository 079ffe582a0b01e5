// Command symgraph runs one inference pass over a graph description:
// build, validate acyclicity, propagate static keys, and print the
// hierarchical summary followed by the outermost scope's static keys.
//
// Usage: symgraph [path-to-description.json]
// With no argument, the description is read from stdin.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lucidgraph/symbolic/graphdesc"
	"github.com/lucidgraph/symbolic/infer"
	"github.com/lucidgraph/symbolic/internal/applog"
	"github.com/lucidgraph/symbolic/static"
	"github.com/lucidgraph/symbolic/summary"
)

func main() {
	r, closeFn, err := inputFrom(os.Args[1:])
	if err != nil {
		applog.Fatal("symgraph: open input", err)
	}
	defer closeFn()

	doc, err := graphdesc.Decode(r)
	if err != nil {
		applog.Fatal("symgraph: decode description", err)
	}

	res, err := infer.Run(doc)
	if err != nil {
		applog.Fatal("symgraph: infer", err)
	}

	staticInputs := doc.StaticInputShapes
	keys := static.Propagate(res.Graph, staticInputs)

	fmt.Print(summary.Format(res.Graph))

	fmt.Println()
	fmt.Println("static_keys:")
	for _, alias := range res.Graph.ExposedAliases {
		port, ok := res.Graph.ExposedPorts[alias]
		if ok && keys.IsStatic(port) {
			fmt.Printf("  %s\n", alias)
		}
	}
}

// inputFrom opens args[0] if present, else returns stdin; the returned
// close func is always safe to call.
func inputFrom(args []string) (io.Reader, func() error, error) {
	if len(args) == 0 {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return f, f.Close, nil
}
