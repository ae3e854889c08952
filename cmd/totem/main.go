// Totem CLI - loads a model manifest and inspects or serves the object model
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/totem/manifest"
	"github.com/chazu/totem/om"
	"github.com/chazu/totem/server"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	manifestPath := flag.String("manifest", "", "Path to totem.toml or its directory (default: search upward from cwd)")
	validate := flag.Bool("validate", false, "Validate the manifest and exit")
	dump := flag.Bool("dump", false, "Print the registered type tree and exit (the default)")
	serveMode := flag.Bool("serve", false, "Start the inspection server (connect over HTTP)")
	servePort := flag.Int("port", 4567, "Inspection server port (used with -serve)")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: totem [options]\n\n")
		fmt.Fprintf(os.Stderr, "Loads the type declarations from a totem.toml manifest and registers them\n")
		fmt.Fprintf(os.Stderr, "in an object model runtime.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  totem                          # Find totem.toml upward, print the type tree\n")
		fmt.Fprintf(os.Stderr, "  totem -manifest ./models        # Load models/totem.toml\n")
		fmt.Fprintf(os.Stderr, "  totem -validate                 # Check the manifest and exit\n")
		fmt.Fprintf(os.Stderr, "\nInspection Server:\n")
		fmt.Fprintf(os.Stderr, "  totem -serve                    # Serve the model on :4567\n")
		fmt.Fprintf(os.Stderr, "  totem -serve -port 8080         # Serve on :8080\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded %s from %s (%d types)\n", manifest.ManifestName, m.Dir, len(m.Types))
	}

	if *validate {
		fmt.Printf("ok: %s declares %d types\n", m.Project.Name, len(m.Types))
		os.Exit(0)
	}

	if *dump && *serveMode {
		fmt.Fprintln(os.Stderr, "Error: -dump and -serve are mutually exclusive")
		os.Exit(1)
	}

	// The CLI registers manifests structurally; hook sets come from
	// embedding programs, so a manifest that names one is rejected here.
	rt := om.NewRuntime(om.WithNameResolver(m.Resolver()))
	if err := m.RegisterInto(rt.Types(), nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *serveMode {
		addr := fmt.Sprintf(":%d", *servePort)
		srv := server.New(rt)
		defer srv.Stop()
		if err := srv.ListenAndServe(addr); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	dumpTree(rt.Types())
}

// loadManifest resolves the manifest location. An explicit path may name
// the file itself or its directory; without one the search walks upward
// from the working directory.
func loadManifest(path string) (*manifest.Manifest, error) {
	if path != "" {
		dir := path
		if strings.HasSuffix(path, ".toml") {
			dir = filepath.Dir(path)
		}
		return manifest.Load(dir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("no %s found in %s or any parent directory", manifest.ManifestName, cwd)
	}
	return m, nil
}

// dumpTree prints the registered types as an indented forest, roots
// sorted by name.
func dumpTree(reg *om.Registry) {
	children := make(map[string][]*om.Class)
	var roots []*om.Class
	for _, c := range reg.All() {
		if p := c.Parent(); p != nil {
			children[p.Name()] = append(children[p.Name()], c)
		} else {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Name() < roots[j].Name() })
	for _, r := range roots {
		printType(reg, children, r, 0)
	}
}

func printType(reg *om.Registry, children map[string][]*om.Class, c *om.Class, depth int) {
	marker := ""
	if c.IsAbstract() {
		marker = " [abstract]"
	}
	fmt.Printf("%s%s%s (%d slots, %d ops)\n",
		strings.Repeat("  ", depth), reg.DisplayName(c.Name()), marker, c.NumSlots(), c.NumOps())

	kids := children[c.Name()]
	sort.Slice(kids, func(i, j int) bool { return kids[i].Name() < kids[j].Name() })
	for _, k := range kids {
		printType(reg, children, k, depth+1)
	}
}
