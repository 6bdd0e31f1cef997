// Command onboard runs the sample-to-canonical pipeline once, locally:
// parse a partner sample file, map its fields, build canonical objects and
// validate them against the schema. Useful for eyeballing a new partner's
// feed before wiring it into the service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/bechidu/partner-sync-ai/internal/canonical"
	"github.com/bechidu/partner-sync-ai/internal/ingest"
	"github.com/bechidu/partner-sync-ai/internal/mapping"
)

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	var (
		samplePath  = flag.String("sample", "", "path to the partner sample file (required)")
		schemaPath  = flag.String("schema", "canonical_schema.json", "path to the canonical JSON schema")
		mappingPath = flag.String("mapping", "", "mapping set JSON file; omit to use the heuristic mapper")
		maxRows     = flag.Int("max-rows", ingest.DefaultMaxRows, "maximum records to parse")
		transportF  = flag.String("transport", "file", "transport label recorded for the sample")
		showRecords = flag.Bool("records", false, "print the built canonical objects")
	)
	flag.Parse()

	if *samplePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	schema, err := canonical.LoadSchema(*schemaPath)
	if err != nil {
		fatalf("load schema: %v", err)
	}

	set, err := ingest.ParseFile(*samplePath, ingest.Options{
		MaxRows:   *maxRows,
		Transport: ingest.Transport(*transportF),
	})
	if err != nil {
		fatalf("parse sample: %v", err)
	}

	fmt.Println("=========================================================")
	fmt.Printf(" Sample: %s\n", *samplePath)
	fmt.Printf(" Transport: %s   Records parsed: %d\n", set.Transport, len(set.Records))
	fmt.Println("=========================================================")

	if len(set.Records) == 0 {
		fatalf("no records could be parsed from the sample")
	}

	fields := flattenedFields(set.Records[0])
	mappings := loadOrSuggestMappings(*mappingPath, fields)
	if len(mappings) == 0 {
		fatalf("no field could be mapped; supply -mapping with a mapping set JSON file")
	}

	printMappingTable(fields, mappings, schema.Leaves())

	docs := canonical.Build(set, mappings)
	results := canonical.ValidateAll(docs, schema)

	valid := 0
	for _, res := range results {
		if res.Valid {
			valid++
		}
	}
	fmt.Println("---------------------------------------------------------")
	fmt.Printf(" Validation: %d/%d records valid\n", valid, len(results))
	for _, res := range results {
		if res.Valid {
			continue
		}
		fmt.Printf("   record %d INVALID: %s (at %s)\n", res.Index, res.Error, res.PropertyPath)
	}

	if *showRecords {
		fmt.Println("---------------------------------------------------------")
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, res := range results {
			if err := enc.Encode(res.Object); err != nil {
				fatalf("encode record: %v", err)
			}
		}
	}

	if valid < len(results) {
		os.Exit(1)
	}
}

func flattenedFields(rec ingest.Record) []string {
	flat := ingest.Flatten(rec)
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadOrSuggestMappings(path string, fields []string) canonical.MappingSet {
	if path == "" {
		return mapping.Suggest(fields)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fatalf("read mapping file: %v", err)
	}
	var set canonical.MappingSet
	if err := json.Unmarshal(b, &set); err != nil {
		fatalf("parse mapping file: %v", err)
	}
	return set
}

// printMappingTable lines up every sample field against its canonical
// target, with unmapped fields and uncovered schema leaves called out.
func printMappingTable(fields []string, mappings canonical.MappingSet, leaves []string) {
	byField := make(map[string]canonical.MappingEntry, len(mappings))
	covered := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		byField[m.SourceField] = m
		covered[m.CanonicalPath] = true
	}

	width := len("sample field")
	for _, f := range fields {
		if len(f) > width {
			width = len(f)
		}
	}

	fmt.Printf(" %-*s   %-28s %s\n", width, "sample field", "canonical path", "confidence")
	for _, f := range fields {
		m, ok := byField[f]
		if !ok {
			fmt.Printf(" %-*s   %-28s\n", width, f, "(unmapped)")
			continue
		}
		fmt.Printf(" %-*s   %-28s %.2f\n", width, f, m.CanonicalPath, m.Confidence)
	}

	var uncovered []string
	for _, leaf := range leaves {
		if !covered[leaf] {
			uncovered = append(uncovered, leaf)
		}
	}
	if len(uncovered) > 0 {
		fmt.Println(" schema leaves with no source field:")
		for _, leaf := range uncovered {
			fmt.Printf("   %s\n", leaf)
		}
	}
}
