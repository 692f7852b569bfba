package kgraph

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed graph_schema.json
var graphSchema []byte

//go:embed sample_graph.json
var sampleGraph []byte

// SampleSubjectID is the subject id of the embedded sample graph.
const SampleSubjectID = "algebra-basics"

// SampleGraph parses and returns the embedded sample subject graph.
func SampleGraph() (*Graph, error) {
	return Parse(sampleGraph)
}

// WriteSample writes the embedded sample graph into dir so a fresh
// installation has a working subject to practice against. Refuses to
// overwrite an existing file.
func WriteSample(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure graphs dir: %w", err)
	}
	path := filepath.Join(dir, SampleSubjectID+".json")
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("graph file already exists: %s", path)
	}
	if err := os.WriteFile(path, sampleGraph, 0o644); err != nil {
		return "", fmt.Errorf("write sample graph: %w", err)
	}
	return path, nil
}
