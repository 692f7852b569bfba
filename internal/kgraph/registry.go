package kgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/masterpath/internal/bkt"
)

// graphFile is the on-disk JSON layout of a subject graph. Params are a
// pointer so a concept that omits them falls back to the package defaults
// instead of an all-zero (degenerate) parameter set.
type graphFile struct {
	SubjectID string `json:"subject_id"`
	Concepts  []struct {
		ID            string      `json:"id"`
		Name          string      `json:"name"`
		Description   string      `json:"description"`
		Prerequisites []string    `json:"prerequisites"`
		Params        *bkt.Params `json:"params"`
	} `json:"concepts"`
}

// Registry loads subject graphs from a directory of JSON files (one file
// per subject, named <subject_id>.json) and caches each validated graph
// for the process lifetime. Reload discards a cached entry explicitly.
type Registry struct {
	dir string

	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewRegistry creates a registry rooted at dir.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:    dir,
		graphs: make(map[string]*Graph),
	}
}

// Load returns the graph for a subject, reading and validating its file on
// first use. Returns ErrGraphNotFound if no file exists for the subject and
// *InvalidError if the file fails schema or structural validation.
func (r *Registry) Load(subjectID string) (*Graph, error) {
	r.mu.RLock()
	g, ok := r.graphs[subjectID]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.graphs[subjectID]; ok {
		return g, nil
	}

	g, err := r.loadFile(subjectID)
	if err != nil {
		return nil, err
	}
	r.graphs[subjectID] = g
	return g, nil
}

// Reload drops any cached graph for the subject and loads it fresh from
// disk.
func (r *Registry) Reload(subjectID string) (*Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.loadFile(subjectID)
	if err != nil {
		return nil, err
	}
	r.graphs[subjectID] = g
	return g, nil
}

// Subjects lists the subject ids with a configured graph file, sorted.
func (r *Registry) Subjects() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read graphs dir: %w", err)
	}

	var subjects []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		subjects = append(subjects, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(subjects)
	return subjects, nil
}

func (r *Registry) loadFile(subjectID string) (*Graph, error) {
	path := filepath.Join(r.dir, subjectID+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("subject %q: %w", subjectID, ErrGraphNotFound)
		}
		return nil, fmt.Errorf("read graph file %s: %w", path, err)
	}

	g, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if g.SubjectID() != subjectID {
		return nil, &InvalidError{
			SubjectID: subjectID,
			Problems: []string{fmt.Sprintf("file %s declares subject_id %q", path, g.SubjectID())},
		}
	}
	return g, nil
}

// Parse validates raw graph JSON against the embedded schema, then
// structurally, and builds the immutable graph.
func Parse(raw []byte) (*Graph, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse graph file: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, &InvalidError{
			Problems: []string{fmt.Sprintf("schema validation failed: %v", err)},
		}
	}

	var gf graphFile
	if err := json.Unmarshal(raw, &gf); err != nil {
		return nil, fmt.Errorf("decode graph file: %w", err)
	}

	concepts := make([]Concept, 0, len(gf.Concepts))
	for _, cf := range gf.Concepts {
		c := Concept{
			ID:            cf.ID,
			Name:          cf.Name,
			Description:   cf.Description,
			Prerequisites: cf.Prerequisites,
			Params:        bkt.DefaultParams(),
		}
		if cf.Params != nil {
			c.Params = *cf.Params
		}
		concepts = append(concepts, c)
	}
	return Build(gf.SubjectID, concepts)
}

// Build validates a concept set and constructs the graph. Exposed for
// tests and programmatic seeding.
func Build(subjectID string, concepts []Concept) (*Graph, error) {
	if err := validateConcepts(subjectID, concepts); err != nil {
		return nil, err
	}
	return newGraph(subjectID, concepts), nil
}

var (
	schemaOnce sync.Once
	schemaVal  *jsonschema.Schema
	schemaErr  error
)

// compiledSchema compiles the embedded graph-file schema once.
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal(graphSchema, &def); err != nil {
			schemaErr = fmt.Errorf("parse embedded graph schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://masterpath/graph.json"
		if err := c.AddResource(url, def); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schemaVal, schemaErr = c.Compile(url)
	})
	return schemaVal, schemaErr
}
