package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/boilerbrain/internal/embeddings"
	"github.com/ziadkadry99/boilerbrain/internal/progress"
)

const (
	collectionName = "boiler_knowledge"
	vectorFile     = "knowledge.gob.gz"
	entriesFile    = "entries.yml"
)

// Result is a semantic search hit.
type Result struct {
	Entry      Entry
	Similarity float32
}

// Base is the fault code and component knowledge base. Exact lookups go
// through an in-memory index keyed by manufacturer and code; free text
// goes through a chromem collection.
type Base struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
	entries    map[string]Entry
	exact      map[string]string
	manuals    map[string]string
}

// New creates an empty in-memory Base embedding with e.
func New(e embeddings.Embedder) (*Base, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(e)
	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Base{
		db:         db,
		collection: col,
		embedFunc:  ef,
		entries:    make(map[string]Entry),
		exact:      make(map[string]string),
		manuals:    make(map[string]string),
	}, nil
}

func exactKey(manufacturer, code string) string {
	return strings.ToLower(manufacturer) + "|" + strings.ToUpper(code)
}

// Index adds entries, embedding only documents not already present.
// r may be nil.
func (b *Base) Index(ctx context.Context, entries []Entry, r progress.Reporter) error {
	if r == nil {
		r = progress.Nop{}
	}
	b.mu.Lock()
	for _, e := range entries {
		b.remember(e)
	}
	b.mu.Unlock()

	r.Start(len(entries))
	defer r.Finish()
	for i, e := range entries {
		if _, err := b.collection.GetByID(ctx, e.ID()); err == nil {
			r.Update(i+1, "skipped "+e.ID())
			continue
		}
		doc := chromem.Document{
			ID:      e.ID(),
			Content: e.text(),
			Metadata: map[string]string{
				"manufacturer": e.Manufacturer,
				"fault_code":   e.FaultCode,
			},
		}
		if err := b.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("embedding %s: %w", e.ID(), err)
		}
		r.Update(i+1, e.ID())
	}
	return nil
}

// remember must be called with mu held.
func (b *Base) remember(e Entry) {
	id := e.ID()
	b.entries[id] = e
	if e.FaultCode != "" {
		b.exact[exactKey(e.Manufacturer, e.FaultCode)] = id
	}
	if e.ManualURL != "" && e.Manufacturer != "" {
		b.manuals[e.Manufacturer] = e.ManualURL
	}
}

// Lookup returns the entry for a manufacturer's fault code. An empty
// manufacturer matches only generic entries.
func (b *Base) Lookup(manufacturer, code string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.exact[exactKey(manufacturer, code)]
	if !ok {
		return Entry{}, false
	}
	return b.entries[id], true
}

// Search returns up to n entries similar to query, restricted to
// manufacturer when it is non-empty.
func (b *Base) Search(ctx context.Context, query, manufacturer string, n int) ([]Result, error) {
	if n <= 0 {
		n = 3
	}
	count := b.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if n > count {
		n = count
	}

	var where map[string]string
	if manufacturer != "" {
		where = map[string]string{"manufacturer": strings.ToLower(manufacturer)}
		if m := b.countFor(manufacturer); m == 0 {
			return nil, nil
		} else if n > m {
			n = m
		}
	}

	hits, err := b.collection.Query(ctx, query, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		if e, ok := b.entries[h.ID]; ok {
			out = append(out, Result{Entry: e, Similarity: h.Similarity})
		}
	}
	return out, nil
}

func (b *Base) countFor(manufacturer string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m := strings.ToLower(manufacturer)
	n := 0
	for _, e := range b.entries {
		if e.Manufacturer == m {
			n++
		}
	}
	return n
}

// ManualLink returns the manual URL recorded for manufacturer, if any.
func (b *Base) ManualLink(manufacturer string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.manuals[strings.ToLower(manufacturer)]
}

// Count returns the number of indexed documents.
func (b *Base) Count() int {
	return b.collection.Count()
}

// Persist writes the vectors and entries under dir.
func (b *Base) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := b.db.ExportToFile(filepath.Join(dir, vectorFile), true, ""); err != nil {
		return fmt.Errorf("export vectors: %w", err)
	}

	b.mu.RLock()
	entries := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	b.mu.RUnlock()

	data, err := yaml.Marshal(seedFile{Entries: entries})
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, entriesFile), data, 0o644)
}

// Load restores a Base previously written by Persist.
func (b *Base) Load(dir string) error {
	if err := b.db.ImportFromFile(filepath.Join(dir, vectorFile), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}
	// Re-acquire collection reference after import.
	col := b.db.GetCollection(collectionName, b.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}

	data, err := os.ReadFile(filepath.Join(dir, entriesFile))
	if err != nil {
		return fmt.Errorf("reading entries: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parsing entries: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.collection = col
	for _, e := range sf.Entries {
		b.remember(e)
	}
	return nil
}

// Answer renders e as a user-facing reply.
func Answer(e Entry) string {
	var sb strings.Builder
	sb.WriteString(e.Description)
	if len(e.Steps) > 0 {
		sb.WriteString("\n\nRecommended steps:\n")
		for _, s := range e.Steps {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
