package domain

import "time"

// TextUnit is one immutable passage of the knowledge base.
type TextUnit struct {
	ID        string   `json:"id" yaml:"id"`
	Category  Category `json:"category" yaml:"category"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Body      string   `json:"body" yaml:"body"`
	SourceRef string   `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`
}

// IndexRecord is the unit persisted in the vector index.
type IndexRecord struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"v"`
	Body     string    `json:"body"`
	Category Category  `json:"category"`
}

// ScoredRecord pairs an index record with its similarity to a query vector.
type ScoredRecord struct {
	Record IndexRecord
	Score  float64
}

// QueryResult is one ranked hit returned to callers.
type QueryResult struct {
	ID       string   `json:"id"`
	Body     string   `json:"body"`
	Category Category `json:"category"`
	Score    float64  `json:"score"`
}

// SearchRequest is a validated-on-entry search call.
// TopK <= 0 means one result; Category empty means no filter.
type SearchRequest struct {
	Query    string
	TopK     int
	Category Category
}

// Manifest identifies the build a persisted index belongs to.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	ModelVersion  string    `json:"model_version"`
	CorpusVersion string    `json:"corpus_version"`
	Dimension     int       `json:"dimension"`
	Count         int       `json:"count"`
	BuildID       string    `json:"build_id,omitempty"`
	BuiltAt       time.Time `json:"built_at"`
}

// SameBuild reports whether m was produced for the same model and corpus as want.
func (m Manifest) SameBuild(want Manifest) bool {
	return m.SchemaVersion == want.SchemaVersion &&
		m.ModelVersion == want.ModelVersion &&
		m.CorpusVersion == want.CorpusVersion
}

// Status is the health snapshot reported by the engine.
type Status struct {
	State         EngineState `json:"state"`
	CorpusSize    int         `json:"corpus_size"`
	ModelVersion  string      `json:"model_version"`
	CorpusVersion string      `json:"corpus_version,omitempty"`
	Persisted     bool        `json:"persisted"`
	Builds        int64       `json:"builds"`
	Cause         string      `json:"cause,omitempty"`
}
