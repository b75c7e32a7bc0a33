package store

import (
	"fmt"

	"qualrag/internal/domain"
)

// CurrentSchemaVersion is the on-disk layout version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// CheckManifest decides whether a stored build can serve the wanted one.
// Any difference in schema, model or corpus means a full rebuild; stale
// vectors are never served.
func CheckManifest(stored, want domain.Manifest) error {
	switch {
	case stored.SchemaVersion == 0:
		return fmt.Errorf("%w: manifest without schema version", domain.ErrCorruptIndex)
	case stored.SchemaVersion != want.SchemaVersion:
		return fmt.Errorf("%w: schema v%d, want v%d", domain.ErrVersionMismatch, stored.SchemaVersion, want.SchemaVersion)
	case stored.ModelVersion != want.ModelVersion:
		return fmt.Errorf("%w: built with model %q, want %q", domain.ErrVersionMismatch, stored.ModelVersion, want.ModelVersion)
	case stored.CorpusVersion != want.CorpusVersion:
		return fmt.Errorf("%w: built from corpus %s, want %s", domain.ErrVersionMismatch, stored.CorpusVersion, want.CorpusVersion)
	case stored.Count < 0 || stored.Dimension <= 0 && stored.Count > 0:
		return fmt.Errorf("%w: manifest count=%d dimension=%d", domain.ErrCorruptIndex, stored.Count, stored.Dimension)
	}
	return nil
}

// NewManifest describes a build of corpusVersion embedded by modelVersion.
func NewManifest(modelVersion, corpusVersion string) domain.Manifest {
	return domain.Manifest{
		SchemaVersion: CurrentSchemaVersion,
		ModelVersion:  modelVersion,
		CorpusVersion: corpusVersion,
	}
}
