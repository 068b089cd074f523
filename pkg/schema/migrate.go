package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
)

// Migration raises a raw envelope one schema version. Migrations operate on
// the decoded JSON map, not on domain types, because old shapes may no
// longer be representable.
type Migration struct {
	From        int
	Description string
	Apply       func(raw map[string]any) (map[string]any, error)
}

// migrations is keyed by the version a migration upgrades FROM. Every
// release that bumps domain.SchemaVersion registers the step here.
var migrations = map[int]Migration{
	1: {
		From:        1,
		Description: "collapsed object becomes a sorted array; percent zoom becomes a factor; seed field introduced",
		Apply:       migrateV1,
	},
}

// migrateV1 upgrades the original envelope shape. Version 1 predates seed
// threading (node ids were wall-clock ULIDs, which cannot collide with the
// seeded range), stored the collapsed set as an id-to-bool object, and kept
// zoom as a percentage.
func migrateV1(raw map[string]any) (map[string]any, error) {
	if m, ok := raw["collapsed"].(map[string]any); ok {
		ids := make([]string, 0, len(m))
		for id, v := range m {
			if b, _ := v.(bool); b {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		raw["collapsed"] = ids
	}
	if vp, ok := raw["viewport"].(map[string]any); ok {
		if z, ok := vp["zoom"].(float64); ok && z > 10 {
			// Values above 10 can only be percentages; factors top out
			// around 4x in the UI.
			vp["zoom"] = z / 100
		}
	}
	if _, ok := raw["seed"]; !ok {
		raw["seed"] = float64(0)
	}
	return raw, nil
}

// Decode parses a serialized document at any supported schema version,
// migrating old envelopes forward before handing off to the domain decoder.
// Newer-than-supported versions are rejected, never guessed at.
func Decode(data []byte) (domain.Document, error) {
	version, err := domain.ProbeSchema(data)
	if err != nil {
		return domain.Document{}, err
	}

	switch {
	case version == domain.SchemaVersion:
		return domain.DecodeDocument(data)
	case version > domain.SchemaVersion:
		return domain.Document{}, fmt.Errorf("document schema %d is newer than supported %d: %w",
			version, domain.SchemaVersion, domain.ErrSchemaVersion)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Document{}, fmt.Errorf("decode document for migration: %w", err)
	}

	for v := version; v < domain.SchemaVersion; v++ {
		m, ok := migrations[v]
		if !ok {
			return domain.Document{}, fmt.Errorf("no migration from schema %d: %w", v, domain.ErrSchemaVersion)
		}
		raw, err = m.Apply(raw)
		if err != nil {
			return domain.Document{}, fmt.Errorf("migrate schema %d: %w", v, err)
		}
		raw["schema"] = float64(v + 1)
	}

	upgraded, err := json.Marshal(raw)
	if err != nil {
		return domain.Document{}, fmt.Errorf("re-encode migrated document: %w", err)
	}
	return domain.DecodeDocument(upgraded)
}

// Supported lists every schema version Decode accepts, oldest first.
func Supported() []int {
	out := []int{domain.SchemaVersion}
	for v := range migrations {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
