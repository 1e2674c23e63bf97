package adapter

import (
	"github.com/mitchellh/copystructure"

	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// deepCopy returns an independent copy of r.
func deepCopy(r types.Record) (types.Record, error) {
	if r == nil {
		return types.Record{}, nil
	}
	v, err := copystructure.Copy(r)
	if err != nil {
		return nil, err
	}
	return v.(types.Record), nil
}

// DeepMerge merges patch into a copy of dst. Nested objects present on both
// sides are merged recursively; every other value in patch, arrays included,
// replaces the one in dst.
func DeepMerge(dst, patch types.Record) (types.Record, error) {
	out, err := deepCopy(dst)
	if err != nil {
		return nil, err
	}
	p, err := deepCopy(patch)
	if err != nil {
		return nil, err
	}
	mergeInto(out, p)
	return out, nil
}

func mergeInto(dst, patch map[string]interface{}) {
	for k, pv := range patch {
		pm, ok := pv.(map[string]interface{})
		if !ok {
			dst[k] = pv
			continue
		}
		dm, ok := dst[k].(map[string]interface{})
		if !ok {
			dst[k] = pm
			continue
		}
		mergeInto(dm, pm)
	}
}
