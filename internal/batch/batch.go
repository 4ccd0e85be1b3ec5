// Package batch splits unbounded key collections into store-safe chunks.
//
// Relational stores cap the number of bind parameters a single statement may
// carry, so IN-list lookups over arbitrary key sets have to be paginated.
// The chunking is purely mechanical: keys are never inspected, deduplicated,
// or reordered.
package batch

// MaxBindParams is the largest number of bind parameters a single statement
// may carry. The tightest limit among the backends we care about is the
// 1000-element IN list, so every chunked lookup uses that ceiling.
const MaxBindParams = 1000

// Execute partitions keys into successive chunks of at most MaxBindParams,
// invokes fn once per chunk, and returns the concatenation of all results.
// Chunks run in input order; row order inside each result is whatever fn
// returns. Duplicate keys pass through untouched.
//
// An empty keys slice returns immediately with zero fn invocations. Callers
// depend on bulk lookups costing no store round trip when there is nothing
// to look up, so this is part of the contract, not an optimization.
func Execute[K, R any](keys []K, fn func(chunk []K) ([]R, error)) ([]R, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var out []R
	for start := 0; start < len(keys); start += MaxBindParams {
		end := start + MaxBindParams
		if end > len(keys) {
			end = len(keys)
		}
		res, err := fn(keys[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}
