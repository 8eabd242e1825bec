// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package standardizer

// maxPasses bounds the re-application of the rule pipeline. Real inputs
// settle in one or two passes.
const maxPasses = 4

// Result is the canonical form of a string and the rules that changed it.
type Result struct {
	Normalized string   `json:"normalized"`
	Signals    []string `json:"signals"`
}

func (r Result) clone() Result {
	signals := make([]string, len(r.Signals))
	copy(signals, r.Signals)
	return Result{Normalized: r.Normalized, Signals: signals}
}

// Normalizer applies a RuleSet to raw names or addresses.
type Normalizer struct {
	rules *RuleSet
	cache *Cache
}

// NewNormalizer creates a Normalizer. cache may be nil.
func NewNormalizer(rules *RuleSet, cache *Cache) *Normalizer {
	return &Normalizer{rules: rules, cache: cache}
}

// Rules returns the rule set the normalizer applies.
func (n *Normalizer) Rules() *RuleSet {
	return n.rules
}

// Normalize applies the active rules in priority order. The pipeline repeats
// until the string is stable, so the output is a fixed point. A rule is listed
// in Signals once, the first time it changes the string.
func (n *Normalizer) Normalize(raw string) Result {
	res := Result{Signals: []string{}}
	if raw == "" {
		return res
	}

	current := raw
	fired := make(map[string]bool)
	for pass := 0; pass < maxPasses; pass++ {
		before := current
		for _, r := range n.rules.rules {
			next := r.step.apply(current)
			if next != current {
				if !fired[r.name] {
					fired[r.name] = true
					res.Signals = append(res.Signals, r.name)
				}
				current = next
			}
		}
		if current == before {
			break
		}
	}
	res.Normalized = current
	return res
}

// NormalizeWithCache is Normalize backed by the normalizer's cache. The result
// is identical to Normalize for the same input.
func (n *Normalizer) NormalizeWithCache(raw string) Result {
	if n.cache == nil || raw == "" {
		return n.Normalize(raw)
	}
	key := n.rules.fingerprint + "\x00" + raw
	if res, ok := n.cache.Get(key); ok {
		return res
	}
	res := n.Normalize(raw)
	n.cache.Set(key, res)
	return res
}
