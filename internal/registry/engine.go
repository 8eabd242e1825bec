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

package registry

import (
	"context"
	"time"

	"github.com/TFMV/InstitutionMatchPro/internal/matcher"
	"github.com/TFMV/InstitutionMatchPro/internal/standardizer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Rule scopes understood by RuleStore.
const (
	NameScope    = "name"
	AddressScope = "address"
)

// RuleStore serves the administered normalization rules.
type RuleStore interface {
	ActiveRules(ctx context.Context, scope string) ([]standardizer.Rule, error)
}

// ResolveRules picks the name and address rules. A rules file wins over the
// store; a scope with no rules in either falls back to the built-in defaults.
func ResolveRules(ctx context.Context, rulesFile string, store RuleStore) (names, addresses []standardizer.Rule, err error) {
	if rulesFile != "" {
		file, err := standardizer.LoadRules(rulesFile)
		if err != nil {
			return nil, nil, err
		}
		return file.Names, file.Addresses, nil
	}

	if store != nil {
		if names, err = store.ActiveRules(ctx, NameScope); err != nil {
			return nil, nil, errors.Wrap(err, "load name rules")
		}
		if addresses, err = store.ActiveRules(ctx, AddressScope); err != nil {
			return nil, nil, errors.Wrap(err, "load address rules")
		}
	}
	if len(names) == 0 {
		names = standardizer.DefaultRules()
	}
	if len(addresses) == 0 {
		addresses = standardizer.DefaultAddressRules()
	}
	return names, addresses, nil
}

// EngineConfig sizes the shared normalization cache and the shortlist.
type EngineConfig struct {
	CacheTTL      time.Duration
	CacheCapacity int
	ShortlistSize int
}

// Engine is one scorer shared by a matcher and a grouper.
type Engine struct {
	Names     *standardizer.Normalizer
	Addresses *standardizer.AddressNormalizer
	Scorer    *matcher.Scorer
	Matcher   *matcher.Matcher
	Grouper   *matcher.Grouper
}

// NewEngine compiles both rule sets and wires them through one cache.
func NewEngine(nameRules, addressRules []standardizer.Rule, cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	names, err := standardizer.NewRuleSet(nameRules)
	if err != nil {
		return nil, errors.Wrap(err, "compile name rules")
	}
	addresses, err := standardizer.NewRuleSet(addressRules)
	if err != nil {
		return nil, errors.Wrap(err, "compile address rules")
	}

	cache := standardizer.NewCache(cfg.CacheTTL, cfg.CacheCapacity)
	e := &Engine{
		Names:     standardizer.NewNormalizer(names, cache),
		Addresses: standardizer.NewAddressNormalizer(standardizer.NewNormalizer(addresses, cache)),
	}
	e.Scorer = matcher.NewScorer(e.Names, e.Addresses)
	e.Matcher = matcher.NewMatcher(e.Scorer, matcher.WithShortlist(cfg.ShortlistSize), matcher.WithLogger(logger))
	e.Grouper = matcher.NewGrouper(e.Scorer, matcher.WithGroupLogger(logger))

	logger.Debug("engine ready",
		zap.Strings("name_rules", names.Names()),
		zap.Strings("address_rules", addresses.Names()),
		zap.String("name_fingerprint", names.Fingerprint()))
	return e, nil
}
