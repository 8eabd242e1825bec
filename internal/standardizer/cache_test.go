package standardizer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHitMatchesFreshResult(t *testing.T) {
	set := MustRuleSet(DefaultRules())
	cached := NewNormalizer(set, NewCache(time.Minute, 100))
	plain := NewNormalizer(set, nil)

	for _, in := range []string{"강남구 보건소", "(주)한빛병원", "", "서울중앙병원 "} {
		first := cached.NormalizeWithCache(in)
		second := cached.NormalizeWithCache(in)
		assert.Equal(t, plain.Normalize(in), first, "input %q", in)
		assert.Equal(t, first, second, "input %q", in)
	}
}

func TestCacheResultsAreCopies(t *testing.T) {
	n := NewNormalizer(MustRuleSet(DefaultRules()), NewCache(time.Minute, 10))
	first := n.NormalizeWithCache("강남구 보건소")
	require.NotEmpty(t, first.Signals)
	first.Signals[0] = "tampered"

	assert.Equal(t, []string{"strip-facility-suffix"}, n.NormalizeWithCache("강남구 보건소").Signals)
}

func TestCacheEvictsOldestBatch(t *testing.T) {
	c := NewCache(time.Minute, 10)
	for i := 0; i <= 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), Result{Normalized: fmt.Sprint(i)})
	}

	assert.Equal(t, 10, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok, "oldest entry should be evicted")
	res, ok := c.Get("k10")
	require.True(t, ok)
	assert.Equal(t, "10", res.Normalized)
}

func TestCacheEvictsTenPercent(t *testing.T) {
	c := NewCache(time.Minute, 100)
	for i := 0; i <= 100; i++ {
		c.Set(fmt.Sprintf("k%03d", i), Result{})
	}
	assert.Equal(t, 91, c.Len())
	for i := 0; i < 10; i++ {
		_, ok := c.Get(fmt.Sprintf("k%03d", i))
		assert.False(t, ok)
	}
	_, ok := c.Get("k010")
	assert.True(t, ok)
}

func TestCacheExpires(t *testing.T) {
	c := NewCache(20*time.Millisecond, 10)
	c.Set("k", Result{Normalized: "v"})
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCacheDropsForeignValues(t *testing.T) {
	c := NewCache(time.Minute, 10)
	c.items.SetDefault("k", "not a result")

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestNilCache(t *testing.T) {
	var c *Cache
	c.Set("k", Result{Normalized: "v"})
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Flush()
}

func TestCacheSharedAcrossRuleSets(t *testing.T) {
	cache := NewCache(time.Minute, 100)
	suffixOnly := NewNormalizer(MustRuleSet([]Rule{
		{Name: "suffix", Kind: KindSuffixRemoval, Active: true, Literals: []string{"보건소"}},
	}), cache)
	whitespaceOnly := NewNormalizer(MustRuleSet([]Rule{
		{Name: "ws", Kind: KindWhitespaceNormalize, Active: true},
	}), cache)

	assert.Equal(t, "강남구", suffixOnly.NormalizeWithCache("강남구보건소").Normalized)
	assert.Equal(t, "강남구보건소", whitespaceOnly.NormalizeWithCache("강남구보건소").Normalized)
}

func TestCacheConcurrentUse(t *testing.T) {
	n := NewNormalizer(MustRuleSet(DefaultRules()), NewCache(time.Minute, 50))
	want := n.Normalize("안산시 상록구 보건소(본관)")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				n.NormalizeWithCache(fmt.Sprintf("기관 %d-%d", w, i))
				assert.Equal(t, want, n.NormalizeWithCache("안산시 상록구 보건소(본관)"))
			}
		}(w)
	}
	wg.Wait()
	assert.LessOrEqual(t, n.cache.Len(), 50)
}
