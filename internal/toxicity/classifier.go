package toxicity

import (
	"context"
	"fmt"
	"log"
)

// Result is the outcome of classifying one message text.
type Result struct {
	IsToxic     bool    `json:"is_toxic"`
	Score       float64 `json:"score"`
	Category    string  `json:"category,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

// Classifier runs the cascade: cache, deterministic rules in fixed
// precedence, then the optional external classifier. Every result, negative
// included, is cached before returning.
type Classifier struct {
	cache    *resultCache
	external *ExternalClassifier
}

// NewClassifier creates a classifier with a bounded result cache. external
// may be nil, which skips the semantic stage.
func NewClassifier(cacheSize int, external *ExternalClassifier) *Classifier {
	return &Classifier{
		cache:    newResultCache(cacheSize),
		external: external,
	}
}

// Classify runs the cascade for the exact text. The rule stage is pure
// string work; only the external stage can block, bounded by its client
// timeout, and it fails open.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	if res, ok := c.cache.Get(text); ok {
		return res
	}

	res := c.classify(ctx, text)
	c.cache.Put(text, res)
	return res
}

func (c *Classifier) classify(ctx context.Context, text string) Result {
	for i := range rules {
		r := &rules[i]
		if r.Match(text) {
			return Result{
				IsToxic:     true,
				Score:       r.Score,
				Category:    r.Category,
				Explanation: r.Explanation,
			}
		}
	}

	if root, ok := matchObfuscated(text); ok {
		return Result{
			IsToxic:     true,
			Score:       scoreObfuscated,
			Category:    CategoryObfuscated,
			Explanation: fmt.Sprintf("obfuscated form of blocked term %q", root),
		}
	}

	if root, ok := matchBypass(text); ok {
		return Result{
			IsToxic:     true,
			Score:       scoreObfuscated,
			Category:    CategoryObfuscated,
			Explanation: fmt.Sprintf("separator-spaced form of blocked term %q", root),
		}
	}

	if c.external != nil {
		res, err := c.external.Classify(ctx, text)
		if err != nil {
			// Fail open: the optional stage never blocks delivery.
			log.Printf("Warning: external classifier degraded: %v", err)
			return Result{}
		}
		return *res
	}

	return Result{}
}

// CacheLen reports the number of cached results.
func (c *Classifier) CacheLen() int {
	return c.cache.Len()
}
