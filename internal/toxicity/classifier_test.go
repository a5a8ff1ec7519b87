package toxicity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Clean(t *testing.T) {
	c := NewClassifier(10, nil)

	res := c.Classify(context.Background(), "hello world, lovely evening")
	assert.False(t, res.IsToxic)
	assert.Equal(t, 0.0, res.Score)
	assert.Empty(t, res.Category)
}

func TestClassify_Profanity(t *testing.T) {
	c := NewClassifier(10, nil)

	res := c.Classify(context.Background(), "this is fucking ridiculous")
	require.True(t, res.IsToxic)
	assert.Equal(t, CategoryProfanity, res.Category)
	assert.InDelta(t, 0.75, res.Score, 0.11)
}

func TestClassify_HateBeatsProfanity(t *testing.T) {
	c := NewClassifier(10, nil)

	// Matches both a profanity pattern and a hate speech pattern; the more
	// severe category must win.
	res := c.Classify(context.Background(), "fuck them, kill all outsiders")
	require.True(t, res.IsToxic)
	assert.Equal(t, CategoryHateSpeech, res.Category)
	assert.GreaterOrEqual(t, res.Score, 0.9)
}

func TestClassify_Threat(t *testing.T) {
	c := NewClassifier(10, nil)

	for _, text := range []string{"i will kill you", "kys", "you are dead"} {
		res := c.Classify(context.Background(), text)
		require.True(t, res.IsToxic, "expected threat match for %q", text)
		assert.Equal(t, CategoryThreat, res.Category)
	}
}

func TestClassify_Spanish(t *testing.T) {
	c := NewClassifier(10, nil)

	res := c.Classify(context.Background(), "te voy a matar")
	require.True(t, res.IsToxic)
	assert.Equal(t, CategoryThreat, res.Category)

	res = c.Classify(context.Background(), "eres un pendejo")
	require.True(t, res.IsToxic)
	assert.Equal(t, CategoryProfanity, res.Category)
}

func TestClassify_Obfuscated(t *testing.T) {
	c := NewClassifier(10, nil)

	res := c.Classify(context.Background(), "that is total sh1t")
	require.True(t, res.IsToxic)
	assert.Equal(t, CategoryObfuscated, res.Category)

	res = c.Classify(context.Background(), "pu7a madre")
	require.True(t, res.IsToxic)
	assert.Equal(t, CategoryObfuscated, res.Category)
}

func TestClassify_DigitsInBenignTextNotFlagged(t *testing.T) {
	c := NewClassifier(10, nil)

	// A digit in one token must not unlock a scan of unrelated words;
	// "computadoras" contains a blocked root as a plain substring.
	for _, text := range []string{
		"tengo 4 computadoras nuevas",
		"the computadora is fine, version 2.0",
		"meet me at 5 near gate 7",
	} {
		res := c.Classify(context.Background(), text)
		assert.False(t, res.IsToxic, "benign text %q must not be flagged", text)
	}
}

func TestClassify_SeparatorBypass(t *testing.T) {
	c := NewClassifier(10, nil)

	res := c.Classify(context.Background(), "well f.u.c.k that")
	require.True(t, res.IsToxic)
	assert.Equal(t, CategoryObfuscated, res.Category)
}

func TestClassify_SeparatorBypass_NoFalsePositive(t *testing.T) {
	c := NewClassifier(10, nil)

	res := c.Classify(context.Background(), "a b c d e f")
	assert.False(t, res.IsToxic)
}

func TestClassify_CacheConsistency(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"toxic":true,"score":0.6,"category":"profanity"}`))
	}))
	defer srv.Close()

	c := NewClassifier(10, NewExternalClassifier(srv.URL, "", time.Second))

	first := c.Classify(context.Background(), "a borderline message")
	second := c.Classify(context.Background(), "a borderline message")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call must hit the cache, not the external classifier")
}

func TestClassify_ExternalFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClassifier(10, NewExternalClassifier(srv.URL, "", time.Second))

	res := c.Classify(context.Background(), "some ordinary sentence")
	assert.False(t, res.IsToxic, "external failure must degrade to not toxic")
}

func TestClassify_ExternalTimeoutFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"toxic":true,"score":0.9}`))
	}))
	defer srv.Close()

	c := NewClassifier(10, NewExternalClassifier(srv.URL, "", 50*time.Millisecond))

	res := c.Classify(context.Background(), "another ordinary sentence")
	assert.False(t, res.IsToxic)
}

func TestClassify_RulesSkipExternal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"toxic":false}`))
	}))
	defer srv.Close()

	c := NewClassifier(10, NewExternalClassifier(srv.URL, "", time.Second))

	res := c.Classify(context.Background(), "this is shit")
	require.True(t, res.IsToxic)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "rule match must short-circuit the external stage")
}

func TestClassify_NegativeResultCached(t *testing.T) {
	c := NewClassifier(10, nil)

	c.Classify(context.Background(), "perfectly fine text")
	assert.Equal(t, 1, c.CacheLen())
}
