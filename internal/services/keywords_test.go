package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordExtractor_Extract(t *testing.T) {
	extractor := NewKeywordExtractor()

	text := "The Jenkins pipeline failed during the production deployment. " +
		"Build logs show memory allocation errors in the database connection pool."

	keywords, err := extractor.Extract(text)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), 8)

	// Stop words and short tokens never surface
	for _, kw := range keywords {
		assert.NotContains(t, []string{"the", "in", "a", "of"}, kw)
		assert.GreaterOrEqual(t, len(kw), 2)
	}
}

func TestKeywordExtractor_CapsAtMaxTerms(t *testing.T) {
	extractor := NewKeywordExtractor()

	text := "Engineers reviewed architecture documents covering networking, storage, " +
		"security, monitoring, billing, compliance, scheduling, migration, logging, " +
		"and replication subsystems across several datacenter regions."

	keywords, err := extractor.Extract(text)
	require.NoError(t, err)
	assert.Len(t, keywords, 8)
}

func TestKeywordExtractor_ShortInput(t *testing.T) {
	extractor := NewKeywordExtractor()

	keywords, err := extractor.Extract("Budget report.")
	require.NoError(t, err)
	assert.NotEmpty(t, keywords)
}
