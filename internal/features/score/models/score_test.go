package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTier(t *testing.T) {
	cases := map[string]string{
		"Gold":          TierGold,
		" GOLD tier ":   TierGold,
		"silver":        TierSilver,
		"bronze":        TierBronze,
		"platinum":      TierBronze,
		"":              TierBronze,
		"rose-gold-ish": TierGold,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTier(in), in)
	}
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierMeets(TierBronze, TierGold))
	assert.True(t, TierMeets(TierSilver, TierSilver))
	assert.False(t, TierMeets(TierGold, TierSilver))
	assert.False(t, TierMeets(TierBronze, "unknown"))
	assert.Greater(t, TierRank(TierGold), TierRank(TierSilver))
	assert.Greater(t, TierRank(TierSilver), TierRank(TierBronze))
	assert.Zero(t, TierRank("other"))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "41.5", FormatScore(41.49))
	assert.Equal(t, "17.0", FormatScore(17))
	assert.Equal(t, "Gold", TierLabel("gold"))
	assert.Equal(t, "Silver", TierLabel("SILVER"))
	assert.Equal(t, "", TierLabel(""))
}
