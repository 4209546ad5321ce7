package models

import (
	"sort"
	"strings"
	"time"

	"veyra-backend/internal/common/validation"
	scoremodels "veyra-backend/internal/features/score/models"
)

// ToPublic normalises a campaign for the public list. The id is the code
// when one exists.
func (c *Campaign) ToPublic(now time.Time) PublicCampaign {
	title := c.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled campaign"
	}

	start := now
	switch {
	case c.StartsAt != nil:
		start = *c.StartsAt
	case !c.CreatedAt.IsZero():
		start = c.CreatedAt
	}
	end := start.Add(DefaultDuration)
	if c.EndsAt != nil {
		end = *c.EndsAt
	}

	return PublicCampaign{
		ID:          firstNonEmpty(c.Code, c.ID, "unknown"),
		Title:       validation.Clip(title, validation.MaxPublicTitleLength),
		Description: validation.Clip(c.Description, validation.MaxCampaignDescriptionLength),
		StartsAt:    start.UTC(),
		EndsAt:      end.UTC(),
		MinTier:     scoremodels.NormalizeTier(c.MinTier),
	}
}

// SortEntries orders by tier rank, then fairscore, then newest first.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if ra, rb := a.TierRank(), b.TierRank(); ra != rb {
			return ra > rb
		}
		if sa, sb := a.Score(), b.Score(); sa != sb {
			return sa > sb
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// GroupEntries buckets entries by tier, keeping their order.
func GroupEntries(entries []Entry) GroupedEntries {
	g := GroupedEntries{
		Gold:   []Entry{},
		Silver: []Entry{},
		Bronze: []Entry{},
		Other:  []Entry{},
	}
	for _, e := range entries {
		switch strings.ToLower(e.Tier) {
		case scoremodels.TierGold:
			g.Gold = append(g.Gold, e)
		case scoremodels.TierSilver:
			g.Silver = append(g.Silver, e)
		case scoremodels.TierBronze:
			g.Bronze = append(g.Bronze, e)
		default:
			g.Other = append(g.Other, e)
		}
	}
	return g
}
