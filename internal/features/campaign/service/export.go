package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "veyra-backend/internal/common/errors"
	authmodels "veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/campaign/models"
	scoremodels "veyra-backend/internal/features/score/models"
)

const utf8BOM = "\ufeff"

var (
	exportHeader = []string{
		"campaign_code",
		"campaign_title",
		"campaign_type",
		"application_id",
		"submitted_at",
		"telegram_user_id",
		"username",
		"name",
		"wallet",
		"tier",
		"fairscore",
		"answers_json",
	}

	filenameInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)
	filenameRepeats = regexp.MustCompile(`_+`)
)

type Export struct {
	Filename string
	Body     []byte
}

// ExportCSV renders every entry of a campaign. Project admins and, for
// campaigns outside a project, the creator may export.
func (s *CampaignService) ExportCSV(ctx context.Context, p *authmodels.Principal, campaignID string) (*Export, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, apperrors.NewValidationError("campaign_id", "missing campaign_id")
	}
	if _, err := s.guard.RequireCampaignAdmin(ctx, p, campaignID); err != nil {
		return nil, err
	}

	c, entries, err := s.campaignWithEntries(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	body, err := writeCSV(c, entries)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to render CSV")
	}

	code := c.Code
	if code == "" {
		code = "campaign"
	}
	return &Export{
		Filename: "veyra_" + safeFilename(code) + "_applications.csv",
		Body:     body,
	}, nil
}

func writeCSV(c *models.Campaign, entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := w.Write(exportRow(c, e)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func exportRow(c *models.Campaign, e models.Entry) []string {
	username := ""
	if e.Username != "" {
		username = "@" + e.Username
	}
	name := strings.TrimSpace(strings.Join(nonEmpty(e.FirstName, e.LastName), " "))

	fairscore := ""
	if e.Fairscore != nil {
		fairscore = scoremodels.FormatScore(*e.Fairscore)
	}

	answers := ""
	if len(e.Answers) > 0 {
		if b, err := json.Marshal(e.Answers); err == nil {
			answers = string(b)
		}
	}

	submitted := ""
	if !e.CreatedAt.IsZero() {
		submitted = e.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		c.Code,
		c.Title,
		c.Type,
		e.ID,
		submitted,
		strconv.FormatInt(e.TelegramUserID, 10),
		username,
		name,
		e.Wallet,
		e.Tier,
		fairscore,
		answers,
	}
}

func safeFilename(s string) string {
	s = strings.ToLower(s)
	s = filenameInvalid.ReplaceAllString(s, "_")
	s = filenameRepeats.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
