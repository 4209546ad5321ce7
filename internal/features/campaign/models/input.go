package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"veyra-backend/internal/common/validation"
	scoremodels "veyra-backend/internal/features/score/models"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var defaultSelectOptions = []string{"Option 1", "Option 2"}

// CreateRequest is the create-campaign payload. Title falls back to Name.
type CreateRequest struct {
	Type        string          `json:"type" example:"ambassador" enums:"drop,allowlist,ambassador"`
	Title       string          `json:"title" example:"Veyra ambassadors"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	MinTier     string          `json:"min_tier" example:"silver"`
	MaxSlots    interface{}     `json:"max_slots" swaggertype:"integer"`
	Questions   []QuestionInput `json:"questions"`
}

// ProjectCampaignRequest creates an ambassador campaign inside a chosen project.
type ProjectCampaignRequest struct {
	ProjectID   string      `json:"project_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	MinTier     string      `json:"min_tier"`
	MaxSlots    interface{} `json:"max_slots" swaggertype:"integer"`
}

type QuestionInput struct {
	Key         string        `json:"key"`
	Label       string        `json:"label"`
	HelpText    string        `json:"help_text"`
	Placeholder string        `json:"placeholder"`
	FieldType   string        `json:"field_type"`
	Type        string        `json:"type"`
	Required    *bool         `json:"required"`
	Options     []interface{} `json:"options" swaggertype:"array,string"`
	SortOrder   *float64      `json:"sort_order"`
}

type TaskInput struct {
	TaskType  string `json:"task_type" example:"follow"`
	Label     string `json:"label"`
	TargetURL string `json:"target_url"`
	Required  *bool  `json:"required"`
}

// SafeType maps anything unknown to ambassador.
func SafeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case TypeDrop:
		return TypeDrop
	case TypeAllowlist:
		return TypeAllowlist
	default:
		return TypeAmbassador
	}
}

// SafeTier accepts exact tier names only, unlike scoremodels.NormalizeTier.
func SafeTier(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case scoremodels.TierGold:
		return scoremodels.TierGold
	case scoremodels.TierSilver:
		return scoremodels.TierSilver
	default:
		return scoremodels.TierBronze
	}
}

func SafeFieldType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case FieldTextarea:
		return FieldTextarea
	case FieldSelect:
		return FieldSelect
	default:
		return FieldText
	}
}

func ValidTaskType(t string) bool {
	return t == TaskFollow || t == TaskRepost || t == TaskJoin
}

func CodePrefix(campaignType string) string {
	switch campaignType {
	case TypeAmbassador:
		return "AMB"
	case TypeAllowlist:
		return "ALW"
	default:
		return "DRP"
	}
}

// NewCode returns PREFIX-XXXX with four characters from an alphabet
// without the easily confused 0, 1, I and O.
func NewCode(prefix string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		// 256 is a multiple of 32 so the modulo is unbiased
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return prefix + "-" + string(out), nil
}

// ParseMaxSlots accepts null, "", a number or a numeric string. Anything
// present must be a positive finite number; fractions are floored.
func ParseMaxSlots(v interface{}) (*int, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil, true
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		f = parsed
	default:
		return nil, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return nil, false
	}
	n := int(math.Floor(f))
	if n == 0 {
		// 0 < f < 1 floors to "no limit"
		return nil, true
	}
	return &n, true
}

// BuildQuestions sanitises the create-campaign question list. Rows without
// a label are dropped after the first MaxQuestions are taken.
func BuildQuestions(in []QuestionInput) []Question {
	if len(in) > validation.MaxQuestions {
		in = in[:validation.MaxQuestions]
	}

	out := make([]Question, 0, len(in))
	for idx, q := range in {
		label := validation.Clip(q.Label, validation.MaxQuestionLabelLength)
		if label == "" {
			continue
		}

		fieldType := SafeFieldType(firstNonEmpty(q.FieldType, q.Type, FieldText))
		key := QuestionKey(firstNonEmpty(q.Key, label))

		var help *string
		if h := validation.Clip(firstNonEmpty(q.HelpText, q.Placeholder), validation.MaxHelpTextLength); h != "" {
			help = &h
		}

		var options []string
		if fieldType == FieldSelect {
			options = SelectOptions(q.Options)
		}

		order := idx * 10
		if q.SortOrder != nil && !math.IsNaN(*q.SortOrder) && !math.IsInf(*q.SortOrder, 0) {
			order = int(*q.SortOrder)
		}

		out = append(out, Question{
			Key:       key,
			Label:     label,
			Required:  q.Required == nil || *q.Required,
			FieldType: fieldType,
			Options:   options,
			HelpText:  help,
			SortOrder: order,
		})
	}
	return out
}

// QuestionKey slugs s, or returns a random q_xxxxxxxx when nothing survives.
func QuestionKey(s string) string {
	if key := validation.Slug(s, validation.MaxQuestionKeyLength); key != "" {
		return key
	}
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return "q_" + hex.EncodeToString(buf)
}

func SelectOptions(raw []interface{}) []string {
	options := make([]string, 0, len(raw))
	for _, o := range raw {
		if o == nil {
			continue
		}
		s := validation.Clip(fmt.Sprint(o), validation.MaxOptionLength)
		if s == "" {
			continue
		}
		options = append(options, s)
		if len(options) == validation.MaxSelectOptions {
			break
		}
	}
	if len(options) == 0 {
		return append([]string(nil), defaultSelectOptions...)
	}
	return options
}

// FormQuestionFrom renders a stored question for the application form.
func FormQuestionFrom(q Question) FormQuestion {
	fq := FormQuestion{
		ID:       q.Key,
		Label:    firstNonEmpty(q.Label, "Question"),
		Required: q.Required,
		Type:     SafeFieldType(q.FieldType),
	}
	if fq.Type == FieldSelect {
		fq.Options = q.Options
		if len(fq.Options) == 0 {
			fq.Options = append([]string(nil), defaultSelectOptions...)
		}
		return fq
	}
	if q.HelpText != nil {
		fq.Placeholder = validation.Clip(*q.HelpText, validation.MaxPlaceholderLength)
	}
	return fq
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
