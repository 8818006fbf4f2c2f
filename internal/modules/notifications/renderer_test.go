package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
	"github.com/rameshiCode/aindependent-backend/internal/platform/openai"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
	user  string
}

func (f *fakeLLM) Complete(_ context.Context, _, user string, _ int, _ float64) (string, error) {
	f.calls++
	f.user = user
	return f.reply, f.err
}

func (f *fakeLLM) Chat(ctx context.Context, system string, msgs []openai.Message, maxTokens int, temperature float64) (string, error) {
	return f.Complete(ctx, system, "", maxTokens, temperature)
}

func first(int) int { return 0 }

func scheduled(kind notification.Kind, meta map[string]any) *notification.ScheduledNotification {
	raw, _ := json.Marshal(meta)
	return &notification.ScheduledNotification{ID: uuid.New(), UserID: uuid.New(), Kind: kind, Metadata: datatypes.JSON(raw)}
}

func TestContentBankCoversEveryKind(t *testing.T) {
	bank, err := LoadContentBank(contentYAML)
	require.NoError(t, err)
	for _, k := range notification.Kinds {
		require.NotEmpty(t, bank.Kinds[k].Prompt, "kind %s", k)
	}
	_, err = LoadContentBank([]byte("kinds: {}"))
	require.Error(t, err)
}

func TestRenderWithoutProfileIsGeneric(t *testing.T) {
	llm := &fakeLLM{reply: "Title: x\nBody: y"}
	r := NewRenderer(logger.NewNop(), nil, llm, WithIntn(first))
	out := r.Render(context.Background(), RenderInput{Notification: scheduled(notification.KindRelapseRiskCritical, nil)})
	require.Equal(t, PathGeneric, out.Path)
	require.Equal(t, DefaultContentBank().Generic(notification.KindRelapseRiskCritical).Title, out.Title)
	require.Zero(t, llm.calls)
}

func TestRenderTemplateFillsPlaceholders(t *testing.T) {
	r := NewRenderer(logger.NewNop(), nil, nil, WithIntn(first))
	p := recovery.NewProfile(uuid.New(), genNow)
	p.AbstinenceDays = 12

	out := r.Render(context.Background(), RenderInput{
		Notification: scheduled(notification.KindGoalDeadline, map[string]any{
			notification.MetaDaysToGo:        1,
			notification.MetaGoalDescription: "call my sister",
		}),
		Profile: p,
	})
	require.Equal(t, PathTemplate, out.Path)
	require.Equal(t, "Your goal is due tomorrow", out.Title)
	require.Contains(t, out.Body, "call my sister")
	require.NotContains(t, out.Body, "{")

	boost := r.Render(context.Background(), RenderInput{
		Notification: scheduled(notification.KindMotivationBoost, nil),
		Profile:      p,
		Insights: []*recovery.Insight{
			{Type: recovery.InsightMotivation, Value: "my daughter", EmotionalSignificance: 0.9},
		},
	})
	require.Contains(t, boost.Body, "my daughter")
}

func TestRenderLLMTruncates(t *testing.T) {
	longTitle := strings.Repeat("T", 80)
	longBody := strings.Repeat("é", 200)
	llm := &fakeLLM{reply: "Title: " + longTitle + "\nBody: " + longBody}
	r := NewRenderer(logger.NewNop(), nil, llm, WithIntn(first))
	p := recovery.NewProfile(uuid.New(), genNow)

	out := r.Render(context.Background(), RenderInput{
		Notification: scheduled(notification.KindAbstinenceMilestone, map[string]any{notification.MetaMilestone: 30}),
		Profile:      p,
	})
	require.Equal(t, PathLLM, out.Path)
	require.Equal(t, 1, llm.calls)
	require.Contains(t, llm.user, "30 days")
	require.Equal(t, MaxTitleRunes, utf8.RuneCountInString(out.Title))
	require.Equal(t, MaxBodyRunes, utf8.RuneCountInString(out.Body))
	require.True(t, strings.HasSuffix(out.Title, "..."))
	require.True(t, strings.HasSuffix(out.Body, "..."))

	llm.reply = "Title: You did it\nBody: Thirty days of showing up."
	short := r.Render(context.Background(), RenderInput{
		Notification: scheduled(notification.KindAbstinenceMilestone, map[string]any{notification.MetaMilestone: 30}),
		Profile:      p,
	})
	require.Equal(t, "You did it", short.Title)
	require.Equal(t, "Thirty days of showing up.", short.Body)
}

func TestRenderLLMOnlyWhenSalientOrRequested(t *testing.T) {
	llm := &fakeLLM{reply: "Title: Hi\nBody: There"}
	r := NewRenderer(logger.NewNop(), nil, llm, WithIntn(first))
	p := recovery.NewProfile(uuid.New(), genNow)

	out := r.Render(context.Background(), RenderInput{Notification: scheduled(notification.KindCheckIn, nil), Profile: p})
	require.Equal(t, PathTemplate, out.Path)
	require.Zero(t, llm.calls)

	out = r.Render(context.Background(), RenderInput{
		Notification: scheduled(notification.KindCheckIn, map[string]any{notification.MetaUseLLM: true}),
		Profile:      p,
	})
	require.Equal(t, PathLLM, out.Path)
	require.Equal(t, 1, llm.calls)
}

func TestRenderLLMFailureFallsBackToTemplate(t *testing.T) {
	p := recovery.NewProfile(uuid.New(), genNow)
	score := 90
	p.RelapseRiskScore = &score
	n := scheduled(notification.KindRelapseRiskCritical, map[string]any{notification.MetaRiskScore: 90})

	for _, llm := range []*fakeLLM{
		{err: errors.New("boom")},
		{reply: "just one line"},
	} {
		r := NewRenderer(logger.NewNop(), nil, llm, WithIntn(first))
		out := r.Render(context.Background(), RenderInput{Notification: n, Profile: p})
		require.Equal(t, PathTemplateFallback, out.Path)
		require.Equal(t, "Reach out right now", out.Title)
		require.NotEmpty(t, out.Body)
	}
}

func TestParseCompletion(t *testing.T) {
	cases := []struct {
		in, title, body string
		ok              bool
	}{
		{"Title: Keep going\nBody: You are doing great.", "Keep going", "You are doing great.", true},
		{"Sure! Title: \"Keep going\" Body: **You are doing great.**", "Keep going", "You are doing great.", true},
		{"Keep going\n\nYou are doing great.\nReally.", "Keep going", "You are doing great. Really.", true},
		{"Title:\nBody: only body", "", "", false},
		{"   ", "", "", false},
	}
	for _, tc := range cases {
		title, body, err := ParseCompletion(tc.in)
		if !tc.ok {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.title, title)
		require.Equal(t, tc.body, body)
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, strings.Repeat("a", 10), Truncate(strings.Repeat("a", 10), 10))
	require.Equal(t, "aaaaaaa...", Truncate(strings.Repeat("a", 11), 10))
	require.Equal(t, 5, utf8.RuneCountInString(Truncate("ééééééé", 5)))
	require.Equal(t, "ab", Truncate("abcdef", 2))
	require.Equal(t, "abc", Truncate("abcdef", 3))
	require.Equal(t, "", Truncate("abcdef", 0))
}
