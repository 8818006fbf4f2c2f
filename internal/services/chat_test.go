package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/testutil"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/domain/chat"
	"github.com/rameshiCode/aindependent-backend/internal/modules/insights"
	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/openai"
)

type stubLLM struct {
	reply string
	err   error
	seen  []openai.Message
}

func (s *stubLLM) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	return s.Chat(ctx, system, []openai.Message{{Role: "user", Content: user}}, maxTokens, temperature)
}

func (s *stubLLM) Chat(_ context.Context, _ string, messages []openai.Message, _ int, _ float64) (string, error) {
	s.seen = messages
	return s.reply, s.err
}

func TestChatSendEndRunsExtraction(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	convRepo := repos.NewConversationRepo(db, log)
	msgRepo := repos.NewMessageRepo(db, log)
	pipeline, err := insights.NewPipeline(insights.PipelineDeps{
		DB:       db,
		Log:      log,
		Profiles: repos.NewProfileRepo(db, log),
		Insights: repos.NewInsightRepo(db, log),
		Goals:    repos.NewGoalRepo(db, log),
		Messages: msgRepo,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	llm := &stubLLM{reply: "That sounds hard. What helps?"}
	svc := NewChatService(log, convRepo, msgRepo, llm, pipeline)
	ctx := asUser(seedUser(t, db))

	conv, err := svc.Start(ctx, "evening check-in")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sent, err := svc.Send(ctx, conv.ID, "I get strong cravings when work is stressful.")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.User.Seq != 1 || sent.Assistant.Seq != 2 || sent.Assistant.Role != chat.RoleAssistant {
		t.Fatalf("unexpected messages: %+v %+v", sent.User, sent.Assistant)
	}
	if sent.Assistant.Content != llm.reply || len(llm.seen) != 1 {
		t.Fatalf("assistant reply not from llm: %q (%d turns)", sent.Assistant.Content, len(llm.seen))
	}

	res, err := svc.End(ctx, conv.ID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(res.Insights) == 0 {
		t.Fatalf("expected insights from conversation")
	}
	if _, err := svc.End(ctx, conv.ID); !errors.Is(err, apierr.ErrConflict) {
		t.Fatalf("second End: expected conflict, got %v", err)
	}
	if _, err := svc.Send(ctx, conv.ID, "hello?"); !errors.Is(err, apierr.ErrConflict) {
		t.Fatalf("Send after End: expected conflict, got %v", err)
	}
}

// flakyInsightRepo fails the first Create and delegates afterwards.
type flakyInsightRepo struct {
	repos.InsightRepo
	failed bool
}

func (r *flakyInsightRepo) Create(dbc dbctx.Context, rows []*types.Insight) ([]*types.Insight, error) {
	if !r.failed {
		r.failed = true
		return nil, errors.New("disk full")
	}
	return r.InsightRepo.Create(dbc, rows)
}

func TestChatEndFailureLeavesConversationOpen(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	convRepo := repos.NewConversationRepo(db, log)
	msgRepo := repos.NewMessageRepo(db, log)
	pipeline, err := insights.NewPipeline(insights.PipelineDeps{
		DB:       db,
		Log:      log,
		Profiles: repos.NewProfileRepo(db, log),
		Insights: &flakyInsightRepo{InsightRepo: repos.NewInsightRepo(db, log)},
		Goals:    repos.NewGoalRepo(db, log),
		Messages: msgRepo,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	svc := NewChatService(log, convRepo, msgRepo, &stubLLM{reply: "What helps?"}, pipeline)
	ctx := asUser(seedUser(t, db))

	conv, err := svc.Start(ctx, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Send(ctx, conv.ID, "I get strong cravings when work is stressful."); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := svc.End(ctx, conv.ID); err == nil {
		t.Fatalf("expected first End to fail")
	}
	stored, err := convRepo.GetByID(dbctx.Context{Ctx: context.Background()}, conv.UserID, conv.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.EndedAt != nil {
		t.Fatalf("failed End must not mark the conversation ended")
	}

	res, err := svc.End(ctx, conv.ID)
	if err != nil {
		t.Fatalf("retry End: %v", err)
	}
	if len(res.Insights) == 0 {
		t.Fatalf("retry should extract insights")
	}
}

func TestChatSendFallsBackWhenLLMFails(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewChatService(log, repos.NewConversationRepo(db, log), repos.NewMessageRepo(db, log), &stubLLM{err: errors.New("boom")}, nil)
	userID := seedUser(t, db)
	ctx := asUser(userID)

	conv, err := svc.Start(ctx, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sent, err := svc.Send(ctx, conv.ID, "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Assistant.Content != assistantFallbackReply {
		t.Fatalf("expected fallback reply, got %q", sent.Assistant.Content)
	}

	// Another user's conversation is invisible.
	other := asUser(seedUser(t, db))
	if _, err := svc.Send(other, conv.ID, "hi"); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	msgs, err := repos.NewMessageRepo(db, log).ListByConversation(dbctx.Context{Ctx: context.Background()}, conv.ID, 0)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d (%v)", len(msgs), err)
	}
}
