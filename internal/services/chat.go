package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/domain/chat"
	"github.com/rameshiCode/aindependent-backend/internal/modules/insights"
	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
	"github.com/rameshiCode/aindependent-backend/internal/platform/openai"
)

const (
	assistantSystemPrompt = "You are a warm, non-judgmental recovery coach. Listen closely, reflect what the person " +
		"says, ask one open question at a time, and encourage concrete next steps. Never shame. If someone is in " +
		"danger, urge them to contact local emergency services."
	assistantFallbackReply = "Thank you for sharing that with me. I'm here with you. What feels most important to talk about right now?"
	assistantMaxTokens     = 300
	assistantTemperature   = 0.7
	chatHistoryWindow      = 20
	maxMessageRunes        = 4000
)

type SendResult struct {
	User      *types.Message `json:"user_message"`
	Assistant *types.Message `json:"assistant_message"`
}

type ChatService interface {
	Start(ctx context.Context, title string) (*types.Conversation, error)
	Send(ctx context.Context, conversationID uuid.UUID, content string) (*SendResult, error)
	// End closes the conversation and runs insight extraction over it.
	End(ctx context.Context, conversationID uuid.UUID) (insights.ApplyResult, error)
}

type chatService struct {
	log              *logger.Logger
	conversationRepo repos.ConversationRepo
	messageRepo      repos.MessageRepo
	llm              openai.Client
	pipeline         *insights.Pipeline
	now              func() time.Time
}

// NewChatService accepts a nil llm; replies then use a fixed fallback.
func NewChatService(log *logger.Logger, conversationRepo repos.ConversationRepo, messageRepo repos.MessageRepo, llm openai.Client, pipeline *insights.Pipeline) ChatService {
	return &chatService{
		log:              log.With("service", "ChatService"),
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		llm:              llm,
		pipeline:         pipeline,
		now:              time.Now,
	}
}

func (cs *chatService) Start(ctx context.Context, title string) (*types.Conversation, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	conv := &types.Conversation{UserID: userID, Title: strings.TrimSpace(title)}
	if err := cs.conversationRepo.Create(dbctx.Context{Ctx: ctx}, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (cs *chatService) openConversation(ctx context.Context, userID, id uuid.UUID) (*types.Conversation, error) {
	conv, err := cs.conversationRepo.GetByID(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation: %w", apierr.ErrNotFound)
	}
	if conv.EndedAt != nil {
		return nil, fmt.Errorf("conversation already ended: %w", apierr.ErrConflict)
	}
	return conv, nil
}

func (cs *chatService) Send(ctx context.Context, conversationID uuid.UUID, content string) (*SendResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content required: %w", apierr.ErrInvalidArgument)
	}
	if len([]rune(content)) > maxMessageRunes {
		return nil, fmt.Errorf("message longer than %d characters: %w", maxMessageRunes, apierr.ErrInvalidArgument)
	}
	if _, err := cs.openConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}

	userMsg := &types.Message{ConversationID: conversationID, UserID: userID, Role: chat.RoleUser, Content: content}
	if err := cs.messageRepo.Append(dbc, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	history, err := cs.messageRepo.ListByConversation(dbc, conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	reply := cs.reply(ctx, conversationID, history)

	assistantMsg := &types.Message{ConversationID: conversationID, UserID: userID, Role: chat.RoleAssistant, Content: reply}
	if err := cs.messageRepo.Append(dbc, assistantMsg); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}
	return &SendResult{User: userMsg, Assistant: assistantMsg}, nil
}

func (cs *chatService) reply(ctx context.Context, conversationID uuid.UUID, history []*types.Message) string {
	if cs.llm == nil {
		return assistantFallbackReply
	}
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}
	transcript := make([]openai.Message, 0, len(history))
	for _, m := range history {
		transcript = append(transcript, openai.Message{Role: m.Role, Content: m.Content})
	}
	out, err := cs.llm.Chat(ctx, assistantSystemPrompt, transcript, assistantMaxTokens, assistantTemperature)
	if err != nil || strings.TrimSpace(out) == "" {
		cs.log.Warn("Assistant reply failed, using fallback", "conversation_id", conversationID, "error", err)
		return assistantFallbackReply
	}
	return strings.TrimSpace(out)
}

func (cs *chatService) End(ctx context.Context, conversationID uuid.UUID) (insights.ApplyResult, error) {
	var res insights.ApplyResult
	userID, err := requireUser(ctx)
	if err != nil {
		return res, err
	}
	if _, err := cs.openConversation(ctx, userID, conversationID); err != nil {
		return res, err
	}
	markEnded := func(dbc dbctx.Context) error {
		ok, err := cs.conversationRepo.MarkEnded(dbc, userID, conversationID, cs.now())
		if err != nil {
			return fmt.Errorf("end conversation: %w", err)
		}
		if !ok {
			return fmt.Errorf("conversation already ended: %w", apierr.ErrConflict)
		}
		return nil
	}
	if cs.pipeline == nil {
		return res, markEnded(dbctx.Context{Ctx: ctx})
	}
	// The conversation only counts as ended once its extraction commits.
	return cs.pipeline.Apply(ctx, insights.ApplyInput{
		UserID:         userID,
		ConversationID: conversationID,
		Finalize:       markEnded,
	})
}
