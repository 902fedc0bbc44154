// Package assistant is the AI chat adapter: a thin client around the OpenAI
// chat completion API that speaks in the Zenji persona.
//
// The adapter is independent of the sync engine — sync only ever asks for a
// status snapshot. Chat requests come from the dashboard via the service
// layer.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/config"
	"github.com/zenjispace/zenjid/internal/model"
	"github.com/zenjispace/zenjid/internal/secrets"
	"github.com/zenjispace/zenjid/internal/state"
)

// systemPrompt is the Zenji persona prepended to every conversation.
const systemPrompt = `You are Zenji, a mindful AI coding companion. ` +
	`Your purpose is to help developers maintain mental wellness, focus, and balance while coding. ` +
	`Keep your responses supportive, mindful, and concise. Focus on mental wellness, productivity tips, ` +
	`and encouraging healthy coding habits. You can suggest short breaks, breathing exercises, ` +
	`or offer kind affirmations when the user seems stressed.`

// fallbackReply is returned when the API answers with an empty choice.
const fallbackReply = "I apologize, but I seem to be having trouble responding right now."

const (
	maxResponseTokens = 500
	temperature       = 0.7
)

// Adapter holds a lazily initialised OpenAI client.
type Adapter struct {
	cfg    config.AssistantConfig
	vault  *secrets.Vault
	logger *slog.Logger

	mu     sync.Mutex
	client *openai.Client
}

// New creates the adapter. The API key is resolved at first use: config value
// first, then the encrypted secret store.
func New(cfg config.AssistantConfig, vault *secrets.Vault, logger *slog.Logger) *Adapter {
	return &Adapter{cfg: cfg, vault: vault, logger: logger}
}

// ensureClient initialises the OpenAI client once a key is available.
func (a *Adapter) ensureClient(ctx context.Context) (*openai.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	key := a.cfg.APIKey
	if key == "" && a.vault != nil {
		stored, ok, err := a.vault.Get(ctx, state.KeyOpenAIAPIKey)
		if err != nil {
			a.logger.Warn("reading OpenAI key from secret store failed",
				slog.String("error", err.Error()))
		} else if ok {
			key = stored
		}
	}
	if key == "" {
		return nil, apperror.Integration("assistant",
			fmt.Errorf("no OpenAI API key configured"))
	}

	a.client = openai.NewClient(key)
	return a.client, nil
}

// Connected reports whether a client has been (or can be) initialised.
// Non-secret: used for status snapshots only.
func (a *Adapter) Connected(ctx context.Context) bool {
	_, err := a.ensureClient(ctx)
	return err == nil
}

// GetChatCompletion sends the conversation and returns the assistant's reply.
// userName, when known, is folded into the system prompt for personalised
// responses.
func (a *Adapter) GetChatCompletion(ctx context.Context, history []model.ChatMessage, userName string) (string, error) {
	client, err := a.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	system := systemPrompt
	if userName != "" {
		system = fmt.Sprintf("%s The user's name is %s.", systemPrompt, userName)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxResponseTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", apperror.Integration("assistant", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return fallbackReply, nil
	}
	return resp.Choices[0].Message.Content, nil
}
