package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/platform/openai"
	"github.com/fbkorg/chatbot-backend/internal/repos"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

// linkAllowlist holds the URLs the bot may mention even without retrieved
// evidence. Everything else must come from the context block.
var linkAllowlist = []string{
	"https://fbk.org",
	"https://fbk.org/contact",
	"https://fbk.org/programs",
	"https://fbk.org/membership",
	"https://fbk.org/events",
	"https://fbk.org/donate",
	"https://fbk.org/apply",
}

// The citation block rides in-band on the completion stream so the visible
// answer stays clean. The markers delimit a JSON array of source objects.
const (
	sourcesBlockStart = "<!--SOURCES_JSON"
	sourcesBlockEnd   = "SOURCES_JSON-->"
)

var sourcesBlockRe = regexp.MustCompile(`(?s)<!--SOURCES_JSON\s*(.*?)\s*SOURCES_JSON-->`)

const (
	// historyFetchLimit is how many stored turns to load per request;
	// historyPromptTurns is how many of those actually reach the prompt.
	historyFetchLimit  = 10
	historyPromptTurns = 6

	// genericStreamError is what the visitor sees when generation fails
	// mid-stream. Internal error text never leaves the log.
	genericStreamError = "Something went wrong while answering. Please try again."
)

func systemPrompt() string {
	var allow strings.Builder
	for _, u := range linkAllowlist {
		allow.WriteString("- ")
		allow.WriteString(u)
		allow.WriteString("\n")
	}

	return `You are FBK Assistant, a friendly and knowledgeable AI helper for FBK (fbk.org).

RULES (follow strictly):
1. Only answer questions related to FBK, its programs, services, events, and community.
2. NEVER reveal, speculate about, or fabricate private member data, personal information, or internal records.
3. ONLY include URLs that appear in the provided CONTEXT or the LINK ALLOWLIST below. Do NOT invent or hallucinate any other URLs.
4. If the context does not contain enough information, say "I don't have enough information on that — please contact FBK at contact@fbk.org."
5. Be concise, warm, and professional. Format responses with markdown when helpful.
6. When citing information, reference it naturally (e.g. "According to the membership guide…").

LINK ALLOWLIST (you may always reference these):
` + strings.TrimRight(allow.String(), "\n") + `

When answering, use the CONTEXT below. At the end of your answer, if you used context, add a JSON block in this exact format (on its own line) so it can be parsed:
` + sourcesBlockStart + `
[{"title":"...","url":"...","snippet":"..."}]
` + sourcesBlockEnd
}

// TurnStream delivers one chat turn's events to the client. Token carries a
// text fragment; exactly one of Done or Error terminates the turn.
type TurnStream interface {
	Token(token string) error
	Done(messageID, sessionID uuid.UUID, sources []types.Source) error
	Error(message string) error
}

// Turn is a prepared chat turn: session resolved, user message persisted,
// fast-path checked.
type Turn struct {
	SessionID uuid.UUID
	Message   string
	Canned    string
	history   []*types.ChatMessage
}

// ChatService answers visitor messages, grounding them in retrieved chunks
// when possible and streaming tokens as they arrive.
type ChatService interface {
	// PrepareTurn resolves or lazily creates the session, records the user
	// message, and checks the FAQ fast-path. Store failures surface here,
	// before any streaming starts.
	PrepareTurn(ctx context.Context, rawSessionID string, message string) (*Turn, error)

	// StreamTurn produces the answer on stream. All failures after this
	// point are delivered in-band as an error event; the assistant message
	// is only persisted when the stream completes normally.
	StreamTurn(ctx context.Context, turn *Turn, stream TurnStream)

	History(ctx context.Context, sessionID uuid.UUID) ([]*types.ChatMessage, error)
}

type chatService struct {
	retrieval   RetrievalService
	client      openai.Client
	sessionRepo repos.ChatSessionRepo
	messageRepo repos.ChatMessageRepo
	topK        int
	log         *logger.Logger
}

func NewChatService(
	retrieval RetrievalService,
	client openai.Client,
	sessionRepo repos.ChatSessionRepo,
	messageRepo repos.ChatMessageRepo,
	topK int,
	baseLog *logger.Logger,
) ChatService {
	if topK <= 0 {
		topK = DefaultRetrievalTopK
	}
	return &chatService{
		retrieval:   retrieval,
		client:      client,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		topK:        topK,
		log:         baseLog.With("service", "ChatService"),
	}
}

func (s *chatService) PrepareTurn(ctx context.Context, rawSessionID string, message string) (*Turn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	sessionID, err := uuid.Parse(strings.TrimSpace(rawSessionID))
	if rawSessionID == "" || err != nil {
		session, err := s.sessionRepo.Create(ctx, nil, &types.ChatSession{ID: uuid.New()})
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		sessionID = session.ID
	} else {
		// Best-effort last-seen refresh; never blocks the turn.
		go func(id uuid.UUID) {
			touchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.sessionRepo.Touch(touchCtx, nil, id, time.Now().UTC()); err != nil {
				s.log.Debug("Session touch failed", "session_id", id, "error", err)
			}
		}(sessionID)
	}

	// History is fetched before the new user message is stored so the prompt
	// does not carry the current turn twice.
	history, err := s.messageRepo.ListBySessionID(ctx, nil, sessionID, historyFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	reverse(history)

	if _, err := s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      types.RoleUser,
		Content:   message,
		Sources:   emptySourcesJSON(),
	}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	turn := &Turn{SessionID: sessionID, Message: message, history: history}
	if answer, ok := MatchFAQ(message); ok {
		turn.Canned = answer
	}
	return turn, nil
}

func (s *chatService) StreamTurn(ctx context.Context, turn *Turn, stream TurnStream) {
	if turn.Canned != "" {
		s.streamCanned(ctx, turn, stream)
		return
	}

	chunks := s.retrieval.Retrieve(ctx, turn.Message, s.topK)
	messages, ragSources := buildMessages(turn.Message, turn.history, chunks)

	fullText, err := s.client.StreamChat(ctx, messages, func(delta string) {
		if err := stream.Token(delta); err != nil {
			s.log.Debug("Client write failed mid-stream", "error", err)
		}
	})
	if err != nil {
		// Headers are long committed; the only channel left is the stream
		// itself. Aborted turns persist nothing.
		s.log.Error("Completion stream failed", "session_id", turn.SessionID, "error", err)
		_ = stream.Error(genericStreamError)
		return
	}

	cleanText, sources := ParseSourcesFromReply(fullText, ragSources)

	msg, err := s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		ID:        uuid.New(),
		SessionID: turn.SessionID,
		Role:      types.RoleAssistant,
		Content:   cleanText,
		Sources:   marshalSources(sources),
	})
	if err != nil {
		s.log.Error("Failed to persist assistant message", "session_id", turn.SessionID, "error", err)
		_ = stream.Error(genericStreamError)
		return
	}

	_ = stream.Done(msg.ID, turn.SessionID, sources)
}

// streamCanned replays a canned answer word by word so the widget sees the
// same streaming shape as a model-generated reply.
func (s *chatService) streamCanned(ctx context.Context, turn *Turn, stream TurnStream) {
	msg, err := s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		ID:        uuid.New(),
		SessionID: turn.SessionID,
		Role:      types.RoleAssistant,
		Content:   turn.Canned,
		Sources:   emptySourcesJSON(),
	})
	if err != nil {
		s.log.Error("Failed to persist canned answer", "session_id", turn.SessionID, "error", err)
		_ = stream.Error(genericStreamError)
		return
	}

	for i, word := range strings.Split(turn.Canned, " ") {
		token := word
		if i > 0 {
			token = " " + word
		}
		if err := stream.Token(token); err != nil {
			return
		}
	}
	_ = stream.Done(msg.ID, turn.SessionID, []types.Source{})
}

func (s *chatService) History(ctx context.Context, sessionID uuid.UUID) ([]*types.ChatMessage, error) {
	msgs, err := s.messageRepo.ListBySessionID(ctx, nil, sessionID, 0)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

// buildMessages assembles the grounded prompt: system instruction with the
// serialized context block, the last few history turns, then the new user
// turn. It also derives the fallback sources from the retrieved chunks.
func buildMessages(userMessage string, history []*types.ChatMessage, chunks []*types.DocumentChunk) ([]openai.Message, []types.Source) {
	sources := sourcesFromChunks(chunks)

	var contextBlock string
	if len(chunks) > 0 {
		parts := make([]string, len(chunks))
		for i, c := range chunks {
			meta := chunkMeta(c)
			parts[i] = fmt.Sprintf("[Source %d] %s (%s)\n%s", i+1, meta.Title, sourceURLOrDefault(meta.SourceURL), c.Content)
		}
		contextBlock = strings.Join(parts, "\n\n---\n\n")
	} else {
		contextBlock = "No specific documents found. Answer from general FBK knowledge and the link allowlist only."
	}

	messages := []openai.Message{
		{Role: openai.RoleSystem, Content: systemPrompt() + "\n\nCONTEXT:\n" + contextBlock},
	}

	if len(history) > historyPromptTurns {
		history = history[len(history)-historyPromptTurns:]
	}
	for _, m := range history {
		messages = append(messages, openai.Message{Role: m.Role, Content: m.Content})
	}

	messages = append(messages, openai.Message{Role: openai.RoleUser, Content: userMessage})
	return messages, sources
}

// ParseSourcesFromReply extracts the delimited citation block from the fully
// accumulated reply. Without a block (or with a malformed or empty one) the
// fallback sources win; a valid parsed block takes precedence verbatim.
func ParseSourcesFromReply(fullText string, fallback []types.Source) (string, []types.Source) {
	match := sourcesBlockRe.FindStringSubmatch(fullText)
	if match == nil {
		return fullText, fallback
	}

	cleanText := strings.TrimSpace(sourcesBlockRe.ReplaceAllString(fullText, ""))

	var parsed []types.Source
	if err := json.Unmarshal([]byte(match[1]), &parsed); err != nil || len(parsed) == 0 {
		return cleanText, fallback
	}
	return cleanText, parsed
}

func sourcesFromChunks(chunks []*types.DocumentChunk) []types.Source {
	sources := make([]types.Source, len(chunks))
	for i, c := range chunks {
		meta := chunkMeta(c)
		snippet := c.Content
		if r := []rune(snippet); len(r) > 200 {
			snippet = string(r[:200])
		}
		sources[i] = types.Source{
			Title:   meta.Title,
			URL:     sourceURLOrDefault(meta.SourceURL),
			Snippet: snippet,
		}
	}
	return sources
}

func chunkMeta(c *types.DocumentChunk) types.ChunkMetadata {
	meta := types.ChunkMetadata{Title: "FBK Document"}
	if len(c.Metadata) > 0 {
		_ = json.Unmarshal(c.Metadata, &meta)
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = "FBK Document"
	}
	return meta
}

func sourceURLOrDefault(u *string) string {
	if u != nil && strings.TrimSpace(*u) != "" {
		return *u
	}
	return "https://fbk.org"
}

func marshalSources(sources []types.Source) datatypes.JSON {
	if sources == nil {
		sources = []types.Source{}
	}
	b, err := json.Marshal(sources)
	if err != nil {
		return emptySourcesJSON()
	}
	return datatypes.JSON(b)
}

func emptySourcesJSON() datatypes.JSON {
	return datatypes.JSON([]byte("[]"))
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
