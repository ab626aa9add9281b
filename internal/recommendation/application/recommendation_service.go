package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	convDomain "github.com/davicafu/tiendalab/internal/conversation/domain"
	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
)

// extractionPrompt pide al modelo un resumen estructurado del transcript.
const extractionPrompt = `Extract the shopper's preferences from the conversation above. ` +
	`Reply with a single JSON object with the keys "category", "style", "color", ` +
	`"size", "season" and "originalSentence". Use the category group names ` +
	`outerwear, tops, bottoms, dresses, bags, shoes or accessories. ` +
	`Leave out or set to empty string anything the shopper did not mention.`

const (
	transcriptLimit = 20
	maxResults      = 10
)

// Conversations es el subconjunto del módulo de conversaciones que necesita
// la recomendación.
type Conversations interface {
	AddMessage(ctx context.Context, conversationID uuid.UUID, role convDomain.Role, content string) (*convDomain.Message, error)
	Transcript(ctx context.Context, conversationID uuid.UUID, limit int) ([]*convDomain.Message, error)
}

// Recommendation es la respuesta del pipeline para una petición.
type Recommendation struct {
	ConversationID uuid.UUID                `json:"conversation_id"`
	Preference     recoDomain.Preference    `json:"preference"`
	Degraded       bool                     `json:"degraded"` // la extracción falló; resultados sin filtrar
	Products       []*productDomain.Product `json:"products"`
}

// RecommendationService orquesta el pipeline: mensaje → transcript →
// extracción → parseo → criterio → consulta de productos. El fallo de
// extracción degrada a consulta sin filtrar, nunca aborta la petición.
type RecommendationService struct {
	conversations Conversations
	completer     recoDomain.Completer
	products      recoDomain.ProductFinder
	cache         recoDomain.Cache
	analytics     recoDomain.Analytics
	cacheTTLSecs  int
	log           *zap.Logger
}

func NewRecommendationService(
	conversations Conversations,
	completer recoDomain.Completer,
	products recoDomain.ProductFinder,
	cache recoDomain.Cache,
	analytics recoDomain.Analytics,
	cacheTTL time.Duration,
	log *zap.Logger,
) *RecommendationService {
	return &RecommendationService{
		conversations: conversations,
		completer:     completer,
		products:      products,
		cache:         cache,
		analytics:     analytics,
		cacheTTLSecs:  int(cacheTTL.Seconds()),
		log:           log,
	}
}

// Recommend añade el mensaje del usuario, extrae sus preferencias y devuelve
// los productos que encajan. La respuesta del asistente queda registrada en
// la conversación.
func (s *RecommendationService) Recommend(ctx context.Context, conversationID uuid.UUID, userMessage string) (*Recommendation, error) {
	started := time.Now()

	if _, err := s.conversations.AddMessage(ctx, conversationID, convDomain.RoleUser, userMessage); err != nil {
		return nil, err
	}

	transcript, err := s.conversations.Transcript(ctx, conversationID, transcriptLimit)
	if err != nil {
		return nil, err
	}

	key := cacheKey(conversationID, transcript)
	if s.cache != nil {
		var cached Recommendation
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			s.log.Debug("Recomendación servida desde cache", zap.String("conversation_id", conversationID.String()))
			return &cached, nil
		}
	}

	pref, degraded := s.extract(ctx, transcript)
	criteria := recoDomain.CriteriaFromPreference(pref)

	products, err := s.products.ListByCriteria(ctx, criteria,
		sharedQuery.OffsetPagination{Limit: maxResults, Offset: 0},
		sharedQuery.Sort{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	reco := &Recommendation{
		ConversationID: conversationID,
		Preference:     pref,
		Degraded:       degraded,
		Products:       products,
	}

	s.recordAnalytics(ctx, conversationID, criteria, degraded, len(products), time.Since(started))

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, reco, s.cacheTTLSecs)
	}

	if _, err := s.conversations.AddMessage(ctx, conversationID, convDomain.RoleAssistant, assistantReply(reco)); err != nil {
		s.log.Warn("⚠️ No se pudo registrar la respuesta del asistente", zap.Error(err))
	}

	return reco, nil
}

// extract llama al modelo y parsea el resumen. Cualquier fallo degrada a una
// Preference vacía: la consulta sigue adelante sin filtrar.
func (s *RecommendationService) extract(ctx context.Context, transcript []*convDomain.Message) (recoDomain.Preference, bool) {
	chat := toChatMessages(transcript)
	if len(chat) == 0 {
		return recoDomain.Preference{}, true
	}

	summary, err := s.completer.Complete(ctx, chat, extractionPrompt)
	if err != nil {
		if !errors.Is(err, recoDomain.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %v", recoDomain.ErrExtractionFailed, err)
		}
		s.log.Warn("⚠️ Extracción de preferencias fallida, degradando a consulta sin filtrar", zap.Error(err))
		return recoDomain.Preference{}, true
	}
	return recoDomain.ParsePreference(summary), false
}

func (s *RecommendationService) recordAnalytics(ctx context.Context, conversationID uuid.UUID, criteria recoDomain.KeywordCriteria, degraded bool, results int, elapsed time.Duration) {
	if s.analytics == nil {
		return
	}
	entry := recoDomain.QueryLog{
		ConversationID: conversationID,
		Category:       string(criteria.Category),
		Keywords:       criteria.IncludeKeywords,
		Season:         criteria.Season,
		Degraded:       degraded,
		ResultCount:    results,
		ElapsedMs:      elapsed.Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.analytics.RecordQuery(ctx, entry); err != nil {
		s.log.Warn("⚠️ No se pudo registrar la consulta en analytics", zap.Error(err))
	}
}

func toChatMessages(transcript []*convDomain.Message) []recoDomain.ChatMessage {
	chat := make([]recoDomain.ChatMessage, 0, len(transcript))
	for _, m := range transcript {
		chat = append(chat, recoDomain.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return chat
}

// cacheKey identifica el estado del transcript: conversación + hash del
// último mensaje.
func cacheKey(conversationID uuid.UUID, transcript []*convDomain.Message) string {
	last := ""
	if len(transcript) > 0 {
		last = transcript[len(transcript)-1].Content
	}
	sum := sha256.Sum256([]byte(last))
	return fmt.Sprintf("reco:%s:%s", conversationID, hex.EncodeToString(sum[:8]))
}

func assistantReply(reco *Recommendation) string {
	if len(reco.Products) == 0 {
		return "I could not find matching products right now, could you tell me more about what you are looking for?"
	}
	names := make([]string, 0, len(reco.Products))
	for _, p := range reco.Products {
		names = append(names, p.Name)
	}
	return "You might like: " + strings.Join(names, ", ")
}
