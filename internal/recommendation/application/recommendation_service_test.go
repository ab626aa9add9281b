package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	convApplication "github.com/davicafu/tiendalab/internal/conversation/application"
	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
	"github.com/davicafu/tiendalab/tests/mocks"
)

type recoFixture struct {
	service      *RecommendationService
	completer    *mocks.MockCompleter
	products     *mocks.InMemoryProductRepo
	analytics    *mocks.InMemoryAnalytics
	conversation uuid.UUID
	convRepo     *mocks.InMemoryConversationRepo
}

func newRecoFixture(t *testing.T) *recoFixture {
	t.Helper()

	convRepo := mocks.NewInMemoryConversationRepo()
	convService := convApplication.NewConversationService(convRepo)
	conv, err := convService.CreateConversation(context.Background())
	require.NoError(t, err)

	products := mocks.NewInMemoryProductRepo()
	seed := []*productDomain.Product{
		{ID: uuid.New(), Name: "Red wool coat", Category: productDomain.CategoryOuter, Season: "winter"},
		{ID: uuid.New(), Name: "Blue linen shirt", Category: productDomain.CategoryTop, Season: "summer"},
	}
	for _, p := range seed {
		products.Products[p.ID] = p
	}

	completer := new(mocks.MockCompleter)
	analytics := &mocks.InMemoryAnalytics{}

	service := NewRecommendationService(
		convService, completer, products, mocks.NewDummyCache(), analytics,
		time.Minute, zap.NewNop(),
	)

	return &recoFixture{
		service:      service,
		completer:    completer,
		products:     products,
		analytics:    analytics,
		conversation: conv.ID,
		convRepo:     convRepo,
	}
}

func TestRecommend_FiltersByExtractedPreference(t *testing.T) {
	f := newRecoFixture(t)
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"category":"outerwear","color":"red","season":"winter"}`, nil).Once()

	reco, err := f.service.Recommend(context.Background(), f.conversation, "busco un abrigo rojo")
	require.NoError(t, err)

	assert.False(t, reco.Degraded)
	assert.Equal(t, "outerwear", reco.Preference.Category)
	require.Len(t, reco.Products, 1)
	assert.Equal(t, "Red wool coat", reco.Products[0].Name)

	// La conversación registra el turno del usuario y la respuesta.
	msgs := f.convRepo.Messages[f.conversation]
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "Red wool coat")

	// Analytics registra la consulta.
	require.Len(t, f.analytics.Entries, 1)
	assert.False(t, f.analytics.Entries[0].Degraded)
	assert.Equal(t, 1, f.analytics.Entries[0].ResultCount)
}

func TestRecommend_DegradesWhenExtractionFails(t *testing.T) {
	f := newRecoFixture(t)
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", recoDomain.ErrExtractionFailed).Once()

	reco, err := f.service.Recommend(context.Background(), f.conversation, "cualquier cosa bonita")
	require.NoError(t, err, "el fallo de extracción nunca aborta la petición")

	assert.True(t, reco.Degraded)
	assert.True(t, reco.Preference.IsEmpty())
	assert.Len(t, reco.Products, 2, "sin filtro se devuelven todos los candidatos")

	require.Len(t, f.analytics.Entries, 1)
	assert.True(t, f.analytics.Entries[0].Degraded)
}

func TestRecommend_GarbageSummaryDegradesToUnfiltered(t *testing.T) {
	f := newRecoFixture(t)
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("0.0", nil).Once()

	reco, err := f.service.Recommend(context.Background(), f.conversation, "hola")
	require.NoError(t, err)

	assert.False(t, reco.Degraded, "hubo resumen, aunque inservible")
	assert.True(t, reco.Preference.IsEmpty())
	assert.Len(t, reco.Products, 2)
}

func TestRecommend_ServesFromCacheOnRepeat(t *testing.T) {
	f := newRecoFixture(t)
	f.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"category":"outerwear"}`, nil).Once()

	first, err := f.service.Recommend(context.Background(), f.conversation, "un abrigo")
	require.NoError(t, err)

	// El mismo último mensaje produce la misma key: el segundo Recommend no
	// vuelve a llamar al modelo.
	second, err := f.service.Recommend(context.Background(), f.conversation, "un abrigo")
	require.NoError(t, err)

	assert.Equal(t, first.Preference, second.Preference)
	f.completer.AssertNumberOfCalls(t, "Complete", 1)
}

func TestRecommend_ConversationNotFound(t *testing.T) {
	f := newRecoFixture(t)

	_, err := f.service.Recommend(context.Background(), uuid.New(), "hola")
	assert.Error(t, err)
	f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_ProductQueryFailurePropagates(t *testing.T) {
	convRepo := mocks.NewInMemoryConversationRepo()
	convService := convApplication.NewConversationService(convRepo)
	conv, err := convService.CreateConversation(context.Background())
	require.NoError(t, err)

	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"color":"red"}`, nil).Once()

	finder := new(failingFinder)
	service := NewRecommendationService(convService, completer, finder, nil, nil, time.Minute, zap.NewNop())

	_, err = service.Recommend(context.Background(), conv.ID, "hola")
	assert.Error(t, err)
}

type failingFinder struct{}

func (f *failingFinder) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*productDomain.Product, error) {
	return nil, errors.New("db down")
}
