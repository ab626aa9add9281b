package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/tiendalab/internal/product/domain"
	sharedEvents "github.com/davicafu/tiendalab/internal/shared/events"
	"github.com/davicafu/tiendalab/tests/mocks"
)

func TestCreateProduct_EnqueuesOutboxEvent(t *testing.T) {
	repo := mocks.NewInMemoryProductRepo()
	service := NewProductService(repo, mocks.NewDummyCache())

	product, err := service.CreateProduct(context.Background(),
		"Wool coat", "Long wool coat", 18900, domain.CategoryOuter, "winter")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, domain.CategoryOuter, product.Category)

	// El evento se encola junto con la escritura, en el topic de productos.
	require.Len(t, repo.Outbox, 1)
	assert.Equal(t, domain.ProductTopic, repo.Outbox[0].Topic)

	var evt sharedEvents.IntegrationEvent
	require.NoError(t, json.Unmarshal(repo.Outbox[0].Payload, &evt))
	assert.Equal(t, sharedEvents.ProductCreatedType, evt.Type)

	var data sharedEvents.ProductCreated
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, product.ID, data.ProductID)
}

func TestCreateProduct_InvalidCategory(t *testing.T) {
	repo := mocks.NewInMemoryProductRepo()
	service := NewProductService(repo, mocks.NewDummyCache())

	_, err := service.CreateProduct(context.Background(), "Mystery item", "", 100, "GADGET", "")
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	assert.Empty(t, repo.Outbox, "sin producto válido no hay evento")
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := mocks.NewInMemoryProductRepo()
	service := NewProductService(repo, mocks.NewDummyCache())

	_, err := service.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_UsesCache(t *testing.T) {
	repo := mocks.NewInMemoryProductRepo()
	cache := mocks.NewDummyCache()
	service := NewProductService(repo, cache)

	p := &domain.Product{ID: uuid.New(), Name: "Linen shirt", Category: domain.CategoryTop}
	require.NoError(t, cache.Set(context.Background(), domain.CacheKeyByID(p.ID), p, 60))

	got, err := service.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name, "el hit de cache evita ir al repo")
}
