package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	convDomain "github.com/davicafu/tiendalab/internal/conversation/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	outboxMongo "github.com/davicafu/tiendalab/internal/shared/infra/db/mongodb"
)

// ConversationRepoMongoDB implementa la interfaz ConversationRepository para MongoDB.
type ConversationRepoMongoDB struct {
	client     *mongo.Client
	convColl   *mongo.Collection
	msgColl    *mongo.Collection
	outboxRepo *outboxMongo.OutboxRepoMongoDB
}

// NewConversationRepoMongoDB es el constructor del repositorio.
func NewConversationRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string, outboxRepo *outboxMongo.OutboxRepoMongoDB) (*ConversationRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &ConversationRepoMongoDB{
		client:     client,
		convColl:   db.Collection("conversations"),
		msgColl:    db.Collection("messages"),
		outboxRepo: outboxRepo,
	}, nil
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no contaminar el dominio con tags de BSON.

type mongoConversation struct {
	ID        uuid.UUID `bson:"_id"`
	CreatedAt time.Time `bson:"createdAt"`
}

type mongoMessage struct {
	ID             uuid.UUID `bson:"_id"`
	ConversationID uuid.UUID `bson:"conversationId"`
	Role           string    `bson:"role"`
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"createdAt"`
	Seq            int64     `bson:"seq"`
}

func (r *ConversationRepoMongoDB) CreateConversation(ctx context.Context, conv *convDomain.Conversation) error {
	doc := mongoConversation{ID: conv.ID, CreatedAt: conv.CreatedAt}
	if _, err := r.convColl.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *ConversationRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*convDomain.Conversation, error) {
	var doc mongoConversation
	err := r.convColl.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, convDomain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &convDomain.Conversation{ID: doc.ID, CreatedAt: doc.CreatedAt}, nil
}

// AppendMessage inserta mensaje y evento dentro de una transacción de sesión:
// ambas escrituras se confirman juntas o ninguna.
func (r *ConversationRepoMongoDB) AppendMessage(ctx context.Context, m *convDomain.Message, msg sharedDomain.OutboxMessage) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		n, err := r.convColl.CountDocuments(sessCtx, bson.M{"_id": m.ConversationID})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, convDomain.ErrConversationNotFound
		}

		seq, err := r.nextSeq(sessCtx, m.ConversationID)
		if err != nil {
			return nil, err
		}

		doc := mongoMessage{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Role:           string(m.Role),
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
			Seq:            seq,
		}
		if _, err := r.msgColl.InsertOne(sessCtx, doc); err != nil {
			return nil, err
		}

		if _, err := r.outboxRepo.EnqueueOutboxSession(sessCtx, msg); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return err
}

// nextSeq asigna el orden de inserción dentro de la conversación.
func (r *ConversationRepoMongoDB) nextSeq(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var last mongoMessage
	err := r.msgColl.FindOne(ctx,
		bson.M{"conversationId": conversationID},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&last)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 1, nil
		}
		return 0, err
	}
	return last.Seq + 1, nil
}

// ListMessages devuelve los últimos limit mensajes en orden de inserción.
func (r *ConversationRepoMongoDB) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*convDomain.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.msgColl.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cursor.Close(ctx)

	var recent []*convDomain.Message
	for cursor.Next(ctx) {
		var doc mongoMessage
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		recent = append(recent, &convDomain.Message{
			ID:             doc.ID,
			ConversationID: doc.ConversationID,
			Role:           convDomain.Role(doc.Role),
			Content:        doc.Content,
			CreatedAt:      doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	// Invertir para devolver el más antiguo primero.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// Verificación en tiempo de compilación.
var _ convDomain.ConversationRepository = (*ConversationRepoMongoDB)(nil)
