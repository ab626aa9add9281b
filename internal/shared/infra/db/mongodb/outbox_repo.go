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

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

// OutboxRepoMongoDB implementa la interfaz sharedDomain.OutboxRepository.
// MongoDB no tiene FOR UPDATE SKIP LOCKED; el claim se resuelve con
// FindOneAndUpdate atómico documento a documento: cada worker marca los
// documentos con su token y los demás los saltan. Mismo contrato observable
// que los adaptadores SQL.
type OutboxRepoMongoDB struct {
	outboxColl   *mongo.Collection
	countersColl *mongo.Collection
	maxRetries   int
	claimTTL     time.Duration
}

func NewOutboxRepoMongoDB(client *mongo.Client, dbName string, maxRetries int, claimTTL time.Duration) *OutboxRepoMongoDB {
	db := client.Database(dbName)
	return &OutboxRepoMongoDB{
		outboxColl:   db.Collection("outbox"),
		countersColl: db.Collection("counters"),
		maxRetries:   maxRetries,
		claimTTL:     claimTTL,
	}
}

// mongoOutboxRecord mapea los documentos de la colección outbox.
// Los tags BSON se quedan aquí para no contaminar el dominio.
type mongoOutboxRecord struct {
	ID           int64      `bson:"_id"`
	Topic        string     `bson:"topic"`
	Payload      []byte     `bson:"payload"`
	CreatedAt    time.Time  `bson:"createdAt"`
	Sent         bool       `bson:"sent"`
	SentAt       *time.Time `bson:"sentAt,omitempty"`
	RetryCount   int        `bson:"retryCount"`
	LastError    string     `bson:"lastError,omitempty"`
	LastFailedAt *time.Time `bson:"lastFailedAt,omitempty"`
	ClaimedBy    string     `bson:"claimedBy,omitempty"`
	ClaimedAt    *time.Time `bson:"claimedAt,omitempty"`
}

// nextID genera IDs monótonos con un documento contador, para conservar el
// orden de inserción como orden de publicación.
func (r *OutboxRepoMongoDB) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.countersColl.FindOneAndUpdate(ctx,
		bson.M{"_id": "outbox"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to generate outbox id: %w", err)
	}
	return counter.Seq, nil
}

func (r *OutboxRepoMongoDB) Enqueue(ctx context.Context, msg sharedDomain.OutboxMessage) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}
	doc := mongoOutboxRecord{
		ID:        id,
		Topic:     msg.Topic,
		Payload:   msg.Payload,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.outboxColl.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("failed to insert outbox record: %w", err)
	}
	return id, nil
}

// EnqueueOutboxSession inserta un registro dentro de la sesión transaccional
// del repositorio de dominio.
func (r *OutboxRepoMongoDB) EnqueueOutboxSession(sessCtx mongo.SessionContext, msg sharedDomain.OutboxMessage) (int64, error) {
	id, err := r.nextID(sessCtx)
	if err != nil {
		return 0, err
	}
	doc := mongoOutboxRecord{
		ID:        id,
		Topic:     msg.Topic,
		Payload:   msg.Payload,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.outboxColl.InsertOne(sessCtx, doc); err != nil {
		return 0, fmt.Errorf("failed to insert outbox record: %w", err)
	}
	return id, nil
}

// Claim reserva hasta limit documentos pendientes marcándolos uno a uno con
// un token propio. FindOneAndUpdate es atómico, así que dos claimers nunca
// reservan el mismo documento.
func (r *OutboxRepoMongoDB) Claim(ctx context.Context, limit int) (sharedDomain.ClaimedBatch, error) {
	token := uuid.NewString()
	now := time.Now().UTC()
	stale := now.Add(-r.claimTTL)

	filter := bson.M{
		"sent":       false,
		"retryCount": bson.M{"$lt": r.maxRetries},
		"$or": []bson.M{
			{"claimedBy": bson.M{"$in": []interface{}{nil, ""}}},
			{"claimedAt": bson.M{"$lt": stale}},
		},
	}
	update := bson.M{"$set": bson.M{"claimedBy": token, "claimedAt": now}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetReturnDocument(options.After)

	var records []sharedDomain.OutboxRecord
	for i := 0; i < limit; i++ {
		var doc mongoOutboxRecord
		err := r.outboxColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				break
			}
			return nil, fmt.Errorf("failed to claim outbox records: %w", err)
		}
		records = append(records, fromMongoOutboxRecord(&doc))
	}

	return &claimedBatchMongoDB{coll: r.outboxColl, token: token, records: records}, nil
}

func (r *OutboxRepoMongoDB) CountPending(ctx context.Context) (int64, error) {
	return r.outboxColl.CountDocuments(ctx, bson.M{
		"sent":       false,
		"retryCount": bson.M{"$lt": r.maxRetries},
	})
}

func (r *OutboxRepoMongoDB) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.outboxColl.DeleteMany(ctx, bson.M{
		"sent":   true,
		"sentAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.DeletedCount, nil
}

func fromMongoOutboxRecord(doc *mongoOutboxRecord) sharedDomain.OutboxRecord {
	return sharedDomain.OutboxRecord{
		ID:           doc.ID,
		Topic:        doc.Topic,
		Payload:      doc.Payload,
		CreatedAt:    doc.CreatedAt,
		Sent:         doc.Sent,
		SentAt:       doc.SentAt,
		RetryCount:   doc.RetryCount,
		LastError:    doc.LastError,
		LastFailedAt: doc.LastFailedAt,
	}
}

// ---------------- ClaimedBatch ----------------

type claimedBatchMongoDB struct {
	coll    *mongo.Collection
	token   string
	records []sharedDomain.OutboxRecord
	closed  bool
}

func (b *claimedBatchMongoDB) Records() []sharedDomain.OutboxRecord {
	return b.records
}

func (b *claimedBatchMongoDB) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := b.coll.UpdateMany(ctx,
		bson.M{"sent": false, "_id": bson.M{"$in": ids}},
		bson.M{
			"$set":   bson.M{"sent": true, "sentAt": time.Now().UTC()},
			"$unset": bson.M{"claimedBy": "", "claimedAt": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox records sent: %w", err)
	}
	return nil
}

func (b *claimedBatchMongoDB) MarkFailed(ctx context.Context, ids []int64, cause string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := b.coll.UpdateMany(ctx,
		bson.M{"sent": false, "_id": bson.M{"$in": ids}},
		bson.M{
			"$inc": bson.M{"retryCount": 1},
			"$set": bson.M{"lastError": cause, "lastFailedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox records failed: %w", err)
	}
	return nil
}

func (b *claimedBatchMongoDB) Close(ctx context.Context) error {
	if b.closed {
		return nil
	}
	b.closed = true
	_, err := b.coll.UpdateMany(ctx,
		bson.M{"claimedBy": b.token, "sent": false},
		bson.M{"$unset": bson.M{"claimedBy": "", "claimedAt": ""}},
	)
	return err
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)
