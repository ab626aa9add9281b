package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

func newTestRepo(t *testing.T) (*OutboxRepoSQLite, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitOutboxSQLite(db))
	return NewOutboxRepoSQLite(db, 3, time.Minute), db
}

func enqueueN(t *testing.T, repo *OutboxRepoSQLite, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := repo.Enqueue(context.Background(), sharedDomain.OutboxMessage{
			Topic:   "product-events",
			Payload: []byte(fmt.Sprintf(`{"product_id":%d}`, i)),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func recordIDs(batch sharedDomain.ClaimedBatch) []int64 {
	var ids []int64
	for _, rec := range batch.Records() {
		ids = append(ids, rec.ID)
	}
	return ids
}

func TestClaim_OrderedByID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	enqueueN(t, repo, 5)

	batch, err := repo.Claim(ctx, 3)
	require.NoError(t, err)
	defer batch.Close(ctx)

	ids := recordIDs(batch)
	require.Len(t, ids, 3)
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "claim debe devolver IDs estrictamente crecientes")
	}
}

// Escenario de referencia: A reclama {1,2,3}; B, con el lote de A abierto,
// solo puede reclamar {4,5}; tras enviar {1,2,3}, un claim posterior devuelve
// únicamente {4,5}.
func TestClaim_SkipsRowsHeldByAnotherClaimer(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	enqueueN(t, repo, 5)

	batchA, err := repo.Claim(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, recordIDs(batchA))

	batchB, err := repo.Claim(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, recordIDs(batchB), "B debe saltar las filas reservadas por A")

	require.NoError(t, batchA.MarkSent(ctx, []int64{1, 2, 3}))
	require.NoError(t, batchA.Close(ctx))
	require.NoError(t, batchB.Close(ctx))

	batchC, err := repo.Claim(ctx, 5)
	require.NoError(t, err)
	defer batchC.Close(ctx)
	assert.Equal(t, []int64{4, 5}, recordIDs(batchC), "las filas enviadas no vuelven a aparecer")
}

func TestClaim_NoDoubleClaimUnderConcurrency(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	enqueueN(t, repo, 8)

	var (
		mu      sync.Mutex
		claimed []int64
		batches []sharedDomain.ClaimedBatch
		wg      sync.WaitGroup
	)

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch, err := repo.Claim(ctx, 2)
			if err != nil {
				return
			}
			mu.Lock()
			claimed = append(claimed, recordIDs(batch)...)
			batches = append(batches, batch)
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, id := range claimed {
		assert.False(t, seen[id], "el id %d fue reclamado dos veces", id)
		seen[id] = true
	}

	for _, b := range batches {
		require.NoError(t, b.Close(ctx))
	}
}

func TestMarkSent_Idempotent(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	enqueueN(t, repo, 1)

	batch, err := repo.Claim(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, batch.MarkSent(ctx, []int64{1}))

	var firstSentAt time.Time
	require.NoError(t, db.QueryRow(`SELECT sent_at FROM outbox WHERE id = 1`).Scan(&firstSentAt))

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, batch.MarkSent(ctx, []int64{1}), "repetir mark-sent no es un error")
	require.NoError(t, batch.Close(ctx))

	var sent bool
	var secondSentAt time.Time
	require.NoError(t, db.QueryRow(`SELECT sent, sent_at FROM outbox WHERE id = 1`).Scan(&sent, &secondSentAt))
	assert.True(t, sent)
	assert.Equal(t, firstSentAt, secondSentAt, "sent_at se fija exactamente una vez")
}

func TestMarkFailed_RecordStaysClaimable(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	enqueueN(t, repo, 1)

	batch, err := repo.Claim(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, batch.MarkFailed(ctx, []int64{1}, "kafka: connection refused"))
	require.NoError(t, batch.Close(ctx))

	again, err := repo.Claim(ctx, 1)
	require.NoError(t, err)
	defer again.Close(ctx)

	recs := again.Records()
	require.Len(t, recs, 1, "un registro fallido vuelve a ser reclamable")
	assert.Equal(t, int64(1), recs[0].ID)
	assert.Equal(t, 1, recs[0].RetryCount)
}

func TestMarkFailed_ParksAfterMaxRetries(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	enqueueN(t, repo, 1)

	for i := 0; i < 3; i++ {
		batch, err := repo.Claim(ctx, 1)
		require.NoError(t, err)
		require.Len(t, batch.Records(), 1)
		require.NoError(t, batch.MarkFailed(ctx, []int64{1}, "boom"))
		require.NoError(t, batch.Close(ctx))
	}

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending, "tras agotar los reintentos el registro queda aparcado")

	batch, err := repo.Claim(ctx, 1)
	require.NoError(t, err)
	defer batch.Close(ctx)
	assert.Empty(t, batch.Records())
}

func TestEnqueueTx_RollsBackWithDomainWrite(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = EnqueueOutboxTx(ctx, tx, sharedDomain.OutboxMessage{
		Topic:   "product-events",
		Payload: []byte(`{"product_id":1}`),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending, "el evento no sobrevive al rollback de la escritura")
}

func TestDeleteSentBefore_OnlyRemovesOldSent(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	enqueueN(t, repo, 2)

	batch, err := repo.Claim(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, batch.MarkSent(ctx, []int64{1}))
	require.NoError(t, batch.Close(ctx))

	deleted, err := repo.DeleteSentBefore(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM outbox`).Scan(&remaining))
	assert.Equal(t, 1, remaining, "los no enviados nunca se borran")
}
