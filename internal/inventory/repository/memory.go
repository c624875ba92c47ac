package repository

import (
	"context"
	"sort"
	inventoryerrors "staybook/internal/inventory/errors"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"
	"sync"
	"time"
)

// memoryInventoryRepository keeps records in process. It does not lock rows
// itself; callers serialise access through the inventory service's locker.
// Writes made inside ExecuteTransaction are undone when fn fails.
type memoryInventoryRepository struct {
	mu        sync.RWMutex
	records   map[string]model.Inventory
	txManager mongotx.TransactionManager
}

type journalKey struct{}

// journal remembers the first prior value of every record written in a
// transaction. A nil *model.Inventory means the record did not exist.
type journal struct {
	before map[string]*model.Inventory
}

func NewMemoryInventoryRepository() InventoryRepository {
	return &memoryInventoryRepository{
		records:   make(map[string]model.Inventory),
		txManager: mongotx.NewPassthroughTransactionManager(),
	}
}

func (r *memoryInventoryRepository) remember(ctx context.Context, id string) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	if _, seen := j.before[id]; seen {
		return
	}
	if prev, exists := r.records[id]; exists {
		j.before[id] = &prev
		return
	}
	j.before[id] = nil
}

func (r *memoryInventoryRepository) FindAndLockRange(ctx context.Context, roomID string, start, end time.Time) ([]*model.Inventory, error) {
	return r.FindByRoom(ctx, roomID, start, end)
}

func (r *memoryInventoryRepository) FindByRoom(ctx context.Context, roomID string, start, end time.Time) ([]*model.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from, to := model.Day(start), model.Day(end)
	var out []*model.Inventory
	for _, rec := range r.records {
		if rec.RoomID != roomID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		c := rec
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memoryInventoryRepository) Save(ctx context.Context, records []*model.Inventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		if _, ok := r.records[rec.ID]; !ok {
			return inventoryerrors.ErrNotFound
		}
	}
	now := time.Now().UTC()
	for _, rec := range records {
		r.remember(ctx, rec.ID)
		rec.UpdatedAt = now
		r.records[rec.ID] = *rec
	}
	return nil
}

func (r *memoryInventoryRepository) CreateMissing(ctx context.Context, records []*model.Inventory) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var created int64
	for _, rec := range records {
		if _, ok := r.records[rec.ID]; ok {
			continue
		}
		r.remember(ctx, rec.ID)
		r.records[rec.ID] = *rec
		created++
	}
	return created, nil
}

func (r *memoryInventoryRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, rec := range r.records {
		if rec.RoomID == roomID {
			r.remember(ctx, id)
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryInventoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if _, nested := ctx.Value(journalKey{}).(*journal); nested {
		return r.txManager.ExecuteTransaction(ctx, fn)
	}

	j := &journal{before: make(map[string]*model.Inventory)}
	err := r.txManager.ExecuteTransaction(context.WithValue(ctx, journalKey{}, j), fn)
	if err != nil {
		r.rollback(j)
	}
	return err
}

func (r *memoryInventoryRepository) rollback(j *journal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, prev := range j.before {
		if prev == nil {
			delete(r.records, id)
			continue
		}
		r.records[id] = *prev
	}
}
