package store

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/google/uuid"

	"github.com/interuss/datanode/internal/geo"
	"github.com/interuss/datanode/internal/scd"
)

// MemoryStore keeps all records in process memory: two tables keyed by
// UUID plus an S2 cell index mapping each covered cell to the IDs of the
// entities covering it. Cell buckets are evicted as soon as they empty,
// keeping the index proportional to the total active coverage. State does
// not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	state memoryState
}

var _ Store = &MemoryStore{}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memoryState{
			subscriptions: make(map[uuid.UUID]*scd.Subscription),
			operations:    make(map[uuid.UUID]*scd.Operation),
			cells:         make(map[s2.CellID]*cellContents),
		},
	}
}

// Transact implements Store.
func (s *MemoryStore) Transact(ctx context.Context, fn func(Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// ConnectionTest implements Store.
func (s *MemoryStore) ConnectionTest(ctx context.Context) error {
	return ctx.Err()
}

type cellContents struct {
	subscriptionIDs map[uuid.UUID]struct{}
	operationIDs    map[uuid.UUID]struct{}
}

func newCellContents() *cellContents {
	return &cellContents{
		subscriptionIDs: make(map[uuid.UUID]struct{}),
		operationIDs:    make(map[uuid.UUID]struct{}),
	}
}

func (c *cellContents) isEmpty() bool {
	return len(c.subscriptionIDs) == 0 && len(c.operationIDs) == 0
}

type memoryState struct {
	subscriptions map[uuid.UUID]*scd.Subscription
	operations    map[uuid.UUID]*scd.Operation
	cells         map[s2.CellID]*cellContents
}

var _ Repository = &memoryState{}

func (m *memoryState) GetSubscription(id uuid.UUID) (*scd.Subscription, error) {
	subscription, ok := m.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return subscription.Clone(), nil
}

func (m *memoryState) UpsertSubscription(subscription *scd.Subscription) error {
	if old, ok := m.subscriptions[subscription.ID]; ok {
		m.removeSubscriptionFromCells(old)
	}
	clone := subscription.Clone()
	m.subscriptions[clone.ID] = clone
	for _, cell := range clone.Vol4.Cells {
		contents, ok := m.cells[cell]
		if !ok {
			contents = newCellContents()
			m.cells[cell] = contents
		}
		contents.subscriptionIDs[clone.ID] = struct{}{}
	}
	return nil
}

func (m *memoryState) DeleteSubscription(id uuid.UUID) error {
	subscription, ok := m.subscriptions[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.subscriptions, id)
	m.removeSubscriptionFromCells(subscription)
	return nil
}

func (m *memoryState) SearchSubscriptions(vol4 *geo.Volume4, owner string) ([]*scd.Subscription, error) {
	candidates := make(map[uuid.UUID]struct{})
	for _, cell := range vol4.Cells {
		if contents, ok := m.cells[cell]; ok {
			for id := range contents.subscriptionIDs {
				candidates[id] = struct{}{}
			}
		}
	}

	result := make([]*scd.Subscription, 0, len(candidates))
	for id := range candidates {
		subscription := m.subscriptions[id]
		if owner != "" && subscription.Owner != owner {
			continue
		}
		if !geo.OverlapsTimeAltitude(vol4, subscription.Vol4) {
			continue
		}
		result = append(result, subscription.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) < 0
	})
	return result, nil
}

func (m *memoryState) removeSubscriptionFromCells(subscription *scd.Subscription) {
	for _, cell := range subscription.Vol4.Cells {
		contents := m.cells[cell]
		delete(contents.subscriptionIDs, subscription.ID)
		if contents.isEmpty() {
			delete(m.cells, cell)
		}
	}
}

func (m *memoryState) GetOperation(id uuid.UUID) (*scd.Operation, error) {
	operation, ok := m.operations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return operation.Clone(), nil
}

func (m *memoryState) UpsertOperation(operation *scd.Operation) error {
	if old, ok := m.operations[operation.ID]; ok {
		m.removeOperationFromCells(old)
	}
	clone := operation.Clone()
	m.operations[clone.ID] = clone
	for _, cell := range clone.Vol4.Cells {
		contents, ok := m.cells[cell]
		if !ok {
			contents = newCellContents()
			m.cells[cell] = contents
		}
		contents.operationIDs[clone.ID] = struct{}{}
	}
	return nil
}

func (m *memoryState) DeleteOperation(id uuid.UUID) error {
	operation, ok := m.operations[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.operations, id)
	m.removeOperationFromCells(operation)
	return nil
}

func (m *memoryState) SearchOperations(vol4 *geo.Volume4) ([]*scd.Operation, error) {
	candidates := make(map[uuid.UUID]struct{})
	for _, cell := range vol4.Cells {
		if contents, ok := m.cells[cell]; ok {
			for id := range contents.operationIDs {
				candidates[id] = struct{}{}
			}
		}
	}

	result := make([]*scd.Operation, 0, len(candidates))
	for id := range candidates {
		operation := m.operations[id]
		if !geo.OverlapsTimeAltitude(vol4, operation.Vol4) {
			continue
		}
		result = append(result, operation.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) < 0
	})
	return result, nil
}

func (m *memoryState) removeOperationFromCells(operation *scd.Operation) {
	for _, cell := range operation.Vol4.Cells {
		contents := m.cells[cell]
		delete(contents.operationIDs, operation.ID)
		if contents.isEmpty() {
			delete(m.cells, cell)
		}
	}
}
