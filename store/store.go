package store

import (
	"fmt"
	"sync"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/node"
	"github.com/dcm2610/StellarStack-sub000/server"
	"github.com/dcm2610/StellarStack-sub000/transfer"
)

// Store is the persistence contract every entity store implements.
// Values round-trip as interface{}; callers type-assert on the way
// out, one concrete type per store.
type Store interface {
	Put(key string, value interface{}) error
	Get(key string) (interface{}, error)
	List() (interface{}, error)
	Count() (int, error)
	Delete(key string) error
}

// InMemoryServerStore provides a wrapper around the builtin map type
// for storing servers. Safe for concurrent use.
type InMemoryServerStore struct {
	mtx sync.RWMutex
	Db  map[string]*server.Server
}

func NewInMemoryServerStore() *InMemoryServerStore {
	return &InMemoryServerStore{Db: make(map[string]*server.Server)}
}

func (i *InMemoryServerStore) Put(key string, value interface{}) error {
	s, ok := value.(*server.Server)
	if !ok {
		return fmt.Errorf("value %v is not a server.Server type", value)
	}
	i.mtx.Lock()
	defer i.mtx.Unlock()
	i.Db[key] = s
	return nil
}

func (i *InMemoryServerStore) Get(key string) (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	s, ok := i.Db[key]
	if !ok {
		return nil, fmt.Errorf("server with key %s does not exist", key)
	}
	return s, nil
}

func (i *InMemoryServerStore) List() (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	var servers []*server.Server
	for _, s := range i.Db {
		servers = append(servers, s)
	}
	return servers, nil
}

func (i *InMemoryServerStore) Count() (int, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return len(i.Db), nil
}

func (i *InMemoryServerStore) Delete(key string) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	delete(i.Db, key)
	return nil
}

type InMemoryNodeStore struct {
	mtx sync.RWMutex
	Db  map[string]*node.Node
}

func NewInMemoryNodeStore() *InMemoryNodeStore {
	return &InMemoryNodeStore{Db: make(map[string]*node.Node)}
}

func (i *InMemoryNodeStore) Put(key string, value interface{}) error {
	n, ok := value.(*node.Node)
	if !ok {
		return fmt.Errorf("value %v is not a node.Node type", value)
	}
	i.mtx.Lock()
	defer i.mtx.Unlock()
	i.Db[key] = n
	return nil
}

func (i *InMemoryNodeStore) Get(key string) (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	n, ok := i.Db[key]
	if !ok {
		return nil, fmt.Errorf("node with key %s does not exist", key)
	}
	return n, nil
}

func (i *InMemoryNodeStore) List() (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	var nodes []*node.Node
	for _, n := range i.Db {
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (i *InMemoryNodeStore) Count() (int, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return len(i.Db), nil
}

func (i *InMemoryNodeStore) Delete(key string) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	delete(i.Db, key)
	return nil
}

type InMemoryAllocationStore struct {
	mtx sync.RWMutex
	Db  map[string]*allocation.Allocation
}

func NewInMemoryAllocationStore() *InMemoryAllocationStore {
	return &InMemoryAllocationStore{Db: make(map[string]*allocation.Allocation)}
}

func (i *InMemoryAllocationStore) Put(key string, value interface{}) error {
	a, ok := value.(*allocation.Allocation)
	if !ok {
		return fmt.Errorf("value %v is not an allocation.Allocation type", value)
	}
	i.mtx.Lock()
	defer i.mtx.Unlock()
	i.Db[key] = a
	return nil
}

func (i *InMemoryAllocationStore) Get(key string) (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	a, ok := i.Db[key]
	if !ok {
		return nil, fmt.Errorf("allocation with key %s does not exist", key)
	}
	return a, nil
}

func (i *InMemoryAllocationStore) List() (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	var allocations []*allocation.Allocation
	for _, a := range i.Db {
		allocations = append(allocations, a)
	}
	return allocations, nil
}

func (i *InMemoryAllocationStore) Count() (int, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return len(i.Db), nil
}

func (i *InMemoryAllocationStore) Delete(key string) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	delete(i.Db, key)
	return nil
}

type InMemoryTransferStore struct {
	mtx sync.RWMutex
	Db  map[string]*transfer.Transfer
}

func NewInMemoryTransferStore() *InMemoryTransferStore {
	return &InMemoryTransferStore{Db: make(map[string]*transfer.Transfer)}
}

func (i *InMemoryTransferStore) Put(key string, value interface{}) error {
	t, ok := value.(*transfer.Transfer)
	if !ok {
		return fmt.Errorf("value %v is not a transfer.Transfer type", value)
	}
	i.mtx.Lock()
	defer i.mtx.Unlock()
	i.Db[key] = t
	return nil
}

func (i *InMemoryTransferStore) Get(key string) (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	t, ok := i.Db[key]
	if !ok {
		return nil, fmt.Errorf("transfer with key %s does not exist", key)
	}
	return t, nil
}

func (i *InMemoryTransferStore) List() (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	var transfers []*transfer.Transfer
	for _, t := range i.Db {
		transfers = append(transfers, t)
	}
	return transfers, nil
}

func (i *InMemoryTransferStore) Count() (int, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return len(i.Db), nil
}

func (i *InMemoryTransferStore) Delete(key string) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	delete(i.Db, key)
	return nil
}

type InMemoryBlueprintStore struct {
	mtx sync.RWMutex
	Db  map[string]*server.Blueprint
}

func NewInMemoryBlueprintStore() *InMemoryBlueprintStore {
	return &InMemoryBlueprintStore{Db: make(map[string]*server.Blueprint)}
}

func (i *InMemoryBlueprintStore) Put(key string, value interface{}) error {
	b, ok := value.(*server.Blueprint)
	if !ok {
		return fmt.Errorf("value %v is not a server.Blueprint type", value)
	}
	i.mtx.Lock()
	defer i.mtx.Unlock()
	i.Db[key] = b
	return nil
}

func (i *InMemoryBlueprintStore) Get(key string) (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	b, ok := i.Db[key]
	if !ok {
		return nil, fmt.Errorf("blueprint with key %s does not exist", key)
	}
	return b, nil
}

func (i *InMemoryBlueprintStore) List() (interface{}, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	var blueprints []*server.Blueprint
	for _, b := range i.Db {
		blueprints = append(blueprints, b)
	}
	return blueprints, nil
}

func (i *InMemoryBlueprintStore) Count() (int, error) {
	i.mtx.RLock()
	defer i.mtx.RUnlock()
	return len(i.Db), nil
}

func (i *InMemoryBlueprintStore) Delete(key string) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	delete(i.Db, key)
	return nil
}
