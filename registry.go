package main

import (
	"context"
	"sort"
	"sync"
)

// Registry maps user identities to environments, creating each on first
// use. Environments are never evicted on their own; see Drop.
type Registry struct {
	opts []VMOption
	emit func(identity, line string)

	mu   sync.Mutex
	envs map[string]*regEntry
}

type regEntry struct {
	sync.Mutex
	vm *VM
}

// NewRegistry creates an empty registry. Every environment it creates gets
// opts, plus a line sink that tags output with the environment's identity.
func NewRegistry(emit func(identity, line string), opts ...VMOption) *Registry {
	return &Registry{
		opts: opts,
		emit: emit,
		envs: make(map[string]*regEntry),
	}
}

func (reg *Registry) newVM(identity string) *VM {
	opts := append([]VMOption{WithName(identity)}, reg.opts...)
	if emit := reg.emit; emit != nil {
		opts = append(opts, WithLineFunc(func(line string) { emit(identity, line) }))
	}
	return New(opts...)
}

func (reg *Registry) entry(identity string) *regEntry {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	ent, ok := reg.envs[identity]
	if !ok {
		ent = &regEntry{vm: reg.newVM(identity)}
		reg.envs[identity] = ent
	}
	return ent
}

// Interpret runs one line in identity's environment. Commands for one
// identity run one at a time; distinct identities may run concurrently.
func (reg *Registry) Interpret(ctx context.Context, identity, line string) error {
	ent := reg.entry(identity)
	ent.Lock()
	defer ent.Unlock()
	return ent.vm.Interpret(ctx, line)
}

// Do calls fn with identity's environment while holding its lock.
func (reg *Registry) Do(identity string, fn func(vm *VM)) {
	ent := reg.entry(identity)
	ent.Lock()
	defer ent.Unlock()
	fn(ent.vm)
}

// Len returns the number of environments.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.envs)
}

// Identities returns the known identities in sorted order.
func (reg *Registry) Identities() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	ids := make([]string, 0, len(reg.envs))
	for id := range reg.envs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Drop discards identity's environment, reporting whether it existed.
func (reg *Registry) Drop(identity string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.envs[identity]
	delete(reg.envs, identity)
	return ok
}
