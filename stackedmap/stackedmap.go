// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap maintains maps in a stack.
// Each map inherits key/value of the map that is at lower level.
// It acts as a map with save-restore/snapshot-revert manner.
package stackedmap

// MapGetter defines the getter method of the src map.
type MapGetter[K comparable, V any] func(key K) (value V, exist bool, err error)

// StackedMap maps on a stack, with a src map as bottom.
type StackedMap[K comparable, V any] struct {
	src            MapGetter[K, V]
	mapStack       []*level[K, V]
	keyRevisionMap map[K]*revStack
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []K
}

// New creates an instance of StackedMap.
// src acts as the source of data.
func New[K comparable, V any](src MapGetter[K, V]) *StackedMap[K, V] {
	return &StackedMap[K, V]{
		src:            src,
		keyRevisionMap: make(map[K]*revStack),
	}
}

// Depth returns the depth of the stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.mapStack)
}

// Push pushes a new map on the stack.
// It returns the stack depth before push.
func (sm *StackedMap[K, V]) Push() int {
	sm.mapStack = append(sm.mapStack, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.mapStack) - 1
}

// Pop pops the map at the top of the stack.
// It reverts all Put operations since the last Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.mapStack[len(sm.mapStack)-1]
	for key := range top.kvs {
		revs := sm.keyRevisionMap[key]
		revs.pop()
		if len(*revs) == 0 {
			delete(sm.keyRevisionMap, key)
		}
	}
	sm.mapStack = sm.mapStack[:len(sm.mapStack)-1]
}

// PopTo pops maps until the stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.mapStack) > depth {
		sm.Pop()
	}
}

// Get gets the value for the given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.keyRevisionMap[key]; ok {
		lvl := sm.mapStack[revs.top()]
		if v, ok := lvl.kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put puts key value into the map at the stack top.
// It panics if the stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	top := sm.mapStack[len(sm.mapStack)-1]
	if _, ok := top.kvs[key]; !ok {
		top.journal = append(top.journal, key)

		// record key revision for fast access
		rev := len(sm.mapStack) - 1
		if revs, ok := sm.keyRevisionMap[key]; ok {
			if revs.top() != rev {
				revs.push(rev)
			}
		} else {
			sm.keyRevisionMap[key] = &revStack{rev}
		}
	}
	top.kvs[key] = value
}

// Journal iterates all put key/value pairs from bottom to top, in put order
// within each level. The final value of a key overridden at a higher level is
// visited last. It stops when cb returns false.
func (sm *StackedMap[K, V]) Journal(cb func(key K, value V) bool) {
	for _, lvl := range sm.mapStack {
		for _, key := range lvl.journal {
			if !cb(key, lvl.kvs[key]) {
				return
			}
		}
	}
}

// revStack stack of revisions.
type revStack []int

func (s *revStack) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s *revStack) push(v int) {
	*s = append(*s, v)
}

func (s revStack) top() int {
	return s[len(s)-1]
}
