// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackedMap(t *testing.T) {
	src := map[string]string{"base": "b"}
	sm := New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	sm.Push()
	v, ok, err := sm.Get("base")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	sm.Put("k", "v1")
	v, ok, _ = sm.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	depth := sm.Push()
	sm.Put("k", "v2")
	v, _, _ = sm.Get("k")
	assert.Equal(t, "v2", v)

	sm.PopTo(depth)
	v, _, _ = sm.Get("k")
	assert.Equal(t, "v1", v)

	sm.Pop()
	_, ok, _ = sm.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, sm.Depth())
}

func TestStackedMapJournal(t *testing.T) {
	sm := New(func(string) (string, bool, error) {
		return "", false, nil
	})

	sm.Push()
	sm.Put("a", "1")
	sm.Put("b", "2")
	sm.Push()
	sm.Put("a", "3")

	final := make(map[string]string)
	var order []string
	sm.Journal(func(k, v string) bool {
		final[k] = v
		order = append(order, k)
		return true
	})

	assert.Equal(t, []string{"a", "b", "a"}, order)
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, final)
}
