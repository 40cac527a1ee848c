// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poolmint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	addr := BytesToAddress([]byte("addr"))

	parsed, err := ParseAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)

	parsed, err = ParseAddress(addr.String()[2:])
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ParseAddress("0x123")
	assert.Error(t, err)
	_, err = ParseAddress("zz" + addr.String()[2:])
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("a1"))
	data, err := json.Marshal(&addr)
	assert.Nil(t, err)

	var decoded Address
	assert.Nil(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestBytes32(t *testing.T) {
	b32 := BytesToBytes32([]byte("key"))
	assert.False(t, b32.IsZero())
	assert.True(t, Bytes32{}.IsZero())
	assert.Equal(t, 32, len(b32.Bytes()))

	// distinct inputs hash to distinct keys
	assert.NotEqual(t, Blake2b([]byte("a")), Blake2b([]byte("b")))
	assert.Equal(t, Blake2b([]byte("a"), []byte("b")), Blake2b([]byte("a"), []byte("b")))
}
