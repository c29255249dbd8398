package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumHexKnownVector(t *testing.T) {
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		SumHex([]byte("abc")))
}

func TestSumHexEmpty(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SumHex(nil))
}

func TestSumHexStringMatchesBytes(t *testing.T) {
	assert.Equal(t, SumHex([]byte("payload")), SumHexString("payload"))
}

func TestSumHexDistinguishesPayloads(t *testing.T) {
	assert.NotEqual(t, SumHex([]byte("a")), SumHex([]byte("b")))
}
