package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/validation"
)

func TestValidateKeyRejectsEmpty(t *testing.T) {
	assert.Error(t, validation.ValidateKey(""))
}

func TestValidateKeyRejectsOversize(t *testing.T) {
	key := strings.Repeat("k", validation.MaxKeySize+1)
	assert.Error(t, validation.ValidateKey(key))
}

func TestValidateKeyRejectsInvalidUTF8(t *testing.T) {
	assert.Error(t, validation.ValidateKey(string([]byte{0xff, 0xfe})))
}

func TestValidateKeyAcceptsNormalKey(t *testing.T) {
	assert.NoError(t, validation.ValidateKey("user:123"))
}

func TestValidateValueAllowsEmpty(t *testing.T) {
	assert.NoError(t, validation.ValidateValue(""))
}

func TestValidateValueRejectsInvalidUTF8(t *testing.T) {
	assert.Error(t, validation.ValidateValue(string([]byte{0xff, 0xfe})))
}

func TestValidateRecordSizeRejectsOversize(t *testing.T) {
	big := make([]byte, validation.MaxRecordSize+1)
	assert.Error(t, validation.ValidateRecordSize(big))
}

func TestValidateRecordSizeAcceptsNormal(t *testing.T) {
	assert.NoError(t, validation.ValidateRecordSize([]byte("small")))
}
