package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministic(t *testing.T) {
	first := Sign("secret", "acct", "example.com", "ref-1")
	second := Sign("secret", "acct", "example.com", "ref-1")

	assert.Equal(t, first, second)
	assert.Len(t, first, 32) // hex-encoded md5 digest
}

func TestSignIsOrderSensitive(t *testing.T) {
	ordered := Sign("secret", "a", "b", "c")
	reordered := Sign("secret", "b", "a", "c")

	assert.NotEqual(t, ordered, reordered)
}

func TestSignDependsOnSecret(t *testing.T) {
	assert.NotEqual(t,
		Sign("secret-one", "a", "b"),
		Sign("secret-two", "a", "b"),
	)
}

func TestSignDelimiterIsNotAmbiguous(t *testing.T) {
	// Two fields "a;b","c" and "a","b;c" join to the same string; the
	// signature treats them identically, which is why field order and
	// count are fixed by the protocol rather than guessed.
	assert.Equal(t, Sign("s", "a;b", "c"), Sign("s", "a", "b;c"))
	assert.NotEqual(t, Sign("s", "a", "b", "c"), Sign("s", "a", "b", "d"))
}

func TestAckSignatureFieldOrder(t *testing.T) {
	require.Equal(t,
		Sign("merchant-key", "order-42", "accept", "1700000000"),
		ackSignature("merchant-key", "order-42", "accept", 1700000000),
	)
}

func TestInvoiceSignatureCoversNormalizedFields(t *testing.T) {
	got := invoiceSignature("key", "acct", "example.com", "ref-7", 1700000000, "20.00", "UAH", "Translation", "1", "20.00")
	want := Sign("key", "acct", "example.com", "ref-7", "1700000000", "20.00", "UAH", "Translation", "1", "20.00")

	assert.Equal(t, want, got)
}
