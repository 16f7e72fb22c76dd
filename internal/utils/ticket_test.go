package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketPayloadRoundTrip(t *testing.T) {
	payload, err := TicketPayload("secret", 42)
	require.NoError(t, err)

	got, err := VerifyTicketPayload("secret", payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)
}

func TestTicketPayloadsAreUniquePerIssue(t *testing.T) {
	a, err := TicketPayload("secret", 42)
	require.NoError(t, err)
	b, err := TicketPayload("secret", 42)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyTicketPayloadRejectsWrongSecret(t *testing.T) {
	payload, err := TicketPayload("secret", 42)
	require.NoError(t, err)

	_, err = VerifyTicketPayload("other", payload)
	assert.ErrorIs(t, err, ErrBadTicketPayload)
}

func TestVerifyTicketPayloadRejectsTampering(t *testing.T) {
	payload, err := TicketPayload("secret", 42)
	require.NoError(t, err)
	parts := strings.Split(payload, ".")
	require.Len(t, parts, 3)

	cases := map[string]string{
		"booking id swapped": "43." + parts[1] + "." + parts[2],
		"nonce swapped":      parts[0] + ".someothernonce." + parts[2],
		"signature clobbered": parts[0] + "." + parts[1] + "." + strings.Repeat("0", len(parts[2])),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := VerifyTicketPayload("secret", p)
			assert.ErrorIs(t, err, ErrBadTicketPayload)
		})
	}
}

func TestVerifyTicketPayloadRejectsMalformed(t *testing.T) {
	for _, p := range []string{"", "just-one-part", "1.two", "x.y.z", "1.2.3.4"} {
		_, err := VerifyTicketPayload("secret", p)
		assert.ErrorIs(t, err, ErrBadTicketPayload, "payload %q", p)
	}
}
