package relayErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelayError_IsMatchesByCode(t *testing.T) {
	err := Wrapf(ErrNonceUsed, "signer %s nonce %d", "0xabc", 7)

	assert.True(t, errors.Is(err, ErrNonceUsed))
	assert.False(t, errors.Is(err, ErrInvalidSignature))

	wrapped := fmt.Errorf("relay: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNonceUsed))
	assert.Equal(t, CodeNonceUsed, CodeOf(wrapped))
}

func TestRelayError_Message(t *testing.T) {
	assert.Equal(t, "[ERR_NONCE_USED] nonce already used", ErrNonceUsed.Error())

	err := Wrap(ErrEncoding, errors.New("amount is nil"))
	assert.Equal(t, "[ERR_ENCODING] malformed transfer intent: amount is nil", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "amount is nil")
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("disk full")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotAuthorized, http.StatusForbidden},
		{ErrInvalidSignature, http.StatusUnauthorized},
		{ErrTransferFailed, http.StatusNotFound},
		{ErrNonceUsed, http.StatusConflict},
		{ErrTokenExists, http.StatusConflict},
		{ErrInsufficientBalance, http.StatusPaymentRequired},
		{ErrRelayFeeFailed, http.StatusPaymentRequired},
		{ErrEncoding, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), "error %v", tt.err)
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "nonce already used", MessageOf(ErrNonceUsed))
	assert.Equal(t, "nonce already used: nonce 7", MessageOf(Wrapf(ErrNonceUsed, "nonce 7")))
	assert.Equal(t, "nonce already used: nonce 7", MessageOf(fmt.Errorf("outer: %w", Wrapf(ErrNonceUsed, "nonce 7"))))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
}
