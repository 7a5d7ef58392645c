package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:     http.StatusNotFound,
		KindValidation:   http.StatusBadRequest,
		KindBadRequest:   http.StatusBadRequest,
		KindConflict:     http.StatusConflict,
		KindForbidden:    http.StatusForbidden,
		KindUnauthorized: http.StatusUnauthorized,
		KindUnsupported:  http.StatusUnprocessableEntity,
		KindInternal:     http.StatusInternalServerError,
		KindUnknown:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, New(kind, "x").HTTPStatus(), kind.String())
	}
}

func TestGetKindFollowsWrapChain(t *testing.T) {
	base := Conflict("lead already claimed")
	wrapped := fmt.Errorf("claim: %w", base)

	assert.Equal(t, KindConflict, GetKind(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.Equal(t, KindUnknown, GetKind(errors.New("plain")))
}

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	err := Wrap(KindInternal, "update failed", errors.New("conn reset")).WithOp("leads.UpdateStatus")
	assert.Equal(t, "leads.UpdateStatus: update failed: conn reset", err.Error())
}
