package common

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
)

func TestHandleLedgerError_MapsKindsToStatusCodes(t *testing.T) {
	cases := []struct {
		kind   ledgererrors.Kind
		status int
	}{
		{ledgererrors.KindValidation, http.StatusBadRequest},
		{ledgererrors.KindAccountNotFound, http.StatusNotFound},
		{ledgererrors.KindAssetMismatch, http.StatusBadRequest},
		{ledgererrors.KindInsufficientBalance, http.StatusUnprocessableEntity},
		{ledgererrors.KindDuplicateReference, http.StatusConflict},
		{ledgererrors.KindConfiguration, http.StatusInternalServerError},
		{ledgererrors.KindUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, kindStatus[tc.kind], tc.kind)
	}
}

func TestHandleLedgerError_UnknownKindIsFiveHundred(t *testing.T) {
	_, ok := kindStatus[ledgererrors.Kind("SOMETHING_ELSE")]
	assert.False(t, ok)
}
