package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

func TestJournalEntry_UserFacingAmount_NegatesStored(t *testing.T) {
	amt, err := money.NewFromString("50")
	require.NoError(t, err)

	entry := NewJournalEntry(uuid.New(), uuid.New(), uuid.New(), amt.Neg(), money.Zero())
	assert.True(t, entry.UserFacingAmount().Equal(amt))
}

func TestJournalEntry_DebitIsPositiveStored(t *testing.T) {
	amt, err := money.NewFromString("50")
	require.NoError(t, err)

	entry := NewJournalEntry(uuid.New(), uuid.New(), uuid.New(), amt, money.Zero())
	assert.Equal(t, 1, entry.Amount().Sign())
	assert.Equal(t, -1, entry.UserFacingAmount().Sign())
}
