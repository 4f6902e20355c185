package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientNote(t *testing.T) {
	now := time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC)

	t.Run("stamps creation time", func(t *testing.T) {
		n, err := NewClientNote(7, "  call back ", nil, now)
		require.NoError(t, err)
		assert.Equal(t, uint(7), n.ClientID)
		assert.Equal(t, "call back", n.Note)
		assert.Equal(t, "2024-03-10 08:30:00", n.CreatedAt)
		assert.Nil(t, n.ReminderAt)
	})

	t.Run("empty reminder is dropped", func(t *testing.T) {
		n, err := NewClientNote(1, "x", StringPtr(" "), now)
		require.NoError(t, err)
		assert.Nil(t, n.ReminderAt)
	})

	t.Run("invalid reminder", func(t *testing.T) {
		_, err := NewClientNote(1, "x", StringPtr("10/03/2024"), now)
		assert.Error(t, err)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := NewClientNote(1, "   ", nil, now)
		assert.Error(t, err)
	})
}

func TestClientNote_Reminders(t *testing.T) {
	now := time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC)
	n, err := NewClientNote(1, "renewal", StringPtr("2024-03-10"), now)
	require.NoError(t, err)

	assert.False(t, n.IsDue("2024-03-09"))
	assert.True(t, n.IsDue("2024-03-10"))
	assert.True(t, n.IsDue("2024-04-01"))

	n.Dismiss(now)
	require.NotNil(t, n.DismissedAt)
	assert.False(t, n.IsDue("2024-04-01"))

	n.ClearReminder()
	assert.Nil(t, n.ReminderAt)
	assert.Nil(t, n.DismissedAt)
	assert.False(t, n.IsDue("2024-04-01"))
}

func TestValidateBeneficiaries(t *testing.T) {
	pct := func(v float64) *float64 { return &v }

	t.Run("valid set", func(t *testing.T) {
		err := ValidateBeneficiaries([]ClientBeneficiary{
			{Index: 1, Percentage: pct(60)},
			{Index: 2, Percentage: pct(40)},
			{Index: 3},
		})
		assert.NoError(t, err)
	})

	t.Run("empty set", func(t *testing.T) {
		assert.NoError(t, ValidateBeneficiaries(nil))
	})

	t.Run("sum above 100", func(t *testing.T) {
		err := ValidateBeneficiaries([]ClientBeneficiary{
			{Index: 1, Percentage: pct(60)},
			{Index: 2, Percentage: pct(50)},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate slot", func(t *testing.T) {
		err := ValidateBeneficiaries([]ClientBeneficiary{{Index: 1}, {Index: 1}})
		assert.Error(t, err)
	})

	t.Run("slot out of range", func(t *testing.T) {
		assert.Error(t, ValidateBeneficiaries([]ClientBeneficiary{{Index: 5}}))
		assert.Error(t, ValidateBeneficiaries([]ClientBeneficiary{{Index: 0}}))
	})

	t.Run("negative percentage", func(t *testing.T) {
		assert.Error(t, ValidateBeneficiaries([]ClientBeneficiary{{Index: 1, Percentage: pct(-1)}}))
	})
}
