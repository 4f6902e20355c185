package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIDNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain nine digits", "123456782", "123456782"},
		{"leading zeros", "012345678", "12345678"},
		{"dashes and spaces", " 12-345 678-2 ", "123456782"},
		{"excel float suffix", "123456782.0", "123456782"},
		{"eight digits ending in zero", "12345670", "1234567"},
		{"long with trailing zeros", "12345678200", "123456782"},
		{"empty", "", ""},
		{"no digits", "abc", ""},
		{"all zeros", "0000", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIDNumber(tt.raw))
		})
	}

	t.Run("is idempotent", func(t *testing.T) {
		for _, tt := range tests {
			once := NormalizeIDNumber(tt.raw)
			assert.Equal(t, once, NormalizeIDNumber(once), tt.raw)
		}
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.Equal(t, "", NormalizeIDNumberPtr(nil))
		raw := "0123456782"
		assert.Equal(t, "123456782", NormalizeIDNumberPtr(&raw))
	})
}

func TestClient_Prepare(t *testing.T) {
	t.Run("fills derived fields", func(t *testing.T) {
		c := &Client{
			IDNumber:  StringPtr("123456782"),
			FirstName: StringPtr("דנה"),
			LastName:  StringPtr("כהן"),
			Email:     StringPtr("nan"),
			Phone:     StringPtr("  "),
		}

		require.NoError(t, c.Prepare())
		assert.Equal(t, "דנה כהן", c.FullName)
		require.NotNil(t, c.IDNumberRaw)
		assert.Equal(t, "123456782", *c.IDNumberRaw)
		assert.Nil(t, c.Email)
		assert.Nil(t, c.Phone)
		assert.True(t, c.HasPlaceholderBirthDate())
	})

	t.Run("keeps an explicit full name", func(t *testing.T) {
		c := &Client{IDNumber: StringPtr("1"), FullName: "Dana Cohen", FirstName: StringPtr("X")}
		require.NoError(t, c.Prepare())
		assert.Equal(t, "Dana Cohen", c.FullName)
	})

	t.Run("replaces a NaN full name", func(t *testing.T) {
		c := &Client{IDNumber: StringPtr("1"), FullName: "NaN", LastName: StringPtr("Levi")}
		require.NoError(t, c.Prepare())
		assert.Equal(t, "Levi", c.FullName)
	})

	t.Run("derives the normalized ID from the raw one", func(t *testing.T) {
		c := &Client{IDNumberRaw: StringPtr("012-345678-2")}
		require.NoError(t, c.Prepare())
		require.NotNil(t, c.IDNumber)
		assert.Equal(t, "123456782", *c.IDNumber)
		assert.Equal(t, "012-345678-2", *c.IDNumberRaw)
	})

	t.Run("requires an ID number", func(t *testing.T) {
		c := &Client{FullName: "Nobody", IDNumberRaw: StringPtr("nan")}
		assert.Error(t, c.Prepare())
	})

	t.Run("rejects an oversized normalized ID", func(t *testing.T) {
		c := &Client{IDNumber: StringPtr("1234567890")}
		assert.Error(t, c.Prepare())
	})

	t.Run("rejects an oversized raw ID", func(t *testing.T) {
		c := &Client{IDNumberRaw: StringPtr("123456789012345678901")}
		assert.Error(t, c.Prepare())
	})
}

func TestClient_Age(t *testing.T) {
	c := &Client{BirthDate: time.Date(1980, time.June, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 43, c.Age(time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 44, c.Age(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, (&Client{}).Age(time.Now()))
}

func TestClient_Names(t *testing.T) {
	c := &Client{FullName: "123456782", IDNumber: StringPtr("123456782")}
	assert.True(t, c.NameIsPlaceholder())
	assert.Equal(t, "123456782", c.DisplayName())

	c.FirstName = StringPtr("Avi")
	assert.Equal(t, "Avi", c.DisplayName())

	c.FullName = "Avi Levi"
	assert.False(t, c.NameIsPlaceholder())
}

func TestIsNaNLike(t *testing.T) {
	for _, v := range []string{"", " ", "nan", "NaN", "None"} {
		assert.True(t, IsNaNLike(v), v)
	}
	assert.False(t, IsNaNLike("Nancy"))
}
