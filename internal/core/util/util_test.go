package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	cases := map[string]struct {
		raw   string
		id    int64
		valid bool
	}{
		"numeric":  {raw: "42", id: 42, valid: true},
		"word":     {raw: "hey", valid: false},
		"zero":     {raw: "0", valid: false},
		"negative": {raw: "-3", valid: false},
		"padded":   {raw: " 4", valid: false},
		"empty":    {raw: "", valid: false},
		"float":    {raw: "1.5", valid: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			id, err := ParseID(tc.raw)

			if !tc.valid {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.id, id)
		})
	}
}

func TestPassword(t *testing.T) {
	encrypted, err := GenerateEncrypt("password1")

	assert.NoError(t, err)
	assert.NotEqual(t, "password1", encrypted)
	assert.NoError(t, ComparePassword("password1", encrypted))
	assert.Error(t, ComparePassword("password2", encrypted))
}
