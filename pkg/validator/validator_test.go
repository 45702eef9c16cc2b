package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("all rules pass", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "Acme"),
			validator.ValidEmail("email", "owner@acme.test"),
		)
		require.NoError(t, err)
	})

	t.Run("accumulates failures", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "   "),
			validator.ValidEmail("email", "not-an-email"),
			validator.MaxLen("bio", "abc", 10),
		)
		require.Error(t, err)

		errs := validator.Extract(err)
		require.Len(t, errs, 2)
		assert.Equal(t, []string{"name", "email"}, errs.Fields())
		assert.Contains(t, err.Error(), "name: is required")
	})
}

func TestExtract(t *testing.T) {
	t.Parallel()

	assert.Nil(t, validator.Extract(nil))
	assert.Nil(t, validator.Extract(assert.AnError))
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule validator.Rule
		ok   bool
	}{
		{"required present", validator.Required("f", "x"), true},
		{"required whitespace only", validator.Required("f", " \t"), false},
		{"email valid", validator.ValidEmail("f", "a@b.co"), true},
		{"email with display name", validator.ValidEmail("f", "A <a@b.co>"), false},
		{"email invalid", validator.ValidEmail("f", "nope"), false},
		{"maxlen at boundary", validator.MaxLen("f", "abcde", 5), true},
		{"maxlen over", validator.MaxLen("f", "abcdef", 5), false},
		{"maxlen counts runes", validator.MaxLen("f", "ééééé", 5), true},
		{"minlen at boundary", validator.MinLen("f", "abc", 3), true},
		{"minlen under", validator.MinLen("f", "ab", 3), false},
		{"oneof member", validator.OneOf("f", "b", "a", "b"), true},
		{"oneof empty passes", validator.OneOf("f", "", "a", "b"), true},
		{"oneof non-member", validator.OneOf("f", "c", "a", "b"), false},
		{"password two classes", validator.StrongPassword("f", "longenough1"), true},
		{"password one class", validator.StrongPassword("f", "lowercaseonly"), false},
		{"password too short", validator.StrongPassword("f", "Ab1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.ok, tt.rule.Check())
		})
	}
}
