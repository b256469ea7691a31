package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	valid := []string{
		"a@b.com",
		"first.last@example.co.uk",
		"writer+tag@papers.io",
	}
	for _, email := range valid {
		result := Email(email)
		assert.True(t, result.OK, "expected %q to be valid", email)
		assert.Empty(t, result.Message)
	}

	malformed := []string{
		"",
		"plainaddress",
		"@no-local.com",
		"no-domain@",
		"no-tld@host",
		"spaces in@local.com",
		"double@@at.com",
		"trailing@dot.",
	}
	for _, email := range malformed {
		result := Email(email)
		assert.False(t, result.OK, "expected %q to be invalid", email)
		assert.Equal(t, "Please enter a valid email address", result.Message)
	}
}

func TestPasswordRuleOrder(t *testing.T) {
	cases := []struct {
		name     string
		password string
		message  string
	}{
		{"too short", "Ab1!", "Password must be at least 8 characters long"},
		{"no uppercase", "abcdef1!", "Password must contain at least one uppercase letter"},
		{"no lowercase", "ABCDEF1!", "Password must contain at least one lowercase letter"},
		{"no digit", "Abcdefg!", "Password must contain at least one number"},
		{"no special", "Abcdefg1", "Password must contain at least one special character"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Password(tc.password)
			assert.False(t, result.OK)
			assert.Equal(t, tc.message, result.Message)
		})
	}
}

func TestPasswordLengthCheckedFirst(t *testing.T) {
	// Short and missing several classes: length must win.
	result := Password("a")
	assert.False(t, result.OK)
	assert.Equal(t, "Password must be at least 8 characters long", result.Message)
}

func TestPasswordValid(t *testing.T) {
	for _, password := range []string{"Abcdef1!", "Str0ng?Passw0rd", `Quote"Me1`} {
		result := Password(password)
		assert.True(t, result.OK, "expected %q to pass", password)
		assert.Empty(t, result.Message)
	}
}
