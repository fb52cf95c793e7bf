package expect

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

func resultWith(status int, body string, headers map[string]string) *wire.Result {
	if headers == nil {
		headers = map[string]string{"Content-Type": "application/json"}
	}
	return &wire.Result{
		SpecName: "test",
		Request:  wire.NewRequest("GET", "http://example.com/test"),
		Response: &wire.Response{
			StatusCode: status,
			Status:     fmt.Sprintf("%d", status),
			Headers:    headers,
			Body:       []byte(body),
			Duration:   15 * time.Millisecond,
		},
		Attempts: 1,
	}
}

func TestStatusIs(t *testing.T) {
	r := resultWith(200, `{}`, nil)

	assert.NoError(t, StatusIs(200).Verify(r))

	err := StatusIs(404).Verify(r)
	require.Error(t, err)
	assert.True(t, IsAssertion(err))

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "status", ae.Subject)
	assert.Equal(t, 404, ae.Expected)
	assert.Equal(t, 200, ae.Actual)
}

func TestStatusSuccess(t *testing.T) {
	assert.NoError(t, StatusSuccess().Verify(resultWith(204, "", nil)))
	assert.Error(t, StatusSuccess().Verify(resultWith(500, "", nil)))
}

func TestBodyPathEquals(t *testing.T) {
	r := resultWith(200, `{"status": "ok", "count": 3, "user": {"name": "ada"}}`, nil)

	t.Run("string value", func(t *testing.T) {
		assert.NoError(t, BodyPathEquals("status", "ok").Verify(r))
	})

	t.Run("numeric value matches int expectation", func(t *testing.T) {
		// gjson decodes JSON numbers as float64; an int on the expected
		// side must still compare equal.
		assert.NoError(t, BodyPathEquals("count", 3).Verify(r))
	})

	t.Run("nested path", func(t *testing.T) {
		assert.NoError(t, BodyPathEquals("user.name", "ada").Verify(r))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := BodyPathEquals("status", "error").Verify(r)
		require.Error(t, err)
		assert.True(t, IsAssertion(err))
	})

	t.Run("missing path", func(t *testing.T) {
		err := BodyPathEquals("missing.path", "x").Verify(r)
		require.Error(t, err)
		assert.True(t, IsAssertion(err))
	})
}

func TestBodyPathContains(t *testing.T) {
	r := resultWith(200, `{"message": "operation completed successfully"}`, nil)

	assert.NoError(t, BodyPathContains("message", "completed").Verify(r))
	assert.Error(t, BodyPathContains("message", "failed").Verify(r))
}

func TestHeaderEquals(t *testing.T) {
	r := resultWith(200, `{}`, map[string]string{"X-Request-Id": "abc"})

	assert.NoError(t, HeaderEquals("x-request-id", "abc").Verify(r))
	assert.Error(t, HeaderEquals("X-Request-Id", "xyz").Verify(r))
}

func TestDurationUnder(t *testing.T) {
	r := resultWith(200, `{}`, nil)

	assert.NoError(t, DurationUnder(time.Second).Verify(r))
	assert.Error(t, DurationUnder(time.Millisecond).Verify(r))
}

func TestBodyMatchesSchema(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name"]
	}`

	t.Run("valid body", func(t *testing.T) {
		r := resultWith(200, `{"name": "ada", "age": 36}`, nil)
		assert.NoError(t, BodyMatchesSchema(schema).Verify(r))
	})

	t.Run("invalid body is an assertion failure", func(t *testing.T) {
		r := resultWith(200, `{"age": "not-a-number"}`, nil)
		err := BodyMatchesSchema(schema).Verify(r)
		require.Error(t, err)
		assert.True(t, IsAssertion(err))
	})
}

func TestIsAssertion_OtherErrors(t *testing.T) {
	assert.False(t, IsAssertion(errors.New("boom")))
	assert.False(t, IsAssertion(nil))

	wrapped := fmt.Errorf("outer: %w", &AssertionError{Subject: "status"})
	assert.True(t, IsAssertion(wrapped))
}
