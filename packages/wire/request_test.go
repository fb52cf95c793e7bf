package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_BuildURL(t *testing.T) {
	req := NewRequest("GET", "http://example.com/users")
	assert.Equal(t, "http://example.com/users", req.BuildURL())

	req.SetQueryParam("page", "2")
	req.SetQueryParam("q", "a b")
	url := req.BuildURL()
	assert.Contains(t, url, "page=2")
	assert.Contains(t, url, "q=a+b")
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://example.com", "/users", "http://example.com/users"},
		{"http://example.com/api/", "users", "http://example.com/api/users"},
		{"http://example.com", "/users?active=1", "http://example.com/users?active=1"},
	}

	for _, tt := range tests {
		got, err := JoinURL(tt.base, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("http://example.com"))
	assert.NoError(t, ValidateURL("https://example.com/path"))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("http://"))
}

func TestResponse_Header_CaseInsensitive(t *testing.T) {
	resp := &Response{Headers: map[string]string{"Content-Type": "application/json"}}
	assert.Equal(t, "application/json", resp.Header("content-type"))
	assert.Equal(t, "", resp.Header("missing"))
	assert.True(t, resp.IsJSON())
}
