package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"", false},
		{"/static/", false},
		{"static/", false},
		{"//cdn.example.com/assets/", false},
		{"https://cdn.example.com/assets/", false},
		{"http://localhost:8000/", false},
		{"/static /", true},
		{"/static/?v=1", true},
		{"/static/?", true},
		{"/static/#top", true},
		{"ftp://example.com/", true},
		{"https:///nohost/", true},
		{"javascript:alert(1)", true},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			err := ValidatePrefix(tt.prefix)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("http://localhost:8000"))
	assert.NoError(t, ValidateURL("https://example.com/_assetpack/"))
	assert.Error(t, ValidateURL("localhost:8000"))
	assert.Error(t, ValidateURL("http://"))
	assert.Error(t, ValidateURL("http://exa mple.com"))
	assert.Error(t, ValidateURL("file:///etc/passwd"))
}
