package model

import (
	"errors"
	"testing"
)

func TestEncodeDecodeOAuthToken(t *testing.T) {
	tests := []struct {
		name  string
		token OAuthToken
	}{
		{"host token", OAuthToken{AccessToken: "access", RefreshToken: "refresh"}},
		{"guest token without refresh", OAuthToken{AccessToken: "access"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeOAuthToken(tt.token)
			if err != nil {
				t.Fatalf("EncodeOAuthToken() error = %v", err)
			}

			decoded, err := DecodeOAuthToken([]byte(encoded))
			if err != nil {
				t.Fatalf("DecodeOAuthToken() error = %v", err)
			}
			if decoded != tt.token {
				t.Errorf("round trip = %+v, want %+v", decoded, tt.token)
			}
		})
	}
}

func TestEncodeOmitsEmptyRefreshToken(t *testing.T) {
	encoded, err := EncodeOAuthToken(OAuthToken{AccessToken: "a"})
	if err != nil {
		t.Fatalf("EncodeOAuthToken() error = %v", err)
	}
	if want := `{"accessToken":"a"}`; encoded != want {
		t.Errorf("encoded = %s, want %s", encoded, want)
	}
}

func TestDecodeOAuthTokenRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not JSON", "}{"},
		{"JSON null", "null"},
		{"JSON string", `"a-token"`},
		{"JSON array", `["a"]`},
		{"empty object", "{}"},
		{"refresh token only", `{"refreshToken":"r"}`},
		{"empty access token", `{"accessToken":""}`},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOAuthToken([]byte(tt.data))
			if !errors.Is(err, ErrMalformedToken) {
				t.Errorf("DecodeOAuthToken(%q) error = %v, want ErrMalformedToken", tt.data, err)
			}
		})
	}
}
