package config

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{name: "empty", secret: "", want: ""},
		{name: "short fully masked", secret: "12345678", want: maskedValue},
		{name: "long keeps edges", secret: "super_secret_password", want: "su<" + maskedValue + ">rd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskSecret(tt.secret); got != tt.want {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}

func TestMarshalJSONMasksPassword(t *testing.T) {
	cfg := validBaseConfig(ProviderGemini)
	cfg.PostgresPassword = "very_secret_password"

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	if strings.Contains(string(data), "very_secret_password") {
		t.Error("marshaled config leaks the postgres password")
	}
	if !strings.Contains(string(data), maskedValue) {
		t.Error("marshaled config missing the mask placeholder")
	}

	// Non-sensitive fields survive masking.
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if decoded["provider"] != ProviderGemini {
		t.Errorf("provider = %v", decoded["provider"])
	}
}
