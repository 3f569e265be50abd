package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOffline_DerivesStableUUID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		// raw md5("OfflinePlayer:Notch"), version bits untouched
		{"Notch", "b50ad385-829d-a141-a216-7e7d7539ba7f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Offline(tt.name)
			if id.UUID != tt.want {
				t.Errorf("Offline(%q).UUID = %q, want %q", tt.name, id.UUID, tt.want)
			}
			if id.Kind != KindOffline {
				t.Errorf("Kind = %q, want offline", id.Kind)
			}
			if Offline(tt.name).UUID != id.UUID {
				t.Error("Offline() is not deterministic")
			}
		})
	}

	if Offline("Steve").UUID == Offline("Alex").UUID {
		t.Error("different names must yield different UUIDs")
	}
}

func TestIdentity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		id      Identity
		wantErr bool
	}{
		{"offline", Offline("Steve"), false},
		{"online", Online("Steve", "uuid", "token"), false},
		{"empty", Identity{}, true},
		{"blank name", Identity{Username: "  ", UUID: "x"}, true},
		{"no uuid", Identity{Username: "Steve"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNoIdentity) {
				t.Errorf("Validate() error = %v, want ErrNoIdentity", err)
			}
		})
	}
}

func TestIdentity_Token(t *testing.T) {
	if got := Offline("Steve").Token(); got != NoAccessToken {
		t.Errorf("Token() = %q, want %q", got, NoAccessToken)
	}
	if got := Online("Steve", "u", "abc").Token(); got != "abc" {
		t.Errorf("Token() = %q, want %q", got, "abc")
	}
}

func TestIdentity_WithAuthlibInjector(t *testing.T) {
	jar := filepath.Join(t.TempDir(), "authlib-injector.jar")

	id := Offline("Steve").WithAuthlibInjector(jar, "https://authserver.ely.by")
	if len(id.AgentFlags) != 0 {
		t.Errorf("missing jar should add no flags, got %v", id.AgentFlags)
	}

	if err := os.WriteFile(jar, []byte("jar"), 0644); err != nil {
		t.Fatal(err)
	}
	id = Offline("Steve").WithAuthlibInjector(jar, "https://authserver.ely.by")
	want := "-javaagent:" + jar + "=https://authserver.ely.by"
	if len(id.AgentFlags) != 1 || id.AgentFlags[0] != want {
		t.Errorf("AgentFlags = %v, want [%s]", id.AgentFlags, want)
	}
}
