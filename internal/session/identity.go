// Package session produces the player identity passed to the game.
//
// Only offline identities are derived locally; online identities are
// supplied by the caller as plain values.
package session

import (
	"crypto/md5"
	"errors"
	"strings"

	"github.com/google/uuid"

	ioutils "github.com/handiism/mixlauncher/internal/io"
)

// NoAccessToken is passed to the game when the identity has no token.
const NoAccessToken = "0"

// Kind tells how an identity was obtained.
type Kind string

const (
	KindOffline Kind = "offline"
	KindOnline  Kind = "online"
)

// ErrNoIdentity is returned when launching without a valid identity.
var ErrNoIdentity = errors.New("no player identity")

// Identity is an opaque player identity.
type Identity struct {
	Username    string
	UUID        string
	AccessToken string
	Kind        Kind

	// AgentFlags are extra JVM flags, such as an authentication agent.
	AgentFlags []string
}

// Offline derives the identity the game itself assigns to an offline
// player: a name-based UUID over "OfflinePlayer:<name>".
func Offline(username string) Identity {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	// uuid.FromBytes only fails on wrong lengths; md5 is always 16 bytes.
	id, _ := uuid.FromBytes(sum[:])
	return Identity{
		Username: username,
		UUID:     id.String(),
		Kind:     KindOffline,
	}
}

// Online wraps credentials obtained from an authentication server.
func Online(username, id, accessToken string) Identity {
	return Identity{
		Username:    username,
		UUID:        id,
		AccessToken: accessToken,
		Kind:        KindOnline,
	}
}

// Validate checks that the identity can be used for launching.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.Username) == "" || i.UUID == "" {
		return ErrNoIdentity
	}
	return nil
}

// Token returns the access token, or NoAccessToken when empty.
func (i Identity) Token() string {
	if i.AccessToken == "" {
		return NoAccessToken
	}
	return i.AccessToken
}

// WithAuthlibInjector adds the authlib-injector agent flag when the agent
// jar exists on disk.
func (i Identity) WithAuthlibInjector(jarPath, server string) Identity {
	if jarPath == "" || !ioutils.FileExists(jarPath) {
		return i
	}
	flags := append([]string(nil), i.AgentFlags...)
	i.AgentFlags = append(flags, "-javaagent:"+jarPath+"="+server)
	return i
}
