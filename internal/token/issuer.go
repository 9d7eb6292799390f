// Package token builds the signed access credentials consumed by the
// media backend. Verification happens inside the backend; this side
// only constructs claims and keeps the signing secret out of reach.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingCredentials = errors.New("api key and secret are required")

// DefaultTTL bounds credential lifetime when the caller does not ask
// for a shorter one.
const DefaultTTL = 24 * time.Hour

// adminTTL bounds the short-lived tokens used for backend API calls.
const adminTTL = 10 * time.Minute

// VideoGrant scopes a credential to one room and a capability set.
type VideoGrant struct {
	Room                 string `json:"room,omitempty"`
	RoomJoin             bool   `json:"roomJoin,omitempty"`
	RoomCreate           bool   `json:"roomCreate,omitempty"`
	RoomList             bool   `json:"roomList,omitempty"`
	RoomAdmin            bool   `json:"roomAdmin,omitempty"`
	CanPublish           *bool  `json:"canPublish,omitempty"`
	CanSubscribe         *bool  `json:"canSubscribe,omitempty"`
	CanPublishData       *bool  `json:"canPublishData,omitempty"`
	CanUpdateOwnMetadata *bool  `json:"canUpdateOwnMetadata,omitempty"`
}

// Claims is the JWT claim set understood by the media backend.
type Claims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
}

// AccessGrant is the caller-facing capability set for a participant
// credential. Nil flags default to allowed.
type AccessGrant struct {
	CanPublish     *bool
	CanSubscribe   *bool
	CanPublishData *bool
	TTL            time.Duration
}

// Issuer signs time-bounded access credentials with a symmetric key
// shared with the media backend. The key is fixed at startup and
// read-only for the process lifetime.
type Issuer struct {
	apiKey     string
	apiSecret  []byte
	defaultTTL time.Duration
}

// NewIssuer creates an issuer. ttl of zero means DefaultTTL.
func NewIssuer(apiKey, apiSecret string, ttl time.Duration) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		apiKey:     apiKey,
		apiSecret:  []byte(apiSecret),
		defaultTTL: ttl,
	}, nil
}

// AccessToken builds a participant credential bound to the given
// room+participant pair. The credential expires no later than now plus
// the issuer TTL; a shorter grant TTL wins.
func (i *Issuer) AccessToken(roomID, participantID, participantName string, grant AccessGrant) (string, error) {
	ttl := i.defaultTTL
	if grant.TTL > 0 && grant.TTL < ttl {
		ttl = grant.TTL
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: participantName,
		Video: &VideoGrant{
			Room:                 roomID,
			RoomJoin:             true,
			CanPublish:           orTrue(grant.CanPublish),
			CanSubscribe:         orTrue(grant.CanSubscribe),
			CanPublishData:       orTrue(grant.CanPublishData),
			CanUpdateOwnMetadata: orTrue(nil),
		},
	}

	return i.sign(claims)
}

// AdminToken builds a short-lived credential for room management calls
// against the backend's API.
func (i *Issuer) AdminToken() (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   i.apiKey,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTTL)),
		},
		Video: &VideoGrant{
			RoomCreate: true,
			RoomList:   true,
			RoomAdmin:  true,
		},
	}

	return i.sign(claims)
}

func (i *Issuer) sign(claims *Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.apiSecret)
}

func orTrue(b *bool) *bool {
	if b != nil {
		return b
	}
	t := true
	return &t
}
