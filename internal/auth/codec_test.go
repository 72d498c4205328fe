package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runtime-config/runtime-config/internal/config"
	"github.com/runtime-config/runtime-config/internal/db/dbtest"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

func testTokenConfig() config.Token {
	return config.Token{
		Secret:                    testSecret,
		Algorithm:                 "HS256",
		Issuer:                    "runtime-config",
		AccessTokenExpireMinutes:  15,
		RefreshTokenExpireMinutes: 60,
	}
}

func newTestCodec(t *testing.T, clock *dbtest.Clock) *Codec {
	t.Helper()

	codec, err := NewCodec(testTokenConfig(), WithCodecClock(clock.Now))
	require.NoError(t, err)

	return codec
}

func TestNewCodec(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Algorithm = "RS256"

	_, err := NewCodec(cfg)
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	cfg = testTokenConfig()
	cfg.Secret = ""

	_, err = NewCodec(cfg)
	require.ErrorIs(t, err, ErrEmptySecret)

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		cfg = testTokenConfig()
		cfg.Algorithm = alg

		_, err = NewCodec(cfg)
		require.NoError(t, err, alg)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	clock := dbtest.NewClock()
	codec := newTestCodec(t, clock)

	access, err := codec.EncodeAccess("alice")
	require.NoError(t, err)

	claims, err := codec.Decode(access)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.False(t, claims.IsRefresh())
	assert.NotEmpty(t, claims.ID)
	assert.True(t, clock.Now().Add(15*time.Minute).Equal(claims.ExpiresAt.Time))

	refresh, err := codec.EncodeRefresh("alice")
	require.NoError(t, err)

	claims, err = codec.Decode(refresh)
	require.NoError(t, err)
	assert.True(t, claims.IsRefresh())
	assert.True(t, clock.Now().Add(time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestCodecTokensAreUnique(t *testing.T) {
	codec := newTestCodec(t, dbtest.NewClock())

	first, err := codec.EncodeRefresh("alice")
	require.NoError(t, err)

	second, err := codec.EncodeRefresh("alice")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCodecRejects(t *testing.T) {
	clock := dbtest.NewClock()
	codec := newTestCodec(t, clock)

	valid, err := codec.EncodeAccess("alice")
	require.NoError(t, err)

	otherCfg := testTokenConfig()
	otherCfg.Secret = "another-secret-another-secret-another"
	other, err := NewCodec(otherCfg, WithCodecClock(clock.Now))
	require.NoError(t, err)

	foreign, err := other.EncodeAccess("alice")
	require.NoError(t, err)

	hs512Cfg := testTokenConfig()
	hs512Cfg.Algorithm = "HS512"
	hs512, err := NewCodec(hs512Cfg, WithCodecClock(clock.Now))
	require.NoError(t, err)

	wrongAlg, err := hs512.EncodeAccess("alice")
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
		Issuer:  "runtime-config",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "runtime-config",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	testCases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"wrong secret", foreign},
		{"wrong algorithm", wrongAlg},
		{"missing expiry", noExp},
		{"missing subject", noSubject},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodecExpiry(t *testing.T) {
	clock := dbtest.NewClock()
	codec := newTestCodec(t, clock)

	raw, err := codec.EncodeAccess("alice")
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)

	_, err = codec.Decode(raw)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
