package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tapearn/internal/domain"
)

var (
	ErrInvalidInitData = domain.NewError(domain.CodeUnauthorized, "invalid init data")
	ErrExpiredInitData = domain.NewError(domain.CodeUnauthorized, "init data expired")
)

// maxClockSkew tolerates an auth_date slightly in the future.
const maxClockSkew = 5 * time.Minute

// InitData is the verified content of a WebApp launch.
type InitData struct {
	User       WebAppUser
	StartParam string
	AuthDate   time.Time
}

// ValidateInitData verifies the WebApp init_data signature and freshness:
// secret = HMAC_SHA256("WebAppData", bot_token), hash = HMAC_SHA256(secret,
// data_check_string) where data_check_string is the sorted key=value lines
// without the hash field.
func ValidateInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	provided, err := hex.DecodeString(values.Get("hash"))
	if err != nil || len(provided) == 0 {
		return nil, ErrInvalidInitData
	}
	values.Del("hash")

	if !hmac.Equal(Sign(values, botToken), provided) {
		return nil, ErrInvalidInitData
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	issued := time.Unix(authDate, 0)
	if now.Sub(issued) > maxAge || issued.Sub(now) > maxClockSkew {
		return nil, ErrExpiredInitData
	}

	user, err := parseUser(values.Get("user"))
	if err != nil || user.ID <= 0 {
		return nil, ErrInvalidInitData
	}

	return &InitData{
		User:       *user,
		StartParam: values.Get("start_param"),
		AuthDate:   issued,
	}, nil
}

// Sign computes the init_data hash of values (which must not contain "hash").
func Sign(values url.Values, botToken string) []byte {
	lines := make([]string, 0, len(values))
	for k, v := range values {
		lines = append(lines, k+"="+strings.Join(v, ""))
	}
	sort.Strings(lines)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(lines, "\n")))
	return h.Sum(nil)
}
