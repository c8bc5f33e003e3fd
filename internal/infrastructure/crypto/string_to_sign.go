package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
)

// AsymmetricStringToSign builds the payload of an access token request
// signature: "<clientKey>|<timestamp>".
func AsymmetricStringToSign(clientKey, timestamp string) []byte {
	return []byte(clientKey + "|" + timestamp)
}

// SymmetricStringToSign builds the payload of a transactional request signature:
//
//	<METHOD>:<path>:<accessToken>:<lowerhex(sha256(minified body))>:<timestamp>
//
// An empty body hashes as the empty string. A non-empty body must be JSON.
func SymmetricStringToSign(method, path, accessToken string, body []byte, timestamp string) ([]byte, error) {
	minified, err := MinifyBody(body)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(minified)

	var b strings.Builder
	b.Grow(len(method) + len(path) + len(accessToken) + len(timestamp) + sha256.Size*2 + 4)
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(':')
	b.WriteString(path)
	b.WriteByte(':')
	b.WriteString(accessToken)
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(digest[:]))
	b.WriteByte(':')
	b.WriteString(timestamp)
	return []byte(b.String()), nil
}

// MinifyBody strips insignificant whitespace from a JSON body.
func MinifyBody(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, ErrMalformedRequestBody
	}
	return buf.Bytes(), nil
}

// CheckTimestamp parses an X-TIMESTAMP value (ISO-8601 with offset) and, when
// skew is positive, rejects values further than skew from now.
func CheckTimestamp(timestamp string, now time.Time, skew time.Duration) (time.Time, *errors.ResponseError) {
	if timestamp == "" {
		return time.Time{}, errors.InvalidMandatoryField(constants.HeaderTimestamp)
	}
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return time.Time{}, errors.InvalidFieldFormat(constants.HeaderTimestamp).WithCause(err)
	}
	if skew > 0 {
		diff := now.Sub(ts)
		if diff < 0 {
			diff = -diff
		}
		if diff > skew {
			return time.Time{}, errors.InvalidFieldFormat(constants.HeaderTimestamp).
				WithMetadata("skew", diff.String())
		}
	}
	return ts, nil
}
