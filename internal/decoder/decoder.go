// Package decoder reverses the obfuscation Tarkov Market applies to its API
// payloads. The scheme is a reverse-engineered protocol detail: the service
// splices a 5-character noise block into an otherwise valid base64 string at
// index 5. Nothing outside this package should assume anything about the
// encoding beyond "produces JSON text or fails".
package decoder

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/dmitrijs2005/tarkovsync/internal/common"
)

// noise block occupies input indexes 5 through 9 inclusive.
const (
	noiseStart = 5
	noiseEnd   = 10
)

// Decode recovers the plaintext JSON document from an obfuscated payload:
// the noise block is removed, the remainder is base64-decoded, interpreted
// as UTF-8 and percent-decoded.
//
// Any failure at any stage returns an error wrapping common.ErrDecode;
// callers treat that as "no data available from this response".
func Decode(encoded string) (string, error) {
	if len(encoded) < noiseEnd {
		return "", fmt.Errorf("%w: payload too short (%d chars)", common.ErrDecode, len(encoded))
	}

	processed := encoded[:noiseStart] + encoded[noiseEnd:]

	raw, err := base64.StdEncoding.DecodeString(processed)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", common.ErrDecode, err)
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: decoded bytes are not valid UTF-8", common.ErrDecode)
	}

	// PathUnescape rather than QueryUnescape: '+' inside the payload is a
	// literal plus sign, not an encoded space.
	jsonStr, err := url.PathUnescape(string(raw))
	if err != nil {
		return "", fmt.Errorf("%w: percent-decoding: %v", common.ErrDecode, err)
	}

	return jsonStr, nil
}
