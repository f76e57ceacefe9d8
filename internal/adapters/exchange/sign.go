package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"time"
)

const recvWindowMillis = 5000

// sign adds timestamp and recvWindow, then returns the encoded query with
// the HMAC-SHA256 signature appended last, per Binance's SIGNED endpoint
// contract (the signature covers everything before it).
func (c *Client) sign(params url.Values) (string, error) {
	if c.apiSecret == "" {
		return "", errors.New("exchange: signed request without API secret")
	}

	signed := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			signed.Add(k, v)
		}
	}
	signed.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	signed.Set("recvWindow", strconv.Itoa(recvWindowMillis))

	payload := signed.Encode()
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(payload))
	return payload + "&signature=" + hex.EncodeToString(mac.Sum(nil)), nil
}
