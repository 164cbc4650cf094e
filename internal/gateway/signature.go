package gateway

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// WayForPay signs every message as an HMAC-MD5 over the semantic fields
// joined with ";", hex encoded. The field order is part of the contract:
// reordering or changing the delimiter produces a different digest.
func Sign(secret string, fields ...string) string {
	mac := hmac.New(md5.New, []byte(secret))
	mac.Write([]byte(strings.Join(fields, ";")))
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(secret, signature string, fields ...string) bool {
	expected := Sign(secret, fields...)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// invoiceSignature covers the fields of a CREATE_INVOICE request. Amount and
// price must already be formatted exactly as transmitted.
func invoiceSignature(secret, merchantAccount, merchantDomain, orderReference string, orderDate int64, amount, currency, productName, productCount, productPrice string) string {
	return Sign(secret,
		merchantAccount,
		merchantDomain,
		orderReference,
		strconv.FormatInt(orderDate, 10),
		amount,
		currency,
		productName,
		productCount,
		productPrice,
	)
}

// ackSignature covers the acknowledgement returned for a service callback.
func ackSignature(secret, orderReference, status string, ts int64) string {
	return Sign(secret, orderReference, status, strconv.FormatInt(ts, 10))
}
