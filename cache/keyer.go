package cache

import (
	"crypto/md5" // #nosec G501 -- content fingerprint, not a security boundary.
	"encoding/hex"
)

// KeySeparator joins the document and query digests. It is outside the hex
// alphabet, so the two halves can always be told apart.
const KeySeparator = "_"

// Keyer derives cache keys from a document and a query.
//
// Contract:
// - Determinism: identical inputs always produce identical keys.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(document []byte, query string) string
}

// MD5Keyer derives keys of the form hex(md5(document)) + "_" + hex(md5(query)),
// optionally behind a namespace prefix.
type MD5Keyer struct {
	prefix string
}

// KeyerOption configures an MD5Keyer.
type KeyerOption func(*MD5Keyer)

// WithPrefix namespaces every key as prefix + ":" + key.
func WithPrefix(prefix string) KeyerOption {
	return func(k *MD5Keyer) {
		k.prefix = prefix
	}
}

// NewMD5Keyer creates a keyer. Without options, keys carry no prefix.
func NewMD5Keyer(opts ...KeyerOption) *MD5Keyer {
	k := &MD5Keyer{}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Key hashes the document and query independently. Empty inputs are valid.
func (k *MD5Keyer) Key(document []byte, query string) string {
	docSum := md5.Sum(document)
	querySum := md5.Sum([]byte(query))

	key := hex.EncodeToString(docSum[:]) + KeySeparator + hex.EncodeToString(querySum[:])
	if k.prefix != "" {
		return k.prefix + ":" + key
	}
	return key
}

var _ Keyer = (*MD5Keyer)(nil)
