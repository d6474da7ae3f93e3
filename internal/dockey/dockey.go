// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package dockey derives the stable per-document identifier the
// coordinator uses to find (or create) a Broker, and the sharded cache
// directory path for a document URI. Grounded on
// DocumentBroker::sanitizeURI / DocumentBroker::getDocKey in the
// original loolwsd sources.
package dockey

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
)

// Sanitize validates and normalizes a client-supplied document URI.
// Relative and file:// URIs are path-cleaned; anything without a path
// component is rejected as a bad request.
func Sanitize(raw string) (*url.URL, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	u, err := url.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	if !u.IsAbs() || u.Scheme == "file" {
		u.Path = path.Clean(u.Path)
	}

	if u.Path == "" {
		return nil, fmt.Errorf("invalid URI: empty path")
	}

	return u, nil
}

// Key derives the document key from a sanitized URI: host+path,
// URL-encoded. Keeping the host in the key closes the security hole of
// two different hosts colliding on the same path.
func Key(u *url.URL) string {
	return url.QueryEscape(u.Host + u.Path)
}

// CachePath returns the sha1-sharded cache root for a document URL, the
// same 3-level sharding loolwsd uses to avoid enormous flat
// directories: <root>/<sha1[0:1]>/<sha1[1:2]>/<sha1[2:3]>/<sha1>.
func CachePath(root, docURL string) string {
	sum := sha1.Sum([]byte(docURL))
	hexSum := hex.EncodeToString(sum[:])
	return path.Join(root, hexSum[0:1], hexSum[1:2], hexSum[2:3], hexSum)
}
