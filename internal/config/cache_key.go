package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RevokedTokenKey returns the key marking a token ID as revoked (set on logout).
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// LoginAttemptsKey returns the fixed-window counter key for login attempts from an IP.
func (r *CacheKeyStruct) LoginAttemptsKey(ip string, window int64) string {
	return fmt.Sprintf("ratelimit:login:%s:%d", ip, window)
}

var CacheKey = NewCacheKeyStruct()
