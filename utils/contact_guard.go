package utils

import (
	"context"
	"time"

	"github.com/capitalpay/capitalpay-api/config"
)

// ContactCooldownTry enforces a short cooldown between public contact form
// submissions per IP. Returns false while a previous submission is still
// within the window. Fails open when Redis is unreachable so the form never
// hard-depends on the cache.
func ContactCooldownTry(ip string) bool {
	cfg := config.Get()
	sec := cfg.ContactCooldownSec
	if sec <= 0 || ip == "" {
		return true
	}
	cli := GetRedis()
	if cli == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := cli.SetNX(ctx, "contact:cooldown:"+ip, "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}
