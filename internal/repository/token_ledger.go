package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

const tokenTTL = 24 * time.Hour

// TokenLedger records spent payment tokens in Redis. Tokens are stored
// hashed so the ledger never holds a usable token.
type TokenLedger struct {
	client redis.Cmdable
}

func NewTokenLedger(client redis.Cmdable) *TokenLedger {
	return &TokenLedger{client: client}
}

func (l *TokenLedger) Claim(ctx context.Context, token models.Token) (bool, error) {
	return l.client.SetNX(ctx, tokenKey(token), "1", tokenTTL).Result()
}

func tokenKey(token models.Token) string {
	sum := sha256.Sum256([]byte(token))
	return "payment:token:" + hex.EncodeToString(sum[:])
}
