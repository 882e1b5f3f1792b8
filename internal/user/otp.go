package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidOTP = errors.New("invalid or expired verification code")

// OTPTTL matches the expiry promised in the verification email.
const OTPTTL = 5 * time.Minute

// OTPStore keeps one-time signup codes in redis so they expire on their
// own and survive process restarts.
type OTPStore struct {
	rdb *redis.Client
}

func NewOTPStore(rdb *redis.Client) *OTPStore {
	return &OTPStore{rdb: rdb}
}

func otpKey(userID int) string {
	return "otp:signup:" + strconv.Itoa(userID)
}

// Issue generates a fresh 6-digit code, replacing any outstanding one.
func (s *OTPStore) Issue(ctx context.Context, userID int) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.rdb.Set(ctx, otpKey(userID), code, OTPTTL).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the code and burns it on success.
func (s *OTPStore) Verify(ctx context.Context, userID int, code string) error {
	stored, err := s.rdb.Get(ctx, otpKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrInvalidOTP
	}
	return s.rdb.Del(ctx, otpKey(userID)).Err()
}
