package user

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPVerify_Success(t *testing.T) {
	rdb, mockRedis := redismock.NewClientMock()
	store := NewOTPStore(rdb)

	mockRedis.ExpectGet("otp:signup:10").SetVal("123456")
	mockRedis.ExpectDel("otp:signup:10").SetVal(1)

	err := store.Verify(context.Background(), 10, "123456")
	require.NoError(t, err)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestOTPVerify_WrongCode(t *testing.T) {
	rdb, mockRedis := redismock.NewClientMock()
	store := NewOTPStore(rdb)

	mockRedis.ExpectGet("otp:signup:10").SetVal("123456")

	err := store.Verify(context.Background(), 10, "654321")
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPVerify_Expired(t *testing.T) {
	rdb, mockRedis := redismock.NewClientMock()
	store := NewOTPStore(rdb)

	mockRedis.ExpectGet("otp:signup:10").RedisNil()

	err := store.Verify(context.Background(), 10, "123456")
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPIssue_StoresSixDigitCode(t *testing.T) {
	rdb, mockRedis := redismock.NewClientMock()
	store := NewOTPStore(rdb)

	mockRedis.Regexp().ExpectSet("otp:signup:10", `^\d{6}$`, OTPTTL).SetVal("OK")

	code, err := store.Issue(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}
