package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrLeaseHeld                    = errors.New("lease is held by another owner")
	ErrLeaseLost                    = errors.New("lease expired or was taken over")
)
