package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestValidateServicesNothingRequired(t *testing.T) {
	sv := NewServiceValidator(nil)
	sv.Register(ServiceRedis, PingCheck(fakePinger{err: errors.New("down")}))
	assert.NoError(t, sv.ValidateServices(context.Background()))
}

func TestValidateServices(t *testing.T) {
	sv := NewServiceValidator([]string{" Redis ", "database"})
	sv.Register(ServiceRedis, PingCheck(fakePinger{}))
	sv.Register(ServiceDatabase, func(context.Context) error { return nil })
	require.NoError(t, sv.ValidateServices(context.Background()))
	assert.Equal(t, []string{"database", "redis"}, sv.Registered())
}

func TestValidateServicesFailures(t *testing.T) {
	sv := NewServiceValidator([]string{ServiceElasticsearch})
	err := sv.ValidateServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	boom := errors.New("connection refused")
	sv.Register(ServiceElasticsearch, PingCheck(fakePinger{err: boom}))
	err = sv.ValidateServices(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestValidateServicesAppliesTimeout(t *testing.T) {
	sv := NewServiceValidator([]string{ServiceS3})
	sv.timeout = 10 * time.Millisecond
	sv.Register(ServiceS3, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, sv.ValidateServices(context.Background()), context.DeadlineExceeded)
}

func TestHealthReport(t *testing.T) {
	sv := NewServiceValidator(nil)
	sv.Register(ServiceDatabase, PingCheck(fakePinger{}))
	sv.Register(ServiceRedis, PingCheck(fakePinger{err: errors.New("timeout")}))

	report, healthy := sv.HealthReport(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "timeout"}, report)
}
