package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hackup/backend/internal/logger"
	"go.uber.org/zap"
)

// Service names accepted in REQUIRED_SERVICES
const (
	ServiceDatabase      = "database"
	ServiceRedis         = "redis"
	ServiceElasticsearch = "elasticsearch"
	ServiceS3            = "s3"
)

const defaultCheckTimeout = 10 * time.Second

// Check probes one backing service
type Check func(ctx context.Context) error

// Pinger is implemented by the redis, elasticsearch and database clients
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger to a Check
func PingCheck(p Pinger) Check {
	return p.Ping
}

// ServiceValidator verifies required services at startup. A required
// service with no registered check counts as a failure: it was asked for
// but never configured.
type ServiceValidator struct {
	required []string
	checks   map[string]Check
	timeout  time.Duration
}

// NewServiceValidator creates a validator for the named services
func NewServiceValidator(required []string) *ServiceValidator {
	names := make([]string, 0, len(required))
	for _, name := range required {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			names = append(names, name)
		}
	}
	return &ServiceValidator{
		required: names,
		checks:   make(map[string]Check),
		timeout:  defaultCheckTimeout,
	}
}

// Register adds the check for a configured service
func (sv *ServiceValidator) Register(name string, check Check) {
	if check == nil {
		return
	}
	sv.checks[strings.ToLower(name)] = check
}

// Registered lists the services with a check, sorted
func (sv *ServiceValidator) Registered() []string {
	out := make([]string, 0, len(sv.checks))
	for name := range sv.checks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidateServices runs the check of every required service and returns
// the first failure
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.required) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("🔍 Validating required services", zap.Strings("services", sv.required))

	for _, name := range sv.required {
		check, ok := sv.checks[name]
		if !ok {
			logger.Log.Error("Required service is not configured", zap.String("service", name))
			return fmt.Errorf("required service %q is not configured", name)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("❌ Required service validation failed", zap.String("service", name), zap.Error(err))
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}

		logger.Log.Info("✅ Service validated successfully", zap.String("service", name))
	}

	logger.Log.Info("✅ All required services validated successfully")
	return nil
}

// HealthReport runs every registered check and reports "ok" or the error
// text per service. Used by the /health endpoint.
func (sv *ServiceValidator) HealthReport(ctx context.Context) (map[string]string, bool) {
	report := make(map[string]string, len(sv.checks))
	healthy := true
	for name, check := range sv.checks {
		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			report[name] = err.Error()
			healthy = false
			continue
		}
		report[name] = "ok"
	}
	return report, healthy
}
