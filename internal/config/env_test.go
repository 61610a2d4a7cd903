package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("APP_TIMEZONE", "Asia/Bangkok")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, env.StoreDriver)
	assert.Equal(t, PaymentSandbox, env.PaymentProvider)
	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, 24*time.Hour, env.JWTTTL)

	loc, err := env.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", loc.String())
}

func TestLoadEnvRejectsOmiseWithoutKeys(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER", "omise")
	t.Setenv("OMISE_PUBLIC_KEY", "")
	t.Setenv("OMISE_SECRET_KEY", "")

	_, err := LoadEnv()
	require.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	env := Env{CORSOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, env.AllowedOrigins())
}

func TestDSN(t *testing.T) {
	env := Env{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: 3307, DBName: "courts"}
	assert.Contains(t, env.DSN(), "u:p@tcp(db:3307)/courts?parseTime=true")
}
