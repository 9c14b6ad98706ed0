package di

import (
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-catalog-client/internal/catalog"
	"product-catalog-client/internal/di/providers"
)

func setTestEnv(t *testing.T, env map[string]string) {
	t.Helper()
	base := map[string]string{
		"APP_ENV":                  "development",
		"LOG_LEVEL":                "error",
		"STORE_DRIVER":             "memory",
		"HTTP_SERVER_PORT":         "0",
		"GRPC_SERVER_PORT":         "0",
		"CATALOG_REFRESH_ON_START": "false",
		"CATALOG_AUTO_REFRESH":     "",
	}
	for k, v := range env {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}
}

func TestBootstrap_WiresServices(t *testing.T) {
	setTestEnv(t, nil)

	injector := NewContainer()
	require.NoError(t, Bootstrap(injector))
	t.Cleanup(func() { injector.Shutdown() })

	storeHandle := do.MustInvoke[*providers.StoreHandle](injector)
	assert.False(t, storeHandle.Degraded)

	coordinator := do.MustInvoke[*providers.CoordinatorHandle](injector)
	assert.Equal(t, catalog.StatusIdle, coordinator.Snapshot().Status)

	scheduler := do.MustInvoke[*providers.SchedulerHandle](injector)
	assert.False(t, scheduler.Enabled())

	server := do.MustInvoke[*providers.HTTPServerHandle](injector)
	port := server.ListenAddr().(*net.TCPAddr).Port
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/healthz", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	grpcServer := do.MustInvoke[*providers.GRPCServerHandle](injector)
	assert.NotNil(t, grpcServer.ListenAddr())
}

func TestBootstrap_StoreInitFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "catalog.db")

	t.Run("degrade falls back to memory", func(t *testing.T) {
		setTestEnv(t, map[string]string{
			"STORE_DRIVER":          "sqlite",
			"STORE_PATH":            missing,
			"STORE_ON_INIT_FAILURE": "degrade",
		})

		injector := NewContainer()
		require.NoError(t, Bootstrap(injector))
		t.Cleanup(func() { injector.Shutdown() })

		storeHandle := do.MustInvoke[*providers.StoreHandle](injector)
		assert.True(t, storeHandle.Degraded)

		records, err := storeHandle.ListAll(t.Context())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("fail aborts startup", func(t *testing.T) {
		setTestEnv(t, map[string]string{
			"STORE_DRIVER":          "sqlite",
			"STORE_PATH":            missing,
			"STORE_ON_INIT_FAILURE": "fail",
		})

		injector := NewContainer()
		t.Cleanup(func() { injector.Shutdown() })

		assert.Error(t, Bootstrap(injector))
	})
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	setTestEnv(t, map[string]string{"CATALOG_BASE_URL": "not-a-url"})

	injector := NewContainer()
	t.Cleanup(func() { injector.Shutdown() })

	assert.Error(t, Bootstrap(injector))
}
