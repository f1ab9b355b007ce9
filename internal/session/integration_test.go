package session

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Amerone/dabase-tool/internal/core"
)

// setupDM8 starts the image named by DM8_TEST_IMAGE. The image must accept
// SYSDBA logins with the password in DM8_TEST_PASSWORD.
func setupDM8(t *testing.T) ConnectionConfig {
	t.Helper()
	ctx := context.Background()

	image := os.Getenv("DM8_TEST_IMAGE")
	password := os.Getenv("DM8_TEST_PASSWORD")
	if password == "" {
		password = "SYSDBA_abc123"
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5236/tcp"},
			Env: map[string]string{
				"SYSDBA_PWD":      password,
				"LD_LIBRARY_PATH": "/opt/dmdbms/bin",
			},
			WaitingFor: wait.ForListeningPort("5236/tcp").WithStartupTimeout(3 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start DM8 container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5236/tcp")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return ConnectionConfig{Host: host, Port: p, Username: "SYSDBA", Password: password, Schema: "SYSDBA"}
}

func TestOpenIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("DM8_TEST_IMAGE") == "" {
		t.Skip("DM8_TEST_IMAGE not set")
	}

	cfg := setupDM8(t)
	ctx := context.Background()

	t.Run("health query", func(t *testing.T) {
		require.NoError(t, Test(ctx, cfg))
	})

	t.Run("select returns text", func(t *testing.T) {
		s, err := Open(ctx, cfg)
		require.NoError(t, err)
		defer func() { assert.NoError(t, s.Close()) }()

		rows, err := QueryAll(ctx, s, "SELECT 1, NULL FROM DUAL")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		v, ok := Cell(rows[0], 0)
		assert.True(t, ok)
		assert.Equal(t, "1", v)
		_, ok = Cell(rows[0], 1)
		assert.False(t, ok)
	})

	t.Run("wrong password", func(t *testing.T) {
		bad := cfg
		bad.Password = "not-the-password"
		_, err := Open(ctx, bad)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConnectivity)
		assert.NotContains(t, err.Error(), bad.Password)
	})
}
