package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestNATS represents a NATS server running in a test container
type TestNATS struct {
	Container testcontainers.Container
	URL       string
}

// SetupNATS starts a NATS container and registers its cleanup
func SetupNATS(t *testing.T) *TestNATS {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	// Generate unique labels for this test container
	labels := map[string]string{
		"test":      "speedbet-notifier",
		"test-name": t.Name(),
		"timestamp": time.Now().Format("20060102-150405"),
		"cleanup":   "auto",
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			Labels:       labels,
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	testNATS := &TestNATS{Container: container}

	// Use t.Cleanup for better test integration and guaranteed execution
	t.Cleanup(func() {
		testNATS.robustCleanup(t)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222/tcp")
	require.NoError(t, err)

	testNATS.URL = fmt.Sprintf("nats://%s:%s", host, port.Port())
	return testNATS
}

// robustCleanup terminates the container with panic recovery
func (tn *TestNATS) robustCleanup(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Logf("Panic during container cleanup (recovered): %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if tn.Container != nil {
		if err := tn.Container.Terminate(ctx); err != nil {
			// Don't fail the test on cleanup errors
			t.Logf("Warning: Failed to terminate test container: %v", err)
		} else {
			t.Logf("Successfully cleaned up test container")
		}
	}
}
