//go:build unix

package osutil

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetProcessGroup(t *testing.T) {
	cmd := exec.Command("echo", "test")
	SetProcessGroup(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
}

func TestSetProcessGroupKill_KillsChildren(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the shell waits on a child sleep; both live in the same group
	cmd := exec.CommandContext(ctx, "sh", "-c", "sleep 30 & wait")
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)
	require.NoError(t, cmd.Start())

	time.Sleep(100 * time.Millisecond)
	start := time.Now()
	cancel()

	err := cmd.Wait()
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSetProcessGroupKill_ProcessAlreadyExited(t *testing.T) {
	// Cancel is only honoured by commands built with CommandContext
	cmd := exec.CommandContext(context.Background(), "true")
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)
	require.NoError(t, cmd.Run())

	assert.NoError(t, cmd.Cancel())
}
