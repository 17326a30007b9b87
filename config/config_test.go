// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := Default()
	require.Equal(t, 16, c.Q)
	require.Equal(t, 1024, c.MaxDataSize)
	require.Equal(t, 10, c.MaxSyncRate)
	require.Equal(t, 2, c.SyncRate)
	require.Equal(t, 30, c.DataSyncRate)
	require.Equal(t, 5*time.Second, c.MinTimeout)
	require.Equal(t, 10*time.Second, c.MaxTimeout)
	require.Equal(t, 64, c.IncomingQueueSize)
	require.Equal(t, 256, c.SessionSlots)
}

func TestDefaultPreservesExplicitValues(t *testing.T) {
	c := Config{Q: 32}
	setDefaults(&c)
	require.Equal(t, 32, c.Q)
	require.Equal(t, 10, c.MaxSyncRate)
}
