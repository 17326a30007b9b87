// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package request

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stqism/ludpnet/identity"
)

func TestCreateHandleRoundTrip(t *testing.T) {
	sender, err := identity.Generate()
	require.NoError(t, err)
	recipient, err := identity.Generate()
	require.NoError(t, err)

	buf, err := Create(7, recipient.Public, sender.Public, sender.Secret, []byte("ping"))
	require.NoError(t, err)

	gotSender, body, err := Handle(buf, recipient.Public, recipient.Secret)
	require.NoError(t, err)
	require.Equal(t, sender.Public, gotSender)
	require.Equal(t, []byte("ping"), body)
}

func TestHandleRejectsWrongDestination(t *testing.T) {
	sender, err := identity.Generate()
	require.NoError(t, err)
	recipient, err := identity.Generate()
	require.NoError(t, err)
	other, err := identity.Generate()
	require.NoError(t, err)

	buf, err := Create(1, recipient.Public, sender.Public, sender.Secret, []byte("ping"))
	require.NoError(t, err)

	_, _, err = Handle(buf, other.Public, other.Secret)
	require.ErrorIs(t, err, ErrWrongDestination)
}

func TestHandleRejectsCorruptedCiphertext(t *testing.T) {
	sender, err := identity.Generate()
	require.NoError(t, err)
	recipient, err := identity.Generate()
	require.NoError(t, err)

	buf, err := Create(1, recipient.Public, sender.Public, sender.Secret, []byte("ping"))
	require.NoError(t, err)
	buf[len(buf)-1] ^= 0xff

	_, _, err = Handle(buf, recipient.Public, recipient.Secret)
	require.ErrorIs(t, err, ErrDecryptFailed)
}
