/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter_test

import (
	"bytes"
	"github.com/codeallergy/winter"
	"github.com/stretchr/testify/require"
	"log"
	"testing"
)

func TestVerbose(t *testing.T) {

	var buf bytes.Buffer
	prev := winter.Verbose(log.New(&buf, "", 0))
	defer winter.Verbose(prev)

	f := newFactory(t, NewBeanA, NewBeanB)
	define(t, f, "BeanB", &BeanB{}, "BeanA")
	define(t, f, "BeanA", &BeanA{})
	require.NoError(t, f.InitializeAll())
	require.NoError(t, f.Close())

	out := buf.String()
	require.Contains(t, out, "Defer bean 'BeanB' on pass 1, waiting for [BeanA]")
	require.Contains(t, out, "Construct Bean 'BeanA'")
	require.Contains(t, out, "Destroy bean 'BeanB'")

	require.NotNil(t, winter.Verbose(nil))
}
