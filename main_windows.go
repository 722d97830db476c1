//go:build windows

// Copyright 2025 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import "net"

func getListeners() []net.Listener { return nil }
