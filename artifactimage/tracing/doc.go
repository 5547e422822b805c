// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package tracing provides tracing instrumentation for the artifact image
// service.
package tracing
