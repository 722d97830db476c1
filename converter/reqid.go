// Copyright 2025 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"context"
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

type ctxKeyReqID struct{}

// ContextWithRequestID returns ctx with a fresh request id, unless it
// already has one.
func ContextWithRequestID(ctx context.Context) context.Context {
	if GetRequestID(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyReqID{}, NewULID().String())
}

// GetRequestID returns the request id of the context, or empty.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyReqID{}).(string)
	return v
}

func NewULID() ulid.ULID {
	return ulid.MustNew(ulid.Now(), rand.Reader)
}
