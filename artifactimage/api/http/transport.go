// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/absmach/supermq"
	"github.com/absmach/supermq/pkg/errors"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

const contentType = "application/json"

var (
	errUnsupportedContentType = errors.New("unsupported content type")
	errMalformedEntity        = errors.New("malformed entity specification")
)

// MakeHandler returns a HTTP handler for API endpoints.
func MakeHandler(svc artifactimage.Service, r chi.Router, svcName, instanceID string) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(encodeError),
	}

	r.Post("/images", kithttp.NewServer(
		acquireEndpoint(svc),
		decodeAcquire,
		encodeResponse,
		opts...,
	).ServeHTTP)

	r.Get("/health", supermq.Health(svcName, instanceID))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func decodeAcquire(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), contentType) {
		return nil, errUnsupportedContentType
	}

	var req acquireReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(errMalformedEntity, err)
	}

	return req, nil
}

func encodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", contentType)

	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}

		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentType)

	switch {
	case errors.Contains(err, errMalformedEntity),
		errors.Contains(err, artifactimage.ErrMalformedDescriptor),
		err == io.ErrUnexpectedEOF, err == io.EOF:
		w.WriteHeader(http.StatusBadRequest)
	case errors.Contains(err, errUnsupportedContentType):
		w.WriteHeader(http.StatusUnsupportedMediaType)
	case errors.Contains(err, artifactimage.ErrAuthorizationDenied):
		w.WriteHeader(http.StatusForbidden)
	case errors.Contains(err, artifactimage.ErrDownloadFailed):
		w.WriteHeader(http.StatusBadGateway)
	case errors.Contains(err, artifactimage.ErrMalformedArchive):
		w.WriteHeader(http.StatusUnprocessableEntity)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(errorRes{Err: err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type errorRes struct {
	Err string `json:"error"`
}
