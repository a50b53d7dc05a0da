package handlers

import (
	"context"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/serroba/namecdn/internal/cdn"
	"github.com/zeebo/blake3"
)

const (
	notFoundPage = "Not Found"
	failurePage  = "Hmm something went wrong"
)

// Resolver resolves public names.
type Resolver interface {
	Resolve(ctx context.Context, req cdn.Request) cdn.Resolution
}

// ResolveHandler serves public fetches.
type ResolveHandler struct {
	resolver Resolver
	homeURL  string
}

// NewResolveHandler creates a handler redirecting / to homeURL.
func NewResolveHandler(resolver Resolver, homeURL string) *ResolveHandler {
	return &ResolveHandler{resolver: resolver, homeURL: homeURL}
}

func (h *ResolveHandler) Root(_ context.Context, _ *struct{}) (*RootResponse, error) {
	return &RootResponse{Status: http.StatusFound, Location: h.homeURL}, nil
}

func (h *ResolveHandler) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	meta := RequestMetaFromContext(ctx)

	res := h.resolver.Resolve(ctx, cdn.Request{
		Name:      req.Name,
		UserAgent: req.UserAgent,
		ClientIP:  meta.ClientIP,
		Referrer:  meta.Referrer,
		Raw:       req.Image == "1",
		Preview:   req.Discord == "1",
	})

	switch res.Outcome {
	case cdn.OutcomeNotFound:
		return htmlPage(http.StatusNotFound, notFoundPage), nil
	case cdn.OutcomeRedirect:
		return &ResolveResponse{Status: http.StatusFound, Location: res.Location}, nil
	case cdn.OutcomePreview:
		return &ResolveResponse{Status: http.StatusOK, ContentType: res.ContentType, Body: res.Body}, nil
	case cdn.OutcomeServed:
		etag := ETag(res.Body)
		if matchesETag(req.IfNoneMatch, etag) {
			return &ResolveResponse{Status: http.StatusNotModified, ETag: etag}, nil
		}

		return &ResolveResponse{
			Status:      http.StatusOK,
			ContentType: res.ContentType,
			ETag:        etag,
			Body:        res.Body,
		}, nil
	default:
		return htmlPage(http.StatusInternalServerError, failurePage), nil
	}
}

func htmlPage(status int, body string) *ResolveResponse {
	return &ResolveResponse{Status: status, ContentType: "text/html", Body: []byte(body)}
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	sum := blake3.Sum256(data)

	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func matchesETag(header, etag string) bool {
	if header == "" {
		return false
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}

	return false
}
