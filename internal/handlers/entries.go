package handlers

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/namecdn/internal/analytics"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/entry"
	"go.uber.org/zap"
)

// Commands is the management command surface.
type Commands interface {
	CreateFile(ctx context.Context, name string, data []byte, ext string) (*entry.Entry, error)
	CreateURL(ctx context.Context, name, url string) (*entry.Entry, error)
	Inspect(ctx context.Context, name string) (*entry.Entry, error)
	Remove(ctx context.Context, name string) error
}

// EntryHandler serves the management API.
type EntryHandler struct {
	commands Commands
	logger   *zap.Logger
}

// NewEntryHandler creates a new management handler.
func NewEntryHandler(commands Commands, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{commands: commands, logger: logger}
}

func (h *EntryHandler) fail(ctx context.Context, op, name string, err error) error {
	apiErr := commandError(err)

	if status, ok := apiErr.(huma.StatusError); ok && status.GetStatus() >= 500 {
		h.logger.Error("management command failed",
			zap.String("op", op),
			zap.String("name", name),
			zap.String("request_id", RequestMetaFromContext(ctx).RequestID),
			zap.Error(err),
		)
	}

	return apiErr
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}

	return values[0], true
}

func (h *EntryHandler) CreateFile(ctx context.Context, req *CreateFileRequest) (*struct{}, error) {
	name, ok := formValue(&req.RawBody, "name")
	if !ok || name == "" {
		return nil, huma.Error400BadRequest("Name required in Form")
	}

	files := req.RawBody.File["file"]
	if len(files) == 0 {
		return nil, huma.Error400BadRequest("File required in Form")
	}

	f, err := files[0].Open()
	if err != nil {
		return nil, huma.Error400BadRequest("File required in Form", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, huma.Error400BadRequest("File required in Form", err)
	}

	ext, _ := formValue(&req.RawBody, "ext")

	ctx = cdn.WithSource(ctx, analytics.SourceAPI)
	if _, err := h.commands.CreateFile(ctx, name, data, ext); err != nil {
		return nil, h.fail(ctx, "create_file", name, err)
	}

	return nil, nil
}

func (h *EntryHandler) CreateURL(ctx context.Context, req *CreateURLRequest) (*struct{}, error) {
	if req.Body.Name == "" || req.Body.URL == "" {
		return nil, huma.Error400BadRequest("Bad Request")
	}

	ctx = cdn.WithSource(ctx, analytics.SourceAPI)
	if _, err := h.commands.CreateURL(ctx, req.Body.Name, req.Body.URL); err != nil {
		return nil, h.fail(ctx, "create_url", req.Body.Name, err)
	}

	return nil, nil
}

func (h *EntryHandler) GetEntry(ctx context.Context, req *EntryRequest) (*EntryResponse, error) {
	e, err := h.commands.Inspect(ctx, req.Name)
	if err != nil {
		return nil, h.fail(ctx, "get_entry", req.Name, err)
	}

	return &EntryResponse{Body: newEntryBody(e)}, nil
}

func (h *EntryHandler) DeleteEntry(ctx context.Context, req *EntryRequest) (*struct{}, error) {
	ctx = cdn.WithSource(ctx, analytics.SourceAPI)
	if err := h.commands.Remove(ctx, req.Name); err != nil {
		return nil, h.fail(ctx, "delete_entry", req.Name, err)
	}

	return nil, nil
}
