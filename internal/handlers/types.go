package handlers

import (
	"mime/multipart"
	"time"

	"github.com/serroba/namecdn/internal/entry"
)

// EntryBody is the JSON representation of an entry.
type EntryBody struct {
	Name    string    `doc:"Entry name"                        example:"pic"                 json:"name"`
	Kind    string    `doc:"URL or File"                       enum:"URL,File"               json:"kind"`
	URL     string    `doc:"Redirect target for URL entries"   example:"https://example.com" json:"url,omitempty"`
	Ext     string    `doc:"Extension for File entries"        example:"png"                 json:"ext,omitempty"`
	Created time.Time `doc:"When the entry was created"        json:"created"`
}

func newEntryBody(e *entry.Entry) EntryBody {
	return EntryBody{
		Name:    e.Name,
		Kind:    e.Kind.String(),
		URL:     e.URL,
		Ext:     e.Ext,
		Created: e.Created,
	}
}

// CreateFileRequest is a multipart upload with fields name, file and ext.
type CreateFileRequest struct {
	RawBody multipart.Form
}

// CreateURLRequest registers a redirect.
type CreateURLRequest struct {
	Body struct {
		Name string `doc:"Entry name"      example:"home"                json:"name" required:"false"`
		URL  string `doc:"Redirect target" example:"https://example.com" json:"url"  required:"false"`
	}
}

// EntryRequest addresses a single entry.
type EntryRequest struct {
	Name string `doc:"Entry name" example:"pic" path:"name"`
}

// EntryResponse wraps an entry.
type EntryResponse struct {
	Body EntryBody
}

// ResolveRequest is a public fetch of a name.
type ResolveRequest struct {
	Name        string `doc:"Entry name"                            path:"name"`
	Image       string `doc:"Set to 1 to always get the raw bytes"  query:"image"`
	Discord     string `doc:"Set to 1 to force the preview card"     query:"discord"`
	UserAgent   string `header:"User-Agent"`
	IfNoneMatch string `header:"If-None-Match"`
}

// ResolveResponse carries whichever shape the resolution produced.
type ResolveResponse struct {
	Status      int
	Location    string `header:"Location"`
	ContentType string `header:"Content-Type"`
	ETag        string `header:"ETag"`
	Body        []byte
}

// RootResponse redirects the bare domain.
type RootResponse struct {
	Status   int
	Location string `header:"Location"`
}
