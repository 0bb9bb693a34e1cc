// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package upload implements out-of-band file attachment: it negotiates an
// HTTP upload slot with the service, uploads the bytes with a PUT request,
// and builds the chat message carrying the resulting file descriptor.
package upload // import "mellium.im/converse/upload"

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"mellium.im/converse"
	"mellium.im/converse/frame"
	"mellium.im/converse/stanza"
)

// Errors returned by upload operations.
var (
	// ErrFileTooLarge is returned before any network activity when the
	// file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("upload: file too large")

	// ErrInvalidType is returned when the file's content type is not in
	// the configured allow list.
	ErrInvalidType = errors.New("upload: content type not allowed")

	// ErrUploadFailed is returned when the HTTP PUT was rejected.
	ErrUploadFailed = errors.New("upload: put failed")
)

// File describes a file to be uploaded.
type File struct {
	Name string
	Size uint64
	Type string
}

// Frame renders the slot request element for the file.
func (f File) Frame() *frame.Frame {
	return frame.New(xml.Name{Space: stanza.NSUpload, Local: "request"}).
		WithAttr("filename", f.Name).
		WithAttr("size", strconv.FormatUint(f.Size, 10)).
		WithAttr("content-type", f.Type)
}

// Slot is a place where a file can be uploaded and later retrieved.
type Slot struct {
	PutURL string
	GetURL string

	// Header holds headers the service requires on the put request.
	// Only Authorization, Cookie and Expires are honored; anything else
	// a server asks for is dropped.
	Header http.Header
}

func allowedHeader(name string) bool {
	return name == "Authorization" || name == "Cookie" || name == "Expires"
}

// Limits bound what may be uploaded. The zero value applies no bounds.
type Limits struct {
	// MaxSize is the largest file size accepted, in bytes.
	MaxSize uint64

	// Types is an allow list of content types. Empty means any type.
	Types []string
}

func (l Limits) check(f File) error {
	if l.MaxSize > 0 && f.Size > l.MaxSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, f.Size, l.MaxSize)
	}
	if len(l.Types) > 0 {
		ok := false
		for _, t := range l.Types {
			if t == f.Type {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidType, f.Type)
		}
	}
	return nil
}

// GetSlot requests an upload slot for the file from the upload service of
// the client's domain.
func GetSlot(ctx context.Context, c *converse.Client, f File) (Slot, error) {
	return GetSlotLimit(ctx, c, f, Limits{})
}

// GetSlotLimit is like GetSlot but enforces the provided bounds before any
// network activity happens.
func GetSlotLimit(ctx context.Context, c *converse.Client, f File, l Limits) (Slot, error) {
	if err := l.check(f); err != nil {
		return Slot{}, err
	}
	to := "upload." + c.Config().Domain
	resp, err := c.SendQuery(ctx, stanza.IQ(stanza.GetIQ, to, "", f.Frame()))
	if err != nil {
		return Slot{}, err
	}
	return parseSlot(resp)
}

func parseSlot(resp *frame.Frame) (Slot, error) {
	sl := resp.ChildNS(xml.Name{Space: stanza.NSUpload, Local: "slot"})
	if sl == nil {
		return Slot{}, errors.New("upload: response carries no slot")
	}
	put := sl.Child("put")
	get := sl.Child("get")
	if put == nil || get == nil || put.Attr("url") == "" || get.Attr("url") == "" {
		return Slot{}, errors.New("upload: slot is missing its put or get URL")
	}
	out := Slot{PutURL: put.Attr("url"), GetURL: get.Attr("url")}
	for _, h := range put.All("header") {
		name := http.CanonicalHeaderKey(h.Attr("name"))
		if !allowedHeader(name) {
			continue
		}
		if out.Header == nil {
			out.Header = make(http.Header)
		}
		out.Header.Add(name, h.Text)
	}
	return out, nil
}

// Put uploads the file's bytes to the slot using the provided HTTP client,
// or http.DefaultClient if it is nil. It blocks until the PUT completes.
func (s Slot) Put(ctx context.Context, hc *http.Client, body io.Reader, size uint64) error {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.PutURL, body)
	if err != nil {
		return err
	}
	for name, vals := range s.Header {
		if allowedHeader(http.CanonicalHeaderKey(name)) {
			req.Header[name] = vals
		}
	}
	req.ContentLength = int64(size)
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrUploadFailed, resp.Status)
	}
	return nil
}

// Send uploads the file's bytes and then sends a chat message to the
// recipient carrying the file descriptor with the slot's retrieval URL.
// The message frame that was sent is returned so the caller can track its
// id.
func Send(ctx context.Context, c *converse.Client, hc *http.Client, to, body string, f File, r io.Reader) (*frame.Frame, error) {
	slot, err := GetSlot(ctx, c, f)
	if err != nil {
		return nil, err
	}
	if err := slot.Put(ctx, hc, r, f.Size); err != nil {
		return nil, err
	}
	msg := stanza.Attachment(to, body, stanza.File{
		URL:  slot.GetURL,
		Name: f.Name,
		Size: f.Size,
		Type: f.Type,
	}, stanza.ChatOptions{})
	if err := c.Send(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
